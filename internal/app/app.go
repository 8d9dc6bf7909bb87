package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/workforge/forgedesk/internal/keys"
	"github.com/workforge/forgedesk/internal/logging"
	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/session"
	appsync "github.com/workforge/forgedesk/internal/sync"
	"github.com/workforge/forgedesk/internal/ui"
	announcementsview "github.com/workforge/forgedesk/internal/ui/announcements"
	"github.com/workforge/forgedesk/internal/ui/command"
	configview "github.com/workforge/forgedesk/internal/ui/config"
	helpview "github.com/workforge/forgedesk/internal/ui/help"
	messagesview "github.com/workforge/forgedesk/internal/ui/messages"
	"github.com/workforge/forgedesk/internal/ui/notifications"
)

// mutationTimeout bounds one read-state or send round trip.
const mutationTimeout = 30 * time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewNotifications ViewState = iota
	ViewMessages
	ViewAnnouncements
	ViewConfig
	ViewHelp
	ViewCommand
)

// loadedMsg carries a fresh read of the cache.
type loadedMsg struct {
	view *session.View
	err  error
}

// mutationResultMsg reports the outcome of a read-state mutation.
type mutationResultMsg struct {
	action string
	err    error
}

// sentMsg reports the outcome of sending a message.
type sentMsg struct {
	reply model.Notification
	err   error
}

// Model is the root Bubble Tea model that manages view routing, layout
// and the signed-in session.
type Model struct {
	cfg     *model.AppConfig
	cfgPath string
	opts    session.Options
	sess    *session.Session

	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	notifications notifications.Model
	messages      messagesview.Model
	announcements announcementsview.Model
	helpView      helpview.Model
	commandView   command.Model
	configView    configview.Model

	data    *session.View
	replies []model.Notification

	initCmd          tea.Cmd
	ready            bool
	status           string
	statusIsError    bool
	authErrorMessage string
}

// New creates the root model. When sess is nil the sign-in form is shown
// first and a session is opened once it succeeds.
func New(cfg *model.AppConfig, cfgPath string, sess *session.Session, opts session.Options) Model {
	k := keys.DefaultKeyMap()

	m := Model{
		cfg:           cfg,
		cfgPath:       cfgPath,
		opts:          opts,
		sess:          sess,
		currentView:   ViewNotifications,
		previousView:  ViewNotifications,
		keys:          k,
		notifications: notifications.New(k, 80, 22),
		messages:      messagesview.New(k, 80, 22),
		announcements: announcementsview.New(k, 80, 22),
		helpView:      helpview.New(k, 80, 22),
		commandView:   command.New(80, 22),
		configView:    configview.New(cfg, cfgPath, k, 80, 22),
	}

	if sess == nil {
		m.currentView = ViewConfig
		m.initCmd = m.configView.Init()
	}
	return m
}

// Init loads the cache and starts polling, or shows the sign-in form.
func (m Model) Init() tea.Cmd {
	if m.sess == nil {
		return m.initCmd
	}
	return tea.Batch(m.reload(), m.sess.Poller.Start())
}

// Session returns the active session, if any.
func (m Model) Session() *session.Session {
	return m.sess
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.notifications.SetSize(w, h)
		m.messages.SetSize(w, h)
		m.announcements.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.configView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.SyncResultMsg:
		switch {
		case msg.AuthError != nil:
			m.authErrorMessage = msg.AuthError.Message
		case msg.Error == nil:
			m.authErrorMessage = ""
		}
		if msg.NewMessages > 0 {
			m.setStatus(fmt.Sprintf("%d new message(s)", msg.NewMessages), false)
		}
		return m, tea.Batch(m.reload(), m.waitForSync())

	case loadedMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			return m, nil
		}
		m.applyView(msg.view)
		return m, nil

	case mutationResultMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("%s failed: %v", msg.action, msg.err), true)
		} else {
			m.setStatus(msg.action+" done", false)
		}
		return m, m.reload()

	case sentMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("send failed: %v", msg.err), true)
			return m, nil
		}
		m.replies = append(m.replies, msg.reply)
		m.setStatus("message sent", false)
		return m, m.reload()

	case sessionOpenedMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			m.currentView = ViewConfig
			return m, m.configView.Init()
		}
		m.sess = msg.sess
		m.replies = nil
		m.currentView = ViewNotifications
		return m, tea.Batch(m.reload(), m.sess.Poller.Start())

	case configview.LoggedInMsg:
		m.setStatus(msg.Greeting, false)
		if m.sess != nil {
			if err := m.sess.Close(); err != nil {
				logging.WithComponent("app").WithError(err).Warn("closing previous session")
			}
			m.sess = nil
		}
		return m, m.openSession()

	case loggedOutMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("sign out failed: %v", msg.err), true)
			return m, nil
		}
		if m.sess != nil {
			if err := m.sess.Close(); err != nil {
				logging.WithComponent("app").WithError(err).Warn("closing session")
			}
			m.sess = nil
		}
		m.data = nil
		m.replies = nil
		m.authErrorMessage = ""
		m.setStatus("signed out", false)
		m.currentView = ViewConfig
		m.previousView = ViewNotifications
		return m, m.configView.Init()

	case configview.ConfigDoneMsg:
		if m.sess == nil {
			return m, tea.Quit
		}
		m.currentView = m.previousView
		return m, nil

	case notifications.MarkReadMsg:
		id := msg.ID
		return m, m.mutate("mark read", func(ctx context.Context) error {
			return m.sess.Feed.MarkAsRead(ctx, id)
		})

	case notifications.MarkAllMsg:
		items := msg.Items
		return m, m.mutate("mark all read", func(ctx context.Context) error {
			return m.sess.Feed.MarkAllAsRead(ctx, items)
		})

	case notifications.ClearReadMsg:
		return m, m.mutate("clear read", func(ctx context.Context) error {
			return m.sess.Feed.ClearRead(ctx)
		})

	case notifications.ReplyMsg:
		return m.openReply(msg.MessageID)

	case announcementsview.MarkReadMsg:
		id := msg.ID
		return m, m.mutate("mark announcement read", func(ctx context.Context) error {
			return m.sess.Feed.MarkAnnouncementRead(ctx, id)
		})

	case announcementsview.MarkAllMsg:
		ids := msg.IDs
		return m, m.mutate("mark announcements read", func(ctx context.Context) error {
			return m.sess.Feed.MarkAllAnnouncementsRead(ctx, ids)
		})

	case messagesview.SendMsg:
		return m, m.send(msg.RecipientID, msg.Content)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.capturesKeys() {
			break
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit

		case "?":
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.switchTo(ViewHelp)
			return m, nil

		case ":":
			m.switchTo(ViewCommand)
			return m, m.commandView.Focus()

		case "esc":
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}

		case "c":
			m.switchTo(ViewConfig)
			return m, m.configView.Init()

		case "r":
			m.refresh()
			return m, nil

		case "1":
			m.currentView = ViewNotifications
			return m, nil

		case "2":
			m.currentView = ViewMessages
			return m, nil

		case "3":
			m.currentView = ViewAnnouncements
			return m, nil
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// capturesKeys reports whether the active view consumes plain keys, so
// global shortcuts must not fire.
func (m Model) capturesKeys() bool {
	switch m.currentView {
	case ViewConfig, ViewCommand:
		return true
	case ViewMessages:
		return m.messages.Composing()
	}
	return m.sess == nil
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewNotifications:
		m.notifications, cmd = m.notifications.Update(msg)
	case ViewMessages:
		m.messages, cmd = m.messages.Update(msg)
	case ViewAnnouncements:
		m.announcements, cmd = m.announcements.Update(msg)
	case ViewConfig:
		m.configView, cmd = m.configView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

func (m *Model) switchTo(v ViewState) {
	if m.currentView != v {
		m.previousView = m.currentView
	}
	m.currentView = v
}

func (m *Model) setStatus(text string, isError bool) {
	m.status = text
	m.statusIsError = isError
	if isError {
		logging.WithComponent("app").Warn(text)
	}
}

func (m *Model) refresh() {
	if m.sess != nil {
		m.sess.Poller.Refresh()
	}
}

func (m *Model) applyView(v *session.View) {
	m.data = v
	m.notifications.SetItems(v.Feed.Notifications, v.Feed.UnreadCount)
	m.messages.SetThreads(v.Threads, m.sess.Self.ID)
	m.announcements.SetItems(v.Announcements)
}

// openReply jumps to the conversation containing messageID.
func (m Model) openReply(messageID string) (tea.Model, tea.Cmd) {
	if m.data == nil {
		return m, nil
	}
	for _, t := range m.data.Threads {
		for _, msg := range t.Messages {
			if msg.ID != messageID {
				continue
			}
			m.currentView = ViewMessages
			cmd, _ := m.messages.Open(t.CounterpartID)
			return m, cmd
		}
	}
	m.setStatus("conversation not found", true)
	return m, nil
}

// reload returns a command that reads the cache into a loadedMsg.
func (m Model) reload() tea.Cmd {
	sess := m.sess
	if sess == nil {
		return nil
	}
	replies := append([]model.Notification(nil), m.replies...)

	return func() tea.Msg {
		v, err := sess.Load(context.Background(), replies)
		return loadedMsg{view: v, err: err}
	}
}

func (m Model) waitForSync() tea.Cmd {
	if m.sess == nil {
		return nil
	}
	return m.sess.Poller.WaitForNextResult()
}

// mutate runs fn as a command and reports the outcome.
func (m Model) mutate(action string, fn func(ctx context.Context) error) tea.Cmd {
	if m.sess == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		return mutationResultMsg{action: action, err: fn(ctx)}
	}
}

func (m Model) send(recipientID, content string) tea.Cmd {
	sess := m.sess
	if sess == nil {
		return nil
	}
	var roster []model.Employee
	if m.data != nil {
		roster = m.data.Roster
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		reply, err := sess.Send(ctx, recipientID, content, roster)
		return sentMsg{reply: reply, err: err}
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.syncStatus())
	content := m.renderContent()

	hints, isError := m.statusLine()
	statusBar := m.layout.RenderStatusBar(hints, isError)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

func (m Model) headerTitle() string {
	title := "Work Forge"
	if m.data != nil && m.data.Feed.UnreadCount > 0 {
		title = fmt.Sprintf("Work Forge [%d new]", m.data.Feed.UnreadCount)
	}
	if m.sess != nil && m.sess.Self.Name != "" {
		title += " · " + m.sess.Self.Name
	}
	return title
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewNotifications:
		return m.notifications.View()
	case ViewMessages:
		return m.messages.View()
	case ViewAnnouncements:
		return m.announcements.View()
	case ViewConfig:
		return m.configView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the poller state.
func (m Model) syncStatus() string {
	if m.sess == nil {
		return "signed out"
	}

	st := m.sess.Poller.Status()
	switch st.State {
	case appsync.SyncRunning:
		return "syncing"
	case appsync.SyncError:
		return "⚠ offline, showing cached data"
	}
	if st.LastSync.IsZero() {
		return "idle"
	}
	return "synced " + st.LastSync.Format("15:04")
}

// statusLine returns the status bar text and whether it is an error.
func (m Model) statusLine() (string, bool) {
	if m.status != "" && m.statusIsError {
		return m.status, true
	}
	if m.authErrorMessage != "" && m.currentView != ViewConfig {
		return m.authErrorMessage, true
	}

	hints := m.keyHints()
	if m.status != "" {
		hints = m.status + " | " + hints
	}
	return hints, false
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewConfig:
		return "enter next | esc cancel"
	case ViewMessages:
		if m.messages.Composing() {
			return "enter send | esc cancel"
		}
		return "tab switch pane | i compose | 1 feed | 3 board | ? help"
	case ViewAnnouncements:
		return "m mark read | M mark all | 1 feed | 2 messages | ? help"
	default:
		return "enter/m read | M all | C clear | R reply | 2 messages | 3 board | ? help"
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case "refresh", "sync":
		m.refresh()
		return nil
	case "feed", "notifications":
		m.currentView = ViewNotifications
		return nil
	case "messages", "threads":
		m.currentView = ViewMessages
		return nil
	case "announcements", "board":
		m.currentView = ViewAnnouncements
		return nil
	case "mark all", "mark all read":
		if m.data == nil {
			return nil
		}
		items := append([]model.Notification(nil), m.data.Feed.Notifications...)
		return m.mutate("mark all read", func(ctx context.Context) error {
			return m.sess.Feed.MarkAllAsRead(ctx, items)
		})
	case "clear read", "clear":
		return m.mutate("clear read", func(ctx context.Context) error {
			return m.sess.Feed.ClearRead(ctx)
		})
	case "login", "config", "configure":
		m.switchTo(ViewConfig)
		return m.configView.Init()
	case "logout", "sign out":
		return m.logout()
	case "quit", "q":
		return tea.Quit
	default:
		m.setStatus(fmt.Sprintf("unknown command %q", cmd), true)
		return nil
	}
}
