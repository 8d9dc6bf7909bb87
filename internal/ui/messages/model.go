package messages

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/workforge/forgedesk/internal/keys"
	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/theme"
	"github.com/workforge/forgedesk/internal/thread"
	"github.com/workforge/forgedesk/internal/ui"
)

// SendMsg asks the app to post a message.
type SendMsg struct {
	RecipientID string
	Content     string
}

type pane int

const (
	paneThreads pane = iota
	paneConversation
)

// Model is the two-pane messaging view: threads on the left, the
// selected conversation on the right.
type Model struct {
	keys      *keys.KeyMap
	threads   []model.Thread
	selfID    string
	cursor    int
	focus     pane
	composer  textinput.Model
	composing bool
	viewport  viewport.Model
	width     int
	height    int
}

// New creates a new messaging view.
func New(k *keys.KeyMap, width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "write a message..."
	ti.Prompt = "> "
	ti.CharLimit = 2000

	m := Model{
		keys:     k,
		composer: ti,
		viewport: viewport.New(0, 0),
	}
	m.SetSize(width, height)
	return m
}

// SetThreads replaces the thread list, keeping the selected counterpart.
func (m *Model) SetThreads(threads []model.Thread, selfID string) {
	current := m.SelectedCounterpart()

	m.threads = threads
	m.selfID = selfID
	m.cursor = 0
	if current != "" {
		if i := thread.Find(threads, current); i >= 0 {
			m.cursor = i
		}
	}
	m.refreshConversation()
}

// SelectedCounterpart returns the counterpart ID of the selected thread.
func (m Model) SelectedCounterpart() string {
	if m.cursor < 0 || m.cursor >= len(m.threads) {
		return ""
	}
	return m.threads[m.cursor].CounterpartID
}

// Open selects the thread with counterpartID and starts composing.
// It reports false when no such thread exists.
func (m *Model) Open(counterpartID string) (tea.Cmd, bool) {
	i := thread.Find(m.threads, counterpartID)
	if i < 0 {
		return nil, false
	}
	m.cursor = i
	m.refreshConversation()
	return m.startCompose(), true
}

// Composing reports whether the text input owns the keyboard.
func (m Model) Composing() bool {
	return m.composing
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the messaging view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		if m.composing {
			m.composer, cmd = m.composer.Update(msg)
		}
		return m, cmd
	}

	if m.composing {
		return m.handleComposeKeys(keyMsg)
	}

	switch {
	case key.Matches(keyMsg, m.keys.SwitchPane):
		if m.focus == paneThreads {
			m.focus = paneConversation
		} else {
			m.focus = paneThreads
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Compose), key.Matches(keyMsg, m.keys.Reply):
		if m.SelectedCounterpart() == "" {
			return m, nil
		}
		return m, m.startCompose()

	case key.Matches(keyMsg, m.keys.Select):
		if m.focus == paneThreads {
			m.focus = paneConversation
		}
		return m, nil
	}

	if m.focus == paneConversation {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(keyMsg)
		return m, cmd
	}

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.threads)-1 {
			m.cursor++
			m.refreshConversation()
		}
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.refreshConversation()
		}
	}
	return m, nil
}

func (m Model) handleComposeKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.composing = false
		m.composer.Blur()
		return m, nil

	case "enter":
		content := strings.TrimSpace(m.composer.Value())
		recipient := m.SelectedCounterpart()
		if content == "" || recipient == "" {
			return m, nil
		}
		m.composer.Reset()
		m.composing = false
		m.composer.Blur()
		return m, func() tea.Msg {
			return SendMsg{RecipientID: recipient, Content: content}
		}
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

func (m *Model) startCompose() tea.Cmd {
	m.composing = true
	m.focus = paneConversation
	return m.composer.Focus()
}

// View renders both panes.
func (m Model) View() string {
	leftWidth, rightWidth := ui.SplitWidths(m.width, 24)

	leftStyle, rightStyle := theme.BorderStyle, theme.BorderStyle
	if m.focus == paneThreads && !m.composing {
		leftStyle = theme.FocusedBorderStyle
	} else {
		rightStyle = theme.FocusedBorderStyle
	}

	left := leftStyle.
		Width(max(leftWidth-2, 0)).
		Height(max(m.height-2, 0)).
		Render(m.renderThreads(leftWidth - 2))

	conversation := m.viewport.View()
	footer := theme.HelpStyle.Render("i compose · tab switch pane")
	if m.composing {
		footer = m.composer.View()
	}
	right := rightStyle.
		Width(max(rightWidth-2, 0)).
		Height(max(m.height-2, 0)).
		Render(lipgloss.JoinVertical(lipgloss.Left, m.renderTitle(), conversation, footer))

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) renderThreads(width int) string {
	if len(m.threads) == 0 {
		return theme.HelpStyle.Render("No conversations yet.")
	}

	var b strings.Builder
	for i, t := range m.threads {
		name := t.Counterpart.Name
		if unread := t.Unread(m.selfID); unread > 0 {
			name = fmt.Sprintf("%s %s", name, theme.UnreadMarkerStyle.Render(fmt.Sprintf("(%d)", unread)))
		}

		preview := "no messages"
		if last, ok := t.LastMessage(); ok {
			preview = last.Content
		}
		preview = theme.DimmedStyle.Render(clip(preview, width-4))

		line := lipgloss.JoinVertical(lipgloss.Left, name, preview)
		if i == m.cursor {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderTitle() string {
	if m.cursor >= len(m.threads) {
		return ""
	}
	cp := m.threads[m.cursor].Counterpart
	title := cp.Name
	if cp.Role != "" {
		title += " · " + cp.Role
	}
	return lipgloss.NewStyle().Bold(true).Render(title)
}

// refreshConversation re-renders the selected thread into the viewport
// and scrolls to the newest message.
func (m *Model) refreshConversation() {
	if m.cursor >= len(m.threads) {
		m.viewport.SetContent("")
		return
	}

	t := m.threads[m.cursor]
	if len(t.Messages) == 0 {
		m.viewport.SetContent(theme.HelpStyle.Render("Start the conversation with i."))
		return
	}

	var b strings.Builder
	for _, msg := range t.Messages {
		who := t.Counterpart.Name
		style := theme.OtherMessageStyle
		if msg.SenderID == m.selfID {
			who = model.SelfDisplayName
			style = theme.OwnMessageStyle
		}
		header := fmt.Sprintf("%s  %s", who, theme.TimeStyle.Render(model.FormatDisplayTime(msg.Timestamp)))
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(header))
		b.WriteString("\n")
		b.WriteString(style.Width(max(m.viewport.Width-2, 1)).Render(msg.Content))
		b.WriteString("\n\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	_, right := ui.SplitWidths(width, 24)
	m.viewport.Width = max(right-4, 0)
	m.viewport.Height = max(height-5, 0)
	m.composer.Width = max(right-8, 10)
	m.refreshConversation()
}

func clip(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
