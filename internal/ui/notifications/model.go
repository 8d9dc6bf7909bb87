package notifications

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/workforge/forgedesk/internal/keys"
	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/theme"
)

// MarkReadMsg asks the app to mark one notification read.
type MarkReadMsg struct {
	ID string
}

// MarkAllMsg asks the app to mark every listed notification read.
type MarkAllMsg struct {
	Items []model.Notification
}

// ClearReadMsg asks the app to drop all read entries.
type ClearReadMsg struct{}

// ReplyMsg asks the app to open the conversation behind a message
// notification.
type ReplyMsg struct {
	MessageID string
}

// Model is the notification feed view.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	items  []model.Notification
	unread int
	width  int
	height int
}

// New creates a new notification feed view.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle
	l.SetStatusBarItemName("notification", "notifications")

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetItems replaces the feed. The cursor stays on the same entry when it
// is still present.
func (m *Model) SetItems(items []model.Notification, unread int) tea.Cmd {
	var selectedID string
	if n, ok := m.Selected(); ok {
		selectedID = n.ID
	}

	m.items = items
	m.unread = unread
	m.list.Title = fmt.Sprintf("Notifications (%d unread)", unread)

	listItems := make([]list.Item, len(items))
	target := 0
	for i, n := range items {
		listItems[i] = Item{Notification: n}
		if n.ID == selectedID {
			target = i
		}
	}
	cmd := m.list.SetItems(listItems)
	m.list.Select(target)
	return cmd
}

// Items returns the current feed.
func (m Model) Items() []model.Notification {
	return m.items
}

// Selected returns the notification under the cursor.
func (m Model) Selected() (model.Notification, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return model.Notification{}, false
	}
	return it.Notification, true
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the feed view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.MarkRead):
			n, ok := m.Selected()
			if !ok || n.Read {
				return m, nil
			}
			return m, func() tea.Msg { return MarkReadMsg{ID: n.ID} }

		case key.Matches(msg, m.keys.MarkAll):
			if m.unread == 0 {
				return m, nil
			}
			items := append([]model.Notification(nil), m.items...)
			return m, func() tea.Msg { return MarkAllMsg{Items: items} }

		case key.Matches(msg, m.keys.ClearRead):
			return m, func() tea.Msg { return ClearReadMsg{} }

		case key.Matches(msg, m.keys.Reply):
			n, ok := m.Selected()
			if !ok || n.SourceRef == "" {
				return m, nil
			}
			return m, func() tea.Msg { return ReplyMsg{MessageID: n.SourceRef} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the feed.
func (m Model) View() string {
	return m.list.View()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
