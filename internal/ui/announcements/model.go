package announcements

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/workforge/forgedesk/internal/feed"
	"github.com/workforge/forgedesk/internal/keys"
	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/theme"
)

// MarkReadMsg asks the app to mark one announcement read.
type MarkReadMsg struct {
	ID string
}

// MarkAllMsg asks the app to mark every listed announcement read.
type MarkAllMsg struct {
	IDs []string
}

// Model is the announcement board: a list of titles over the body of the
// selected entry.
type Model struct {
	keys   *keys.KeyMap
	items  []feed.AnnouncementView
	cursor int
	width  int
	height int
}

// New creates a new announcement board view.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{keys: k, width: width, height: height}
}

// SetItems replaces the board, keeping the cursor on the same entry.
func (m *Model) SetItems(items []feed.AnnouncementView) {
	var current string
	if m.cursor < len(m.items) {
		current = m.items[m.cursor].ID
	}
	m.items = items
	m.cursor = 0
	for i, a := range items {
		if a.ID == current {
			m.cursor = i
			break
		}
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the board.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.MarkRead), key.Matches(keyMsg, m.keys.Select):
		if m.cursor < len(m.items) && !m.items[m.cursor].Read {
			id := m.items[m.cursor].ID
			return m, func() tea.Msg { return MarkReadMsg{ID: id} }
		}
	case key.Matches(keyMsg, m.keys.MarkAll):
		var ids []string
		for _, a := range m.items {
			if !a.Read {
				ids = append(ids, a.ID)
			}
		}
		if len(ids) > 0 {
			return m, func() tea.Msg { return MarkAllMsg{IDs: ids} }
		}
	}
	return m, nil
}

// View renders the board.
func (m Model) View() string {
	title := theme.HeaderStyle.Render(
		fmt.Sprintf("Announcements (%d unread)", feed.UnreadAnnouncements(m.items)),
	)
	if len(m.items) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, "",
			theme.HelpStyle.Render("  Nothing on the board."))
	}

	listHeight := m.height / 2
	var b strings.Builder
	start := 0
	if m.cursor >= listHeight && listHeight > 0 {
		start = m.cursor - listHeight + 1
	}
	for i := start; i < len(m.items) && i < start+listHeight; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, "", b.String(), m.renderBody())
}

func (m Model) renderRow(i int) string {
	a := m.items[i]
	marker := " "
	if !a.Read {
		marker = theme.UnreadMarkerStyle.Render("●")
	}
	priority := ""
	if a.Priority != "" {
		priority = theme.PriorityStyle(a.Priority).Render(strings.ToUpper(a.Priority)) + " "
	}
	text := a.Title
	if a.Read {
		text = theme.DimmedStyle.Render(text)
	}
	line := fmt.Sprintf("%s %s%s  %s", marker, priority, text,
		theme.TimeStyle.Render(model.FormatDisplayTime(a.CreatedAt)))

	if i == m.cursor {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func (m Model) renderBody() string {
	if m.cursor >= len(m.items) {
		return ""
	}
	a := m.items[m.cursor]
	byline := a.Author
	if byline == "" {
		byline = model.UnknownUserName
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render(a.Title),
		theme.TimeStyle.Render("by "+byline),
		"",
		a.Content,
	)
	return theme.DetailPanelStyle.
		Width(max(m.width-4, 0)).
		Render(body)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
