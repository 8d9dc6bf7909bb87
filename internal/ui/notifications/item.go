package notifications

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/theme"
)

// Item wraps a model.Notification so it can be used in a bubbles/list.
type Item struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Notification.Message }

// ItemDelegate renders one notification per line.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages.
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	n := it.Notification

	marker := " "
	if !n.Read {
		marker = theme.UnreadMarkerStyle.Render("●")
	}

	label := theme.TypeStyle(string(n.Type)).Render(typeLabel(n.Type))
	when := theme.TimeStyle.Render(n.Time)

	text := n.Message
	maxText := m.Width() - lipgloss.Width(label) - lipgloss.Width(when) - 8
	if maxText > 3 && lipgloss.Width(text) > maxText {
		text = truncate(text, maxText)
	}
	if n.Read {
		text = theme.DimmedStyle.Render(text)
	}

	line := fmt.Sprintf("%s %s %s  %s", marker, label, text, when)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

func typeLabel(t model.NotificationType) string {
	return strings.ToUpper(string(t))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
