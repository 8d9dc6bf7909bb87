package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/workforge/forgedesk/internal/keys"
	"github.com/workforge/forgedesk/internal/theme"
	"github.com/workforge/forgedesk/internal/ui/command"
)

// section is one titled group of bindings.
type section struct {
	title    string
	bindings []key.Binding
}

// Model is the help overlay.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a help overlay for k.
func New(k *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{keys: k, help: h, width: width, height: height}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

func (m Model) sections() []section {
	k := m.keys
	return []section{
		{"Feed", []key.Binding{k.Select, k.MarkRead, k.MarkAll, k.ClearRead, k.Reply}},
		{"Messages", []key.Binding{k.SwitchPane, k.Compose, k.Select, k.Back}},
		{"Announcements", []key.Binding{k.MarkRead, k.MarkAll}},
		{"Anywhere", []key.Binding{
			k.ViewNotifications, k.ViewMessages, k.ViewAnnouncements,
			k.Refresh, k.Login, k.Command, k.Help, k.Quit,
		}},
	}
}

// View renders the bindings per view, the palette commands and the
// marker legend.
func (m Model) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)

	m.help.Width = m.width - 4
	var cols []string
	for _, s := range m.sections() {
		cols = append(cols, lipgloss.JoinVertical(lipgloss.Left,
			title.Render(s.title),
			m.help.FullHelpView([][]key.Binding{s.bindings}),
		))
	}
	grid := lipgloss.JoinHorizontal(lipgloss.Top, spaced(cols)...)

	legend := theme.UnreadMarkerStyle.Render("●") + " unread   " +
		theme.DimmedStyle.Render("dimmed") + " read   " +
		theme.HelpStyle.Render("header badge counts unread feed entries")

	commands := theme.HelpStyle.Render(":" + strings.Join(command.Commands, "  :"))

	content := lipgloss.JoinVertical(lipgloss.Left,
		title.Render("Keyboard Shortcuts"), "",
		grid, "",
		title.Render("Commands"), commands, "",
		legend,
	)

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(content)
}

func spaced(cols []string) []string {
	out := make([]string, 0, len(cols)*2)
	for i, c := range cols {
		if i > 0 {
			out = append(out, "    ")
		}
		out = append(out, c)
	}
	return out
}

// SetSize updates the overlay dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
