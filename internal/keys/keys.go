package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Views
	ViewNotifications key.Binding
	ViewMessages      key.Binding
	ViewAnnouncements key.Binding
	Login             key.Binding

	// Read state
	MarkRead  key.Binding
	MarkAll   key.Binding
	ClearRead key.Binding

	// Messaging
	Reply      key.Binding
	Compose    key.Binding
	SwitchPane key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open / mark read"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		ViewNotifications: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "notifications"),
		),
		ViewMessages: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "messages"),
		),
		ViewAnnouncements: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "announcements"),
		),
		Login: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "sign in / configure"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read"),
		),
		MarkAll: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "mark all read"),
		),
		ClearRead: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear read"),
		),
		Reply: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reply"),
		),
		Compose: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "compose"),
		),
		SwitchPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Command,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Command, k.Help, k.Refresh, k.Login},
		{k.ViewNotifications, k.ViewMessages, k.ViewAnnouncements},
		{k.MarkRead, k.MarkAll, k.ClearRead},
		{k.Reply, k.Compose, k.SwitchPane},
	}
}
