package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the task board.
type KeyMap struct {
	// Exercise shell.
	Start key.Binding
	Reset key.Binding

	// List.
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Edit   key.Binding
	Delete key.Binding
	Search key.Binding

	// View controls.
	CyclePriority   key.Binding
	CycleCompletion key.Binding
	CycleSort       key.Binding

	// Form.
	Add       key.Binding
	Submit    key.Binding
	Cancel    key.Binding
	NextField key.Binding
	PrevField key.Binding
	Left      key.Binding
	Right     key.Binding

	// Delete confirmation.
	Confirm key.Binding
	Deny    key.Binding

	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap mirrors the browser shortcuts (ctrl+o, ctrl+s, esc,
// ctrl+r, ctrl+f) and adds vim-style list navigation.
var DefaultKeyMap = KeyMap{
	Start: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "start"),
	),
	Reset: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "reset"),
	),
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "space"),
		key.WithHelp("space", "toggle"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Search: key.NewBinding(
		key.WithKeys("ctrl+f", "/"),
		key.WithHelp("ctrl+f", "search"),
	),
	CyclePriority: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "priority"),
	),
	CycleCompletion: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "status"),
	),
	CycleSort: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sort"),
	),
	Add: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("ctrl+o", "add"),
	),
	Submit: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "save"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	NextField: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "next field"),
	),
	PrevField: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("shift+tab", "previous field"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/→", "priority"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "confirm"),
	),
	Deny: key.NewBinding(
		key.WithKeys("n", "N", "esc"),
		key.WithHelp("n", "keep"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
}

func (k KeyMap) introHelp() []key.Binding {
	return []key.Binding{k.Start, k.Quit}
}

func (k KeyMap) listHelp() []key.Binding {
	return []key.Binding{
		k.Add, k.Toggle, k.Edit, k.Delete, k.Search,
		k.CyclePriority, k.CycleCompletion, k.CycleSort, k.Reset, k.Quit,
	}
}

func (k KeyMap) formHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel, k.NextField, k.Left}
}
