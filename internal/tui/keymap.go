package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Define    key.Binding
	Clear     key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑/Ctrl+P", "previous match"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓/Ctrl+N", "next match"),
		),
		Define: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "ask the LLM"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("Ctrl+U", "clear search"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "force quit"),
		),
	}
}

// ShortHelp lists the bindings shown in the footer.
func (k KeyMap) ShortHelp(withDefine bool) []key.Binding {
	bindings := []key.Binding{k.Up, k.Down, k.Clear}
	if withDefine {
		bindings = append(bindings, k.Define)
	}
	return append(bindings, k.Quit)
}
