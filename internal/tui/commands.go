package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// defineTerm asks the definer for term in the background.
func (m Model) defineTerm(term string) tea.Cmd {
	definer := m.config.Definer
	timeout := m.config.DefineTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		def, err := definer.DefineText(ctx, term)
		return definitionMsg{term: term, def: def, err: err}
	}
}
