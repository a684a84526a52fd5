package tui

import "github.com/Veraticus/finlens/internal/model"

// definitionMsg carries the LLM answer for term.
type definitionMsg struct {
	err  error
	term string
	def  model.Definition
}
