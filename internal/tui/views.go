package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.theme.Title.Render("finlens dictionary"),
		m.input.View(),
		"",
		m.renderMatches(),
	}
	if detail := m.renderDetail(); detail != "" {
		sections = append(sections, "", detail)
	}
	sections = append(sections, "", m.renderStatus())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderMatches() string {
	if strings.TrimSpace(m.query) == "" {
		size := 0
		if m.config.Dictionary != nil {
			size = m.config.Dictionary.Len()
		}
		return m.theme.Subtitle.Render(fmt.Sprintf("Type to search %d terms.", size))
	}
	if len(m.matches) == 0 {
		return m.theme.Subtitle.Render(fmt.Sprintf("No term matches %q.", m.query))
	}

	lines := make([]string, 0, len(m.matches))
	for i, match := range m.matches {
		label := match.Term
		if i == m.cursor {
			label = m.theme.Selected.Render(" " + label + " ")
		} else {
			label = m.theme.Normal.Render(" " + label + " ")
		}
		lines = append(lines, label+" "+m.theme.Score.Render(fmt.Sprintf("%.2f", match.Score)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderDetail() string {
	selected, ok := m.Selected()
	if !ok {
		return ""
	}

	width := max(m.width-4, 20)
	body := []string{
		m.theme.Bold.Render(selected.Term),
		selected.Definition,
	}

	switch {
	case m.defining != "":
		body = append(body, "", m.spinner.View()+" Asking the LLM...")
	case m.lastError != nil:
		body = append(body, "", m.theme.StatusError.Render("LLM definition failed: "+m.lastError.Error()))
	case m.definition != nil:
		body = append(body, "",
			m.theme.StatusInfo.Render("LLM · "+m.definition.Category),
			m.definition.Definition)
	}

	return m.theme.RoundedBox.Width(width).Render(strings.Join(body, "\n"))
}

func (m Model) renderStatus() string {
	bindings := m.keymap.ShortHelp(m.config.Definer != nil)
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, b.Help().Key+" "+b.Help().Desc)
	}
	return m.theme.Help.Render(strings.Join(parts, " • "))
}

