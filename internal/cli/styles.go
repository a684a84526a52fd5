// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/finlens/internal/model"
	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#4D96FF")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4") // Teal
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D") // Yellow
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B") // Red
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3") // Light teal
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666") // Gray

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	LensIcon    = "🔎"
	BankIcon    = "🏦"
	BookIcon    = "📖"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle, content))
}

// FormatClassification renders one verdict as a single line.
func FormatClassification(c model.Classification) string {
	switch {
	case c.Failed():
		return FormatError(fmt.Sprintf("%s: %s", c.Term, c.Error))
	case c.IsFinancial:
		return FormatSuccess(c.Term + " " + SubtleStyle.Render("financial"))
	default:
		return SubtleStyle.Render("· " + c.Term + " not financial")
	}
}

// RenderMatches renders dictionary matches, best first.
func RenderMatches(query string, matches []model.DictionaryMatch) string {
	if len(matches) == 0 {
		return FormatWarning(fmt.Sprintf("No dictionary entry matches %q", query))
	}

	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s %s\n%s",
			BoldStyle.Render(m.Term),
			SubtleStyle.Render(fmt.Sprintf("(%.2f)", m.Score)),
			m.Definition)
	}
	return RenderBox(BookIcon+" "+query, b.String())
}

// RenderDefinition renders a generated definition.
func RenderDefinition(def model.Definition) string {
	body := def.Definition + "\n\n" + SubtleStyle.Render("Category: "+def.Category)
	return RenderBox(BookIcon+" "+def.Term, body)
}

// RenderRecommendation renders a menu recommendation.
func RenderRecommendation(rec model.MenuRecommendation) string {
	var b strings.Builder
	b.WriteString(BoldStyle.Render(rec.Category + " › " + rec.SelectedMenu))
	b.WriteString("\n" + rec.Description)
	if len(rec.CandidateMenus) > 0 {
		b.WriteString("\n\n" + SubtleStyle.Render("Also consider: "+strings.Join(rec.CandidateMenus, ", ")))
	}
	return RenderBox(BankIcon+" Recommended menu", b.String())
}
