package tui

import (
	"strings"

	"github.com/Veraticus/finlens/internal/model"
	"github.com/Veraticus/finlens/internal/tui/themes"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the dictionary browser state.
type Model struct {
	theme      themes.Theme
	lastError  error
	definition *model.Definition
	config     Config
	keymap     KeyMap
	query      string
	defining   string
	matches    []model.DictionaryMatch
	input      textinput.Model
	spinner    spinner.Model
	cursor     int
	width      int
	height     int
	quitting   bool
}

// New creates a browser model from options.
func New(opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newModel(cfg)
}

func newModel(cfg Config) Model {
	input := textinput.New()
	input.Placeholder = "Search a financial term..."
	input.Prompt = "🔎 "
	input.CharLimit = 100
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(cfg.Theme.Primary)

	return Model{
		theme:   cfg.Theme,
		config:  cfg,
		keymap:  DefaultKeyMap(),
		input:   input,
		spinner: s,
		width:   cfg.Width,
		height:  cfg.Height,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case definitionMsg:
		// Ignore answers for a selection the user already moved away from.
		if msg.term != m.defining {
			return m, nil
		}
		m.defining = ""
		if msg.err != nil {
			m.lastError = msg.err
			return m, nil
		}
		def := msg.def
		m.definition = &def
		return m, nil

	case spinner.TickMsg:
		if m.defining == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keymap.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keymap.Clear):
		m.input.SetValue("")
		m.search()
		return m, nil

	case key.Matches(msg, m.keymap.Define):
		selected, ok := m.Selected()
		if !ok || m.config.Definer == nil || m.defining != "" {
			return m, nil
		}
		m.defining = selected.Term
		m.definition = nil
		m.lastError = nil
		return m, tea.Batch(m.spinner.Tick, m.defineTerm(selected.Term))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.query {
		m.search()
	}
	return m, cmd
}

// search refreshes matches for the current input.
func (m *Model) search() {
	m.query = m.input.Value()
	m.cursor = 0
	m.definition = nil
	m.lastError = nil
	m.defining = ""

	if strings.TrimSpace(m.query) == "" || m.config.Dictionary == nil {
		m.matches = nil
		return
	}
	m.matches = m.config.Dictionary.Lookup(m.query)
}

func (m *Model) moveCursor(delta int) {
	if len(m.matches) == 0 {
		return
	}
	next := m.cursor + delta
	if next < 0 || next >= len(m.matches) {
		return
	}
	m.cursor = next
	m.definition = nil
	m.lastError = nil
	m.defining = ""
}

// Selected returns the highlighted match.
func (m Model) Selected() (model.DictionaryMatch, bool) {
	if m.cursor < 0 || m.cursor >= len(m.matches) {
		return model.DictionaryMatch{}, false
	}
	return m.matches[m.cursor], true
}

// Matches returns the matches for the current query.
func (m Model) Matches() []model.DictionaryMatch {
	return m.matches
}
