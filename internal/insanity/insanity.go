// Package insanity implements the -insanity interactive repair console:
// a bubbletea program that lists every issue internal/sanity found against
// a database and lets an operator step through them, applying or skipping
// each fix one at a time instead of -sanfix's blanket apply-everything.
//
// Grounded on the teacher's internal/tui/screens doctor screen (same
// checks-list-plus-status-symbols shape, spinner while scanning, single-key
// bindings) generalized from a read-only health report into a selectable,
// actionable list.
package insanity

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fuzzball-muck/muckd/internal/object"
	"github.com/fuzzball-muck/muckd/internal/sanity"
)

var (
	colorError = lipgloss.Color("9")
	colorOK    = lipgloss.Color("10")
	colorDim   = lipgloss.Color("8")
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Fix    key.Binding
	FixAll key.Binding
	Rescan key.Binding
	Quit   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k")),
		Down:   key.NewBinding(key.WithKeys("down", "j")),
		Fix:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fix selected")),
		FixAll: key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "fix all")),
		Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type scanResultMsg struct {
	issues []sanity.Issue
}

// Model is the top-level bubbletea model for the repair console.
type Model struct {
	arena   *object.Arena
	keys    keyMap
	spinner spinner.Model

	scanning bool
	issues   []sanity.Issue
	fixed    map[int]bool
	cursor   int

	quitting bool
}

// New returns a Model ready to scan arena for integrity problems.
func New(arena *object.Arena) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		arena:    arena,
		keys:     defaultKeys(),
		spinner:  s,
		scanning: true,
		fixed:    map[int]bool{},
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.scan())
}

func (m Model) scan() tea.Cmd {
	arena := m.arena
	return func() tea.Msg {
		var issues []sanity.Issue
		if errs := sanity.Check(arena); errs != nil {
			for _, err := range errs.Errors {
				if issue, ok := err.(sanity.Issue); ok {
					issues = append(issues, issue)
				}
			}
		}
		return scanResultMsg{issues: issues}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case scanResultMsg:
		m.scanning = false
		m.issues = msg.issues
		m.fixed = map[int]bool{}
		m.cursor = 0
		return m, nil

	case spinner.TickMsg:
		if m.scanning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.scanning {
			if key.Matches(msg, m.keys.Quit) {
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.issues)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Fix):
			m.applyFix(m.cursor)
		case key.Matches(msg, m.keys.FixAll):
			for i := range m.issues {
				m.applyFix(i)
			}
		case key.Matches(msg, m.keys.Rescan):
			m.scanning = true
			return m, tea.Batch(m.spinner.Tick, m.scan())
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) applyFix(i int) {
	if i < 0 || i >= len(m.issues) || m.fixed[i] || m.issues[i].Fix == nil {
		return
	}
	m.issues[i].Fix(m.arena)
	m.fixed[i] = true
}

// FixedCount reports how many issues this session has applied fixes to,
// for the CLI to print on exit.
func (m Model) FixedCount() int {
	n := 0
	for _, v := range m.fixed {
		if v {
			n++
		}
	}
	return n
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString("  Database Integrity\n\n")

	if m.scanning {
		fmt.Fprintf(&b, "  Scanning...  %s\n", m.spinner.View())
		return b.String()
	}

	if len(m.issues) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(colorOK).Render("  No problems found.") + "\n")
	}

	for i, issue := range m.issues {
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}
		symbol := lipgloss.NewStyle().Foreground(colorError).Render("✗")
		if m.fixed[i] {
			symbol = lipgloss.NewStyle().Foreground(colorOK).Render("✓")
		}
		fixable := ""
		if issue.Fix == nil {
			fixable = lipgloss.NewStyle().Foreground(colorDim).Render(" (no automatic fix)")
		}
		fmt.Fprintf(&b, "%s %s %s%s\n", cursor, symbol, issue.Error(), fixable)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "  %d issue(s), %d fixed\n\n", len(m.issues), m.FixedCount())
	b.WriteString(lipgloss.NewStyle().Foreground(colorDim).Render(
		"  f fix • F fix all • r rescan • q quit"))

	return b.String()
}

// Run launches the interactive repair console against arena and blocks
// until the operator quits, returning the number of fixes actually
// applied so the caller can report it before writing the database back
// out.
func Run(arena *object.Arena) (int, error) {
	p := tea.NewProgram(New(arena))
	final, err := p.Run()
	if err != nil {
		return 0, err
	}
	m, _ := final.(Model)
	return m.FixedCount(), nil
}
