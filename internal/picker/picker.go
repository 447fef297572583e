// Package picker provides the terminal choosers used when a command is run
// without naming its target: one connector, or a set of extensions.
package picker

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// maxVisibleItems is the viewport height of the single-select list
const maxVisibleItems = 12

// Item represents a selectable item
type Item struct {
	ID       string
	Label    string
	Hint     string // rendered faint after the label
	Selected bool
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	faintStyle    = lipgloss.NewStyle().Faint(true)
)

// Interactive reports whether both stdin and stdout are terminals
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func (it Item) render(active bool) string {
	label := it.Label
	if active {
		label = selectedStyle.Render(label)
	}
	if it.Hint != "" {
		label += " " + faintStyle.Render(it.Hint)
	}
	return label
}

// ChecklistModel is the Bubble Tea model for multi-select
type ChecklistModel struct {
	title    string
	items    []Item
	cursor   int
	selected map[string]bool
	done     bool
	quitting bool
}

// NewChecklist creates a multi-select model; items marked Selected start
// checked
func NewChecklist(title string, items []Item) ChecklistModel {
	selected := make(map[string]bool)
	for _, item := range items {
		if item.Selected {
			selected[item.ID] = true
		}
	}
	return ChecklistModel{title: title, items: items, selected: selected}
}

// Selected returns the IDs of checked items in list order
func (m ChecklistModel) Selected() []string {
	var result []string
	for _, item := range m.items {
		if m.selected[item.ID] {
			result = append(result, item.ID)
		}
	}
	return result
}

// IsQuitting returns true if the user quit without confirming
func (m ChecklistModel) IsQuitting() bool {
	return m.quitting
}

// Init implements tea.Model
func (m ChecklistModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m ChecklistModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, checklistKeys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(km, checklistKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(km, checklistKeys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case key.Matches(km, checklistKeys.Toggle):
		if len(m.items) > 0 {
			id := m.items[m.cursor].ID
			m.selected[id] = !m.selected[id]
		}

	case key.Matches(km, checklistKeys.All):
		all := len(m.Selected()) == len(m.items)
		for _, item := range m.items {
			m.selected[item.ID] = !all
		}

	case key.Matches(km, checklistKeys.Confirm):
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model
func (m ChecklistModel) View() string {
	if m.done || m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	for i, item := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		box := "[ ]"
		if m.selected[item.ID] {
			box = selectedStyle.Render("[x]")
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", cursor, box, item.render(false)))
	}

	b.WriteString("\n")
	b.WriteString(faintStyle.Render("space: toggle • a: all/none • enter: confirm • q: quit"))
	return b.String()
}

type checklistKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	All     key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

var checklistKeys = checklistKeyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k")),
	Down:    key.NewBinding(key.WithKeys("down", "j")),
	Toggle:  key.NewBinding(key.WithKeys(" ")),
	All:     key.NewBinding(key.WithKeys("a")),
	Confirm: key.NewBinding(key.WithKeys("enter")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// RunChecklist shows the checklist and returns the checked IDs; nil when
// the user quits
func RunChecklist(title string, items []Item) ([]string, error) {
	finalModel, err := tea.NewProgram(NewChecklist(title, items)).Run()
	if err != nil {
		return nil, err
	}

	fm := finalModel.(ChecklistModel)
	if fm.IsQuitting() {
		return nil, nil
	}
	return fm.Selected(), nil
}
