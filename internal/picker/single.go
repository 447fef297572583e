package picker

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// SingleModel is the Bubble Tea model for single-select with filtering
type SingleModel struct {
	title     string
	items     []Item
	cursor    int
	offset    int // scroll offset
	done      bool
	quitting  bool
	filter    textinput.Model
	filtering bool
}

// NewSingle creates a single-select model; the cursor starts on the first
// item marked Selected
func NewSingle(title string, items []Item) SingleModel {
	ti := textinput.New()
	ti.Placeholder = "owner, host or id..."
	ti.CharLimit = 50
	ti.Width = 40

	m := SingleModel{title: title, items: items, filter: ti}
	for i, item := range items {
		if item.Selected {
			m.cursor = i
			m.adjustScroll()
			break
		}
	}
	return m
}

// Selected returns the ID under the cursor
func (m SingleModel) Selected() string {
	visible := m.visible()
	if m.cursor < len(visible) {
		return visible[m.cursor].ID
	}
	return ""
}

// IsQuitting returns true if the user quit without confirming
func (m SingleModel) IsQuitting() bool {
	return m.quitting
}

// Init implements tea.Model
func (m SingleModel) Init() tea.Cmd {
	return nil
}

// visible returns the items matching the filter
func (m SingleModel) visible() []Item {
	q := strings.ToLower(m.filter.Value())
	if q == "" {
		return m.items
	}
	var out []Item
	for _, item := range m.items {
		text := strings.ToLower(item.ID + " " + item.Label + " " + item.Hint)
		if strings.Contains(text, q) {
			out = append(out, item)
		}
	}
	return out
}

// adjustScroll keeps the cursor inside the viewport
func (m *SingleModel) adjustScroll() {
	n := len(m.visible())
	m.cursor = max(0, min(m.cursor, n-1))

	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+maxVisibleItems {
		m.offset = m.cursor - maxVisibleItems + 1
	}
	m.offset = max(0, min(m.offset, n-maxVisibleItems))
}

// Update implements tea.Model
func (m SingleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.filtering {
		switch km.String() {
		case "esc":
			m.filtering = false
			m.filter.SetValue("")
			m.filter.Blur()
			m.cursor, m.offset = 0, 0
			return m, nil
		case "enter":
			m.filtering = false
			m.filter.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(km)
		m.cursor, m.offset = 0, 0
		return m, cmd
	}

	n := len(m.visible())
	switch {
	case key.Matches(km, singleKeys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(km, singleKeys.Filter):
		m.filtering = true
		m.filter.Focus()
		return m, textinput.Blink

	case key.Matches(km, singleKeys.Up):
		if n > 0 {
			m.cursor = (m.cursor - 1 + n) % n
			m.adjustScroll()
		}

	case key.Matches(km, singleKeys.Down):
		if n > 0 {
			m.cursor = (m.cursor + 1) % n
			m.adjustScroll()
		}

	case key.Matches(km, singleKeys.Confirm):
		if n == 0 {
			return m, nil
		}
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model
func (m SingleModel) View() string {
	if m.done || m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")

	switch {
	case m.filtering:
		b.WriteString("\n/ ")
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	case m.filter.Value() != "":
		b.WriteString("\n")
		b.WriteString(faintStyle.Render("Filter: " + m.filter.Value() + " (/ to edit, esc to clear)"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	visible := m.visible()
	if len(visible) == 0 {
		b.WriteString(faintStyle.Render("  (nothing matches)"))
		b.WriteString("\n")
	} else {
		if m.offset > 0 {
			b.WriteString(faintStyle.Render(fmt.Sprintf("  ↑ %d more", m.offset)))
			b.WriteString("\n")
		}
		end := min(m.offset+maxVisibleItems, len(visible))
		for i := m.offset; i < end; i++ {
			if i == m.cursor {
				b.WriteString(cursorStyle.Render("> "))
			} else {
				b.WriteString("  ")
			}
			b.WriteString(visible[i].render(i == m.cursor))
			b.WriteString("\n")
		}
		if rest := len(visible) - end; rest > 0 {
			b.WriteString(faintStyle.Render(fmt.Sprintf("  ↓ %d more", rest)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(faintStyle.Render("↑/↓: navigate • /: filter • enter: select • q: quit"))
	return b.String()
}

type singleKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Filter  key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

var singleKeys = singleKeyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k")),
	Down:    key.NewBinding(key.WithKeys("down", "j")),
	Filter:  key.NewBinding(key.WithKeys("/")),
	Confirm: key.NewBinding(key.WithKeys("enter")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// RunSingle shows the chooser and returns the chosen ID; "" when the user
// quits
func RunSingle(title string, items []Item) (string, error) {
	finalModel, err := tea.NewProgram(NewSingle(title, items)).Run()
	if err != nil {
		return "", err
	}

	fm := finalModel.(SingleModel)
	if fm.IsQuitting() {
		return "", nil
	}
	return fm.Selected(), nil
}
