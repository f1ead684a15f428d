// Package tui is a terminal viewer and editor for a family file. It reloads
// whenever the file changes on disk, e.g. after a save from the shell.
package tui

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/N3moAhead/kinship/internal/db"
	"github.com/N3moAhead/kinship/internal/graph"
	"github.com/N3moAhead/kinship/internal/person"
	"github.com/N3moAhead/kinship/internal/relation"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

const listTitle = "Family"

var (
	docStyle    = lipgloss.NewStyle().Margin(1, 2)
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type sessionState int

const (
	viewList sessionState = iota
	viewDetail
	viewCreatePerson
	viewCreateRelationSelectTarget
	viewCreateRelationKind
)

type (
	fileChangedMsg struct{}
	graphLoadedMsg struct {
		graph *graph.Graph
		err   error
	}
)

type model struct {
	state   sessionState
	path    string
	graph   *graph.Graph
	logger  *zap.Logger
	watcher *Watcher

	list      list.Model
	relations list.Model
	selected  string // The currently viewed person

	inputs [3]textinput.Model // name, gender, birthdate
	focus  int

	relTarget string // Who should be connected
	inputKind textinput.Model

	status string
}

func newModel(path string, g *graph.Graph, watcher *Watcher, logger *zap.Logger) model {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := list.New(peopleToItems(g), list.NewDefaultDelegate(), 0, 0)
	l.Title = listTitle
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{
			key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new person")),
		}
	}

	rl := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	rl.SetShowTitle(false)
	rl.SetFilteringEnabled(false)

	var inputs [3]textinput.Model
	for i, placeholder := range []string{"Name", "Gender (optional)", "Birthdate DD-MM-YYYY (optional)"} {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = placeholder
	}

	kind := textinput.New()
	kind.Placeholder = "parent, child, sibling or spouse"

	return model{
		state:     viewList,
		path:      path,
		graph:     g,
		logger:    logger,
		watcher:   watcher,
		list:      l,
		relations: rl,
		inputs:    inputs,
		inputKind: kind,
	}
}

func (m model) Init() tea.Cmd {
	return waitForChange(m.watcher)
}

func waitForChange(w *Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-w.Changes(); !ok {
			return nil
		}
		return fileChangedMsg{}
	}
}

func reload(path string, logger *zap.Logger) tea.Cmd {
	return func() tea.Msg {
		g, err := db.Load(path, logger)
		if errors.Is(err, fs.ErrNotExist) {
			err = nil
		}
		return graphLoadedMsg{graph: g, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case fileChangedMsg:
		return m, tea.Batch(reload(m.path, m.logger), waitForChange(m.watcher))
	case graphLoadedMsg:
		if msg.err != nil {
			m.status = "reload failed: " + msg.err.Error()
			return m, nil
		}
		m.graph = msg.graph
		m.status = ""
		if _, ok := m.graph.Person(m.selected); !ok && m.viewsSelected() {
			m.state = viewList
			m.selected = ""
			m.list.Title = listTitle
		}
		m.refreshRelations()
		return m, m.list.SetItems(peopleToItems(m.graph))
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
		m.relations.SetSize(msg.Width-h, msg.Height-v-8)
		return m, nil
	}

	switch m.state {
	case viewList:
		if msg, ok := msg.(tea.KeyMsg); ok && !m.list.SettingFilter() {
			switch msg.String() {
			case "n":
				m.state = viewCreatePerson
				m.status = ""
				m.focus = 0
				for i := range m.inputs {
					m.inputs[i].SetValue("")
					m.inputs[i].Blur()
				}
				return m, m.inputs[0].Focus()
			case "enter":
				if p, ok := m.list.SelectedItem().(*person.Person); ok {
					m.selected = p.Name
					m.state = viewDetail
					m.refreshRelations()
				}
				return m, nil
			}
		}
		m.list, cmd = m.list.Update(msg)
		return m, cmd

	case viewDetail:
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "esc", "q":
				m.state = viewList
				m.selected = ""
				return m, nil
			case "r":
				m.state = viewCreateRelationSelectTarget
				m.list.Title = "Choose a relative for " + m.selected
				m.list.ResetSelected()
				return m, nil
			case "x":
				if err := m.graph.RemovePerson(m.selected); err != nil {
					m.status = err.Error()
					return m, nil
				}
				m.state = viewList
				m.selected = ""
				return m, m.persist()
			}
		}
		m.relations, cmd = m.relations.Update(msg)
		return m, cmd

	case viewCreatePerson:
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "esc":
				m.state = viewList
				return m, nil
			case "tab", "shift+tab":
				step := 1
				if msg.String() == "shift+tab" {
					step = len(m.inputs) - 1
				}
				return m, m.focusInput((m.focus + step) % len(m.inputs))
			case "enter":
				if m.focus < len(m.inputs)-1 {
					return m, m.focusInput(m.focus + 1)
				}
				name := strings.TrimSpace(m.inputs[0].Value())
				gender := strings.TrimSpace(m.inputs[1].Value())
				birthdate := strings.TrimSpace(m.inputs[2].Value())
				if _, err := m.graph.AddPerson(name, gender, birthdate); err != nil {
					m.status = err.Error()
					return m, m.focusInput(0)
				}
				m.state = viewList
				return m, m.persist()
			}
		}
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd

	case viewCreateRelationSelectTarget:
		if msg, ok := msg.(tea.KeyMsg); ok && !m.list.SettingFilter() {
			switch msg.String() {
			case "esc":
				m.state = viewDetail
				m.list.Title = listTitle
				return m, nil
			case "enter":
				if p, ok := m.list.SelectedItem().(*person.Person); ok {
					if p.Name == m.selected {
						return m, nil
					}
					m.relTarget = p.Name
					m.state = viewCreateRelationKind
					m.inputKind.SetValue("")
					return m, m.inputKind.Focus()
				}
				return m, nil
			}
		}
		m.list, cmd = m.list.Update(msg)
		return m, cmd

	case viewCreateRelationKind:
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "esc":
				m.state = viewDetail
				m.list.Title = listTitle
				return m, nil
			case "enter":
				kind, err := relation.ParseKind(m.inputKind.Value())
				if err == nil && kind == relation.Parents {
					err = fmt.Errorf("pick a single relation: parent, child, sibling or spouse")
				}
				if err == nil {
					// The target takes the role named, e.g. "parent" makes
					// the target a parent of the selected person.
					err = m.graph.SetRelation(kind, m.relTarget, m.selected)
				}
				if err != nil {
					m.status = err.Error()
					return m, nil
				}
				m.state = viewDetail
				m.list.Title = listTitle
				m.refreshRelations()
				return m, m.persist()
			}
		}
		m.inputKind, cmd = m.inputKind.Update(msg)
		return m, cmd
	}

	return m, nil
}

// viewsSelected reports whether the current view is about the selected person.
func (m model) viewsSelected() bool {
	switch m.state {
	case viewDetail, viewCreateRelationSelectTarget, viewCreateRelationKind:
		return true
	}
	return false
}

func (m *model) focusInput(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[i].Focus()
}

// persist saves the graph and refreshes the person list.
func (m *model) persist() tea.Cmd {
	if err := db.Save(m.graph, m.path, m.logger); err != nil {
		m.status = err.Error()
	}
	return m.list.SetItems(peopleToItems(m.graph))
}

func (m *model) refreshRelations() {
	if m.selected == "" {
		m.relations.SetItems(nil)
		return
	}
	m.relations.SetItems(relationItems(m.graph, m.selected))
}

func relationItems(g *graph.Graph, name string) []list.Item {
	rec, err := g.Record(name)
	if err != nil {
		return nil
	}
	var items []list.Item
	add := func(label string, names []string) {
		for _, n := range names {
			details := ""
			if p, ok := g.Person(n); ok {
				details = p.Description()
			}
			items = append(items, relation.RelationItem{Label: label, OtherName: n, Details: details})
		}
	}
	add("parent", rec.Parents)
	add("child", rec.Children)
	add("spouse", rec.Spouses)
	add("previous spouse", rec.PreviousSpouses)
	add("sibling", rec.Siblings)
	if grandparents, err := g.Grandparents(name, 2); err == nil {
		add("grandparent", grandparents)
	}
	if grandchildren, err := g.Grandchildren(name, 2); err == nil {
		add("grandchild", grandchildren)
	}
	if cousins, err := g.Cousins(name); err == nil {
		add("cousin", cousins)
	}
	return items
}

func (m model) View() string {
	var s string
	switch m.state {
	case viewList, viewCreateRelationSelectTarget:
		s = m.list.View()

	case viewDetail:
		p, ok := m.graph.Person(m.selected)
		if !ok {
			return "Error: nobody selected"
		}
		s = titleStyle.Render(p.Name) + "\n"
		s += infoStyle.Render(p.Description()) + "\n\n"
		s += lipgloss.NewStyle().Underline(true).Render("Relatives:") + "\n"
		if len(m.relations.Items()) == 0 {
			s += infoStyle.Render("No relatives recorded.") + "\n"
		} else {
			s += m.relations.View() + "\n"
		}
		s += "\n" + infoStyle.Render("ESC: back | r: add relative | x: remove person")

	case viewCreatePerson:
		s = fmt.Sprintf(
			"New person\n\n%s\n%s\n%s\n\n%s",
			m.inputs[0].View(),
			m.inputs[1].View(),
			m.inputs[2].View(),
			infoStyle.Render("Tab: next field | Enter: next / save | ESC: cancel"),
		)

	case viewCreateRelationKind:
		s = fmt.Sprintf(
			"%s is the ... of %s\n\n%s\n\n%s",
			m.relTarget,
			m.selected,
			m.inputKind.View(),
			infoStyle.Render("Enter: save | ESC: cancel"),
		)
	}
	if m.status != "" {
		s += "\n" + statusStyle.Render(m.status)
	}
	return docStyle.Render(s)
}

func peopleToItems(g *graph.Graph) []list.Item {
	people := g.People()
	items := make([]list.Item, len(people))
	for i, p := range people {
		items[i] = p
	}
	return items
}

// Run opens the viewer on path. With watch set, the view follows changes
// written to the file by other programs.
func Run(path string, watch bool, logger *zap.Logger) error {
	g, err := db.Load(path, logger)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	var w *Watcher
	if watch {
		w, err = NewWatcher(path, logger)
		if err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		defer w.Close()
	}

	p := tea.NewProgram(newModel(path, g, w, logger), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
