package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	gql "github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-modelgraph/pkg/codec"
	"github.com/dd0wney/cluso-modelgraph/pkg/config"
	"github.com/dd0wney/cluso-modelgraph/pkg/export"
	"github.com/dd0wney/cluso-modelgraph/pkg/graphql"
	"github.com/dd0wney/cluso-modelgraph/pkg/model"
	"github.com/dd0wney/cluso-modelgraph/pkg/traverse"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(1, 2).
			MarginRight(2)

	detailBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FFFF00")).
			Padding(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type view int

const (
	overviewView view = iota
	objectsView
	inspectView
	queryView
	viewCount
)

var viewNames = []string{"Overview", "Objects", "Inspect", "Query"}

// maxResultLines caps rendered query output
const maxResultLines = 30

type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Enter    key.Binding
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev view"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "inspect / run"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("up/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("down/j", "down"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Enter, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Enter},
		{k.Up, k.Down},
		{k.Quit},
	}
}

// summary holds tree statistics shown on the overview
type summary struct {
	Objects      int
	Collections  int
	WithGeometry int
	Vertices     int
	MaxDepth     int
}

func summarize(entries []traverse.Entry) summary {
	var s summary
	for _, e := range entries {
		s.Objects++
		if traverse.IsCollection(e.Node) {
			s.Collections++
		}
		if e.Node.HasGeometry() {
			s.WithGeometry++
		}
		if e.Depth > s.MaxDepth {
			s.MaxDepth = e.Depth
		}
		s.Vertices += pointCount(e.Node)
	}
	return s
}

func pointCount(n *model.Node) int {
	total := n.Mesh.PointCount()
	if n.Display != nil {
		for _, m := range n.Display.Meshes {
			total += m.PointCount()
		}
	}
	return total
}

type browser struct {
	root        *model.Node
	entries     []traverse.Entry
	stats       summary
	schema      gql.Schema
	currentView view
	queryInput  textinput.Model
	objectTable table.Model
	help        help.Model
	keys        keyMap
	width       int
	height      int
	selected    *export.Object
	result      string
	message     string
	messageErr  bool
}

func newBrowser(root *model.Node, w traverse.Walker) (browser, error) {
	entries, err := w.Flatten(root)
	if err != nil {
		return browser{}, err
	}
	schema, err := graphql.GenerateSchema(root, w)
	if err != nil {
		return browser{}, err
	}

	ti := textinput.New()
	ti.Placeholder = `{ collection(name: "Old modules") { children { name properties } } }`
	ti.CharLimit = 500
	ti.Width = 80

	columns := []table.Column{
		{Title: "Depth", Width: 6},
		{Title: "Name", Width: 32},
		{Title: "Type", Width: 36},
		{Title: "Application ID", Width: 38},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(objectRows(entries)),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)

	return browser{
		root:        root,
		entries:     entries,
		stats:       summarize(entries),
		schema:      schema,
		currentView: overviewView,
		queryInput:  ti,
		objectTable: t,
		help:        help.New(),
		keys:        keys,
	}, nil
}

func objectRows(entries []traverse.Entry) []table.Row {
	rows := make([]table.Row, len(entries))
	for i, e := range entries {
		rows[i] = table.Row{
			strconv.Itoa(e.Depth),
			strings.Repeat("  ", e.Depth) + e.Node.Label(),
			e.Node.Type,
			e.Node.ApplicationID,
		}
	}
	return rows
}

func (m browser) Init() tea.Cmd {
	return textinput.Blink
}

func (m browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Tab):
			m.switchView((m.currentView + 1) % viewCount)
			return m, nil

		case key.Matches(msg, m.keys.ShiftTab):
			m.switchView((m.currentView + viewCount - 1) % viewCount)
			return m, nil

		case key.Matches(msg, m.keys.Enter):
			switch m.currentView {
			case objectsView:
				m.inspectSelected()
				return m, nil
			case queryView:
				m.runQuery()
				return m, nil
			}
		}
	}

	// Update focused component
	switch m.currentView {
	case queryView:
		m.queryInput, cmd = m.queryInput.Update(msg)
		cmds = append(cmds, cmd)
	case objectsView:
		m.objectTable, cmd = m.objectTable.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *browser) switchView(v view) {
	m.currentView = v
	if v == queryView {
		m.queryInput.Focus()
	} else {
		m.queryInput.Blur()
	}
}

func (m *browser) inspectSelected() {
	i := m.objectTable.Cursor()
	if i < 0 || i >= len(m.entries) {
		return
	}
	e := m.entries[i]
	obj := export.NewObject(e.Node, e.Depth)
	m.selected = &obj
	m.switchView(inspectView)
}

func (m *browser) runQuery() {
	q := strings.TrimSpace(m.queryInput.Value())
	if q == "" {
		m.message = "Query cannot be empty"
		m.messageErr = true
		return
	}

	result := graphql.ExecuteWithDepthLimit(context.Background(), m.schema, q, graphql.DefaultMaxQueryDepth, nil)
	if result.HasErrors() {
		m.message = fmt.Sprintf("Query error: %s", result.Errors[0].Message)
		m.messageErr = true
		m.result = ""
		return
	}

	out, err := json.MarshalIndent(result.Data, "", "  ")
	if err != nil {
		m.message = fmt.Sprintf("Encode error: %v", err)
		m.messageErr = true
		return
	}
	m.result = truncateLines(string(out), maxResultLines)
	m.message = "Query executed"
	m.messageErr = false
}

func truncateLines(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n") + fmt.Sprintf("\n... %d more lines", len(lines)-limit)
}

func (m browser) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("modelgraph - " + m.root.Label()))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch m.currentView {
	case overviewView:
		s.WriteString(m.renderOverview())
	case objectsView:
		s.WriteString(m.renderObjects())
	case inspectView:
		s.WriteString(m.renderInspect())
	case queryView:
		s.WriteString(m.renderQuery())
	}

	if m.message != "" {
		s.WriteString("\n\n")
		if m.messageErr {
			s.WriteString(errorStyle.Render("x " + m.message))
		} else {
			s.WriteString(successStyle.Render("ok " + m.message))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return s.String()
}

func (m browser) renderTabs() string {
	rendered := make([]string, len(viewNames))
	for i, name := range viewNames {
		if view(i) == m.currentView {
			rendered[i] = activeTabStyle.Render(name)
		} else {
			rendered[i] = inactiveTabStyle.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m browser) renderOverview() string {
	stats := fmt.Sprintf(`Model
---------------
Objects:       %d
Collections:   %d
With geometry: %d
Vertices:      %d
Max depth:     %d`,
		m.stats.Objects,
		m.stats.Collections,
		m.stats.WithGeometry,
		m.stats.Vertices,
		m.stats.MaxDepth,
	)

	root := fmt.Sprintf(`Root
---------------
Name: %s
Type: %s
ID:   %s`,
		m.root.Label(),
		m.root.Type,
		m.root.ID,
	)

	return contentStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Top, statsBoxStyle.Render(stats), statsBoxStyle.Render(root)),
	)
}

func (m browser) renderObjects() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("Object Browser"))
	s.WriteString("\n\n")
	s.WriteString(m.objectTable.View())
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Navigate with up/down, enter to inspect"))

	return contentStyle.Render(s.String())
}

func (m browser) renderInspect() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("Inspector"))
	s.WriteString("\n\n")

	if m.selected == nil {
		s.WriteString(helpStyle.Render("Select an object in the Objects view"))
		return contentStyle.Render(s.String())
	}

	out, err := json.MarshalIndent(m.selected, "", "  ")
	if err != nil {
		s.WriteString(errorStyle.Render(err.Error()))
	} else {
		s.WriteString(detailBoxStyle.Render(string(out)))
	}
	return contentStyle.Render(s.String())
}

func (m browser) renderQuery() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("GraphQL Console"))
	s.WriteString("\n\n")
	s.WriteString(m.queryInput.View())
	s.WriteString("\n\n")

	if m.result != "" {
		s.WriteString(detailBoxStyle.Render(m.result))
	} else {
		s.WriteString(helpStyle.Render("Examples:\n"))
		s.WriteString(helpStyle.Render("  { count }\n"))
		s.WriteString(helpStyle.Render("  { objects(limit: 5) { name depth } }\n"))
		s.WriteString(helpStyle.Render(`  { node(applicationId: "...") { name properties } }` + "\n"))
	}

	return contentStyle.Render(s.String())
}

func loadModel(path string) (*model.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return codec.Decode(f)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: modelgraph-tui <model.json> [config.yaml]")
		os.Exit(2)
	}

	configPath := ""
	if len(os.Args) > 2 {
		configPath = os.Args[2]
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	root, err := loadModel(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to load model: %v", err)
	}

	b, err := newBrowser(root, cfg.Walker())
	if err != nil {
		log.Fatalf("Failed to index model: %v", err)
	}

	p := tea.NewProgram(b, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
