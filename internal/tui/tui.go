// Package tui is the interactive goal list: today's goals on the left, the
// mountain with the climber, progress and streak on the right.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/summit/internal/app"
	"github.com/idilsaglam/summit/internal/goals"
	"github.com/idilsaglam/summit/internal/model"
	"github.com/idilsaglam/summit/internal/ui"
)

// listItem adapts a goal to bubbles/list.Item
type listItem struct {
	goal model.Goal
}

func (i listItem) Title() string       { return i.goal.Text }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.goal.Text + " " + strings.Join(i.goal.Tags, " ") }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)
	t := ui.Current()
	fmt.Fprintln(w, renderLine(it.goal, index == m.Index(), t))
}

func renderLine(g model.Goal, selected bool, t ui.Theme) string {
	prefix := "  "
	if selected {
		prefix = t.Selected.Render("> ")
	}
	return prefix + ui.GoalLine(g)
}

type mode int

const (
	browsing mode = iota
	adding
	editing
	tagging
)

type removed struct {
	goal model.Goal
	pos  int
}

type modelTUI struct {
	ctx  context.Context
	app  *app.App
	list list.Model

	// Inline add / edit / tag share one text input.
	mode     mode
	ti       textinput.Model
	targetID int64
	inputErr string

	// Undo support (single-level)
	undo *removed

	// day is the date the list was last built for.
	day string

	status string
	quote  string
	width  int
	height int
}

var (
	addBind  = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	tagBind  = key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "tags"))
	delBind  = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	undoBind = key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo"))
	togBind  = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "done"))
)

func newModel(ctx context.Context, a *app.App) modelTUI {
	t := ui.Current()
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = t.Title
	l.Styles.HelpStyle = t.Muted
	l.Styles.PaginationStyle = t.Muted
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("goal", "goals")
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{togBind, addBind, editBind, delBind, undoBind} }
	l.AdditionalFullHelpKeys = func() []key.Binding { return []key.Binding{togBind, addBind, editBind, tagBind, delBind, undoBind} }

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := modelTUI{
		ctx:    ctx,
		app:    a,
		list:   l,
		ti:     ti,
		quote:  ui.Quote(nil),
		day:    a.Today(),
		width:  80,
		height: 24,
	}
	m.reload()
	return m
}

// Run starts the Bubble Tea program. Every change is persisted as it
// happens, so quitting never needs a save step.
func Run(ctx context.Context, a *app.App) error {
	p := tea.NewProgram(newModel(ctx, a), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// reload rebuilds list items from today's working set, keeping the cursor.
func (m *modelTUI) reload() {
	idx := m.list.Index()
	work := m.app.Working()
	items := make([]list.Item, 0, len(work))
	for _, g := range work {
		items = append(items, listItem{goal: g})
	}
	m.list.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
	snap := m.app.Snapshot()
	t := ui.Current()
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		t.Title.Render("Goals "+snap.Date),
		t.Success.Render(t.SymDone), snap.Done,
		t.Pending.Render(t.SymPending), snap.Pending,
		t.Accent.Render("Total"), snap.Total,
	)
}

func (m modelTUI) selected() (model.Goal, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Goal{}, false
	}
	return it.goal, true
}

func (m *modelTUI) fail(err error) {
	m.status = ui.Current().Error.Render(err.Error())
}

// dayTickMsg wakes the model up so an idle list still rolls over at midnight.
type dayTickMsg time.Time

const dayCheckEvery = time.Minute

func dayTick() tea.Cmd {
	return tea.Tick(dayCheckEvery, func(t time.Time) tea.Msg { return dayTickMsg(t) })
}

func (m modelTUI) Init() tea.Cmd { return dayTick() }

// rollover runs the recurrence pass and rebuilds the list once the date
// has moved on since the last render.
func (m *modelTUI) rollover() {
	today := m.app.Today()
	if today == m.day {
		return
	}
	if err := m.app.Refresh(m.ctx); err != nil {
		m.fail(err)
		return
	}
	m.day = today
	m.reload()
}

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.rollover()
	if _, ok := msg.(dayTickMsg); ok {
		return m, dayTick()
	}
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = ws.Width, ws.Height
		return m, nil
	}
	if m.mode != browsing {
		return m.updateInput(msg)
	}
	// While the filter prompt is open every key belongs to it.
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ", "space":
			if g, ok := m.selected(); ok {
				if _, err := m.app.Toggle(m.ctx, g.ID); err != nil {
					m.fail(err)
				} else {
					m.status = ""
				}
				m.reload()
			}
			return m, nil
		case "d":
			if g, ok := m.selected(); ok {
				rg, pos, err := m.app.Remove(m.ctx, g.ID)
				if err != nil {
					m.fail(err)
				} else {
					m.undo = &removed{goal: rg, pos: pos}
					m.status = "deleted, u to undo"
				}
				m.reload()
			}
			return m, nil
		case "u":
			if m.undo != nil {
				if err := m.app.Restore(m.ctx, m.undo.pos, m.undo.goal); err != nil {
					m.fail(err)
				} else {
					m.status = "restored"
				}
				m.undo = nil
				m.reload()
			}
			return m, nil
		case "a":
			return m.startInput(adding, 0, "", "New goal..."), nil
		case "e":
			if g, ok := m.selected(); ok {
				return m.startInput(editing, g.ID, g.Text, "Edit goal..."), nil
			}
			return m, nil
		case "t":
			if g, ok := m.selected(); ok {
				return m.startInput(tagging, g.ID, strings.Join(g.Tags, ", "), "tags, comma separated"), nil
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) startInput(md mode, id int64, value, placeholder string) modelTUI {
	m.mode = md
	m.targetID = id
	m.inputErr = ""
	m.ti.SetValue(value)
	m.ti.CursorEnd()
	m.ti.Placeholder = placeholder
	m.ti.Focus()
	return m
}

func (m modelTUI) stopInput() modelTUI {
	m.mode = browsing
	m.inputErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
	return m
}

func (m modelTUI) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc":
			return m.stopInput(), nil
		case "enter":
			value := strings.TrimSpace(m.ti.Value())
			var err error
			switch m.mode {
			case adding:
				if value == "" {
					m.inputErr = "Goal cannot be empty"
					return m, nil
				}
				_, err = m.app.Add(m.ctx, goals.Draft{Text: value})
			case editing:
				if value == "" {
					m.inputErr = "Goal cannot be empty"
					return m, nil
				}
				_, err = m.app.Edit(m.ctx, m.targetID, value)
			case tagging:
				_, err = m.app.SetTags(m.ctx, m.targetID, strings.Split(value, ","))
			}
			if err != nil {
				m.inputErr = err.Error()
				return m, nil
			}
			m = m.stopInput()
			m.status = ""
			m.reload()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m modelTUI) View() string {
	t := ui.Current()
	side := m.sidePanel()
	sideW := lipgloss.Width(side)

	listW := m.width - sideW - 6
	if listW < 30 {
		listW = 30
	}
	listH := m.height - 4
	if m.mode != browsing {
		listH -= 3
	}
	if m.status != "" {
		listH--
	}
	if listH < 5 {
		listH = 5
	}
	m.list.SetSize(listW, listH)

	content := m.list.View()
	if m.mode != browsing {
		title := map[mode]string{adding: "Add goal", editing: "Edit goal", tagging: "Edit tags"}[m.mode]
		if m.inputErr != "" {
			title += " - " + t.Error.Render(m.inputErr)
		}
		bar := lipgloss.NewStyle().Border(t.Border).BorderForeground(t.BorderColor).Padding(0, 1)
		content += "\n" + bar.Render(title+"\n"+m.ti.View())
	}
	if m.status != "" {
		content += "\n" + m.status
	}
	return ui.PanelString(lipgloss.JoinHorizontal(lipgloss.Top, content, "  ", side))
}

func (m modelTUI) sidePanel() string {
	t := ui.Current()
	snap := m.app.Snapshot()
	lines := ui.Mountain(snap.Percent, ui.MountainRows)
	lines = append(lines, "", ui.ProgressBar(snap.Percent, 16))

	st, err := m.app.StreakStatus(m.ctx)
	if err == nil {
		lines = append(lines, fmt.Sprintf("%s %d  %s %d",
			t.Accent.Render("streak"), st.Current,
			t.Muted.Render("best"), st.Best))
	}
	lines = append(lines, "", t.Muted.Render(wrap(m.quote, 22)))
	return strings.Join(lines, "\n")
}

func wrap(s string, width int) string {
	var b strings.Builder
	n := 0
	for i, w := range strings.Fields(s) {
		if i > 0 {
			if n+1+len(w) > width {
				b.WriteString("\n")
				n = 0
			} else {
				b.WriteString(" ")
				n++
			}
		}
		b.WriteString(w)
		n += len(w)
	}
	return b.String()
}
