// Package tui is the interactive task board: a timed exercise shell around
// the task store and its derived view.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harrisonrobin/taskboard/pkg/exercise"
	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/query"
	"github.com/harrisonrobin/taskboard/pkg/store"
)

const (
	toastAdded   = "Task added!"
	toastUpdated = "Task updated!"
	toastDeleted = "Task deleted"
	toastToggled = "Task completed status changed."
	msgTimeUp    = "Time's up! The test period has ended. Please stop coding and review your work."
)

type screen int

const (
	screenIntro screen = iota
	screenList
	screenForm
)

// tickMsg carries the generation of the tick chain that produced it.
// Starting or resetting the timer begins a new generation.
type tickMsg struct {
	gen int
	at  time.Time
}

// Options configures a Model. Zero values fall back to defaults.
type Options struct {
	Timer *exercise.Timer
	Now   func() time.Time
	Keys  *KeyMap
	Query query.Query
}

type Model struct {
	store *store.Store
	timer *exercise.Timer
	now   func() time.Time
	keys  KeyMap
	help  help.Model

	screen  screen
	query   query.Query
	visible []model.Task
	cursor  int

	form          form
	search        textinput.Model
	searching     bool
	confirmDelete bool
	status        string
	statusIsError bool
	width         int
	tickGen       int
}

func New(st *store.Store, opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	timer := opts.Timer
	if timer == nil {
		timer = exercise.NewTimer(exercise.DefaultDuration, now)
	}
	keys := DefaultKeyMap
	if opts.Keys != nil {
		keys = *opts.Keys
	}
	q := opts.Query
	if q == (query.Query{}) {
		q = query.Default()
	}

	search := textinput.New()
	search.Placeholder = "Search tasks by title"
	search.Prompt = "/ "
	search.SetValue(q.Search)

	m := Model{
		store:  st,
		timer:  timer,
		now:    now,
		keys:   keys,
		help:   help.New(),
		query:  q,
		search: search,
	}
	if timer.Started() {
		m.screen = screenList
	}
	m.refresh()
	return m
}

// Run starts the interactive program on the alternate screen.
func Run(st *store.Store, opts Options) error {
	_, err := tea.NewProgram(New(st, opts), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	if m.timer.State() == exercise.Running {
		return m.tick()
	}
	return nil
}

func (m Model) tick() tea.Cmd {
	gen := m.tickGen
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg{gen: gen, at: t} })
}

func (m Model) today() model.Date {
	return model.DateOf(m.now())
}

// refresh recomputes the derived view from the store and clamps the cursor.
func (m *Model) refresh() {
	m.visible = query.Apply(m.store.List(), m.query)
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setStatus(msg string) {
	m.status, m.statusIsError = msg, false
}

func (m *Model) setError(err error) {
	m.status, m.statusIsError = err.Error(), true
}

func (m Model) selected() (model.Task, bool) {
	if len(m.visible) == 0 {
		return model.Task{}, false
	}
	return m.visible[m.cursor], true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		if msg.gen != m.tickGen {
			return m, nil
		}
		if m.timer.State() == exercise.Running {
			return m, m.tick()
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	switch {
	case m.screen == screenForm:
		m.form, cmd = m.form.update(msg)
	case m.searching:
		m.search, cmd = m.search.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Reset) {
		return m.reset()
	}

	switch m.screen {
	case screenIntro:
		return m.updateIntro(msg)
	case screenForm:
		return m.updateForm(msg)
	}
	if m.confirmDelete {
		return m.updateDeleteConfirm(msg)
	}
	if m.searching {
		return m.updateSearch(msg)
	}
	return m.updateList(msg)
}

func (m Model) updateIntro(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Start):
		m.timer.Start()
		m.tickGen++
		m.screen = screenList
		m.refresh()
		return m, m.tick()
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

// reset stops the timer, clears every task and returns to the intro.
func (m Model) reset() (tea.Model, tea.Cmd) {
	if err := m.store.Clear(); err != nil {
		m.setError(fmt.Errorf("reset failed: %w", err))
		return m, nil
	}
	m.timer.Reset()
	m.tickGen++
	m.screen = screenIntro
	m.form = form{}
	m.searching = false
	m.confirmDelete = false
	m.search.Blur()
	m.cursor = 0
	m.setStatus("")
	m.refresh()
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Add):
		if m.timer.IsTimeUp() {
			m.setStatus(msgTimeUp)
			return m, nil
		}
		var cmd tea.Cmd
		m.form, cmd = newForm()
		m.screen = screenForm
		return m, cmd
	case key.Matches(msg, m.keys.Edit):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		var cmd tea.Cmd
		m.form, cmd = editForm(t)
		m.screen = screenForm
		return m, cmd
	case key.Matches(msg, m.keys.Toggle):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		if _, err := m.store.ToggleCompleted(t.ID); err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus(toastToggled)
		m.refresh()
	case key.Matches(msg, m.keys.Delete):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.confirmDelete = true
		m.setStatus(fmt.Sprintf("Delete %q? y/n", t.Title))
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.CyclePriority):
		m.query.Priority = m.query.Priority.Next()
		m.refresh()
	case key.Matches(msg, m.keys.CycleCompletion):
		m.query.Completion = m.query.Completion.Next()
		m.refresh()
	case key.Matches(msg, m.keys.CycleSort):
		m.query.Sort = m.query.Sort.Next()
		m.refresh()
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.confirmDelete = false
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.store.Remove(t.ID); err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus(toastDeleted)
		m.refresh()
	case key.Matches(msg, m.keys.Deny):
		m.confirmDelete = false
		m.setStatus("")
	}
	return m, nil
}

// updateSearch filters live as the query is typed. Enter keeps the query,
// esc clears it.
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.query.Search = ""
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.query.Search = m.search.Value()
	m.refresh()
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.screen = screenList
		m.form = form{}
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.NextField):
		cmd := m.form.setFocus(m.form.focus + 1)
		return m, cmd
	case key.Matches(msg, m.keys.PrevField):
		cmd := m.form.setFocus(m.form.focus - 1)
		return m, cmd
	case m.form.focus == fieldPriority && key.Matches(msg, m.keys.Left):
		m.form.cyclePriority(-1)
		return m, nil
	case m.form.focus == fieldPriority && key.Matches(msg, m.keys.Right):
		m.form.cyclePriority(1)
		return m, nil
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if !m.form.editing() && m.timer.IsTimeUp() {
		m.setStatus(msgTimeUp)
		return m, nil
	}
	fields, ok := m.form.fields()
	if !ok {
		return m, nil
	}

	var err error
	toast := toastAdded
	if m.form.editing() {
		_, err = m.store.Update(m.form.editingID, m.form.patch(fields))
		toast = toastUpdated
	} else {
		_, err = m.store.Add(fields)
	}

	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		m.form.errs = verr
		return m, nil
	case err != nil:
		m.setError(err)
		return m, nil
	}

	m.screen = screenList
	m.form = form{}
	m.setStatus(toast)
	m.refresh()
	if toast == toastAdded {
		m.cursor = m.lastAddedIndex()
	}
	return m, nil
}

// lastAddedIndex finds the newest task in the view, or keeps the cursor if
// the filters hide it.
func (m Model) lastAddedIndex() int {
	all := m.store.List()
	if len(all) == 0 {
		return m.cursor
	}
	newest := all[len(all)-1].ID
	for i, t := range m.visible {
		if t.ID == newest {
			return i
		}
	}
	return m.cursor
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")

	if m.timer.IsTimeUp() {
		b.WriteString(alertStyle.Render(msgTimeUp))
		b.WriteString("\n\n")
	}

	switch m.screen {
	case screenIntro:
		b.WriteString(m.introView())
	case screenForm:
		b.WriteString(m.form.view(m.store.RequiresDueDate()))
		b.WriteString("\n")
		b.WriteString(m.help.ShortHelpView(m.keys.formHelp()))
	default:
		b.WriteString(m.listView())
		b.WriteString("\n")
		b.WriteString(m.help.ShortHelpView(m.keys.listHelp()))
	}

	if m.status != "" {
		style := statusStyle
		if m.statusIsError {
			style = errorStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.status))
	}
	return b.String() + "\n"
}

func (m Model) headerView() string {
	minutes := int(m.timer.Duration() / time.Minute)
	header := titleStyle.Render(fmt.Sprintf("%d-Minute Task Board", minutes))
	if m.timer.Started() {
		clock := timerStyle(m.timer.Level()).Render("Time Remaining: " + m.timer.Format())
		header += "  " + clock
	}
	return header
}

func (m Model) introView() string {
	minutes := int(m.timer.Duration() / time.Minute)
	body := fmt.Sprintf(
		"Ready to start your %d-minute session?\n\n"+
			"Add, edit, complete and delete tasks, then search, filter\n"+
			"and sort them. Tasks are saved locally as you go.\n\n"+
			"Press enter to start the timer.",
		minutes,
	)
	return cardStyle.Render(body) + "\n\n" + m.help.ShortHelpView(m.keys.introHelp())
}

func (m Model) listView() string {
	var b strings.Builder
	today := m.today()
	all := m.store.List()
	sum := query.Summarize(all, today)
	b.WriteString(subtleStyle.Render(fmt.Sprintf(
		"%d tasks • %d completed • %d pending • %d overdue",
		sum.Total, sum.Completed, sum.Pending, sum.Overdue,
	)))
	b.WriteString("\n")

	if m.searching || m.query.Search != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	b.WriteString(subtleStyle.Render(fmt.Sprintf(
		"Priority: %s  Status: %s  Sort: %s",
		m.query.Priority, m.query.Completion, m.query.Sort,
	)))
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		if len(all) == 0 {
			b.WriteString(subtleStyle.Render("No tasks yet. Press ctrl+o to add one."))
		} else {
			b.WriteString(subtleStyle.Render("No tasks match the current filters."))
		}
		b.WriteString("\n")
		return b.String()
	}

	for i, t := range m.visible {
		b.WriteString(m.taskRow(i, t, today))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) taskRow(i int, t model.Task, today model.Date) string {
	cursor := "  "
	if i == m.cursor {
		cursor = cursorStyle.Render("> ")
	}
	check := "[ ]"
	title := t.Title
	if t.Completed {
		check = "[x]"
		title = doneStyle.Render(title)
	}

	row := fmt.Sprintf("%s%s %s  %s", cursor, check, title, priorityBadge(t.Priority))
	if t.HasDueDate() {
		due := "Due: " + t.DueDate.Short()
		if t.IsOverdue(today) {
			due = overdueStyle.Render(due + " (overdue)")
		} else {
			due = subtleStyle.Render(due)
		}
		row += "  " + due
	}
	if t.Description != "" && i == m.cursor {
		row += "\n      " + subtleStyle.Render(t.Description)
	}
	return row
}
