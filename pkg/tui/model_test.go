package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskboard/pkg/exercise"
	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/query"
	"github.com/harrisonrobin/taskboard/pkg/storage"
	"github.com/harrisonrobin/taskboard/pkg/store"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time         { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	backend *storage.Memory
	store   *store.Store
	clock   *fakeClock
	model   Model
}

func newHarness(t *testing.T, requireDueDate bool) *harness {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, time.May, 10, 9, 0, 0, 0, time.Local)}
	backend := storage.NewMemory()
	st := store.New(store.KeyPort(backend, store.DefaultKey),
		store.WithClock(clock.Now),
		store.WithRequireDueDate(requireDueDate),
	)
	st.LoadAll()
	m := New(st, Options{
		Timer: exercise.NewTimer(time.Hour, clock.Now),
		Now:   clock.Now,
	})
	return &harness{backend: backend, store: st, clock: clock, model: m}
}

func (h *harness) send(t *testing.T, msgs ...tea.Msg) {
	t.Helper()
	for _, msg := range msgs {
		updated, _ := h.model.Update(msg)
		h.model = updated.(Model)
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func keyOf(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

var space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}

func (h *harness) start(t *testing.T) {
	t.Helper()
	h.send(t, keyOf(tea.KeyEnter))
	require.Equal(t, screenList, h.model.screen)
}

// addTask fills in the form: title, skip description, cycle priority,
// then the due date.
func (h *harness) addTask(t *testing.T, title string, priorityStep int, due string) {
	t.Helper()
	h.send(t, keyOf(tea.KeyCtrlO), runes(title), keyOf(tea.KeyTab), keyOf(tea.KeyTab))
	for i := 0; i < priorityStep; i++ {
		h.send(t, keyOf(tea.KeyRight))
	}
	h.send(t, keyOf(tea.KeyTab))
	if due != "" {
		h.send(t, runes(due))
	}
	h.send(t, keyOf(tea.KeyCtrlS))
}

func titles(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestIntroStartsTimer(t *testing.T) {
	h := newHarness(t, true)
	assert.Equal(t, screenIntro, h.model.screen)
	assert.Contains(t, h.model.View(), "Press enter to start")

	updated, cmd := h.model.Update(keyOf(tea.KeyEnter))
	h.model = updated.(Model)
	assert.Equal(t, screenList, h.model.screen)
	assert.Equal(t, exercise.Running, h.model.timer.State())
	assert.NotNil(t, cmd, "starting schedules the countdown tick")
	assert.Contains(t, h.model.View(), "Time Remaining: 60:00")
}

func TestAddTaskThroughForm(t *testing.T) {
	h := newHarness(t, true)
	h.start(t)

	h.addTask(t, "Buy milk", 1, "2024-05-12")

	assert.Equal(t, screenList, h.model.screen)
	assert.Equal(t, toastAdded, h.model.status)
	tasks := h.store.List()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, model.PriorityLow, tasks[0].Priority)
	assert.Equal(t, model.NewDate(2024, time.May, 12), tasks[0].DueDate)

	stored, err := h.backend.Get(store.DefaultKey)
	require.NoError(t, err)
	assert.Contains(t, string(stored), "Buy milk")

	view := h.model.View()
	assert.Contains(t, view, "Buy milk")
	assert.Contains(t, view, "Due: 05/12/24")
}

func TestFormShowsFieldErrors(t *testing.T) {
	h := newHarness(t, true)
	h.start(t)

	h.send(t, keyOf(tea.KeyCtrlO), keyOf(tea.KeyCtrlS))

	assert.Equal(t, screenForm, h.model.screen)
	assert.Equal(t, 0, h.store.Len())
	view := h.model.View()
	assert.Contains(t, view, "Title is required")
	assert.Contains(t, view, "Due date is required")

	h.send(t, keyOf(tea.KeyEsc))
	assert.Equal(t, screenList, h.model.screen)
	assert.Equal(t, 0, h.store.Len())
}

func TestFormRejectsMalformedDate(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)

	h.addTask(t, "Buy milk", 0, "05/12")

	assert.Equal(t, screenForm, h.model.screen)
	assert.Contains(t, h.model.View(), msgBadDate)
	assert.Equal(t, 0, h.store.Len())
}

func TestToggleEditDelete(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	h.addTask(t, "Buy milk", 0, "")

	h.send(t, space)
	assert.Equal(t, toastToggled, h.model.status)
	assert.True(t, h.store.List()[0].Completed)

	h.send(t, runes("e"))
	require.Equal(t, screenForm, h.model.screen)
	assert.Equal(t, "Buy milk", h.model.form.title.Value())
	h.model.form.title.SetValue("Buy oat milk")
	h.send(t, keyOf(tea.KeyCtrlS))
	assert.Equal(t, toastUpdated, h.model.status)
	task := h.store.List()[0]
	assert.Equal(t, "Buy oat milk", task.Title)
	assert.True(t, task.Completed, "edit keeps completion")

	h.send(t, runes("d"))
	assert.True(t, h.model.confirmDelete)
	h.send(t, runes("n"))
	assert.False(t, h.model.confirmDelete)
	assert.Equal(t, 1, h.store.Len())

	h.send(t, runes("d"), runes("y"))
	assert.Equal(t, toastDeleted, h.model.status)
	assert.Equal(t, 0, h.store.Len())
	assert.Contains(t, h.model.View(), "No tasks yet")
}

func TestFiltersAndSort(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	h.addTask(t, "Low", 1, "2024-05-20")
	h.addTask(t, "High", 2, "")
	h.addTask(t, "Medium", 0, "2024-05-11")

	assert.Equal(t, []string{"Low", "High", "Medium"}, titles(h.model.visible))

	h.send(t, runes("s"))
	assert.Equal(t, query.SortPriority, h.model.query.Sort)
	assert.Equal(t, []string{"High", "Medium", "Low"}, titles(h.model.visible))

	h.send(t, runes("s"))
	assert.Equal(t, query.SortDueDate, h.model.query.Sort)
	assert.Equal(t, []string{"Medium", "Low", "High"}, titles(h.model.visible))

	h.send(t, runes("p"))
	assert.Equal(t, []string{"High"}, titles(h.model.visible))

	h.send(t, runes("p"), runes("p"), runes("p"))
	assert.Equal(t, query.PriorityAll, h.model.query.Priority)

	h.send(t, space)
	h.send(t, runes("c"))
	assert.Equal(t, query.CompletionPending, h.model.query.Completion)
	assert.Len(t, h.model.visible, 2)
}

func TestSearch(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	h.addTask(t, "Buy milk", 0, "")
	h.addTask(t, "Walk dog", 0, "")

	h.send(t, keyOf(tea.KeyCtrlF), runes("MIL"))
	assert.True(t, h.model.searching)
	assert.Equal(t, []string{"Buy milk"}, titles(h.model.visible))

	h.send(t, keyOf(tea.KeyEnter))
	assert.False(t, h.model.searching)
	assert.Equal(t, "MIL", h.model.query.Search)

	h.send(t, keyOf(tea.KeyCtrlF), keyOf(tea.KeyEsc))
	assert.Empty(t, h.model.query.Search)
	assert.Len(t, h.model.visible, 2)
}

func TestTimeUpDisablesAdding(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)

	h.clock.Advance(50 * time.Minute)
	assert.Equal(t, exercise.LevelWarning, h.model.timer.Level())
	h.clock.Advance(11 * time.Minute)

	h.send(t, tickMsg{gen: h.model.tickGen, at: h.clock.Now()})
	assert.Contains(t, h.model.View(), "Time's up!")

	h.send(t, keyOf(tea.KeyCtrlO))
	assert.Equal(t, screenList, h.model.screen)
	assert.Equal(t, msgTimeUp, h.model.status)
}

func TestResetClearsEverything(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	h.addTask(t, "Buy milk", 0, "")

	h.send(t, keyOf(tea.KeyCtrlR))
	assert.Equal(t, screenIntro, h.model.screen)
	assert.Equal(t, exercise.NotStarted, h.model.timer.State())
	assert.Equal(t, 0, h.store.Len())

	stored, err := h.backend.Get(store.DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(stored)))
}

func TestStaleTickAfterRestartIsDropped(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	stale := tickMsg{gen: h.model.tickGen, at: h.clock.Now()}

	h.send(t, keyOf(tea.KeyCtrlR))
	h.send(t, keyOf(tea.KeyEnter))
	require.Equal(t, exercise.Running, h.model.timer.State())

	_, cmd := h.model.Update(stale)
	assert.Nil(t, cmd)

	_, cmd = h.model.Update(tickMsg{gen: h.model.tickGen, at: h.clock.Now()})
	assert.NotNil(t, cmd)
}

func TestOverdueRowsAreFlagged(t *testing.T) {
	h := newHarness(t, false)
	h.start(t)
	h.addTask(t, "Late", 0, "2024-05-01")

	view := h.model.View()
	assert.Contains(t, view, "(overdue)")
	assert.Contains(t, view, "1 overdue")
}
