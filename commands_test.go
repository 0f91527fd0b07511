package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskboard/pkg/codec"
	"github.com/harrisonrobin/taskboard/pkg/config"
	"github.com/harrisonrobin/taskboard/pkg/model"
)

type cli struct {
	configPath string
	dataDir    string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	return &cli{
		configPath: filepath.Join(dir, "config.json"),
		dataDir:    filepath.Join(dir, "data"),
	}
}

func (c *cli) run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config", c.configPath, "--data-dir", c.dataDir}, args...)
	code := run(full, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (c *cli) tasks(t *testing.T) []model.Task {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(c.dataDir, "tasks.json"))
	require.NoError(t, err)
	tasks, err := codec.Decode(data)
	require.NoError(t, err)
	return tasks
}

func TestAddListToggleRemove(t *testing.T) {
	c := newCLI(t)

	code, out, errOut := c.run(t, "", "add", "--title", "Buy milk", "--priority", "High", "--due", "2024-05-01")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Task added!")

	code, _, errOut = c.run(t, "", "add", "-t", "Walk dog", "-p", "low", "--due", "2024-04-01")
	require.Equal(t, exitOK, code, errOut)

	tasks := c.tasks(t)
	require.Len(t, tasks, 2)
	assert.Equal(t, model.PriorityHigh, tasks[0].Priority)

	code, out, _ = c.run(t, "", "list", "--sort", "dueDate")
	require.Equal(t, exitOK, code)
	assert.Less(t, strings.Index(out, "Walk dog"), strings.Index(out, "Buy milk"))
	assert.Contains(t, out, "2 tasks")

	code, _, errOut = c.run(t, "", "toggle", tasks[1].ID[:6])
	require.Equal(t, exitOK, code, errOut)
	assert.True(t, c.tasks(t)[1].Completed)

	code, out, _ = c.run(t, "", "list", "--status", "pending", "--format", "json")
	require.Equal(t, exitOK, code)
	listed, err := codec.Decode([]byte(out))
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Buy milk", listed[0].Title)

	code, _, errOut = c.run(t, "", "rm", tasks[0].ID)
	require.Equal(t, exitOK, code, errOut)
	assert.Len(t, c.tasks(t), 1)

	code, _, _ = c.run(t, "", "clear")
	require.Equal(t, exitOK, code)
	assert.Empty(t, c.tasks(t))
}

func TestValidationExitCode(t *testing.T) {
	c := newCLI(t)

	code, _, errOut := c.run(t, "", "add", "--priority", "urgent")
	assert.Equal(t, exitValidation, code)
	assert.Contains(t, errOut, "Title is required")
	assert.Contains(t, errOut, "Select a priority")
	assert.Contains(t, errOut, "Due date is required")
	assert.NoFileExists(t, filepath.Join(c.dataDir, "tasks.json"))
}

func TestDueDateOptionalWhenConfigured(t *testing.T) {
	c := newCLI(t)
	cfg := config.Default()
	cfg.RequireDueDate = false
	require.NoError(t, config.SaveTo(c.configPath, cfg))

	code, _, errOut := c.run(t, "", "add", "Undated", "task")
	require.Equal(t, exitOK, code, errOut)
	assert.Equal(t, "Undated task", c.tasks(t)[0].Title)
}

func TestEdit(t *testing.T) {
	c := newCLI(t)
	code, _, _ := c.run(t, "", "add", "-t", "Buy milk", "--due", "2024-05-01")
	require.Equal(t, exitOK, code)
	id := c.tasks(t)[0].ID

	code, out, errOut := c.run(t, "", "edit", id, "--title", "Buy oat milk", "--priority", "low")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Task updated!")
	task := c.tasks(t)[0]
	assert.Equal(t, "Buy oat milk", task.Title)
	assert.Equal(t, model.PriorityLow, task.Priority)
	assert.Equal(t, id, task.ID)

	code, _, errOut = c.run(t, "", "edit", id, "--title", " ")
	assert.Equal(t, exitValidation, code)
	assert.Contains(t, errOut, "Title is required")
	assert.Equal(t, "Buy oat milk", c.tasks(t)[0].Title)

	code, _, _ = c.run(t, "", "edit", id)
	assert.Equal(t, exitError, code)

	code, _, errOut = c.run(t, "", "edit", "missing", "--title", "x")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "not found")
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newCLI(t)
	code, _, _ := src.run(t, "", "add", "-t", "Buy milk", "-p", "high", "--due", "2024-05-01", "-d", "Oat")
	require.Equal(t, exitOK, code)
	code, _, _ = src.run(t, "", "add", "-t", "Walk dog", "--due", "2024-05-02")
	require.Equal(t, exitOK, code)

	for _, format := range []string{"json", "yaml", "org"} {
		t.Run(format, func(t *testing.T) {
			code, exported, errOut := src.run(t, "", "export", "--format", format)
			require.Equal(t, exitOK, code, errOut)

			dst := newCLI(t)
			code, out, errOut := dst.run(t, exported, "import", "--from", format, "-")
			require.Equal(t, exitOK, code, errOut)
			assert.Contains(t, out, "Imported 2 tasks")

			want, got := src.tasks(t), dst.tasks(t)
			require.Len(t, got, 2)
			for i := range want {
				assert.Equal(t, want[i].Title, got[i].Title)
				assert.Equal(t, want[i].Priority, got[i].Priority)
				assert.Equal(t, want[i].DueDate, got[i].DueDate)
				assert.Equal(t, want[i].Description, got[i].Description)
			}
		})
	}
}

func TestImportTaskwarrior(t *testing.T) {
	c := newCLI(t)
	input := `[
		{"uuid": "a1", "description": "Buy milk", "status": "pending", "priority": "H", "due": "20240501T120000Z"},
		{"uuid": "b2", "description": "Gone", "status": "deleted", "due": "20240501T120000Z"}
	]`
	code, out, errOut := c.run(t, input, "import", "--from", "taskwarrior", "-")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Imported 1 tasks")
	tasks := c.tasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, "a1", tasks[0].ID)
	assert.Equal(t, model.PriorityHigh, tasks[0].Priority)
}

func TestSetCalendarKeepsOtherSettings(t *testing.T) {
	c := newCLI(t)
	cfg := config.Default()
	cfg.ExerciseMinutes = 30
	require.NoError(t, config.SaveTo(c.configPath, cfg))

	code, out, _ := c.run(t, "", "set-calendar", "Work")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Default calendar set to: Work")

	saved, err := config.LoadFrom(c.configPath)
	require.NoError(t, err)
	assert.Equal(t, "Work", saved.Calendar)
	assert.Equal(t, 30, saved.ExerciseMinutes)

	code, out, _ = c.run(t, "", "config")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "calendar:         Work")
}

func TestUnknownCommandAndHelp(t *testing.T) {
	c := newCLI(t)
	code, _, errOut := c.run(t, "", "frobnicate")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "unknown command")

	code, out, _ := c.run(t, "", "--help")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "set-calendar")

	code, _, _ = c.run(t, "", "add", "--help")
	assert.Equal(t, exitOK, code)
}

func TestMalformedDueIsFieldError(t *testing.T) {
	c := newCLI(t)

	code, _, errOut := c.run(t, "", "add", "-t", "Buy milk", "--due", "05/01/2024")
	assert.Equal(t, exitValidation, code)
	assert.Equal(t, "dueDate: "+model.MsgBadDate+"\n", errOut)
	assert.NoFileExists(t, filepath.Join(c.dataDir, "tasks.json"))

	code, _, _ = c.run(t, "", "add", "-t", "Buy milk", "--due", "2024-05-01")
	require.Equal(t, exitOK, code)
	id := c.tasks(t)[0].ID

	code, _, errOut = c.run(t, "", "edit", id, "--due", "tomorrow")
	assert.Equal(t, exitValidation, code)
	assert.Contains(t, errOut, "dueDate: "+model.MsgBadDate)
	assert.Equal(t, model.NewDate(2024, 5, 1), c.tasks(t)[0].DueDate)
}

func TestImportSeveralOrgFiles(t *testing.T) {
	c := newCLI(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "inbox.org")
	second := filepath.Join(dir, "work.org")
	require.NoError(t, os.WriteFile(first, []byte("* TODO [#A] Buy milk\n  DEADLINE: <2024-05-01 Wed>\n"), 0600))
	require.NoError(t, os.WriteFile(second, []byte("* DONE Write report\n* TODO [#C] Call Bob\n"), 0600))

	code, out, errOut := c.run(t, "", "import", "--from", "org", first, second)
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Imported 3 tasks")

	tasks := c.tasks(t)
	require.Len(t, tasks, 3)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, "Write report", tasks[1].Title)
	assert.Equal(t, "Call Bob", tasks[2].Title)

	code, _, _ = c.run(t, "", "import", "--from", "json", first, second)
	assert.Equal(t, exitError, code)
}

func TestExportToFile(t *testing.T) {
	c := newCLI(t)
	code, _, _ := c.run(t, "", "add", "-t", "Buy milk", "--due", "2024-05-01")
	require.Equal(t, exitOK, code)

	out := filepath.Join(t.TempDir(), "tasks.org")
	code, _, errOut := c.run(t, "", "export", "--format", "org", "--out", out)
	require.Equal(t, exitOK, code, errOut)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "* TODO [#B] Buy milk")

	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full on this system")
	}
	code, _, errOut = c.run(t, "", "export", "--format", "org", "--out", "/dev/full")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "failed to write export file")
}

func TestDefaultConfigLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dataDir := filepath.Join(home, "data")

	var stdout, stderr bytes.Buffer
	code := run([]string{"--data-dir", dataDir, "set-calendar", "Work"}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	path := filepath.Join(home, ".config", "taskboard", "config.json")
	saved, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "Work", saved.Calendar)

	stdout.Reset()
	code = run([]string{"--data-dir", dataDir, "config"}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "config file:      "+path)
	assert.Contains(t, stdout.String(), "calendar:         Work")
}
