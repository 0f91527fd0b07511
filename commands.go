package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/pflag"

	"github.com/harrisonrobin/taskboard/pkg/auth"
	"github.com/harrisonrobin/taskboard/pkg/codec"
	"github.com/harrisonrobin/taskboard/pkg/config"
	"github.com/harrisonrobin/taskboard/pkg/exercise"
	"github.com/harrisonrobin/taskboard/pkg/google"
	"github.com/harrisonrobin/taskboard/pkg/index"
	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/orgmode"
	"github.com/harrisonrobin/taskboard/pkg/overdue"
	"github.com/harrisonrobin/taskboard/pkg/query"
	"github.com/harrisonrobin/taskboard/pkg/taskwarrior"
	"github.com/harrisonrobin/taskboard/pkg/tui"
)

func newFlagSet(a *app, name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func cmdTUI(a *app, args []string) error {
	fs := newFlagSet(a, "tui")
	minutes := fs.Int("minutes", a.cfg.ExerciseMinutes, "length of the timed session in minutes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sort, err := query.ParseSortMode(a.cfg.DefaultSort)
	if err != nil {
		return fmt.Errorf("invalid default_sort in config: %w", err)
	}
	q := query.Default()
	q.Sort = sort

	// The terminal belongs to the UI, so log lines go to a file.
	dir, err := a.cfg.ResolveDataDir()
	if err != nil {
		return err
	}
	logFile, err := tea.LogToFile(filepath.Join(dir, "taskboard.log"), "taskboard")
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	return tui.Run(a.store, tui.Options{
		Timer: exercise.NewTimer(time.Duration(*minutes)*time.Minute, a.now),
		Now:   a.now,
		Query: q,
	})
}

func cmdAdd(a *app, args []string) error {
	fs := newFlagSet(a, "add")
	title := fs.StringP("title", "t", "", "task title (required)")
	description := fs.StringP("description", "d", "", "task description")
	priority := fs.StringP("priority", "p", string(model.PriorityMedium), "high, medium or low")
	due := fs.String("due", "", "due date as YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" && fs.NArg() > 0 {
		*title = strings.Join(fs.Args(), " ")
	}

	dueDate, err := model.ParseDate(*due)
	if err != nil {
		return model.BadDueDate()
	}
	task, err := a.store.Add(model.Fields{
		Title:       *title,
		Description: *description,
		Priority:    model.Priority(strings.ToLower(strings.TrimSpace(*priority))),
		DueDate:     dueDate,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Task added! %s %s\n", task.ID, task.Title)
	return nil
}

func cmdEdit(a *app, args []string) error {
	fs := newFlagSet(a, "edit")
	title := fs.StringP("title", "t", "", "new title")
	description := fs.StringP("description", "d", "", "new description")
	priority := fs.StringP("priority", "p", "", "high, medium or low")
	due := fs.String("due", "", "new due date as YYYY-MM-DD")
	clearDue := fs.Bool("clear-due", false, "remove the due date")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: taskboard edit ID [flags]")
	}

	var patch model.Patch
	if fs.Changed("title") {
		patch.Title = title
	}
	if fs.Changed("description") {
		patch.Description = description
	}
	if fs.Changed("priority") {
		p := model.Priority(strings.ToLower(strings.TrimSpace(*priority)))
		patch.Priority = &p
	}
	switch {
	case *clearDue:
		patch.DueDate = &model.Date{}
	case fs.Changed("due"):
		d, err := model.ParseDate(*due)
		if err != nil {
			return model.BadDueDate()
		}
		patch.DueDate = &d
	}
	if patch.Empty() {
		return errors.New("nothing to update, pass at least one field flag")
	}

	target, err := a.store.Resolve(fs.Arg(0))
	if err != nil {
		return err
	}
	task, err := a.store.Update(target.ID, patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Task updated! %s %s\n", task.ID, task.Title)
	return nil
}

func cmdToggle(a *app, args []string) error {
	fs := newFlagSet(a, "toggle")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: taskboard toggle ID")
	}
	target, err := a.store.Resolve(fs.Arg(0))
	if err != nil {
		return err
	}
	task, err := a.store.ToggleCompleted(target.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Task completed status changed. %s is now %s\n", task.Title, statusOf(task))
	return nil
}

func cmdRemove(a *app, args []string) error {
	fs := newFlagSet(a, "rm")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: taskboard rm ID")
	}
	target, err := a.store.Resolve(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := a.store.Remove(target.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Task deleted %s %s\n", target.ID, target.Title)
	return nil
}

func cmdClear(a *app, args []string) error {
	fs := newFlagSet(a, "clear")
	if err := fs.Parse(args); err != nil {
		return err
	}
	n := a.store.Len()
	if err := a.store.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Removed %d tasks\n", n)
	return nil
}

func cmdList(a *app, args []string) error {
	fs := newFlagSet(a, "list")
	search := fs.StringP("search", "s", "", "case-insensitive title search")
	priority := fs.String("priority", string(query.PriorityAll), "all, high, medium or low")
	status := fs.String("status", string(query.CompletionAll), "all, completed or pending")
	sort := fs.String("sort", a.cfg.DefaultSort, "none, priority or dueDate")
	format := fs.String("format", "table", "table or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := query.Query{Search: *search}
	var err error
	if q.Priority, err = query.ParsePriorityFilter(*priority); err != nil {
		return err
	}
	if q.Completion, err = query.ParseCompletionFilter(*status); err != nil {
		return err
	}
	if q.Sort, err = query.ParseSortMode(*sort); err != nil {
		return err
	}
	tasks := query.Apply(a.store.List(), q)

	switch *format {
	case "json":
		return codec.EncodeIndent(a.stdout, tasks)
	case "table":
		writeTable(a.stdout, tasks, model.DateOf(a.now()))
		return nil
	}
	return fmt.Errorf("unknown format %q, want table or json", *format)
}

func writeTable(w io.Writer, tasks []model.Task, today model.Date) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		due := ""
		if t.HasDueDate() {
			due = t.DueDate.Short()
			if t.IsOverdue(today) {
				due += " !"
			}
		}
		rows = append(rows, []string{shortID(t.ID), statusOf(t), string(t.Priority), due, t.Title})
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STATUS", "PRIORITY", "DUE", "TITLE").
		Rows(rows...)
	fmt.Fprintln(w, tbl.Render())

	sum := query.Summarize(tasks, today)
	fmt.Fprintf(w, "%d tasks, %d completed, %d pending, %d overdue\n",
		sum.Total, sum.Completed, sum.Pending, sum.Overdue)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func statusOf(t model.Task) string {
	if t.Completed {
		return "completed"
	}
	return "pending"
}

func cmdExport(a *app, args []string) error {
	fs := newFlagSet(a, "export")
	format := fs.StringP("format", "f", "json", "json, yaml or org")
	out := fs.StringP("out", "o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	write, err := exportWriter(*format)
	if err != nil {
		return err
	}
	tasks := a.store.List()
	if *out == "" {
		return write(a.stdout, tasks)
	}

	f, err := os.OpenFile(*out, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open export file: %w", err)
	}
	if err := write(f, tasks); err != nil {
		f.Close()
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	return nil
}

func exportWriter(format string) (func(io.Writer, []model.Task) error, error) {
	switch format {
	case "json":
		return codec.EncodeIndent, nil
	case "yaml", "yml":
		return codec.EncodeYAML, nil
	case "org":
		return orgmode.Write, nil
	}
	return nil, fmt.Errorf("unknown format %q, want json, yaml or org", format)
}

func cmdImport(a *app, args []string) error {
	fs := newFlagSet(a, "import")
	from := fs.String("from", "json", "org, taskwarrior, json or yaml")
	filter := fs.StringSlice("filter", nil, "taskwarrior filter when reading from the task binary")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var tasks []model.Task
	var err error
	switch {
	case *from == "org" && fs.NArg() > 0 && fs.Arg(0) != "-":
		tasks, err = orgmode.ParseFiles(fs.Args())
	case fs.NArg() > 1:
		return errors.New("usage: taskboard import --from FORMAT [file|-], org accepts several files")
	case fs.NArg() == 1 && fs.Arg(0) != "-":
		f, openErr := os.Open(fs.Arg(0))
		if openErr != nil {
			return openErr
		}
		defer f.Close()
		tasks, err = readImport(*from, f, *filter)
	case fs.NArg() == 1 || *from != "taskwarrior":
		tasks, err = readImport(*from, a.stdin, *filter)
	default:
		tasks, err = readImport(*from, nil, *filter)
	}
	if err != nil {
		return err
	}
	added, err := a.store.Import(tasks)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Imported %d tasks\n", len(added))
	return nil
}

// readImport decodes tasks in the given format. A nil reader with
// taskwarrior runs `task export` directly.
func readImport(from string, in io.Reader, filter []string) ([]model.Task, error) {
	switch from {
	case "org":
		return orgmode.Parse(in)
	case "json":
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, err
		}
		return codec.Decode(data)
	case "yaml", "yml":
		return codec.DecodeYAML(in)
	case "taskwarrior":
		var twTasks []taskwarrior.Task
		var err error
		if in == nil {
			ctx, cancel := signalContext()
			defer cancel()
			twTasks, err = taskwarrior.NewClient().Export(ctx, filter)
		} else {
			twTasks, err = taskwarrior.ParseTasks(in)
		}
		if err != nil {
			return nil, err
		}
		return taskwarrior.ToModels(twTasks), nil
	}
	return nil, fmt.Errorf("unknown import format %q, want org, taskwarrior, json or yaml", from)
}

func cmdSync(a *app, args []string) error {
	fs := newFlagSet(a, "sync")
	calendarName := fs.String("calendar", a.cfg.Calendar, "Google Calendar name to sync with (overrides config)")
	overdueOnly := fs.Bool("overdue-only", false, "only flag events of tasks that became overdue")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	dir, err := config.Dir()
	if err != nil {
		return err
	}
	httpClient, err := auth.Client(ctx, dir, google.Scopes)
	if err != nil {
		return err
	}
	client, err := google.NewClient(ctx, httpClient, *calendarName)
	if err != nil {
		return err
	}

	idx, err := index.Load(a.backend, index.DefaultKey)
	if err != nil {
		return err
	}
	table, err := overdue.Load(a.backend, overdue.DefaultKey)
	if err != nil {
		return err
	}
	syncer := &google.Syncer{API: client, Index: idx, Table: table}

	today := model.DateOf(a.now())
	var report google.Report
	if *overdueOnly {
		report, err = syncer.FlagOverdue(ctx, today)
	} else {
		report, err = syncer.Sync(ctx, a.store.List(), today)
	}
	fmt.Fprintf(a.stdout, "Calendar %q: %d synced, %d unchanged, %d deleted, %d flagged overdue, %d failed\n",
		*calendarName, report.Synced, report.Skipped, report.Deleted, report.Flagged, report.Failed)
	return err
}

func cmdAuth(a *app, args []string) error {
	fs := newFlagSet(a, "auth")
	if err := fs.Parse(args); err != nil {
		return err
	}
	dir, err := config.Dir()
	if err != nil {
		return fmt.Errorf("could not find path to configuration file: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	if err := auth.Authorize(ctx, dir, google.Scopes, a.stdout); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	fmt.Fprintf(a.stdout, "Authentication successful! Token saved to %s\n", filepath.Join(dir, auth.TokenFile))
	return nil
}

func cmdSetCalendar(a *app, args []string) error {
	fs := newFlagSet(a, "set-calendar")
	if err := fs.Parse(args); err != nil {
		return err
	}
	name := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if name == "" {
		return errors.New("usage: taskboard set-calendar NAME")
	}
	a.cfg.Calendar = name
	if err := saveConfig(a); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}
	fmt.Fprintf(a.stdout, "Default calendar set to: %s\n", name)
	return nil
}

func saveConfig(a *app) error {
	if path, err := config.GetConfigPath(); err == nil && path == a.configPath {
		return config.Save(a.cfg)
	}
	return config.SaveTo(a.configPath, a.cfg)
}

func cmdConfig(a *app, args []string) error {
	fs := newFlagSet(a, "config")
	if err := fs.Parse(args); err != nil {
		return err
	}
	dataDir, err := a.cfg.ResolveDataDir()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "config file:      %s\n", a.configPath)
	fmt.Fprintf(a.stdout, "data dir:         %s\n", dataDir)
	fmt.Fprintf(a.stdout, "storage key:      %s\n", a.cfg.StorageKey)
	fmt.Fprintf(a.stdout, "calendar:         %s\n", a.cfg.Calendar)
	fmt.Fprintf(a.stdout, "require due date: %t\n", a.cfg.RequireDueDate)
	fmt.Fprintf(a.stdout, "exercise minutes: %d\n", a.cfg.ExerciseMinutes)
	fmt.Fprintf(a.stdout, "default sort:     %s\n", a.cfg.DefaultSort)
	return nil
}
