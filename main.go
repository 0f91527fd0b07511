package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/harrisonrobin/taskboard/pkg/config"
	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/storage"
	"github.com/harrisonrobin/taskboard/pkg/store"
)

const (
	exitOK         = 0
	exitError      = 1
	exitValidation = 2
)

// app carries what every subcommand needs.
type app struct {
	cfg        *config.Config
	configPath string
	backend    storage.Backend
	store      *store.Store
	now        func() time.Time

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	name    string
	summary string
	// needsStore is false for commands that only touch configuration.
	needsStore bool
	run        func(a *app, args []string) error
}

var commands = []command{
	{"tui", "open the interactive board (default)", true, cmdTUI},
	{"add", "add a task", true, cmdAdd},
	{"edit", "update fields of a task", true, cmdEdit},
	{"toggle", "flip a task between pending and completed", true, cmdToggle},
	{"rm", "remove a task", true, cmdRemove},
	{"clear", "remove every task", true, cmdClear},
	{"list", "list tasks with search, filters and sorting", true, cmdList},
	{"export", "write all tasks as json, yaml or org", true, cmdExport},
	{"import", "append tasks from org, taskwarrior, json or yaml", true, cmdImport},
	{"sync", "mirror dated tasks onto a Google Calendar", true, cmdSync},
	{"auth", "authorize Google Calendar access", false, cmdAuth},
	{"set-calendar", "set the default calendar name", false, cmdSetCalendar},
	{"config", "print the effective configuration", false, cmdConfig},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var configPath, dataDir, key string

	flagSet := pflag.NewFlagSet("taskboard", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&configPath, "config", "", "config file (default ~/.config/taskboard/config.json)")
	flagSet.StringVar(&dataDir, "data-dir", "", "directory holding the task storage (overrides config)")
	flagSet.StringVar(&key, "key", "", "storage key of the task list (overrides config)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stdout, flagSet)
			return exitOK
		}
		return exitError
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stdout, flagSet)
		return exitOK
	}

	rest := flagSet.Args()
	name := "tui"
	if len(rest) > 0 {
		name, rest = rest[0], rest[1:]
	}
	if name == "help" {
		printHelp(stdout, flagSet)
		return exitOK
	}
	cmd, ok := lookup(name)
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		printHelp(stderr, flagSet)
		return exitError
	}

	a, err := newApp(configPath, dataDir, key, cmd.needsStore)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	a.stdin, a.stdout, a.stderr = stdin, stdout, stderr

	return exitCode(stderr, cmd.run(a, rest))
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func newApp(configPath, dataDir, key string, needsStore bool) (*app, error) {
	var cfg *config.Config
	var err error
	if configPath == "" {
		if configPath, err = config.GetConfigPath(); err != nil {
			return nil, fmt.Errorf("could not find path to configuration file: %w", err)
		}
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(configPath)
	}
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if key != "" {
		cfg.StorageKey = key
	}

	a := &app{cfg: cfg, configPath: configPath, now: time.Now}
	if !needsStore {
		return a, nil
	}

	dir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, err
	}
	backend, err := storage.NewDir(dir)
	if err != nil {
		return nil, err
	}
	if err := storage.ValidateKey(cfg.StorageKey); err != nil {
		return nil, err
	}
	a.backend = backend
	a.store = store.New(store.KeyPort(backend, cfg.StorageKey),
		store.WithRequireDueDate(cfg.RequireDueDate),
	)
	a.store.LoadAll()
	return a, nil
}

// exitCode reports err on stderr. Validation errors list one message per
// field.
func exitCode(stderr io.Writer, err error) int {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			fmt.Fprintf(stderr, "%s: %s\n", f.Field, f.Message)
		}
		return exitValidation
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return exitError
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: taskboard [global flags] <command> [flags]\n\n")
	fmt.Fprintf(w, "A timed task board with local storage and calendar export.\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-14s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nGlobal flags:\n%s", flagSet.FlagUsages())
	fmt.Fprintf(w, "\nRun 'taskboard <command> --help' for command flags.\n")
	fmt.Fprintf(w, "Environment: %s\n", strings.Join([]string{
		"TASKBOARD_DATA_DIR", "TASKBOARD_STORAGE_KEY", "TASKBOARD_CALENDAR",
		"TASKBOARD_REQUIRE_DUE_DATE", "TASKBOARD_EXERCISE_MINUTES", "TASKBOARD_DEFAULT_SORT",
	}, ", "))
}
