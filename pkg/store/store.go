// Package store holds the authoritative task list and keeps it in sync with
// durable storage. Every mutation writes the full set through the
// persistence port before it becomes visible.
package store

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/taskboard/pkg/codec"
	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/storage"
)

// DefaultKey is the storage key the task snapshot lives under.
const DefaultKey = "tasks"

var ErrNotFound = errors.New("task not found")

// Persistence reads and writes the full serialized snapshot. Load returns
// storage.ErrNoValue when nothing has been saved yet.
type Persistence interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

type keyPort struct {
	backend storage.Backend
	key     string
}

// KeyPort persists the snapshot under one key of a storage backend.
func KeyPort(backend storage.Backend, key string) Persistence {
	return keyPort{backend: backend, key: key}
}

func (p keyPort) Load() ([]byte, error)  { return p.backend.Get(p.key) }
func (p keyPort) Save(data []byte) error { return p.backend.Set(p.key, data) }

type Option func(*Store)

// WithClock overrides the source of CreatedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the source of task IDs.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithRequireDueDate makes a due date mandatory on add and forbids
// clearing it on update.
func WithRequireDueDate(required bool) Option {
	return func(s *Store) { s.requireDueDate = required }
}

type Store struct {
	mu    sync.Mutex
	port  Persistence
	tasks []model.Task

	now            func() time.Time
	newID          func() string
	requireDueDate bool
}

func New(port Persistence, opts ...Option) *Store {
	s := &Store{
		port:  port,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequiresDueDate reports whether the due-date rule is active.
func (s *Store) RequiresDueDate() bool {
	return s.requireDueDate
}

// LoadAll replaces the in-memory set with the persisted snapshot. A
// missing or unreadable snapshot yields an empty set; it never fails.
func (s *Store) LoadAll() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = s.readSnapshot()
	return slices.Clone(s.tasks)
}

func (s *Store) readSnapshot() []model.Task {
	data, err := s.port.Load()
	if err != nil {
		if !errors.Is(err, storage.ErrNoValue) {
			log.Printf("Warning: could not read task snapshot, starting empty: %v", err)
		}
		return []model.Task{}
	}
	tasks, err := codec.Decode(data)
	if err != nil {
		log.Printf("Warning: task snapshot is corrupt, starting empty: %v", err)
		return []model.Task{}
	}

	seen := make(map[string]bool, len(tasks))
	out := tasks[:0]
	for _, t := range tasks {
		if seen[t.ID] {
			log.Printf("Warning: dropping duplicate task id %s from snapshot", t.ID)
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}

// commitLocked persists next and, only if that succeeds, makes it the
// live set. On failure the previous state stays in place.
func (s *Store) commitLocked(next []model.Task) error {
	data, err := codec.Encode(next)
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}
	if err := s.port.Save(data); err != nil {
		return fmt.Errorf("failed to persist tasks: %w", err)
	}
	s.tasks = next
	return nil
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
}

// Add validates the fields and appends a new pending task.
func (s *Store) Add(f model.Fields) (model.Task, error) {
	if err := f.Validate(s.requireDueDate); err != nil {
		return model.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := model.Task{
		ID:          s.uniqueIDLocked(),
		Title:       strings.TrimSpace(f.Title),
		Description: f.Description,
		Priority:    f.Priority,
		Completed:   false,
		DueDate:     f.DueDate,
		CreatedAt:   s.now(),
	}

	next := append(slices.Clone(s.tasks), t)
	if err := s.commitLocked(next); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (s *Store) uniqueIDLocked() string {
	for {
		id := s.newID()
		if id != "" && s.indexLocked(id) < 0 {
			return id
		}
	}
}

// Update merges the supplied fields into an existing task. ID, CreatedAt
// and Completed are preserved.
func (s *Store) Update(id string, p model.Patch) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := p.Validate(s.requireDueDate); err != nil {
		return model.Task{}, err
	}

	next := slices.Clone(s.tasks)
	p.Apply(&next[i])
	if err := s.commitLocked(next); err != nil {
		return model.Task{}, err
	}
	return next[i], nil
}

// ToggleCompleted flips the completion flag.
func (s *Store) ToggleCompleted(id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := slices.Clone(s.tasks)
	next[i].Completed = !next[i].Completed
	if err := s.commitLocked(next); err != nil {
		return model.Task{}, err
	}
	return next[i], nil
}

// Remove deletes a task.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.commitLocked(slices.Delete(slices.Clone(s.tasks), i, i+1))
}

// Clear removes every task.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked([]model.Task{})
}

// Import appends tasks from an external source in one write. Each task is
// validated like Add; missing or colliding IDs are replaced, a zero
// CreatedAt becomes now.
func (s *Store) Import(tasks []model.Task) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.tasks)
	seen := make(map[string]bool, len(next)+len(tasks))
	for _, t := range next {
		seen[t.ID] = true
	}

	added := make([]model.Task, 0, len(tasks))
	for i, t := range tasks {
		f := model.Fields{Title: t.Title, Description: t.Description, Priority: t.Priority, DueDate: t.DueDate}
		if err := f.Validate(s.requireDueDate); err != nil {
			return nil, fmt.Errorf("imported task %d (%q): %w", i, t.Title, err)
		}
		t.Title = strings.TrimSpace(t.Title)
		for t.ID == "" || seen[t.ID] {
			t.ID = s.newID()
		}
		seen[t.ID] = true
		if t.CreatedAt.IsZero() {
			t.CreatedAt = s.now()
		}
		next = append(next, t)
		added = append(added, t)
	}

	if err := s.commitLocked(next); err != nil {
		return nil, err
	}
	return added, nil
}

// Get returns a single task.
func (s *Store) Get(id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.tasks[i], nil
}

// List returns a copy of every task in insertion order.
func (s *Store) List() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Resolve finds a task by full ID or by an unambiguous ID prefix, as typed
// on a command line.
func (s *Store) Resolve(ref string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Task{}, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	if i := s.indexLocked(ref); i >= 0 {
		return s.tasks[i], nil
	}
	var match *model.Task
	for i := range s.tasks {
		if strings.HasPrefix(s.tasks[i].ID, ref) {
			if match != nil {
				return model.Task{}, fmt.Errorf("id prefix %q is ambiguous", ref)
			}
			match = &s.tasks[i]
		}
	}
	if match == nil {
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return *match, nil
}
