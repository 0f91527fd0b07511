package overdue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/storage"
)

// DefaultKey is the storage key holding the pending table.
const DefaultKey = "calendar-overdue"

// Entry is a pending dated task whose event has not yet been flagged
// overdue.
type Entry struct {
	TaskID  string     `json:"task_id"`
	EventID string     `json:"event_id"`
	Title   string     `json:"title"`
	Due     model.Date `json:"due"`
}

type Table struct {
	Entries map[string]Entry `json:"entries"`
	backend storage.Backend
	key     string
	dirty   bool
}

// Load reads the table stored under key. A missing value yields an empty
// table.
func Load(backend storage.Backend, key string) (*Table, error) {
	t := &Table{
		Entries: make(map[string]Entry),
		backend: backend,
		key:     key,
	}

	data, err := backend.Get(key)
	if errors.Is(err, storage.ErrNoValue) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read overdue table: %w", err)
	}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to decode overdue table: %w", err)
	}
	if t.Entries == nil {
		t.Entries = make(map[string]Entry)
	}
	return t, nil
}

func (t *Table) Save() error {
	if !t.dirty {
		return nil
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	if err := t.backend.Set(t.key, data); err != nil {
		return fmt.Errorf("failed to save overdue table: %w", err)
	}
	t.dirty = false
	return nil
}

// Update tracks a task while it is pending with a due date on or after
// today. Otherwise the task is removed from the table.
func (t *Table) Update(task model.Task, eventID string, today model.Date) {
	if task.Completed || !task.HasDueDate() || task.DueDate.Before(today) {
		t.Remove(task.ID)
		return
	}
	next := Entry{TaskID: task.ID, EventID: eventID, Title: task.Title, Due: task.DueDate}
	if old, exists := t.Entries[task.ID]; !exists || old != next {
		t.Entries[task.ID] = next
		t.dirty = true
	}
}

// Put stores an entry as is, e.g. to retry a swept entry later.
func (t *Table) Put(e Entry) {
	if old, exists := t.Entries[e.TaskID]; !exists || old != e {
		t.Entries[e.TaskID] = e
		t.dirty = true
	}
}

func (t *Table) Remove(taskID string) {
	if _, exists := t.Entries[taskID]; exists {
		delete(t.Entries, taskID)
		t.dirty = true
	}
}

// Sweep returns entries whose due date is before today and removes them.
func (t *Table) Sweep(today model.Date) []Entry {
	var swept []Entry
	for id, entry := range t.Entries {
		if entry.Due.Before(today) {
			swept = append(swept, entry)
			delete(t.Entries, id)
			t.dirty = true
		}
	}
	return swept
}
