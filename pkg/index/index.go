package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/harrisonrobin/taskboard/pkg/storage"
)

// DefaultKey is the storage key holding the task to event mapping.
const DefaultKey = "calendar-events"

// Entry records the calendar event mirroring a task and the fingerprint of
// the task contents it was last synced from.
type Entry struct {
	EventID     string `json:"event_id"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

type EventIndex struct {
	Mappings map[string]Entry `json:"mappings"`
	backend  storage.Backend
	key      string
	mu       sync.RWMutex
	dirty    bool
}

// Load reads the index stored under key. A missing value yields an empty
// index.
func Load(backend storage.Backend, key string) (*EventIndex, error) {
	idx := &EventIndex{
		Mappings: make(map[string]Entry),
		backend:  backend,
		key:      key,
	}

	data, err := backend.Get(key)
	if errors.Is(err, storage.ErrNoValue) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read event index: %w", err)
	}
	if err := json.Unmarshal(data, &idx.Mappings); err != nil {
		return nil, fmt.Errorf("failed to decode event index: %w", err)
	}
	if idx.Mappings == nil {
		idx.Mappings = make(map[string]Entry)
	}
	return idx, nil
}

// Save writes the index back if it changed since the last load or save.
func (idx *EventIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	data, err := json.Marshal(idx.Mappings)
	if err != nil {
		return err
	}
	if err := idx.backend.Set(idx.key, data); err != nil {
		return fmt.Errorf("failed to save event index: %w", err)
	}
	idx.dirty = false
	return nil
}

func (idx *EventIndex) Get(taskID string) (Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.Mappings[taskID]
	return e, ok
}

func (idx *EventIndex) Set(taskID string, entry Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.Mappings[taskID] != entry {
		idx.Mappings[taskID] = entry
		idx.dirty = true
	}
}

func (idx *EventIndex) Remove(taskID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.Mappings[taskID]; exists {
		delete(idx.Mappings, taskID)
		idx.dirty = true
	}
}

// TaskIDs returns every task that currently has an event.
func (idx *EventIndex) TaskIDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]string, 0, len(idx.Mappings))
	for id := range idx.Mappings {
		ids = append(ids, id)
	}
	return ids
}
