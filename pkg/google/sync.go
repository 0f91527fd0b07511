package google

import (
	"context"
	"errors"
	"fmt"
	"log"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/taskboard/pkg/index"
	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/overdue"
	"github.com/harrisonrobin/taskboard/pkg/util"
)

// Report counts what a sync did.
type Report struct {
	Synced  int
	Skipped int
	Deleted int
	Flagged int
	Failed  int
}

// Syncer mirrors tasks onto calendar events. Index maps tasks to events and
// Table tracks pending dated tasks for FlagOverdue.
type Syncer struct {
	API   EventAPI
	Index *index.EventIndex
	Table *overdue.Table
}

// SyncTask creates or patches the event of a dated task. The index entry
// is tried first, then a search by extended property.
func (s *Syncer) SyncTask(ctx context.Context, task model.Task, today model.Date) (*calendar.Event, error) {
	target, err := util.ConvertTaskToCalendarEvent(task, today)
	if err != nil {
		return nil, err
	}

	var existing *calendar.Event
	if entry, ok := s.Index.Get(task.ID); ok && entry.EventID != "" {
		existing, err = s.API.Get(ctx, entry.EventID)
		if err != nil && !errors.Is(err, ErrEventNotFound) {
			return nil, err
		}
	}
	if existing == nil {
		existing, err = s.API.FindByTaskID(ctx, task.ID)
		if err != nil {
			return nil, fmt.Errorf("error searching for event: %w", err)
		}
	}

	event := existing
	if existing == nil {
		event, err = s.API.Insert(ctx, target)
	} else if patch := util.EventNeedsUpdate(existing, target); patch != nil {
		event, err = s.API.Patch(ctx, existing.Id, patch)
	}
	if err != nil {
		return nil, err
	}

	s.Index.Set(task.ID, index.Entry{EventID: event.Id, Fingerprint: util.Fingerprint(target)})
	s.Table.Update(task, event.Id, today)
	return event, nil
}

// RemoveTask deletes the event of a task, if it has one. An event already
// gone remotely counts as deleted.
func (s *Syncer) RemoveTask(ctx context.Context, taskID string) (bool, error) {
	entry, ok := s.Index.Get(taskID)
	if !ok {
		return false, nil
	}
	if err := s.API.Delete(ctx, entry.EventID); err != nil && !errors.Is(err, ErrEventNotFound) {
		return false, err
	}
	s.Index.Remove(taskID)
	s.Table.Remove(taskID)
	return true, nil
}

// Sync reconciles the calendar with the full task list. Dated tasks whose
// event fingerprint is unchanged are skipped; events of undated or removed
// tasks are deleted. Failures are logged and counted, and the last one is
// returned after the index and table are saved.
func (s *Syncer) Sync(ctx context.Context, tasks []model.Task, today model.Date) (Report, error) {
	var report Report
	var lastErr error
	fail := func(taskID string, err error) {
		log.Printf("Warning: failed to sync task %s: %v", taskID, err)
		report.Failed++
		lastErr = err
	}

	live := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return report, errors.Join(err, s.save())
		}
		live[task.ID] = true

		if !task.HasDueDate() {
			removed, err := s.RemoveTask(ctx, task.ID)
			if err != nil {
				fail(task.ID, err)
			} else if removed {
				report.Deleted++
			}
			continue
		}

		target, err := util.ConvertTaskToCalendarEvent(task, today)
		if err != nil {
			fail(task.ID, err)
			continue
		}
		if entry, ok := s.Index.Get(task.ID); ok && entry.Fingerprint == util.Fingerprint(target) {
			s.Table.Update(task, entry.EventID, today)
			report.Skipped++
			continue
		}
		if _, err := s.SyncTask(ctx, task, today); err != nil {
			fail(task.ID, err)
			continue
		}
		report.Synced++
	}

	for _, taskID := range s.Index.TaskIDs() {
		if live[taskID] {
			continue
		}
		removed, err := s.RemoveTask(ctx, taskID)
		if err != nil {
			fail(taskID, err)
		} else if removed {
			report.Deleted++
		}
	}

	if err := s.save(); err != nil {
		return report, err
	}
	return report, lastErr
}

// FlagOverdue prefixes the events of tasks that passed their due date since
// the last sync with "! ", without reading the task list.
func (s *Syncer) FlagOverdue(ctx context.Context, today model.Date) (Report, error) {
	var report Report
	var lastErr error
	for _, entry := range s.Table.Sweep(today) {
		summary := util.Summary(model.Task{Title: entry.Title, DueDate: entry.Due}, today)
		if _, err := s.API.Patch(ctx, entry.EventID, &calendar.Event{Summary: summary}); err != nil {
			if errors.Is(err, ErrEventNotFound) {
				s.Index.Remove(entry.TaskID)
				continue
			}
			log.Printf("Warning: failed to flag task %s as overdue: %v", entry.TaskID, err)
			s.Table.Put(entry)
			report.Failed++
			lastErr = err
			continue
		}
		report.Flagged++
	}
	if err := s.save(); err != nil {
		return report, err
	}
	return report, lastErr
}

func (s *Syncer) save() error {
	if err := s.Index.Save(); err != nil {
		return err
	}
	return s.Table.Save()
}
