package util

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/taskboard/pkg/colors"
	"github.com/harrisonrobin/taskboard/pkg/model"
)

// TaskIDProperty is the private extended property linking an event to its
// task.
const TaskIDProperty = "taskboard_id"

const (
	completedPrefix = "✓"
	overduePrefix   = "!"
)

var ErrNoDueDate = errors.New("task has no due date")

// Summary is the event title for a task: "✓ " for completed tasks, "! " for
// pending tasks past their due date.
func Summary(task model.Task, today model.Date) string {
	switch {
	case task.Completed:
		return completedPrefix + " " + task.Title
	case task.IsOverdue(today):
		return overduePrefix + " " + task.Title
	}
	return task.Title
}

// ConvertTaskToCalendarEvent builds the all-day event mirroring a dated
// task. Undated tasks have no event and return ErrNoDueDate.
func ConvertTaskToCalendarEvent(task model.Task, today model.Date) (*calendar.Event, error) {
	if !task.HasDueDate() {
		return nil, fmt.Errorf("%w: %s", ErrNoDueDate, task.ID)
	}

	status := "pending"
	if task.Completed {
		status = "completed"
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "Priority: %s\n", task.Priority)
	fmt.Fprintf(&desc, "Status: %s\n", status)
	fmt.Fprintf(&desc, "ID: %s\n", task.ID)
	if task.Description != "" {
		desc.WriteString("\n")
		desc.WriteString(task.Description)
		desc.WriteString("\n")
	}

	event := &calendar.Event{
		Summary:     Summary(task, today),
		Description: desc.String(),
		ColorId:     colors.CalendarID(task),
		Start:       &calendar.EventDateTime{Date: task.DueDate.String()},
		// All-day events end on the following day, exclusive.
		End: &calendar.EventDateTime{Date: task.DueDate.AddDays(1).String()},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				TaskIDProperty: task.ID,
			},
		},
	}
	return event, nil
}

// Fingerprint hashes the synced fields of an event, letting sync skip
// tasks whose event would not change.
func Fingerprint(event *calendar.Event) string {
	h := blake3.New()
	for _, field := range []string{
		event.Summary,
		event.Description,
		event.ColorId,
		eventDate(event.Start),
		eventDate(event.End),
	} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func eventDate(dt *calendar.EventDateTime) string {
	if dt == nil {
		return ""
	}
	if dt.Date != "" {
		return dt.Date
	}
	return dt.DateTime
}

// EventNeedsUpdate returns a patch carrying the fields of target that differ
// from existing, or nil when the event is already up to date.
func EventNeedsUpdate(existingEvent *calendar.Event, targetEvent *calendar.Event) *calendar.Event {
	patch := &calendar.Event{}
	needsUpdate := false

	if existingEvent.Summary != targetEvent.Summary {
		patch.Summary = targetEvent.Summary
		needsUpdate = true
	}
	if existingEvent.Description != targetEvent.Description {
		patch.Description = targetEvent.Description
		needsUpdate = true
	}
	if existingEvent.ColorId != targetEvent.ColorId {
		patch.ColorId = targetEvent.ColorId
		needsUpdate = true
	}
	if eventDate(existingEvent.Start) != eventDate(targetEvent.Start) ||
		eventDate(existingEvent.End) != eventDate(targetEvent.End) {
		patch.Start = targetEvent.Start
		patch.End = targetEvent.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch
	}
	return nil
}

// TaskIDFromEvent returns the task id stored on an event.
func TaskIDFromEvent(event *calendar.Event) (string, bool) {
	if event.ExtendedProperties == nil {
		return "", false
	}
	id, ok := event.ExtendedProperties.Private[TaskIDProperty]
	return id, ok && id != ""
}
