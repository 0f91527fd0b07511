package util

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/colors"
	"github.com/harrisonrobin/taskboard/pkg/model"
)

var today = model.NewDate(2024, time.May, 10)

func TestConvertTaskToCalendarEvent(t *testing.T) {
	task := model.Task{
		ID:          "12345678-1234-1234-1234-123456789012",
		Title:       "Test Task",
		Description: "Note 1",
		Priority:    model.PriorityHigh,
		DueDate:     model.NewDate(2024, time.May, 31),
	}

	event, err := ConvertTaskToCalendarEvent(task, today)
	if err != nil {
		t.Fatalf("ConvertTaskToCalendarEvent failed: %v", err)
	}

	if id, ok := TaskIDFromEvent(event); !ok || id != task.ID {
		t.Errorf("Expected %s %s, got %v", TaskIDProperty, task.ID, id)
	}
	if event.Summary != "Test Task" {
		t.Errorf("Expected plain summary, got %q", event.Summary)
	}
	if event.Start.Date != "2024-05-31" || event.End.Date != "2024-06-01" {
		t.Errorf("Expected all-day event on 2024-05-31, got %s..%s", event.Start.Date, event.End.Date)
	}
	if event.ColorId != colors.Tomato {
		t.Errorf("Expected high priority colour %s, got %s", colors.Tomato, event.ColorId)
	}
	if !strings.Contains(event.Description, "Priority: high") || !strings.Contains(event.Description, "Note 1") {
		t.Errorf("Expected description to contain priority and note, got: %s", event.Description)
	}
}

func TestSummaryPrefixes(t *testing.T) {
	overdue := model.Task{Title: "Late", DueDate: today.AddDays(-1)}
	if got := Summary(overdue, today); got != "! Late" {
		t.Errorf("Expected overdue prefix, got %q", got)
	}
	done := model.Task{Title: "Done", Completed: true, DueDate: today.AddDays(-1)}
	if got := Summary(done, today); got != "✓ Done" {
		t.Errorf("Expected completed prefix, got %q", got)
	}
	dueToday := model.Task{Title: "Today", DueDate: today}
	if got := Summary(dueToday, today); got != "Today" {
		t.Errorf("Expected no prefix for a task due today, got %q", got)
	}
}

func TestConvertUndatedTask(t *testing.T) {
	_, err := ConvertTaskToCalendarEvent(model.Task{ID: "x", Title: "No date"}, today)
	if !errors.Is(err, ErrNoDueDate) {
		t.Errorf("Expected ErrNoDueDate, got %v", err)
	}
}

func TestEventNeedsUpdate(t *testing.T) {
	task := model.Task{ID: "a", Title: "A", Priority: model.PriorityLow, DueDate: today}
	existing, _ := ConvertTaskToCalendarEvent(task, today)

	if patch := EventNeedsUpdate(existing, existing); patch != nil {
		t.Errorf("Expected no patch for identical events, got %+v", patch)
	}

	task.Completed = true
	task.DueDate = today.AddDays(2)
	target, _ := ConvertTaskToCalendarEvent(task, today)
	patch := EventNeedsUpdate(existing, target)
	if patch == nil {
		t.Fatal("Expected a patch")
	}
	if patch.Summary != "✓ A" || patch.ColorId != colors.Graphite {
		t.Errorf("Unexpected patch summary/colour: %q %q", patch.Summary, patch.ColorId)
	}
	if patch.Start == nil || patch.Start.Date != today.AddDays(2).String() {
		t.Errorf("Expected start date to move, got %+v", patch.Start)
	}
}

func TestFingerprint(t *testing.T) {
	task := model.Task{ID: "a", Title: "A", Priority: model.PriorityLow, DueDate: today}
	a, _ := ConvertTaskToCalendarEvent(task, today)
	b, _ := ConvertTaskToCalendarEvent(task, today)
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("Expected identical events to share a fingerprint")
	}

	// The same task turns overdue the next day.
	c, _ := ConvertTaskToCalendarEvent(task, today.AddDays(1))
	if Fingerprint(a) == Fingerprint(c) {
		t.Error("Expected fingerprint to change with the summary")
	}
}
