package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidPriority = errors.New("invalid priority")

// Priority is the urgency of a task. Only the three named values are valid.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists the valid priorities from most to least urgent.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority accepts any casing of high, medium or low.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return p, nil
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank orders priorities for sorting: high(1) < medium(2) < low(3).
// Invalid priorities rank after all valid ones.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// Task is a single work item.
type Task struct {
	ID          string
	Title       string
	Description string
	Priority    Priority
	Completed   bool
	DueDate     Date // zero when the task has no due date
	CreatedAt   time.Time
}

// HasDueDate reports whether a due date is set.
func (t Task) HasDueDate() bool {
	return !t.DueDate.IsZero()
}

// IsOverdue reports whether a pending task's due date is before today.
func (t Task) IsOverdue(today Date) bool {
	return !t.Completed && t.HasDueDate() && t.DueDate.Before(today)
}

// Fields are the user-supplied values for a new task.
type Fields struct {
	Title       string
	Description string
	Priority    Priority
	DueDate     Date
}

// Patch is a partial update.
// nil pointer => "no change"
// non-nil zero DueDate => clear the due date
type Patch struct {
	Title       *string
	Description *string
	Priority    *Priority
	DueDate     *Date
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.DueDate == nil
}

// Apply merges the patch into t. ID, CreatedAt and Completed are never touched.
func (p Patch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
}
