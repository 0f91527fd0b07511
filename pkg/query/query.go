// Package query derives the displayed task list from the store. Everything
// here is a pure function of its inputs.
package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

// PriorityFilter is "all" or one of the task priorities.
type PriorityFilter string

const PriorityAll PriorityFilter = "all"

// CompletionFilter selects tasks by completion state.
type CompletionFilter string

const (
	CompletionAll       CompletionFilter = "all"
	CompletionCompleted CompletionFilter = "completed"
	CompletionPending   CompletionFilter = "pending"
)

// SortMode orders the derived list.
type SortMode string

const (
	SortNone     SortMode = "none"
	SortPriority SortMode = "priority"
	SortDueDate  SortMode = "dueDate"
)

// Query describes one derived view. The zero value shows every task in
// insertion order.
type Query struct {
	Search     string
	Priority   PriorityFilter
	Completion CompletionFilter
	Sort       SortMode
}

// Default is the view shown before the user changes any control.
func Default() Query {
	return Query{Priority: PriorityAll, Completion: CompletionAll, Sort: SortNone}
}

// Matches reports whether t passes all three predicates.
func (q Query) Matches(t model.Task) bool {
	if q.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(q.Search)) {
		return false
	}
	if q.Priority != "" && q.Priority != PriorityAll && model.Priority(q.Priority) != t.Priority {
		return false
	}
	switch q.Completion {
	case CompletionCompleted:
		return t.Completed
	case CompletionPending:
		return !t.Completed
	}
	return true
}

// Apply filters and sorts tasks without modifying the input slice.
func Apply(tasks []model.Task, q Query) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if q.Matches(t) {
			out = append(out, t)
		}
	}

	switch q.Sort {
	case SortPriority:
		slices.SortStableFunc(out, func(a, b model.Task) int {
			return a.Priority.Rank() - b.Priority.Rank()
		})
	case SortDueDate:
		slices.SortStableFunc(out, compareDueDate)
	}
	return out
}

// compareDueDate orders earlier dates first and undated tasks last.
func compareDueDate(a, b model.Task) int {
	switch {
	case !a.HasDueDate() && !b.HasDueDate():
		return 0
	case !a.HasDueDate():
		return 1
	case !b.HasDueDate():
		return -1
	}
	return a.DueDate.Compare(b.DueDate)
}

func ParsePriorityFilter(s string) (PriorityFilter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == string(PriorityAll) {
		return PriorityAll, nil
	}
	p, err := model.ParsePriority(s)
	if err != nil {
		return "", fmt.Errorf("priority filter must be all, high, medium or low: %w", err)
	}
	return PriorityFilter(p), nil
}

func ParseCompletionFilter(s string) (CompletionFilter, error) {
	switch c := CompletionFilter(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return CompletionAll, nil
	case CompletionAll, CompletionCompleted, CompletionPending:
		return c, nil
	}
	return "", fmt.Errorf("completion filter must be all, completed or pending: %q", s)
}

// ParseSortMode accepts none, priority and dueDate (also due or due-date).
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortNone, nil
	case "priority":
		return SortPriority, nil
	case "duedate", "due", "due-date", "due_date":
		return SortDueDate, nil
	}
	return "", fmt.Errorf("sort must be none, priority or dueDate: %q", s)
}

// Next* cycle through the filter values, for single-key toggles.

func (p PriorityFilter) Next() PriorityFilter {
	order := []PriorityFilter{PriorityAll, PriorityFilter(model.PriorityHigh), PriorityFilter(model.PriorityMedium), PriorityFilter(model.PriorityLow)}
	return cycle(order, p)
}

func (c CompletionFilter) Next() CompletionFilter {
	return cycle([]CompletionFilter{CompletionAll, CompletionPending, CompletionCompleted}, c)
}

func (s SortMode) Next() SortMode {
	return cycle([]SortMode{SortNone, SortPriority, SortDueDate}, s)
}

func cycle[T comparable](order []T, current T) T {
	i := slices.Index(order, current)
	return order[(i+1)%len(order)]
}

// Summary counts tasks for the header line.
type Summary struct {
	Total     int
	Completed int
	Pending   int
	Overdue   int
}

func Summarize(tasks []model.Task, today model.Date) Summary {
	var s Summary
	for _, t := range tasks {
		s.Total++
		if t.Completed {
			s.Completed++
		} else {
			s.Pending++
		}
		if t.IsOverdue(today) {
			s.Overdue++
		}
	}
	return s
}
