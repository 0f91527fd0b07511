package model

import (
	"strings"
)

// Field names used in validation errors.
const (
	FieldTitle    = "title"
	FieldPriority = "priority"
	FieldDueDate  = "dueDate"
)

const (
	msgTitleRequired   = "Title is required"
	msgSelectPriority  = "Select a priority"
	msgDueDateRequired = "Due date is required"

	// MsgBadDate is reported for a due date that is not YYYY-MM-DD.
	MsgBadDate = "Use YYYY-MM-DD"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects every field that failed validation. It is
// returned before any mutation happens.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid task: " + strings.Join(parts, "; ")
}

// Message returns the message for field, or "" if the field is valid.
func (e *ValidationError) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// BadDueDate is the error for a due date input that does not parse.
func BadDueDate() *ValidationError {
	verr := &ValidationError{}
	verr.add(FieldDueDate, MsgBadDate)
	return verr
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Validate checks the fields of a new task. requireDueDate enables the
// due-date rule of the entry form.
func (f Fields) Validate(requireDueDate bool) error {
	verr := &ValidationError{}
	if strings.TrimSpace(f.Title) == "" {
		verr.add(FieldTitle, msgTitleRequired)
	}
	if !f.Priority.Valid() {
		verr.add(FieldPriority, msgSelectPriority)
	}
	if requireDueDate && f.DueDate.IsZero() {
		verr.add(FieldDueDate, msgDueDateRequired)
	}
	return verr.orNil()
}

// Validate checks only the fields the patch supplies.
func (p Patch) Validate(requireDueDate bool) error {
	verr := &ValidationError{}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		verr.add(FieldTitle, msgTitleRequired)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		verr.add(FieldPriority, msgSelectPriority)
	}
	if requireDueDate && p.DueDate != nil && p.DueDate.IsZero() {
		verr.add(FieldDueDate, msgDueDateRequired)
	}
	return verr.orNil()
}
