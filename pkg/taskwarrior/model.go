package taskwarrior

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

const (
	PENDING   = "pending"
	COMPLETED = "completed"
	WAITING   = "waiting"
	DELETED   = "deleted"
	RECURRING = "recurring"
)

type CustomTime struct {
	time.Time
}

const taskwarriorTimeLayout = "20060102T150405Z" // YYYYMMDDTHHMMSSZ, 'Z' indicates UTC

// UnmarshalJSON implements the json.Unmarshaler interface for CustomTime.
func (ct *CustomTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "0" {
		ct.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(taskwarriorTimeLayout, s)
	if err != nil {
		return fmt.Errorf("failed to parse Taskwarrior time string '%s': %w", s, err)
	}
	ct.Time = t
	return nil
}

// MarshalJSON implements the json.Marshaler interface for CustomTime.
func (ct CustomTime) MarshalJSON() ([]byte, error) {
	if ct.Time.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ct.Time.Format(taskwarriorTimeLayout) + `"`), nil
}

// Annotation is a timestamped note attached to a Taskwarrior task.
type Annotation struct {
	Description string      `json:"description"`
	Entry       *CustomTime `json:"entry"`
}

// Task is one record of `task export`.
type Task struct {
	UUID        string       `json:"uuid"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority,omitempty"` // H, M, L or empty
	Entry       *CustomTime  `json:"entry,omitempty"`
	Due         *CustomTime  `json:"due,omitempty"`
	Project     string       `json:"project,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Importable reports whether the task should become a board task. Deleted
// tasks and recurrence templates are skipped.
func (t Task) Importable() bool {
	return t.Status != DELETED && t.Status != RECURRING
}

// ToModel maps a Taskwarrior task onto the board model. Taskwarrior has no
// priority by default, which becomes medium, the form's default. The
// description becomes the title; annotations become the description.
func (t Task) ToModel() model.Task {
	out := model.Task{
		ID:        t.UUID,
		Title:     strings.TrimSpace(t.Description),
		Priority:  mapPriority(t.Priority),
		Completed: t.Status == COMPLETED,
	}
	if t.Due != nil && !t.Due.IsZero() {
		out.DueDate = model.DateOf(t.Due.Time.Local())
	}
	if t.Entry != nil && !t.Entry.IsZero() {
		out.CreatedAt = t.Entry.Time
	}

	var notes []string
	if t.Project != "" {
		notes = append(notes, "Project: "+t.Project)
	}
	if len(t.Tags) > 0 {
		notes = append(notes, "Tags: "+strings.Join(t.Tags, ", "))
	}
	for _, ann := range t.Annotations {
		notes = append(notes, ann.Description)
	}
	out.Description = strings.Join(notes, "\n")
	return out
}

func mapPriority(p string) model.Priority {
	switch strings.ToUpper(p) {
	case "H":
		return model.PriorityHigh
	case "L":
		return model.PriorityLow
	}
	return model.PriorityMedium
}
