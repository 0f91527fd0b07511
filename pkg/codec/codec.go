// Package codec converts task sets to and from their durable text forms.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
	"gopkg.in/yaml.v3"
)

// createdAtLayout matches what JSON.stringify produces for a Date:
// millisecond precision, always UTC.
const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Record is the on-disk shape of one task.
type Record struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Priority    string `json:"priority" yaml:"priority"`
	Completed   bool   `json:"completed" yaml:"completed"`
	DueDate     string `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	CreatedAt   string `json:"createdAt" yaml:"createdAt"`
}

// ToRecord converts a task to its durable form.
func ToRecord(t model.Task) Record {
	r := Record{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Completed:   t.Completed,
		DueDate:     t.DueDate.String(),
	}
	if !t.CreatedAt.IsZero() {
		r.CreatedAt = t.CreatedAt.UTC().Format(createdAtLayout)
	}
	return r
}

// Task converts a record back, rejecting anything that breaks the task
// invariants.
func (r Record) Task() (model.Task, error) {
	if r.ID == "" {
		return model.Task{}, fmt.Errorf("missing id")
	}
	if strings.TrimSpace(r.Title) == "" {
		return model.Task{}, fmt.Errorf("task %s: empty title", r.ID)
	}
	p, err := model.ParsePriority(r.Priority)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %s: %w", r.ID, err)
	}
	due, err := model.ParseDate(r.DueDate)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %s: dueDate: %w", r.ID, err)
	}
	created, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %s: failed to parse createdAt '%s': %w", r.ID, r.CreatedAt, err)
	}
	return model.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    p,
		Completed:   r.Completed,
		DueDate:     due,
		CreatedAt:   created,
	}, nil
}

func toRecords(tasks []model.Task) []Record {
	records := make([]Record, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, ToRecord(t))
	}
	return records
}

func fromRecords(records []Record) ([]model.Task, error) {
	tasks := make([]model.Task, 0, len(records))
	for i, r := range records {
		t, err := r.Task()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Encode serializes the ordered task set as a JSON array.
func Encode(tasks []model.Task) ([]byte, error) {
	return json.Marshal(toRecords(tasks))
}

// EncodeIndent writes the task set as indented JSON, for export.
func EncodeIndent(w io.Writer, tasks []model.Task) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(toRecords(tasks))
}

// Decode parses a JSON array of task records. A JSON null decodes to an
// empty set.
func Decode(data []byte) ([]model.Task, error) {
	var records []Record
	if err := json.Unmarshal(bytes.TrimSpace(data), &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task snapshot: %w", err)
	}
	return fromRecords(records)
}

// EncodeYAML writes the task set as a YAML sequence.
func EncodeYAML(w io.Writer, tasks []model.Task) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(toRecords(tasks)); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return encoder.Close()
}

// DecodeYAML reads a YAML sequence written by EncodeYAML.
func DecodeYAML(r io.Reader) ([]model.Task, error) {
	var records []Record
	if err := yaml.NewDecoder(r).Decode(&records); err != nil {
		if err == io.EOF {
			return []model.Task{}, nil
		}
		return nil, fmt.Errorf("failed to decode yaml: %w", err)
	}
	return fromRecords(records)
}
