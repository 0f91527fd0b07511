package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

const (
	fieldTitle = iota
	fieldDescription
	fieldPriority
	fieldDueDate
	fieldCount
)

const msgBadDate = model.MsgBadDate

// form edits the fields of a new or existing task.
type form struct {
	editingID   string
	title       textinput.Model
	description textinput.Model
	due         textinput.Model
	priority    model.Priority
	focus       int
	errs        *model.ValidationError
	dueErr      string
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = ""
	return ti
}

// newForm opens an empty add form with the title focused.
func newForm() (form, tea.Cmd) {
	f := form{
		title:       newInput("What needs doing?", 200),
		description: newInput("Optional details", 1000),
		due:         newInput("YYYY-MM-DD", 10),
		priority:    model.PriorityMedium,
	}
	return f, f.title.Focus()
}

// editForm opens the form prefilled from t.
func editForm(t model.Task) (form, tea.Cmd) {
	f, cmd := newForm()
	f.editingID = t.ID
	f.title.SetValue(t.Title)
	f.description.SetValue(t.Description)
	f.priority = t.Priority
	if !f.priority.Valid() {
		f.priority = model.PriorityMedium
	}
	if t.HasDueDate() {
		f.due.SetValue(t.DueDate.String())
	}
	return f, cmd
}

func (f form) editing() bool {
	return f.editingID != ""
}

func (f *form) input(field int) *textinput.Model {
	switch field {
	case fieldTitle:
		return &f.title
	case fieldDescription:
		return &f.description
	case fieldDueDate:
		return &f.due
	}
	return nil
}

func (f *form) setFocus(field int) tea.Cmd {
	if in := f.input(f.focus); in != nil {
		in.Blur()
	}
	f.focus = (field + fieldCount) % fieldCount
	if in := f.input(f.focus); in != nil {
		return in.Focus()
	}
	return nil
}

func (f *form) cyclePriority(step int) {
	i := 0
	for j, p := range model.Priorities {
		if p == f.priority {
			i = j
		}
	}
	n := len(model.Priorities)
	f.priority = model.Priorities[(i+step+n)%n]
}

// update forwards a key to the focused text input.
func (f form) update(msg tea.Msg) (form, tea.Cmd) {
	in := f.input(f.focus)
	if in == nil {
		return f, nil
	}
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	return f, cmd
}

// fields parses the inputs. A malformed date is reported through dueErr so
// the store never sees it.
func (f *form) fields() (model.Fields, bool) {
	f.dueErr = ""
	due, err := model.ParseDate(strings.TrimSpace(f.due.Value()))
	if err != nil {
		f.dueErr = msgBadDate
		return model.Fields{}, false
	}
	return model.Fields{
		Title:       f.title.Value(),
		Description: strings.TrimSpace(f.description.Value()),
		Priority:    f.priority,
		DueDate:     due,
	}, true
}

func (f form) patch(fields model.Fields) model.Patch {
	return model.Patch{
		Title:       &fields.Title,
		Description: &fields.Description,
		Priority:    &fields.Priority,
		DueDate:     &fields.DueDate,
	}
}

func (f form) fieldError(field string) string {
	if field == model.FieldDueDate && f.dueErr != "" {
		return f.dueErr
	}
	if f.errs == nil {
		return ""
	}
	return f.errs.Message(field)
}

func (f form) view(requireDueDate bool) string {
	var b strings.Builder
	heading := "Add Task"
	if f.editing() {
		heading = "Edit Task"
	}
	b.WriteString(titleStyle.Render(heading) + "\n\n")

	label := func(field int, text string) string {
		if f.focus == field {
			return focusedLabel.Render(text)
		}
		return labelStyle.Render(text)
	}
	row := func(field int, text, value, errField string) {
		b.WriteString(label(field, text) + value + "\n")
		if msg := f.fieldError(errField); msg != "" {
			b.WriteString(strings.Repeat(" ", 14) + errorStyle.Render(msg) + "\n")
		}
	}

	dueLabel := "Due date"
	if requireDueDate {
		dueLabel += " *"
	}
	row(fieldTitle, "Title *", f.title.View(), model.FieldTitle)
	row(fieldDescription, "Description", f.description.View(), "")
	row(fieldPriority, "Priority *", fmt.Sprintf("< %s >", priorityBadge(f.priority)), model.FieldPriority)
	row(fieldDueDate, dueLabel, f.due.View(), model.FieldDueDate)
	return b.String()
}
