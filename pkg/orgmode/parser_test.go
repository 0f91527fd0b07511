package orgmode

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

const sample = `#+TITLE: Inbox

* TODO [#A] Buy milk :errand:
  DEADLINE: <2024-05-01 Wed 12:00>
  :PROPERTIES:
  :ID: 4b1c0c4e-1111-4e1e-9c9c-000000000001
  :END:
  Oat, not almond.
* DONE Write report
  :PROPERTIES:
  :ID: 4b1c0c4e-1111-4e1e-9c9c-000000000002
  :END:
** Notes heading without keyword
* TODO [#C] Call Bob
`

func TestParse(t *testing.T) {
	tasks, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	milk := tasks[0]
	assert.Equal(t, "Buy milk", milk.Title)
	assert.Equal(t, model.PriorityHigh, milk.Priority)
	assert.False(t, milk.Completed)
	assert.Equal(t, model.NewDate(2024, time.May, 1), milk.DueDate)
	assert.Equal(t, "4b1c0c4e-1111-4e1e-9c9c-000000000001", milk.ID)
	assert.Equal(t, "Oat, not almond.", milk.Description)

	report := tasks[1]
	assert.Equal(t, "Write report", report.Title)
	assert.Equal(t, model.PriorityMedium, report.Priority)
	assert.True(t, report.Completed)
	assert.False(t, report.HasDueDate())

	bob := tasks[2]
	assert.Equal(t, model.PriorityLow, bob.Priority)
	assert.Empty(t, bob.ID)
}

func TestWriteRoundTrip(t *testing.T) {
	created := time.Date(2024, time.April, 30, 9, 15, 0, 0, time.Local)
	in := []model.Task{
		{
			ID:          "t-1",
			Title:       "Buy milk",
			Description: "Oat\nTwo cartons",
			Priority:    model.PriorityHigh,
			DueDate:     model.NewDate(2024, time.May, 1),
			CreatedAt:   created,
		},
		{ID: "t-2", Title: "Done thing", Priority: model.PriorityLow, Completed: true},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))
	assert.Contains(t, buf.String(), "* TODO [#A] Buy milk\n")
	assert.Contains(t, buf.String(), "DEADLINE: <2024-05-01 Wed>")

	out, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0].ID, out[0].ID)
	assert.Equal(t, in[0].Title, out[0].Title)
	assert.Equal(t, in[0].Description, out[0].Description)
	assert.Equal(t, in[0].DueDate, out[0].DueDate)
	assert.True(t, created.Equal(out[0].CreatedAt))
	assert.Equal(t, in[1].Completed, out[1].Completed)
	assert.Equal(t, in[1].Priority, out[1].Priority)
}

func TestWriteRoundTripKeepsAmbiguousText(t *testing.T) {
	in := []model.Task{{
		ID:          "t-1",
		Title:       "Fix parser :urgent:",
		Description: "step 1\n    indented\nDEADLINE: talk to Bob\n:PROPERTIES:",
		Priority:    model.PriorityMedium,
	}, {
		ID:          "t-2",
		Title:       "Notes",
		Description: "DEADLINE: <2024-06-01 Sat>\n* not a heading",
		Priority:    model.PriorityLow,
		DueDate:     model.NewDate(2024, time.May, 1),
	}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))

	out, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Fix parser :urgent:", out[0].Title)
	assert.Equal(t, in[0].Description, out[0].Description)
	assert.False(t, out[0].HasDueDate())
	assert.Equal(t, in[1].Description, out[1].Description)
	assert.Equal(t, in[1].DueDate, out[1].DueDate)
}

func TestParseTagsAndScheduled(t *testing.T) {
	const doc = `* TODO Plan trip :travel:
  SCHEDULED: <2024-07-01 Mon>
  Book flights.
`
	tasks, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Plan trip", tasks[0].Title)
	assert.Equal(t, model.NewDate(2024, time.July, 1), tasks[0].DueDate)
	assert.Equal(t, "Book flights.", tasks[0].Description)
}

func TestParseFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.org")
	b := filepath.Join(dir, "b.org")
	require.NoError(t, os.WriteFile(a, []byte("* TODO One\n"), 0600))
	require.NoError(t, os.WriteFile(b, []byte("* DONE Two\n* TODO Three\n"), 0600))

	tasks, err := ParseFiles([]string{a, b})
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "One", tasks[0].Title)
	assert.Equal(t, "Three", tasks[2].Title)

	_, err = ParseFiles([]string{a, filepath.Join(dir, "missing.org")})
	assert.Error(t, err)
}
