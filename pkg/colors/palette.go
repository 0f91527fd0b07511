// Package colors maps task priority and state onto Google Calendar colour
// ids and terminal colours so both surfaces agree.
package colors

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

// Google Calendar event colour ids.
const (
	Tomato   = "11"
	Banana   = "5"
	Sage     = "2"
	Graphite = "8"
)

type Swatch struct {
	CalendarID string
	Terminal   lipgloss.Color
}

var (
	high      = Swatch{CalendarID: Tomato, Terminal: lipgloss.Color("#D50000")}
	medium    = Swatch{CalendarID: Banana, Terminal: lipgloss.Color("#F6BF26")}
	low       = Swatch{CalendarID: Sage, Terminal: lipgloss.Color("#33B679")}
	completed = Swatch{CalendarID: Graphite, Terminal: lipgloss.Color("#616161")}
)

// ForPriority returns the swatch of a priority. Unknown values fall back to
// medium.
func ForPriority(p model.Priority) Swatch {
	switch p {
	case model.PriorityHigh:
		return high
	case model.PriorityLow:
		return low
	}
	return medium
}

// ForTask greys out completed tasks.
func ForTask(t model.Task) Swatch {
	if t.Completed {
		return completed
	}
	return ForPriority(t.Priority)
}

// CalendarID is shorthand for ForTask(t).CalendarID.
func CalendarID(t model.Task) string {
	return ForTask(t).CalendarID
}
