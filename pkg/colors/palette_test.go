package colors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

func TestCalendarID(t *testing.T) {
	tests := []struct {
		name string
		task model.Task
		want string
	}{
		{"high", model.Task{Priority: model.PriorityHigh}, Tomato},
		{"medium", model.Task{Priority: model.PriorityMedium}, Banana},
		{"low", model.Task{Priority: model.PriorityLow}, Sage},
		{"unknown", model.Task{Priority: "urgent"}, Banana},
		{"completed", model.Task{Priority: model.PriorityHigh, Completed: true}, Graphite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalendarID(tt.task))
		})
	}
}
