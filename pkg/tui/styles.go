package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/harrisonrobin/taskboard/pkg/colors"
	"github.com/harrisonrobin/taskboard/pkg/exercise"
	"github.com/harrisonrobin/taskboard/pkg/model"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	doneStyle     = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("241"))
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#D50000")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#D50000"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#33B679"))
	labelStyle    = lipgloss.NewStyle().Bold(true).Width(14)
	focusedLabel  = labelStyle.Foreground(lipgloss.Color("#7C3AED"))
	alertStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#D50000")).Foreground(lipgloss.Color("#D50000")).Padding(0, 1)
	cardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7C3AED")).Padding(1, 2)
	timerNormal   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	timerWarning  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F6BF26")).Bold(true)
	timerCritical = lipgloss.NewStyle().Foreground(lipgloss.Color("#D50000")).Bold(true)
)

func priorityBadge(p model.Priority) string {
	return lipgloss.NewStyle().
		Foreground(colors.ForPriority(p).Terminal).
		Bold(true).
		Render(string(p))
}

func timerStyle(level exercise.Level) lipgloss.Style {
	switch level {
	case exercise.LevelCritical:
		return timerCritical
	case exercise.LevelWarning:
		return timerWarning
	}
	return timerNormal
}
