// Package exercise implements the countdown that frames a timed task
// session: it starts on demand, warns as time runs low, and reports when the
// session is over.
package exercise

import (
	"fmt"
	"time"
)

const DefaultDuration = 60 * time.Minute

// Level is how urgent the remaining time is.
type Level int

const (
	LevelNormal   Level = iota
	LevelWarning        // 15 minutes or less
	LevelCritical       // 5 minutes or less
)

const (
	warningThreshold  = 15 * time.Minute
	criticalThreshold = 5 * time.Minute
)

// State is where the session is in its lifecycle.
type State int

const (
	NotStarted State = iota
	Running
	TimeUp
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case TimeUp:
		return "time up"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Timer struct {
	duration  time.Duration
	now       func() time.Time
	startedAt time.Time
	started   bool
}

// NewTimer returns a stopped timer. A nil clock means time.Now.
func NewTimer(duration time.Duration, now func() time.Time) *Timer {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if now == nil {
		now = time.Now
	}
	return &Timer{duration: duration, now: now}
}

func (t *Timer) Duration() time.Duration { return t.duration }

// Start begins the countdown. Starting a running timer does nothing.
func (t *Timer) Start() {
	if t.started {
		return
	}
	t.started = true
	t.startedAt = t.now()
}

// Reset returns the timer to NotStarted with the full duration.
func (t *Timer) Reset() {
	t.started = false
	t.startedAt = time.Time{}
}

func (t *Timer) State() State {
	switch {
	case !t.started:
		return NotStarted
	case t.Remaining() == 0:
		return TimeUp
	}
	return Running
}

func (t *Timer) Started() bool { return t.started }

func (t *Timer) IsTimeUp() bool { return t.State() == TimeUp }

// Remaining is the time left, never negative.
func (t *Timer) Remaining() time.Duration {
	if !t.started {
		return t.duration
	}
	left := t.duration - t.now().Sub(t.startedAt)
	if left < 0 {
		return 0
	}
	return left
}

func (t *Timer) Level() Level {
	left := t.Remaining()
	switch {
	case left <= criticalThreshold:
		return LevelCritical
	case left <= warningThreshold:
		return LevelWarning
	}
	return LevelNormal
}

// Format renders the remaining time as MM:SS, rounding partial seconds up so
// a fresh hour reads 60:00 and the display only hits 00:00 at time up.
func (t *Timer) Format() string {
	left := t.Remaining()
	secs := int((left + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
