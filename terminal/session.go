/*
Package terminal tracks an employee's working day as a small state machine.

STATES:

	inactive --start--> active --pause--> onBreak
	    ^                 |  ^               |
	    |                 |  +----resume-----+
	    +------end--------+------end---------+

Every transition takes the current time from the caller; nothing here reads
the wall clock. A session never expires on its own: a day left open stays
active until someone ends it.

SEE ALSO:
  - portal/terminal.go: loads and persists sessions per employee
  - api/monitor.go: reports sessions left open
*/
package terminal

import (
	"time"

	"github.com/warp/hrportal/calendar"
	"github.com/warp/hrportal/settings"
)

// =============================================================================
// STATE & LOCATION
// =============================================================================

// State is the terminal state of a working day.
type State string

const (
	StateInactive State = "inactive"
	StateActive   State = "active"
	StateOnBreak  State = "onBreak"
)

// Location is where the work happens.
type Location string

const (
	LocationOffice Location = "office"
	LocationRemote Location = "remote"
)

// Valid reports whether l is a known location.
func (l Location) Valid() bool {
	return l == LocationOffice || l == LocationRemote
}

// Action names a transition; used in errors and audit logs.
type Action string

const (
	ActionStart  Action = "start"
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionEnd    Action = "end"
)

// =============================================================================
// SESSION
// =============================================================================

// Session is one employee's working day. The zero value is an inactive
// session that has not started.
type Session struct {
	ID             string        `json:"id"`
	EmployeeID     string        `json:"employeeId"`
	Day            calendar.Day  `json:"day"`
	State          State         `json:"state"`
	Location       Location      `json:"location,omitempty"`
	ActiveSince    time.Time     `json:"activeSince,omitzero"`
	BreakStartedAt time.Time     `json:"breakStartedAt,omitzero"`
	BreakTotal     time.Duration `json:"breakTotal"`
	EndedAt        time.Time     `json:"endedAt,omitzero"`
}

// New returns an inactive session for an employee and day.
func New(id, employeeID string, day calendar.Day) *Session {
	return &Session{ID: id, EmployeeID: employeeID, Day: day, State: StateInactive}
}

// IsOpen reports whether the session has started and not ended.
func (s *Session) IsOpen() bool {
	return s.State == StateActive || s.State == StateOnBreak
}

// Start begins the working day. Remote work needs the policy's permission.
func (s *Session) Start(now time.Time, location Location, policy settings.EffectivePolicy) error {
	if s.State != StateInactive || !s.EndedAt.IsZero() {
		return &TransitionError{From: s.State, Action: ActionStart}
	}
	if !location.Valid() {
		return ErrInvalidLocation
	}
	if location == LocationRemote && !policy.CanWorkRemote {
		return ErrRemoteNotAllowed
	}
	s.State = StateActive
	s.Location = location
	s.ActiveSince = now
	return nil
}

// Pause opens a break.
func (s *Session) Pause(now time.Time) error {
	if s.State != StateActive {
		return &TransitionError{From: s.State, Action: ActionPause}
	}
	s.State = StateOnBreak
	s.BreakStartedAt = now
	return nil
}

// Resume closes the open break. ActiveSince keeps the start of the day.
func (s *Session) Resume(now time.Time) error {
	if s.State != StateOnBreak {
		return &TransitionError{From: s.State, Action: ActionResume}
	}
	s.closeBreak(now)
	s.State = StateActive
	return nil
}

// End finishes the day, closing an open break first.
func (s *Session) End(now time.Time) error {
	if !s.IsOpen() {
		return &TransitionError{From: s.State, Action: ActionEnd}
	}
	if s.State == StateOnBreak {
		s.closeBreak(now)
	}
	s.State = StateInactive
	s.EndedAt = now
	return nil
}

// Apply dispatches an action by name.
func (s *Session) Apply(action Action, now time.Time, location Location, policy settings.EffectivePolicy) error {
	switch action {
	case ActionStart:
		return s.Start(now, location, policy)
	case ActionPause:
		return s.Pause(now)
	case ActionResume:
		return s.Resume(now)
	case ActionEnd:
		return s.End(now)
	}
	return &TransitionError{From: s.State, Action: action}
}

func (s *Session) closeBreak(now time.Time) {
	if d := now.Sub(s.BreakStartedAt); d > 0 {
		s.BreakTotal += d
	}
	s.BreakStartedAt = time.Time{}
}

// =============================================================================
// DURATIONS
// =============================================================================

// Breaks is the total break time including a break still open at now.
func (s *Session) Breaks(now time.Time) time.Duration {
	total := s.BreakTotal
	if s.State == StateOnBreak {
		if d := now.Sub(s.BreakStartedAt); d > 0 {
			total += d
		}
	}
	return total
}

// Worked is the working time between start and end (or now) minus breaks.
func (s *Session) Worked(now time.Time) time.Duration {
	if s.ActiveSince.IsZero() {
		return 0
	}
	until := now
	if !s.EndedAt.IsZero() {
		until = s.EndedAt
	}
	worked := until.Sub(s.ActiveSince) - s.Breaks(until)
	if worked < 0 {
		return 0
	}
	return worked
}

// BreakShortfall is how much break time is missing against the policy
// minimum. It is reported only; no transition is blocked by it.
func (s *Session) BreakShortfall(minBreakMinutes int, now time.Time) time.Duration {
	want := time.Duration(minBreakMinutes) * time.Minute
	until := now
	if !s.EndedAt.IsZero() {
		until = s.EndedAt
	}
	if short := want - s.Breaks(until); short > 0 {
		return short
	}
	return 0
}

// OpenFor is how long an open session has been running; zero when closed.
func (s *Session) OpenFor(now time.Time) time.Duration {
	if !s.IsOpen() {
		return 0
	}
	return now.Sub(s.ActiveSince)
}
