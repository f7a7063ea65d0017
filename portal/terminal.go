package portal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/warp/hrportal/calendar"
	"github.com/warp/hrportal/terminal"
)

// =============================================================================
// TERMINAL - Persisted day sessions
// =============================================================================

// CurrentSession returns the employee's open session, which may have started
// on an earlier day, or else today's session. A day without a session yields
// a fresh inactive one that is not stored.
func (s *Service) CurrentSession(ctx context.Context, employeeID string) (*terminal.Session, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	open, err := s.openSession(ctx, employeeID)
	if err != nil || open != nil {
		return open, err
	}
	return s.loadSession(ctx, employeeID, s.today())
}

func (s *Service) openSession(ctx context.Context, employeeID string) (*terminal.Session, error) {
	sess, err := s.store.GetOpenSession(ctx, employeeID)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load open session: %w", err)
	}
	return sess, nil
}

func (s *Service) loadSession(ctx context.Context, employeeID string, day calendar.Day) (*terminal.Session, error) {
	sess, err := s.store.GetSession(ctx, employeeID, day)
	if IsNotFound(err) {
		return terminal.New(uuid.NewString(), employeeID, day), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// StartWorkday opens today's session. Remote work is gated by the
// employee's effective policy.
func (s *Service) StartWorkday(ctx context.Context, employeeID string, location terminal.Location) (*terminal.Session, error) {
	return s.transition(ctx, employeeID, terminal.ActionStart, location)
}

// PauseWorkday starts a break.
func (s *Service) PauseWorkday(ctx context.Context, employeeID string) (*terminal.Session, error) {
	return s.transition(ctx, employeeID, terminal.ActionPause, "")
}

// ResumeWorkday ends the current break.
func (s *Service) ResumeWorkday(ctx context.Context, employeeID string) (*terminal.Session, error) {
	return s.transition(ctx, employeeID, terminal.ActionResume, "")
}

// EndWorkday closes the open session, even one started before midnight.
func (s *Service) EndWorkday(ctx context.Context, employeeID string) (*terminal.Session, error) {
	return s.transition(ctx, employeeID, terminal.ActionEnd, "")
}

// Transition applies a terminal action by name.
func (s *Service) Transition(ctx context.Context, employeeID string, action terminal.Action, location terminal.Location) (*terminal.Session, error) {
	return s.transition(ctx, employeeID, action, location)
}

func (s *Service) transition(ctx context.Context, employeeID string, action terminal.Action, location terminal.Location) (*terminal.Session, error) {
	res, err := s.EffectivePolicy(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := s.now()
	sess, err := s.sessionFor(ctx, employeeID, action, calendar.DayOf(now))
	if err != nil {
		return nil, err
	}
	if err := sess.Apply(action, now, location, res.Policy); err != nil {
		return nil, err
	}
	if err := s.store.SaveSession(ctx, *sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	fields := logrus.Fields{
		"employee_id": employeeID,
		"action":      action,
		"state":       sess.State,
	}
	if action == terminal.ActionEnd {
		fields["worked"] = sess.Worked(now).String()
		if short := sess.BreakShortfall(res.Policy.MinBreakTime, now); short > 0 {
			fields["break_shortfall"] = short.String()
		}
	}
	s.log.WithFields(fields).Info("terminal transition")
	return sess, nil
}

// sessionFor picks the session an action applies to. Start works on today's
// session and is refused while any earlier session is still open; the other
// actions follow the open session across midnight.
func (s *Service) sessionFor(ctx context.Context, employeeID string, action terminal.Action, today calendar.Day) (*terminal.Session, error) {
	open, err := s.openSession(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if action == terminal.ActionStart {
		if open != nil {
			return nil, &terminal.TransitionError{From: open.State, Action: action}
		}
		return s.loadSession(ctx, employeeID, today)
	}
	if open != nil {
		return open, nil
	}
	return s.loadSession(ctx, employeeID, today)
}

// OpenSessions returns every session that is still active or on break.
func (s *Service) OpenSessions(ctx context.Context) ([]terminal.Session, error) {
	return s.store.ListOpenSessions(ctx)
}
