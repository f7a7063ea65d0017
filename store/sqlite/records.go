package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/warp/hrportal/calendar"
	"github.com/warp/hrportal/portal"
	"github.com/warp/hrportal/terminal"
)

// =============================================================================
// ABSENCE STORE
// =============================================================================

// SaveAbsence inserts or updates an absence.
func (s *Store) SaveAbsence(ctx context.Context, a portal.Absence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO absences (id, employee_id, start_date, end_date, category, label, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			category = excluded.category,
			label = excluded.label,
			status = excluded.status
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.EmployeeID, a.Start.String(), a.End.String(),
		a.Category, a.Label, a.Status, a.CreatedAt.UTC().Format(time.RFC3339),
	)
	if isForeignKeyError(err) {
		return &portal.NotFoundError{Kind: "employee", ID: a.EmployeeID}
	}
	if err != nil {
		return fmt.Errorf("failed to save absence: %w", err)
	}
	return nil
}

const absenceSelect = `
	SELECT id, employee_id, start_date, end_date, category, label, status, created_at
	FROM absences
`

// GetAbsence retrieves one absence of an employee.
func (s *Store) GetAbsence(ctx context.Context, employeeID, id string) (*portal.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := scanAbsence(s.db.QueryRowContext(ctx,
		absenceSelect+" WHERE employee_id = ? AND id = ?", employeeID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &portal.NotFoundError{Kind: "absence", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteAbsence removes one absence of an employee.
func (s *Store) DeleteAbsence(ctx context.Context, employeeID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM absences WHERE employee_id = ? AND id = ?", employeeID, id)
	if err != nil {
		return fmt.Errorf("failed to delete absence: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &portal.NotFoundError{Kind: "absence", ID: id}
	}
	return nil
}

// ListAbsences returns the absences overlapping r. ISO dates compare
// correctly as strings.
func (s *Store) ListAbsences(ctx context.Context, employeeID string, r calendar.Range) ([]portal.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, absenceSelect+`
		WHERE employee_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date ASC, id ASC
	`, employeeID, r.End.String(), r.Start.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query absences: %w", err)
	}
	defer rows.Close()

	var absences []portal.Absence
	for rows.Next() {
		a, err := scanAbsence(rows)
		if err != nil {
			return nil, err
		}
		absences = append(absences, a)
	}
	return absences, rows.Err()
}

func scanAbsence(sc scanner) (portal.Absence, error) {
	var a portal.Absence
	var start, end, createdAt string
	if err := sc.Scan(&a.ID, &a.EmployeeID, &start, &end, &a.Category, &a.Label, &a.Status, &createdAt); err != nil {
		return portal.Absence{}, err
	}
	var err error
	if a.Start, err = calendar.ParseDay(start); err != nil {
		return portal.Absence{}, err
	}
	if a.End, err = calendar.ParseDay(end); err != nil {
		return portal.Absence{}, err
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return a, nil
}

// =============================================================================
// SESSION STORE
// =============================================================================

// SaveSession upserts the session of an employee and day.
func (s *Store) SaveSession(ctx context.Context, sess terminal.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO sessions
		(id, employee_id, day, state, location, active_since, break_started_at, break_total_ns, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, day) DO UPDATE SET
			state = excluded.state,
			location = excluded.location,
			active_since = excluded.active_since,
			break_started_at = excluded.break_started_at,
			break_total_ns = excluded.break_total_ns,
			ended_at = excluded.ended_at
	`
	_, err := s.db.ExecContext(ctx, query,
		sess.ID, sess.EmployeeID, sess.Day.String(), sess.State, sess.Location,
		formatTime(sess.ActiveSince), formatTime(sess.BreakStartedAt),
		int64(sess.BreakTotal), formatTime(sess.EndedAt),
	)
	if isForeignKeyError(err) {
		return &portal.NotFoundError{Kind: "employee", ID: sess.EmployeeID}
	}
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

const sessionSelect = `
	SELECT id, employee_id, day, state, location, active_since, break_started_at, break_total_ns, ended_at
	FROM sessions
`

// GetSession returns the session of an employee on day.
func (s *Store) GetSession(ctx context.Context, employeeID string, day calendar.Day) (*terminal.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := scanSession(s.db.QueryRowContext(ctx,
		sessionSelect+" WHERE employee_id = ? AND day = ?", employeeID, day.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &portal.NotFoundError{Kind: "session", ID: employeeID + "/" + day.String()}
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// ListSessions returns the sessions of an employee within r.
func (s *Store) ListSessions(ctx context.Context, employeeID string, r calendar.Range) ([]terminal.Session, error) {
	return s.querySessions(ctx, sessionSelect+`
		WHERE employee_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC
	`, employeeID, r.Start.String(), r.End.String())
}

// GetOpenSession returns the most recent open session of an employee.
func (s *Store) GetOpenSession(ctx context.Context, employeeID string) (*terminal.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := scanSession(s.db.QueryRowContext(ctx, sessionSelect+`
		WHERE employee_id = ? AND state IN (?, ?)
		ORDER BY day DESC
		LIMIT 1
	`, employeeID, terminal.StateActive, terminal.StateOnBreak))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &portal.NotFoundError{Kind: "open session", ID: employeeID}
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// ListOpenSessions returns all sessions that were started and not ended.
func (s *Store) ListOpenSessions(ctx context.Context) ([]terminal.Session, error) {
	return s.querySessions(ctx, sessionSelect+`
		WHERE state IN (?, ?)
		ORDER BY active_since ASC
	`, terminal.StateActive, terminal.StateOnBreak)
}

func (s *Store) querySessions(ctx context.Context, query string, args ...any) ([]terminal.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []terminal.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func scanSession(sc scanner) (terminal.Session, error) {
	var sess terminal.Session
	var day string
	var activeSince, breakStarted, endedAt sql.NullString
	var breakTotal int64

	err := sc.Scan(&sess.ID, &sess.EmployeeID, &day, &sess.State, &sess.Location,
		&activeSince, &breakStarted, &breakTotal, &endedAt)
	if err != nil {
		return terminal.Session{}, err
	}

	if sess.Day, err = calendar.ParseDay(day); err != nil {
		return terminal.Session{}, err
	}
	if sess.ActiveSince, err = parseTime(activeSince); err != nil {
		return terminal.Session{}, err
	}
	if sess.BreakStartedAt, err = parseTime(breakStarted); err != nil {
		return terminal.Session{}, err
	}
	if sess.EndedAt, err = parseTime(endedAt); err != nil {
		return terminal.Session{}, err
	}
	sess.BreakTotal = time.Duration(breakTotal)
	return sess, nil
}
