package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/warp/hrportal/portal"
)

// =============================================================================
// GROUP STORE
// =============================================================================

// SaveGroup inserts or updates a group.
func (s *Store) SaveGroup(ctx context.Context, g portal.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employee_groups (id, name, ` + policyColumns + `, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			vacation_days = excluded.vacation_days,
			daily_hours = excluded.daily_hours,
			has_flextime = excluded.has_flextime,
			holiday_region = excluded.holiday_region,
			min_break_time = excluded.min_break_time,
			can_work_remote = excluded.can_work_remote,
			can_self_approve = excluded.can_self_approve
	`
	args := append([]any{g.ID, g.Name}, policyArgs(g.Policy)...)
	args = append(args, g.CreatedAt.UTC().Format(time.RFC3339))

	_, err := s.db.ExecContext(ctx, query, args...)
	if isUniqueConstraintError(err) {
		return portal.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}
	return nil
}

const groupSelect = `
	SELECT g.id, g.name, ` + policyColumns + `, g.created_at,
	       (SELECT COUNT(*) FROM employees e WHERE e.group_id = g.id)
	FROM employee_groups g
`

// GetGroup retrieves a group by ID.
func (s *Store) GetGroup(ctx context.Context, id string) (*portal.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, err := scanGroup(s.db.QueryRowContext(ctx, groupSelect+" WHERE g.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &portal.NotFoundError{Kind: "group", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGroups returns all groups ordered by name.
func (s *Store) ListGroups(ctx context.Context) ([]portal.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, groupSelect+" ORDER BY g.name")
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	groups := []portal.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// DeleteGroup removes a group; the foreign key unlinks its employees.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM employee_groups WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &portal.NotFoundError{Kind: "group", ID: id}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGroup(sc scanner) (portal.Group, error) {
	var g portal.Group
	var row policyRow
	var createdAt string

	dest := append([]any{&g.ID, &g.Name}, row.dest()...)
	dest = append(dest, &createdAt, &g.EmployeeCount)
	if err := sc.Scan(dest...); err != nil {
		return portal.Group{}, err
	}
	g.Policy = row.policy()
	g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return g, nil
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// SaveEmployee upserts the employee row and its individual layer in one
// transaction. A nil Policy removes the individual layer.
func (s *Store) SaveEmployee(ctx context.Context, e portal.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO employees
		(id, employee_number, name, email, password_hash, is_admin, group_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_number = excluded.employee_number,
			name = excluded.name,
			email = excluded.email,
			password_hash = excluded.password_hash,
			is_admin = excluded.is_admin,
			group_id = excluded.group_id
	`
	_, err = tx.ExecContext(ctx, query,
		e.ID, e.EmployeeNumber, e.Name, e.Email, e.PasswordHash, e.IsAdmin,
		nullString(e.GroupID), e.CreatedAt.UTC().Format(time.RFC3339),
	)
	switch {
	case isUniqueConstraintError(err):
		return portal.ErrDuplicate
	case isForeignKeyError(err):
		return &portal.NotFoundError{Kind: "group", ID: *e.GroupID}
	case err != nil:
		return fmt.Errorf("failed to save employee: %w", err)
	}

	if e.Policy == nil {
		_, err = tx.ExecContext(ctx, "DELETE FROM employee_policies WHERE employee_id = ?", e.ID)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO employee_policies (employee_id, `+policyColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, append([]any{e.ID}, policyArgs(*e.Policy)...)...)
	}
	if err != nil {
		return fmt.Errorf("failed to save employee policy: %w", err)
	}

	return tx.Commit()
}

const employeeSelect = `
	SELECT e.id, e.employee_number, e.name, e.email, e.password_hash, e.is_admin,
	       e.group_id, e.created_at, p.employee_id, ` + prefixedPolicyColumns + `
	FROM employees e
	LEFT JOIN employee_policies p ON p.employee_id = e.id
`

const prefixedPolicyColumns = `p.vacation_days, p.daily_hours, p.has_flextime, p.holiday_region,
	p.min_break_time, p.can_work_remote, p.can_self_approve`

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (*portal.Employee, error) {
	return s.getEmployee(ctx, "e.id", id)
}

// GetEmployeeByEmail retrieves an employee by email, ignoring case.
func (s *Store) GetEmployeeByEmail(ctx context.Context, email string) (*portal.Employee, error) {
	return s.getEmployee(ctx, "e.email", email)
}

func (s *Store) getEmployee(ctx context.Context, column, value string) (*portal.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := scanEmployee(s.db.QueryRowContext(ctx, employeeSelect+" WHERE "+column+" = ?", value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &portal.NotFoundError{Kind: "employee", ID: value}
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]portal.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, employeeSelect+" ORDER BY e.name")
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	employees := []portal.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes an employee; absences, sessions and the individual
// layer cascade.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &portal.NotFoundError{Kind: "employee", ID: id}
	}
	return nil
}

func scanEmployee(sc scanner) (portal.Employee, error) {
	var e portal.Employee
	var groupID, policyOwner sql.NullString
	var createdAt string
	var row policyRow

	dest := []any{
		&e.ID, &e.EmployeeNumber, &e.Name, &e.Email, &e.PasswordHash, &e.IsAdmin,
		&groupID, &createdAt, &policyOwner,
	}
	if err := sc.Scan(append(dest, row.dest()...)...); err != nil {
		return portal.Employee{}, err
	}
	if groupID.Valid {
		e.GroupID = &groupID.String
	}
	if policyOwner.Valid {
		p := row.policy()
		e.Policy = &p
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return e, nil
}
