/*
Package portal is the application service of the HR portal.

PURPOSE:
  Wires the pure settings and calendar cores to persistent records. The
  service loads the three policy layers of an employee, resolves them,
  and feeds the effective policy to the calendar engine and the terminal.

KEY INTERFACES (store.go):
  SettingsStore: Default policy, groups and employees (the policy layers)
  AbsenceStore:  absence intervals per employee
  SessionStore:  terminal sessions per employee and day
  Store:         all of the above plus Close

The store owns the write serialisation of the policy layers: the Default
policy is always replaced as a whole object. Resolution results are never
written back.

IMPLEMENTATIONS:
  - store/sqlite: database/sql + go-sqlite3, goose migrations
  - store/memory: maps behind a RWMutex, for tests and local runs

SEE ALSO:
  - service.go: Service and its construction
  - errors.go: ErrNotFound, ErrDuplicate, ErrUnauthorized
*/
package portal

import (
	"context"
	"time"

	"github.com/warp/hrportal/calendar"
	"github.com/warp/hrportal/settings"
	"github.com/warp/hrportal/terminal"
)

// =============================================================================
// RECORDS
// =============================================================================

// Employee is a portal user. Policy is the individual layer; nil means the
// employee inherits everything from group and default.
type Employee struct {
	ID             string               `json:"id"`
	EmployeeNumber string               `json:"employeeNumber"`
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	PasswordHash   string               `json:"-"`
	IsAdmin        bool                 `json:"isAdmin"`
	GroupID        *string              `json:"groupId,omitempty"`
	Policy         *settings.WorkPolicy `json:"policy,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// UsesCustomSettings reports whether the employee has an individual layer.
func (e Employee) UsesCustomSettings() bool {
	return e.Policy != nil && !e.Policy.IsEmpty()
}

// Group bundles employees that share a policy layer.
type Group struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Policy        settings.WorkPolicy `json:"policy"`
	EmployeeCount int                 `json:"employeeCount"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// AbsenceStatus tracks approval of an absence.
type AbsenceStatus string

const (
	AbsencePending  AbsenceStatus = "pending"
	AbsenceApproved AbsenceStatus = "approved"
)

// Absence is a stored absence interval of one employee.
type Absence struct {
	calendar.AbsenceInterval
	EmployeeID string        `json:"employeeId"`
	Status     AbsenceStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// =============================================================================
// STORE INTERFACES
// =============================================================================

// SettingsStore persists the policy layers.
type SettingsStore interface {
	// GetDefaultPolicy returns ErrNotFound when the Default layer was never initialised.
	GetDefaultPolicy(ctx context.Context) (settings.WorkPolicy, error)

	// SaveDefaultPolicy replaces the Default layer as a whole. It fails with
	// ErrNotFound when there is nothing to replace.
	SaveDefaultPolicy(ctx context.Context, p settings.WorkPolicy) error

	// InitDefaultPolicy writes the Default layer only if none exists and
	// reports whether it did.
	InitDefaultPolicy(ctx context.Context, p settings.WorkPolicy) (bool, error)

	SaveGroup(ctx context.Context, g Group) error
	GetGroup(ctx context.Context, id string) (*Group, error)
	ListGroups(ctx context.Context) ([]Group, error)
	// DeleteGroup removes the group and unlinks its employees atomically.
	DeleteGroup(ctx context.Context, id string) error

	// SaveEmployee inserts or updates; a clash on email or employee number
	// yields ErrDuplicate.
	SaveEmployee(ctx context.Context, e Employee) error
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (*Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	// DeleteEmployee removes the employee with its absences and sessions.
	DeleteEmployee(ctx context.Context, id string) error
}

// AbsenceStore persists absence intervals.
type AbsenceStore interface {
	SaveAbsence(ctx context.Context, a Absence) error
	GetAbsence(ctx context.Context, employeeID, id string) (*Absence, error)
	DeleteAbsence(ctx context.Context, employeeID, id string) error
	// ListAbsences returns the absences overlapping r, ordered by start date.
	ListAbsences(ctx context.Context, employeeID string, r calendar.Range) ([]Absence, error)
}

// SessionStore persists terminal sessions, one per employee and day.
type SessionStore interface {
	SaveSession(ctx context.Context, s terminal.Session) error
	// GetSession returns ErrNotFound if the employee has no session that day.
	GetSession(ctx context.Context, employeeID string, day calendar.Day) (*terminal.Session, error)
	ListSessions(ctx context.Context, employeeID string, r calendar.Range) ([]terminal.Session, error)
	// GetOpenSession returns the employee's active or on-break session,
	// whatever its day, or ErrNotFound.
	GetOpenSession(ctx context.Context, employeeID string) (*terminal.Session, error)
	// ListOpenSessions returns every active or on-break session.
	ListOpenSessions(ctx context.Context) ([]terminal.Session, error)
}

// Store combines all persistence interfaces.
type Store interface {
	SettingsStore
	AbsenceStore
	SessionStore
	Close() error
}
