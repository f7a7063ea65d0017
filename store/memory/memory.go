// Package memory provides an in-memory portal.Store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/hrportal/calendar"
	"github.com/warp/hrportal/portal"
	"github.com/warp/hrportal/settings"
	"github.com/warp/hrportal/terminal"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Store keeps every record in maps. Values are copied on the way in and out
// so callers never share memory with the store.
type Store struct {
	mu         sync.RWMutex
	defaultPol *settings.WorkPolicy
	groups     map[string]portal.Group
	employees  map[string]portal.Employee
	absences   map[string]map[string]portal.Absence
	sessions   map[sessionKey]terminal.Session
}

type sessionKey struct {
	EmployeeID string
	Day        calendar.Day
}

var _ portal.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		groups:    make(map[string]portal.Group),
		employees: make(map[string]portal.Employee),
		absences:  make(map[string]map[string]portal.Absence),
		sessions:  make(map[sessionKey]terminal.Session),
	}
}

// Close is a no-op.
func (m *Store) Close() error { return nil }

// =============================================================================
// DEFAULT POLICY
// =============================================================================

func (m *Store) GetDefaultPolicy(_ context.Context) (settings.WorkPolicy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.defaultPol == nil {
		return settings.WorkPolicy{}, portal.ErrNotFound
	}
	return m.defaultPol.Clone(), nil
}

func (m *Store) SaveDefaultPolicy(_ context.Context, p settings.WorkPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.defaultPol == nil {
		return portal.ErrNotFound
	}
	c := p.Clone()
	m.defaultPol = &c
	return nil
}

func (m *Store) InitDefaultPolicy(_ context.Context, p settings.WorkPolicy) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.defaultPol != nil {
		return false, nil
	}
	c := p.Clone()
	m.defaultPol = &c
	return true, nil
}

// =============================================================================
// GROUPS
// =============================================================================

func (m *Store) SaveGroup(_ context.Context, g portal.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.groups {
		if id != g.ID && strings.EqualFold(other.Name, g.Name) {
			return portal.ErrDuplicate
		}
	}
	g.Policy = g.Policy.Clone()
	g.EmployeeCount = 0
	m.groups[g.ID] = g
	return nil
}

func (m *Store) GetGroup(_ context.Context, id string) (*portal.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, &portal.NotFoundError{Kind: "group", ID: id}
	}
	out := m.groupLocked(g)
	return &out, nil
}

func (m *Store) ListGroups(_ context.Context) ([]portal.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]portal.Group, 0, len(m.groups))
	for _, g := range m.groups {
		out = append(out, m.groupLocked(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Store) groupLocked(g portal.Group) portal.Group {
	g.Policy = g.Policy.Clone()
	for _, e := range m.employees {
		if e.GroupID != nil && *e.GroupID == g.ID {
			g.EmployeeCount++
		}
	}
	return g
}

func (m *Store) DeleteGroup(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[id]; !ok {
		return &portal.NotFoundError{Kind: "group", ID: id}
	}
	delete(m.groups, id)
	for eid, e := range m.employees {
		if e.GroupID != nil && *e.GroupID == id {
			e.GroupID = nil
			m.employees[eid] = e
		}
	}
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Store) SaveEmployee(_ context.Context, e portal.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.employees {
		if id == e.ID {
			continue
		}
		if strings.EqualFold(other.Email, e.Email) || other.EmployeeNumber == e.EmployeeNumber {
			return portal.ErrDuplicate
		}
	}
	if e.GroupID != nil {
		if _, ok := m.groups[*e.GroupID]; !ok {
			return &portal.NotFoundError{Kind: "group", ID: *e.GroupID}
		}
	}
	m.employees[e.ID] = copyEmployee(e)
	return nil
}

func (m *Store) GetEmployee(_ context.Context, id string) (*portal.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, &portal.NotFoundError{Kind: "employee", ID: id}
	}
	out := copyEmployee(e)
	return &out, nil
}

func (m *Store) GetEmployeeByEmail(_ context.Context, email string) (*portal.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.employees {
		if strings.EqualFold(e.Email, email) {
			out := copyEmployee(e)
			return &out, nil
		}
	}
	return nil, &portal.NotFoundError{Kind: "employee", ID: email}
}

func (m *Store) ListEmployees(_ context.Context) ([]portal.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]portal.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, copyEmployee(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Store) DeleteEmployee(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[id]; !ok {
		return &portal.NotFoundError{Kind: "employee", ID: id}
	}
	delete(m.employees, id)
	delete(m.absences, id)
	for k := range m.sessions {
		if k.EmployeeID == id {
			delete(m.sessions, k)
		}
	}
	return nil
}

func copyEmployee(e portal.Employee) portal.Employee {
	if e.GroupID != nil {
		id := *e.GroupID
		e.GroupID = &id
	}
	if e.Policy != nil {
		p := e.Policy.Clone()
		e.Policy = &p
	}
	return e
}

// =============================================================================
// ABSENCES
// =============================================================================

func (m *Store) SaveAbsence(_ context.Context, a portal.Absence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[a.EmployeeID]; !ok {
		return &portal.NotFoundError{Kind: "employee", ID: a.EmployeeID}
	}
	list, ok := m.absences[a.EmployeeID]
	if !ok {
		list = make(map[string]portal.Absence)
		m.absences[a.EmployeeID] = list
	}
	list[a.ID] = a
	return nil
}

func (m *Store) GetAbsence(_ context.Context, employeeID, id string) (*portal.Absence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.absences[employeeID][id]
	if !ok {
		return nil, &portal.NotFoundError{Kind: "absence", ID: id}
	}
	return &a, nil
}

func (m *Store) DeleteAbsence(_ context.Context, employeeID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.absences[employeeID][id]; !ok {
		return &portal.NotFoundError{Kind: "absence", ID: id}
	}
	delete(m.absences[employeeID], id)
	return nil
}

func (m *Store) ListAbsences(_ context.Context, employeeID string, r calendar.Range) ([]portal.Absence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []portal.Absence
	for _, a := range m.absences[employeeID] {
		if a.Range().Overlaps(r) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

// =============================================================================
// SESSIONS
// =============================================================================

func (m *Store) SaveSession(_ context.Context, s terminal.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[s.EmployeeID]; !ok {
		return &portal.NotFoundError{Kind: "employee", ID: s.EmployeeID}
	}
	m.sessions[sessionKey{EmployeeID: s.EmployeeID, Day: s.Day}] = s
	return nil
}

func (m *Store) GetSession(_ context.Context, employeeID string, day calendar.Day) (*terminal.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionKey{EmployeeID: employeeID, Day: day}]
	if !ok {
		return nil, &portal.NotFoundError{Kind: "session", ID: employeeID + "/" + day.String()}
	}
	return &s, nil
}

func (m *Store) ListSessions(_ context.Context, employeeID string, r calendar.Range) ([]terminal.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []terminal.Session
	for k, s := range m.sessions {
		if k.EmployeeID == employeeID && r.Contains(k.Day) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func (m *Store) GetOpenSession(_ context.Context, employeeID string) (*terminal.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *terminal.Session
	for k, s := range m.sessions {
		if k.EmployeeID != employeeID || !s.IsOpen() {
			continue
		}
		if latest == nil || s.Day.After(latest.Day) {
			latest = &s
		}
	}
	if latest == nil {
		return nil, &portal.NotFoundError{Kind: "open session", ID: employeeID}
	}
	return latest, nil
}

func (m *Store) ListOpenSessions(_ context.Context) ([]terminal.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []terminal.Session
	for _, s := range m.sessions {
		if s.IsOpen() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActiveSince.Before(out[j].ActiveSince) })
	return out, nil
}
