package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/warp/hrportal/settings"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// GROUPS
// =============================================================================

// GroupInput is the editable part of a group.
type GroupInput struct {
	Name   string
	Policy settings.WorkPolicy
}

// CreateGroup stores a new group with its policy layer.
func (s *Service) CreateGroup(ctx context.Context, in GroupInput) (*Group, error) {
	g := Group{ID: uuid.NewString(), CreatedAt: s.now().UTC()}
	if err := s.applyGroupInput(&g, in); err != nil {
		return nil, err
	}
	if err := s.store.SaveGroup(ctx, g); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"group_id": g.ID, "name": g.Name}).Info("group created")
	return s.store.GetGroup(ctx, g.ID)
}

// UpdateGroup replaces name and policy layer of a group.
func (s *Service) UpdateGroup(ctx context.Context, id string, in GroupInput) (*Group, error) {
	g, err := s.store.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyGroupInput(g, in); err != nil {
		return nil, err
	}
	if err := s.store.SaveGroup(ctx, *g); err != nil {
		return nil, err
	}
	s.log.WithField("group_id", id).Info("group updated")
	return s.store.GetGroup(ctx, id)
}

func (s *Service) applyGroupInput(g *Group, in GroupInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return &InputError{Field: "name", Reason: "must not be empty"}
	}
	policy := in.Policy.Clone()
	if err := s.validateLayer(&policy); err != nil {
		return err
	}
	g.Name = name
	g.Policy = policy
	return nil
}

// DeleteGroup removes a group. Its employees stay and lose the group layer.
func (s *Service) DeleteGroup(ctx context.Context, id string) error {
	if err := s.store.DeleteGroup(ctx, id); err != nil {
		return err
	}
	s.log.WithField("group_id", id).Info("group deleted")
	return nil
}

// GetGroup returns one group with its employee count.
func (s *Service) GetGroup(ctx context.Context, id string) (*Group, error) {
	return s.store.GetGroup(ctx, id)
}

// ListGroups returns all groups ordered by name.
func (s *Service) ListGroups(ctx context.Context) ([]Group, error) {
	return s.store.ListGroups(ctx)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeInput is the editable part of an employee. Password is only read
// on creation; UseCustomSettings false drops the individual layer.
type EmployeeInput struct {
	EmployeeNumber    string
	Name              string
	Email             string
	Password          string
	IsAdmin           bool
	GroupID           *string
	UseCustomSettings bool
	Policy            settings.WorkPolicy
}

const minPasswordLength = 8

var validate = validator.New()

// CreateEmployee stores a new employee with a bcrypt password hash.
func (s *Service) CreateEmployee(ctx context.Context, in EmployeeInput) (*Employee, error) {
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	e := Employee{ID: uuid.NewString(), PasswordHash: hash, CreatedAt: s.now().UTC()}
	if err := s.applyEmployeeInput(ctx, &e, in); err != nil {
		return nil, err
	}
	if err := s.store.SaveEmployee(ctx, e); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"employee_id":     e.ID,
		"employee_number": e.EmployeeNumber,
	}).Info("employee created")
	return s.store.GetEmployee(ctx, e.ID)
}

// UpdateEmployee replaces the editable fields of an employee. The password
// hash is kept.
func (s *Service) UpdateEmployee(ctx context.Context, id string, in EmployeeInput) (*Employee, error) {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyEmployeeInput(ctx, e, in); err != nil {
		return nil, err
	}
	if err := s.store.SaveEmployee(ctx, *e); err != nil {
		return nil, err
	}
	s.log.WithField("employee_id", id).Info("employee updated")
	return s.store.GetEmployee(ctx, id)
}

func (s *Service) applyEmployeeInput(ctx context.Context, e *Employee, in EmployeeInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return &InputError{Field: "name", Reason: "must not be empty"}
	}
	number := strings.TrimSpace(in.EmployeeNumber)
	if number == "" {
		return &InputError{Field: "employeeNumber", Reason: "must not be empty"}
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Var(email, "required,email"); err != nil {
		return &InputError{Field: "email", Reason: "must be a valid address"}
	}

	var groupID *string
	if in.GroupID != nil && *in.GroupID != "" {
		if _, err := s.store.GetGroup(ctx, *in.GroupID); err != nil {
			if IsNotFound(err) {
				return &InputError{Field: "groupId", Reason: "unknown group"}
			}
			return err
		}
		id := *in.GroupID
		groupID = &id
	}

	var policy *settings.WorkPolicy
	if in.UseCustomSettings {
		p := in.Policy.Clone()
		if err := s.validateLayer(&p); err != nil {
			return err
		}
		if !p.IsEmpty() {
			policy = &p
		}
	}

	e.EmployeeNumber = number
	e.Name = name
	e.Email = email
	e.IsAdmin = in.IsAdmin
	e.GroupID = groupID
	e.Policy = policy
	return nil
}

// ResetPassword sets a new password hash.
func (s *Service) ResetPassword(ctx context.Context, id, password string) error {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	e.PasswordHash = hash
	if err := s.store.SaveEmployee(ctx, *e); err != nil {
		return err
	}
	s.log.WithField("employee_id", id).Info("password reset")
	return nil
}

// Authenticate checks an email and password pair. Any mismatch yields
// ErrUnauthorized without telling which part was wrong.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Employee, error) {
	e, err := s.store.GetEmployeeByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if IsNotFound(err) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(password)) != nil {
		return nil, ErrUnauthorized
	}
	return e, nil
}

// DeleteEmployee removes an employee with all absences and sessions.
func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.log.WithField("employee_id", id).Info("employee deleted")
	return nil
}

// GetEmployee returns one employee.
func (s *Service) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

// ListEmployees returns all employees ordered by name.
func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.store.ListEmployees(ctx)
}

// Authorize loads the caller and checks that it may act on target. Admins
// may act on anyone; others only on themselves and never on admin-only
// actions.
func (s *Service) Authorize(ctx context.Context, callerID, targetID string, adminOnly bool) (*Employee, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	caller, err := s.store.GetEmployee(ctx, callerID)
	if IsNotFound(err) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if caller.IsAdmin {
		return caller, nil
	}
	if adminOnly || callerID != targetID {
		return nil, ErrUnauthorized
	}
	return caller, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", &InputError{Field: "password", Reason: fmt.Sprintf("must have at least %d characters", minPasswordLength)}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", &InputError{Field: "password", Reason: "must not exceed 72 bytes"}
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
