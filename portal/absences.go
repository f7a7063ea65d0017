package portal

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/warp/hrportal/calendar"
)

// =============================================================================
// ABSENCES
// =============================================================================

// AbsenceInput is a requested absence interval.
type AbsenceInput struct {
	Start    calendar.Day
	End      calendar.Day
	Category calendar.AbsenceCategory
	Label    string
}

// AddAbsence stores a new absence for employeeID on behalf of actor.
//
// Holiday-category intervals are company holidays and need an admin.
// Vacations are approved immediately when the actor is an admin or the
// employee's effective policy allows self-approval; otherwise they are
// pending. Same-category overlaps are rejected. A resulting negative
// vacation balance is logged but not blocked.
func (s *Service) AddAbsence(ctx context.Context, actor *Employee, employeeID string, in AbsenceInput) (*Absence, error) {
	if in.Category == calendar.CategoryHoliday && !actor.IsAdmin {
		return nil, ErrUnauthorized
	}

	a := Absence{
		AbsenceInterval: calendar.AbsenceInterval{ID: uuid.NewString()},
		EmployeeID:      employeeID,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.saveAbsence(ctx, actor, &a, in); err != nil {
		return nil, err
	}
	s.afterAbsenceChange(ctx, "absence added", a)
	return &a, nil
}

// UpdateAbsence replaces the dates, category and label of a stored absence.
// The approval rule of AddAbsence is applied again, so a vacation edited by
// an employee without self-approval goes back to pending. The overlap check
// ignores the absence being edited.
func (s *Service) UpdateAbsence(ctx context.Context, actor *Employee, employeeID, absenceID string, in AbsenceInput) (*Absence, error) {
	current, err := s.store.GetAbsence(ctx, employeeID, absenceID)
	if err != nil {
		return nil, err
	}
	if (current.Category == calendar.CategoryHoliday || in.Category == calendar.CategoryHoliday) && !actor.IsAdmin {
		return nil, ErrUnauthorized
	}

	a := *current
	if err := s.saveAbsence(ctx, actor, &a, in); err != nil {
		return nil, err
	}
	s.afterAbsenceChange(ctx, "absence updated", a)
	return &a, nil
}

// saveAbsence applies in to a, decides its status, checks overlaps and
// stores it.
func (s *Service) saveAbsence(ctx context.Context, actor *Employee, a *Absence, in AbsenceInput) error {
	emp, err := s.store.GetEmployee(ctx, a.EmployeeID)
	if err != nil {
		return err
	}
	res, err := s.resolve(ctx, emp)
	if err != nil {
		return err
	}

	a.Start, a.End, a.Category, a.Label = in.Start, in.End, in.Category, in.Label
	a.Status = AbsenceApproved
	if a.Category == calendar.CategoryVacation && !actor.IsAdmin && !res.Policy.CanSelfApprove {
		a.Status = AbsencePending
	}
	if err := a.Validate(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.store.ListAbsences(ctx, a.EmployeeID, a.Range())
	if err != nil {
		return fmt.Errorf("load absences: %w", err)
	}
	if err := calendar.CheckNewAbsence(intervals(existing), a.AbsenceInterval); err != nil {
		return err
	}
	return s.store.SaveAbsence(ctx, *a)
}

// afterAbsenceChange logs a stored absence and warns when a vacation leaves
// the entitlement over-allocated. The absence is already saved, so a failing
// balance check is logged and not returned.
func (s *Service) afterAbsenceChange(ctx context.Context, msg string, a Absence) {
	entry := s.log.WithFields(logrus.Fields{
		"employee_id": a.EmployeeID,
		"absence_id":  a.ID,
		"category":    a.Category,
		"range":       a.Range().String(),
		"status":      a.Status,
	})
	entry.Info(msg)

	if a.Category != calendar.CategoryVacation {
		return
	}
	for year := a.Start.Year(); year <= a.End.Year(); year++ {
		sum, err := s.VacationSummary(ctx, a.EmployeeID, year)
		if err != nil {
			entry.WithError(err).WithField("year", year).Error("vacation balance check failed")
			continue
		}
		if sum.OverAllocated {
			entry.WithFields(logrus.Fields{"year": year, "remaining": sum.Remaining}).
				Warn("vacation entitlement over-allocated")
		}
	}
}

// ApproveAbsence marks a pending absence as approved. Only admins approve.
func (s *Service) ApproveAbsence(ctx context.Context, actor *Employee, employeeID, absenceID string) (*Absence, error) {
	if !actor.IsAdmin {
		return nil, ErrUnauthorized
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	a, err := s.store.GetAbsence(ctx, employeeID, absenceID)
	if err != nil {
		return nil, err
	}
	if a.Status == AbsenceApproved {
		return a, nil
	}
	a.Status = AbsenceApproved
	if err := s.store.SaveAbsence(ctx, *a); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"absence_id":  absenceID,
		"approver_id": actor.ID,
	}).Info("absence approved")
	return a, nil
}

// RemoveAbsence deletes an absence. Non-admins cannot remove company holidays.
func (s *Service) RemoveAbsence(ctx context.Context, actor *Employee, employeeID, absenceID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	a, err := s.store.GetAbsence(ctx, employeeID, absenceID)
	if err != nil {
		return err
	}
	if a.Category == calendar.CategoryHoliday && !actor.IsAdmin {
		return ErrUnauthorized
	}
	if err := s.store.DeleteAbsence(ctx, employeeID, absenceID); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"employee_id": employeeID, "absence_id": absenceID}).Info("absence removed")
	return nil
}

// Absences returns the absences of an employee that touch year.
func (s *Service) Absences(ctx context.Context, employeeID string, year int) ([]Absence, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.store.ListAbsences(ctx, employeeID, calendar.YearRange(year))
}

func intervals(list []Absence) []calendar.AbsenceInterval {
	out := make([]calendar.AbsenceInterval, len(list))
	for i, a := range list {
		out[i] = a.AbsenceInterval
	}
	return out
}

// =============================================================================
// VACATION SUMMARY
// =============================================================================

// VacationSummary is the vacation balance of one employee and year.
// Consumed counts vacation days before today, Planned the rest. Pending
// vacations are charged too, so Remaining already reserves them; Pending
// is the share of Consumed plus Planned still awaiting approval.
type VacationSummary struct {
	Year          int    `json:"year"`
	Region        string `json:"region"`
	Entitlement   int    `json:"entitlement"`
	Consumed      int    `json:"consumed"`
	Planned       int    `json:"planned"`
	Pending       int    `json:"pending"`
	Remaining     int    `json:"remaining"`
	OverAllocated bool   `json:"overAllocated"`
}

// VacationSummary computes the balance for a calendar year. Vacations that
// cross a year boundary are charged to each year for their own days.
func (s *Service) VacationSummary(ctx context.Context, employeeID string, year int) (VacationSummary, error) {
	res, err := s.EffectivePolicy(ctx, employeeID)
	if err != nil {
		return VacationSummary{}, err
	}
	policy := res.Policy

	absences, err := s.store.ListAbsences(ctx, employeeID, calendar.YearRange(year))
	if err != nil {
		return VacationSummary{}, fmt.Errorf("load absences: %w", err)
	}
	all := intervals(absences)
	companyHolidays := calendar.FilterCategory(all, calendar.CategoryHoliday)
	today := s.today()

	sum := VacationSummary{Year: year, Region: policy.HolidayRegion, Entitlement: policy.VacationDays}
	for _, a := range absences {
		if a.Category != calendar.CategoryVacation {
			continue
		}
		for _, part := range calendar.SplitByYear(a.AbsenceInterval) {
			if part.Start.Year() != year {
				continue
			}
			past, future, err := s.splitAtDay(part.Range(), today, policy.HolidayRegion, companyHolidays)
			if err != nil {
				return VacationSummary{}, err
			}
			sum.Consumed += past
			sum.Planned += future
			if a.Status == AbsencePending {
				sum.Pending += past + future
			}
		}
	}
	sum.Remaining = calendar.RemainingVacationDays(policy, sum.Consumed, sum.Planned)
	sum.OverAllocated = calendar.IsOverAllocated(sum.Remaining)
	return sum, nil
}

// splitAtDay counts the vacation days of r before pivot and from pivot on.
func (s *Service) splitAtDay(r calendar.Range, pivot calendar.Day, region string, holidays []calendar.AbsenceInterval) (before, after int, err error) {
	if r.Start.Before(pivot) {
		end := r.End
		if !end.Before(pivot) {
			end = pivot.AddDays(-1)
		}
		before, err = s.engine.CountVacationDaysConsumed(r.Start, end, region, holidays)
		if err != nil {
			return 0, 0, err
		}
	}
	if !r.End.Before(pivot) {
		start := r.Start
		if start.Before(pivot) {
			start = pivot
		}
		after, err = s.engine.CountVacationDaysConsumed(start, r.End, region, holidays)
		if err != nil {
			return 0, 0, err
		}
	}
	return before, after, nil
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// HolidayCalendar is the calendar feed of one employee and year: the
// public holidays of the employee's region plus company holidays.
type HolidayCalendar struct {
	Year     int                `json:"year"`
	Region   string             `json:"region"`
	Public   []calendar.Holiday `json:"public"`
	Company  []Absence          `json:"company"`
	Absences []Absence          `json:"absences"`
}

// Holidays builds the holiday calendar of an employee.
func (s *Service) Holidays(ctx context.Context, employeeID string, year int) (HolidayCalendar, error) {
	res, err := s.EffectivePolicy(ctx, employeeID)
	if err != nil {
		return HolidayCalendar{}, err
	}
	set, err := s.engine.PublicHolidays(res.Policy.HolidayRegion, year)
	if err != nil {
		return HolidayCalendar{}, err
	}
	absences, err := s.store.ListAbsences(ctx, employeeID, calendar.YearRange(year))
	if err != nil {
		return HolidayCalendar{}, fmt.Errorf("load absences: %w", err)
	}

	cal := HolidayCalendar{
		Year:     year,
		Region:   set.Region().String(),
		Public:   slices.Collect(set.All()),
		Company:  []Absence{},
		Absences: []Absence{},
	}
	for _, a := range absences {
		if a.Category == calendar.CategoryHoliday {
			cal.Company = append(cal.Company, a)
		} else {
			cal.Absences = append(cal.Absences, a)
		}
	}
	return cal, nil
}
