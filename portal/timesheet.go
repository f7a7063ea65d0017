package portal

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/hrportal/calendar"
	"github.com/warp/hrportal/terminal"
)

// =============================================================================
// TARGET HOURS
// =============================================================================

// MonthlyTarget is the working-hour target of one employee and month.
type MonthlyTarget struct {
	Year       int             `json:"year"`
	Month      time.Month      `json:"month"`
	Region     string          `json:"region"`
	DailyHours decimal.Decimal `json:"dailyHours"`
	Workdays   int             `json:"workdays"`
	Hours      decimal.Decimal `json:"hours"`
	Clock      calendar.Clock  `json:"clock"`
}

// MonthlyTarget computes the target hours from the employee's effective
// daily hours and holiday region.
func (s *Service) MonthlyTarget(ctx context.Context, employeeID string, year int, month time.Month) (MonthlyTarget, error) {
	if month < time.January || month > time.December {
		return MonthlyTarget{}, &InputError{Field: "month", Reason: "must be between 1 and 12"}
	}
	res, err := s.EffectivePolicy(ctx, employeeID)
	if err != nil {
		return MonthlyTarget{}, err
	}
	p := res.Policy

	hours, err := s.engine.MonthlyTargetHours(year, month, p.DailyHours, p.HolidayRegion)
	if err != nil {
		return MonthlyTarget{}, err
	}
	m := calendar.MonthRange(year, month)
	workdays, err := s.engine.CountWorkdays(m.Start, m.End, p.HolidayRegion)
	if err != nil {
		return MonthlyTarget{}, err
	}
	return MonthlyTarget{
		Year:       year,
		Month:      month,
		Region:     p.HolidayRegion,
		DailyHours: p.DailyHours,
		Workdays:   workdays,
		Hours:      hours,
		Clock:      calendar.DecimalHoursToClock(hours),
	}, nil
}

// =============================================================================
// TIMESHEET
// =============================================================================

// TimesheetDay is one day of a timesheet.
type TimesheetDay struct {
	Day            calendar.Day      `json:"day"`
	Workday        bool              `json:"workday"`
	Holiday        string            `json:"holiday,omitempty"`
	Absence        string            `json:"absence,omitempty"`
	Location       terminal.Location `json:"location,omitempty"`
	State          terminal.State    `json:"state,omitempty"`
	WorkedMinutes  int               `json:"workedMinutes"`
	BreakMinutes   int               `json:"breakMinutes"`
	BreakShortfall int               `json:"breakShortfallMinutes,omitempty"`
}

// Timesheet is the monthly time record of one employee. Balance is worked
// minus target; it is a flextime balance only when HasFlextime is set.
type Timesheet struct {
	Employee      string         `json:"employeeId"`
	Target        MonthlyTarget  `json:"target"`
	Days          []TimesheetDay `json:"days"`
	WorkedMinutes int            `json:"workedMinutes"`
	TargetMinutes int            `json:"targetMinutes"`
	Balance       calendar.Clock `json:"balance"`
	BalanceMins   int            `json:"balanceMinutes"`
	HasFlextime   bool           `json:"hasFlextime"`
}

// Timesheet combines the terminal sessions of a month with its target.
// An approved absence on a workday without a session counts as a full
// target day worked.
func (s *Service) Timesheet(ctx context.Context, employeeID string, year int, month time.Month) (Timesheet, error) {
	target, err := s.MonthlyTarget(ctx, employeeID, year, month)
	if err != nil {
		return Timesheet{}, err
	}
	res, err := s.EffectivePolicy(ctx, employeeID)
	if err != nil {
		return Timesheet{}, err
	}
	p := res.Policy

	m := calendar.MonthRange(year, month)
	sessions, err := s.store.ListSessions(ctx, employeeID, m)
	if err != nil {
		return Timesheet{}, fmt.Errorf("load sessions: %w", err)
	}
	byDay := make(map[calendar.Day]terminal.Session, len(sessions))
	for _, sess := range sessions {
		byDay[sess.Day] = sess
	}
	absences, err := s.store.ListAbsences(ctx, employeeID, m)
	if err != nil {
		return Timesheet{}, fmt.Errorf("load absences: %w", err)
	}
	holidays, err := s.engine.PublicHolidays(p.HolidayRegion, year)
	if err != nil {
		return Timesheet{}, err
	}

	dailyMinutes := int(p.DailyHours.Mul(decimal.NewFromInt(60)).Round(0).IntPart())
	now := s.now()
	sheet := Timesheet{
		Employee:      employeeID,
		Target:        target,
		Days:          make([]TimesheetDay, 0, m.Len()),
		TargetMinutes: int(target.Hours.Mul(decimal.NewFromInt(60)).Round(0).IntPart()),
		HasFlextime:   p.HasFlextime,
	}

	for d := range m.Days() {
		row := TimesheetDay{
			Day:     d,
			Workday: !d.IsWeekend() && !holidays.Contains(d),
			Holiday: holidays.Name(d),
		}
		creditable := row.Workday
		for _, a := range absences {
			if a.Range().Contains(d) && a.Status == AbsenceApproved {
				row.Absence = string(a.Category)
				if a.Category == calendar.CategoryHoliday {
					row.Workday = false
				}
				break
			}
		}
		if sess, ok := byDay[d]; ok {
			row.Location = sess.Location
			row.State = sess.State
			row.WorkedMinutes = int(sess.Worked(now) / time.Minute)
			row.BreakMinutes = int(sess.Breaks(now) / time.Minute)
			row.BreakShortfall = int(sess.BreakShortfall(p.MinBreakTime, now) / time.Minute)
		} else if creditable && row.Absence != "" {
			row.WorkedMinutes = dailyMinutes
		}
		sheet.WorkedMinutes += row.WorkedMinutes
		sheet.Days = append(sheet.Days, row)
	}

	sheet.BalanceMins = sheet.WorkedMinutes - sheet.TargetMinutes
	sheet.Balance = calendar.ClockFromMinutes(sheet.BalanceMins)
	return sheet, nil
}
