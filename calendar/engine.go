package calendar

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/hrportal/settings"
)

// =============================================================================
// ENGINE - Workdays, target hours and vacation-day consumption
// =============================================================================

// Engine answers calendar questions for a region. It holds no mutable state;
// any caching belongs to the HolidaySource it wraps.
type Engine struct {
	source HolidaySource
}

// NewEngine creates an engine over the given holiday source.
func NewEngine(source HolidaySource) *Engine {
	return &Engine{source: source}
}

// PublicHolidays returns the public holidays of a region for a calendar year.
// Subdivision codes yield the subdivision's calendar.
func (e *Engine) PublicHolidays(region string, year int) (HolidaySet, error) {
	r, err := ParseRegion(region)
	if err != nil {
		return HolidaySet{}, err
	}
	raw, err := e.source.Holidays(r, year)
	if err != nil {
		return HolidaySet{}, err
	}
	return NewHolidaySet(r, year, raw), nil
}

// IsWorkday is true iff d is Monday-Friday and not a public holiday.
func (e *Engine) IsWorkday(d Day, region string) (bool, error) {
	if d.IsWeekend() {
		// Still resolve the region so an unknown code never passes silently.
		_, err := e.PublicHolidays(region, d.Year())
		return false, err
	}
	set, err := e.PublicHolidays(region, d.Year())
	if err != nil {
		return false, err
	}
	return !set.Contains(d), nil
}

// MonthlyTargetHours sums dailyHours over every workday of the month.
func (e *Engine) MonthlyTargetHours(year int, month time.Month, dailyHours decimal.Decimal, region string) (decimal.Decimal, error) {
	m := MonthRange(year, month)
	workdays, err := e.CountWorkdays(m.Start, m.End, region)
	if err != nil {
		return decimal.Zero, err
	}
	return dailyHours.Mul(decimal.NewFromInt(int64(workdays))), nil
}

// CountCalendarDays is the inclusive number of days in [start, end].
func (e *Engine) CountCalendarDays(start, end Day) (int, error) {
	r, err := NewRange(start, end)
	if err != nil {
		return 0, err
	}
	return r.Len(), nil
}

// CountWorkdays counts the workdays in [start, end].
func (e *Engine) CountWorkdays(start, end Day, region string) (int, error) {
	return e.countDays(start, end, region, nil)
}

// CountVacationDaysConsumed counts the days in [start, end] that cost a
// vacation day: weekdays that are neither public holidays nor covered by a
// holiday-category absence. Absences of other categories are ignored. The
// result never exceeds CountWorkdays for the same range.
func (e *Engine) CountVacationDaysConsumed(start, end Day, region string, holidays []AbsenceInterval) (int, error) {
	var blocked []Range
	for _, a := range holidays {
		if a.Category != CategoryHoliday {
			continue
		}
		if err := a.Range().Validate(); err != nil {
			return 0, err
		}
		blocked = append(blocked, a.Range())
	}
	return e.countDays(start, end, region, blocked)
}

// countDays walks the range once, loading each year's holiday set lazily.
func (e *Engine) countDays(start, end Day, region string, blocked []Range) (int, error) {
	r, err := NewRange(start, end)
	if err != nil {
		return 0, err
	}

	sets := make(map[int]HolidaySet)
	count := 0
	for d := range r.Days() {
		set, ok := sets[d.Year()]
		if !ok {
			set, err = e.PublicHolidays(region, d.Year())
			if err != nil {
				return 0, err
			}
			sets[d.Year()] = set
		}
		if d.IsWeekend() || set.Contains(d) || coveredBy(d, blocked) {
			continue
		}
		count++
	}
	return count, nil
}

func coveredBy(d Day, ranges []Range) bool {
	for _, r := range ranges {
		if r.Contains(d) {
			return true
		}
	}
	return false
}

// =============================================================================
// VACATION BALANCE
// =============================================================================

// RemainingVacationDays is the entitlement minus consumed and planned days.
// The result may be negative; that signals over-allocation and the caller
// decides whether to block.
func RemainingVacationDays(policy settings.EffectivePolicy, consumedThisYear, plannedFuture int) int {
	return policy.VacationDays - consumedThisYear - plannedFuture
}

// IsOverAllocated reports whether a remaining balance is negative.
func IsOverAllocated(remaining int) bool {
	return remaining < 0
}
