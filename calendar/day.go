/*
Package calendar computes calendar-based working-time quantities.

PURPOSE:
  Given a holiday region and a date range, the engine answers:
    - which days are public holidays
    - which days are workdays
    - how many hours an employee should work in a month
    - how many vacation days a date range consumes

KEY CONCEPTS IN THIS FILE (day.go):
  - Day:   a calendar date, normalised to midnight UTC
  - Range: an inclusive [Start, End] span of days

All arithmetic goes through time.Time.AddDate, so month lengths and leap
years are never special-cased.

SEE ALSO:
  - engine.go: workday / target hour / vacation computations
  - holiday.go: HolidaySet and the HolidaySource collaborator
  - errors.go: error taxonomy
*/
package calendar

import (
	"encoding/json"
	"fmt"
	"iter"
	"time"
)

// =============================================================================
// DAY - A calendar date without time of day
// =============================================================================

const dayLayout = "2006-01-02"

// Day is a calendar date. The zero value is the zero time.
type Day struct {
	t time.Time
}

// NewDay builds a Day from its components. Out-of-range components are
// normalised the way time.Date does (e.g. Feb 30 -> Mar 1 or 2).
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf strips the time of day from t, keeping t's calendar date in its own location.
func DayOf(t time.Time) Day {
	return NewDay(t.Year(), t.Month(), t.Day())
}

// Today returns the current date in the local time zone.
func Today() Day {
	return DayOf(time.Now())
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DayOf(t), nil
}

// MustParseDay is ParseDay for tests and fixed tables.
func MustParseDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Day) Before(o Day) bool        { return d.t.Before(o.t) }
func (d Day) After(o Day) bool         { return d.t.After(o.t) }
func (d Day) Equal(o Day) bool         { return d.t.Equal(o.t) }
func (d Day) BeforeOrEqual(o Day) bool { return !d.t.After(o.t) }
func (d Day) AfterOrEqual(o Day) bool  { return !d.t.Before(o.t) }

// Arithmetic
func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Day) Year() int              { return d.t.Year() }
func (d Day) Month() time.Month      { return d.t.Month() }
func (d Day) DayOfMonth() int        { return d.t.Day() }
func (d Day) Weekday() time.Weekday  { return d.t.Weekday() }
func (d Day) IsZero() bool           { return d.t.IsZero() }
func (d Day) Time() time.Time        { return d.t }
func (d Day) String() string         { return d.t.Format(dayLayout) }
func (d Day) IsWeekend() bool        { wd := d.Weekday(); return wd == time.Saturday || wd == time.Sunday }

const secondsPerDay = 24 * 60 * 60

// DaysUntil returns the number of days from d to o (negative if o is earlier).
func (d Day) DaysUntil(o Day) int {
	return int((o.t.Unix() - d.t.Unix()) / secondsPerDay)
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// RANGE - Inclusive span of days
// =============================================================================

// Range is the inclusive span [Start, End].
type Range struct {
	Start Day `json:"start"`
	End   Day `json:"end"`
}

// NewRange validates that start <= end.
func NewRange(start, end Day) (Range, error) {
	r := Range{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Validate returns an *InvalidRangeError when End is before Start.
func (r Range) Validate() error {
	if r.End.Before(r.Start) {
		return &InvalidRangeError{Start: r.Start, End: r.End}
	}
	return nil
}

// Contains returns true if d is within [Start, End].
func (r Range) Contains(d Day) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Overlaps returns true if the two ranges share at least one day.
func (r Range) Overlaps(o Range) bool {
	return r.Start.BeforeOrEqual(o.End) && o.Start.BeforeOrEqual(r.End)
}

// Len is the inclusive number of days; 0 for an invalid range.
func (r Range) Len() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return r.Start.DaysUntil(r.End) + 1
}

// Days yields every day of the range in order. The sequence can be ranged
// over any number of times.
func (r Range) Days() iter.Seq[Day] {
	return func(yield func(Day) bool) {
		for d := r.Start; d.BeforeOrEqual(r.End); d = d.AddDays(1) {
			if !yield(d) {
				return
			}
		}
	}
}

// Intersect returns the shared days of r and o, and false if there are none.
func (r Range) Intersect(o Range) (Range, bool) {
	if !r.Overlaps(o) {
		return Range{}, false
	}
	start, end := r.Start, r.End
	if o.Start.After(start) {
		start = o.Start
	}
	if o.End.Before(end) {
		end = o.End
	}
	return Range{Start: start, End: end}, true
}

func (r Range) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// MonthRange returns the first through last day of a month.
func MonthRange(year int, month time.Month) Range {
	start := NewDay(year, month, 1)
	return Range{Start: start, End: NewDay(year, month+1, 1).AddDays(-1)}
}

// YearRange returns January 1 through December 31.
func YearRange(year int) Range {
	return Range{Start: NewDay(year, time.January, 1), End: NewDay(year, time.December, 31)}
}
