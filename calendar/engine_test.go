package calendar_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hrportal/calendar"
	"github.com/warp/hrportal/settings"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// staticSource serves a fixed holiday table; unknown regions are rejected.
type staticSource struct {
	data  map[string][]calendar.Holiday
	calls int
}

func (s *staticSource) Holidays(region calendar.Region, year int) ([]calendar.Holiday, error) {
	s.calls++
	list, ok := s.data[region.String()]
	if !ok {
		return nil, &calendar.UnknownRegionError{Region: region.String()}
	}
	var out []calendar.Holiday
	for _, h := range list {
		if h.Date.Year() == year {
			out = append(out, h)
		}
	}
	return out, nil
}

func day(s string) calendar.Day { return calendar.MustParseDay(s) }

func public(date, name string) calendar.Holiday {
	return calendar.Holiday{Date: day(date), Name: name, Type: calendar.HolidayPublic}
}

func newTestEngine() (*calendar.Engine, *staticSource) {
	src := &staticSource{data: map[string][]calendar.Holiday{
		"DE": {
			public("2024-01-01", "Neujahr"),
			public("2024-03-29", "Karfreitag"),
			public("2024-04-01", "Ostermontag"),
			public("2024-05-01", "Tag der Arbeit"),
			public("2024-12-25", "1. Weihnachtstag"),
			public("2024-12-26", "2. Weihnachtstag"),
			public("2025-01-01", "Neujahr"),
			{Date: day("2024-12-24"), Name: "Heiligabend", Type: calendar.HolidayBank},
			{Date: day("2024-12-31"), Name: "Silvester", Type: calendar.HolidayOther},
		},
		"DE-NW": {
			public("2024-01-01", "Neujahr"),
			public("2024-03-29", "Karfreitag"),
			public("2024-04-01", "Ostermontag"),
			public("2024-05-01", "Tag der Arbeit"),
			public("2024-05-30", "Fronleichnam"),
			public("2024-11-01", "Allerheiligen"),
			public("2024-12-25", "1. Weihnachtstag"),
			public("2024-12-26", "2. Weihnachtstag"),
		},
	}}
	return calendar.NewEngine(src), src
}

// =============================================================================
// PUBLIC HOLIDAYS
// =============================================================================

func TestPublicHolidays_FiltersNonPublicTypes(t *testing.T) {
	engine, _ := newTestEngine()

	set, err := engine.PublicHolidays("DE", 2024)
	require.NoError(t, err)

	assert.Equal(t, 6, set.Len())
	assert.True(t, set.Contains(day("2024-05-01")))
	assert.False(t, set.Contains(day("2024-12-24")), "bank holiday must not block work")
	assert.False(t, set.Contains(day("2024-12-31")), "observance must not block work")
	assert.False(t, set.Contains(day("2025-01-01")), "other year's entries are excluded")
	assert.Equal(t, "Tag der Arbeit", set.Name(day("2024-05-01")))
}

func TestPublicHolidays_SubdivisionDiffersFromCountry(t *testing.T) {
	engine, _ := newTestEngine()

	country, err := engine.PublicHolidays("DE", 2024)
	require.NoError(t, err)
	state, err := engine.PublicHolidays("de-nw", 2024)
	require.NoError(t, err)

	assert.True(t, state.Contains(day("2024-05-30")))
	assert.False(t, country.Contains(day("2024-05-30")))
	assert.Equal(t, "DE-NW", state.Region().String())
}

func TestPublicHolidays_SequenceIsRestartableAndOrdered(t *testing.T) {
	engine, _ := newTestEngine()
	set, err := engine.PublicHolidays("DE", 2024)
	require.NoError(t, err)

	var first, second []calendar.Day
	for h := range set.All() {
		first = append(first, h.Date)
	}
	for h := range set.All() {
		second = append(second, h.Date)
	}

	assert.Equal(t, first, second)
	assert.Equal(t, set.Dates(), first)
	for i := 1; i < len(first); i++ {
		assert.True(t, first[i-1].Before(first[i]))
	}

	again, err := engine.PublicHolidays("DE", 2024)
	require.NoError(t, err)
	assert.Equal(t, set.Dates(), again.Dates())
}

func TestPublicHolidays_UnknownRegion(t *testing.T) {
	engine, _ := newTestEngine()

	for _, code := range []string{"XX", "DE-ZZ", "", "GERMANY", "D"} {
		_, err := engine.PublicHolidays(code, 2024)
		assert.ErrorIs(t, err, calendar.ErrUnknownRegion, "code %q", code)
		var regionErr *calendar.UnknownRegionError
		assert.ErrorAs(t, err, &regionErr)
	}
}

// =============================================================================
// WORKDAYS
// =============================================================================

func TestIsWorkday(t *testing.T) {
	engine, _ := newTestEngine()

	tests := []struct {
		date string
		want bool
	}{
		{"2024-05-02", true},  // Thursday
		{"2024-05-01", false}, // public holiday (Wednesday)
		{"2024-05-04", false}, // Saturday
		{"2024-05-05", false}, // Sunday
		{"2024-12-24", true},  // bank holiday only
	}
	for _, tt := range tests {
		got, err := engine.IsWorkday(day(tt.date), "DE")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.date)
	}
}

func TestIsWorkday_WeekendStillRejectsUnknownRegion(t *testing.T) {
	engine, _ := newTestEngine()
	_, err := engine.IsWorkday(day("2024-05-04"), "XX")
	assert.ErrorIs(t, err, calendar.ErrUnknownRegion)
}

func TestCountWorkdays_NeverExceedsCalendarDays(t *testing.T) {
	engine, _ := newTestEngine()

	ranges := [][2]string{
		{"2024-01-01", "2024-01-01"},
		{"2024-01-06", "2024-01-07"},
		{"2024-02-01", "2024-02-29"},
		{"2024-03-25", "2024-04-05"},
		{"2024-01-01", "2024-12-31"},
		{"2024-12-20", "2025-01-10"},
	}
	for _, r := range ranges {
		workdays, err := engine.CountWorkdays(day(r[0]), day(r[1]), "DE")
		require.NoError(t, err)
		calendarDays, err := engine.CountCalendarDays(day(r[0]), day(r[1]))
		require.NoError(t, err)
		assert.LessOrEqual(t, workdays, calendarDays, "%v", r)
	}
}

func TestCountWorkdays_EasterWeek(t *testing.T) {
	engine, _ := newTestEngine()
	// Mon 2024-03-25 .. Fri 2024-04-05: 10 weekdays, minus Good Friday and Easter Monday.
	n, err := engine.CountWorkdays(day("2024-03-25"), day("2024-04-05"), "DE")
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestCountWorkdays_CrossesYearBoundary(t *testing.T) {
	engine, _ := newTestEngine()
	// Mon 2024-12-30, Tue 12-31 (observance only), Wed 2025-01-01 holiday, Thu, Fri.
	n, err := engine.CountWorkdays(day("2024-12-30"), day("2025-01-03"), "DE")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

// =============================================================================
// CALENDAR DAYS
// =============================================================================

func TestCountCalendarDays(t *testing.T) {
	engine, _ := newTestEngine()

	n, err := engine.CountCalendarDays(day("2024-02-01"), day("2024-02-29"))
	require.NoError(t, err)
	assert.Equal(t, 29, n)

	n, err = engine.CountCalendarDays(day("2024-03-10"), day("2024-03-10"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = engine.CountCalendarDays(day("2023-12-31"), day("2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCountCalendarDays_SpansCenturies(t *testing.T) {
	engine, _ := newTestEngine()

	// GIVEN ranges far longer than a time.Duration can represent
	n, err := engine.CountCalendarDays(day("1000-01-01"), day("9999-12-31"))
	require.NoError(t, err)
	assert.Equal(t, 3287182, n)

	// WHEN counting workdays over six centuries
	calendarDays, err := engine.CountCalendarDays(day("1900-01-01"), day("2500-01-01"))
	require.NoError(t, err)
	workdays, err := engine.CountWorkdays(day("1900-01-01"), day("2500-01-01"), "DE")
	require.NoError(t, err)

	// THEN the calendar count still bounds the workday count
	assert.Equal(t, 219147, calendarDays)
	assert.Equal(t, 156528, workdays)
	assert.LessOrEqual(t, workdays, calendarDays)
}

func TestCountCalendarDays_EndBeforeStart(t *testing.T) {
	engine, _ := newTestEngine()

	_, err := engine.CountCalendarDays(day("2024-03-10"), day("2024-03-09"))

	require.Error(t, err)
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)
	var rangeErr *calendar.InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, day("2024-03-10"), rangeErr.Start)
	assert.True(t, calendar.IsClientError(err))
}

func TestRangeOperations_RejectInvertedRanges(t *testing.T) {
	engine, _ := newTestEngine()

	_, err := engine.CountWorkdays(day("2024-03-10"), day("2024-03-01"), "DE")
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)

	_, err = engine.CountVacationDaysConsumed(day("2024-03-10"), day("2024-03-01"), "DE", nil)
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)
}

// =============================================================================
// MONTHLY TARGET HOURS
// =============================================================================

func TestMonthlyTargetHours_LeapFebruary(t *testing.T) {
	engine, _ := newTestEngine()

	// February 2024 has 29 days and 21 weekdays; no DE public holiday.
	got, err := engine.MonthlyTargetHours(2024, time.February, decimal.NewFromInt(8), "DE")
	require.NoError(t, err)
	assert.Equal(t, "168", got.String())
}

func TestMonthlyTargetHours_SubtractsWeekdayHolidays(t *testing.T) {
	engine, _ := newTestEngine()

	// May 2024: 23 weekdays; May 1 is a holiday everywhere, May 30 only in NW.
	country, err := engine.MonthlyTargetHours(2024, time.May, decimal.RequireFromString("7.5"), "DE")
	require.NoError(t, err)
	assert.Equal(t, "165", country.String())

	state, err := engine.MonthlyTargetHours(2024, time.May, decimal.RequireFromString("7.5"), "DE-NW")
	require.NoError(t, err)
	assert.Equal(t, "157.5", state.String())
}

func TestMonthlyTargetHours_MonthLengths(t *testing.T) {
	engine, _ := newTestEngine()
	one := decimal.NewFromInt(1)

	tests := []struct {
		year  int
		month time.Month
		want  int64
	}{
		{2023, time.February, 20}, // 28 days
		{2024, time.April, 21},    // 30 days, 22 weekdays minus Easter Monday
		{2024, time.July, 23},     // 31 days
		{2024, time.December, 20}, // 22 weekdays minus two Christmas days
	}
	for _, tt := range tests {
		got, err := engine.MonthlyTargetHours(tt.year, tt.month, one, "DE")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(tt.want).Equal(got), "%d-%02d: got %s", tt.year, tt.month, got)
	}
}

// =============================================================================
// VACATION DAYS
// =============================================================================

func TestCountVacationDaysConsumed(t *testing.T) {
	engine, _ := newTestEngine()

	companyHoliday := calendar.AbsenceInterval{
		ID: "h1", Start: day("2024-05-10"), End: day("2024-05-10"),
		Category: calendar.CategoryHoliday, Label: "Bridge day",
	}
	trip := calendar.AbsenceInterval{
		ID: "t1", Start: day("2024-05-06"), End: day("2024-05-08"),
		Category: calendar.CategoryBusinessTrip,
	}

	// Mon 2024-04-29 .. Sun 2024-05-12: 10 weekdays, May 1 public, May 10 company holiday.
	got, err := engine.CountVacationDaysConsumed(day("2024-04-29"), day("2024-05-12"), "DE",
		[]calendar.AbsenceInterval{companyHoliday, trip})
	require.NoError(t, err)
	assert.Equal(t, 8, got)

	workdays, err := engine.CountWorkdays(day("2024-04-29"), day("2024-05-12"), "DE")
	require.NoError(t, err)
	assert.Equal(t, 9, workdays)
	assert.LessOrEqual(t, got, workdays)
}

func TestCountVacationDaysConsumed_HolidayOnWeekendChangesNothing(t *testing.T) {
	engine, _ := newTestEngine()

	weekendHoliday := calendar.AbsenceInterval{
		ID: "h1", Start: day("2024-06-08"), End: day("2024-06-09"), Category: calendar.CategoryHoliday,
	}
	got, err := engine.CountVacationDaysConsumed(day("2024-06-03"), day("2024-06-14"), "DE",
		[]calendar.AbsenceInterval{weekendHoliday})
	require.NoError(t, err)
	assert.Equal(t, 10, got)
}

func TestCountVacationDaysConsumed_RejectsInvertedHolidayInterval(t *testing.T) {
	engine, _ := newTestEngine()
	bad := calendar.AbsenceInterval{Start: day("2024-06-09"), End: day("2024-06-08"), Category: calendar.CategoryHoliday}

	_, err := engine.CountVacationDaysConsumed(day("2024-06-03"), day("2024-06-14"), "DE",
		[]calendar.AbsenceInterval{bad})
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)
}

func TestCountVacationDaysConsumed_LoadsEachYearOnce(t *testing.T) {
	engine, src := newTestEngine()

	_, err := engine.CountVacationDaysConsumed(day("2024-01-01"), day("2024-12-31"), "DE", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
}

func TestRemainingVacationDays(t *testing.T) {
	policy := settings.EffectivePolicy{VacationDays: 30}

	assert.Equal(t, 12, calendar.RemainingVacationDays(policy, 10, 8))
	assert.False(t, calendar.IsOverAllocated(12))

	over := calendar.RemainingVacationDays(policy, 25, 9)
	assert.Equal(t, -4, over)
	assert.True(t, calendar.IsOverAllocated(over))
}
