package portal_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hrportal/calendar"
	"github.com/warp/hrportal/portal"
	"github.com/warp/hrportal/settings"
	"github.com/warp/hrportal/terminal"
)

func TestMonthlyTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.bootstrap(t)
	emp := f.employee(t, "EMP-1", portal.EmployeeInput{})
	partTime := f.employee(t, "EMP-2", portal.EmployeeInput{
		UseCustomSettings: true,
		Policy:            settings.WorkPolicy{DailyHours: settings.Ptr(decimal.RequireFromString("7.5"))},
	})

	tests := []struct {
		name     string
		employee string
		month    time.Month
		workdays int
		hours    string
		clock    string
	}{
		{"february leap year", emp.ID, time.February, 21, "168", "168h"},
		{"may with three holidays", emp.ID, time.May, 20, "160", "160h"},
		{"part time in may", partTime.ID, time.May, 20, "150", "150h"},
		{"part time in june", partTime.ID, time.June, 20, "150", "150h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := f.svc.MonthlyTarget(ctx, tt.employee, 2024, tt.month)
			require.NoError(t, err)
			assert.Equal(t, tt.workdays, target.Workdays)
			assert.Equal(t, tt.hours, target.Hours.String())
			assert.Equal(t, tt.clock, target.Clock.String())
			assert.Equal(t, "DE", target.Region)
		})
	}

	_, err := f.svc.MonthlyTarget(ctx, emp.ID, 2024, 13)
	assert.True(t, portal.IsClientError(err))
}

func TestTimesheet_BalanceCountsSessionsAndApprovedAbsences(t *testing.T) {
	// GIVEN: June 2024 in DE has 20 workdays, target 160h
	f := newFixture(t)
	ctx := context.Background()
	f.bootstrap(t)
	admin := f.employee(t, "EMP-1", portal.EmployeeInput{IsAdmin: true})
	emp := f.employee(t, "EMP-2", portal.EmployeeInput{})

	// One 8h day on Monday 2024-06-03.
	_, err := f.svc.StartWorkday(ctx, emp.ID, terminal.LocationOffice)
	require.NoError(t, err)
	f.advance(4 * time.Hour)
	_, err = f.svc.PauseWorkday(ctx, emp.ID)
	require.NoError(t, err)
	f.advance(30 * time.Minute)
	_, err = f.svc.ResumeWorkday(ctx, emp.ID)
	require.NoError(t, err)
	f.advance(4 * time.Hour)
	_, err = f.svc.EndWorkday(ctx, emp.ID)
	require.NoError(t, err)

	// Approved vacation Mon-Wed the following week, pending vacation on Friday.
	_, err = f.svc.AddAbsence(ctx, admin, emp.ID, vacation("2024-06-10", "2024-06-12"))
	require.NoError(t, err)
	_, err = f.svc.AddAbsence(ctx, emp, emp.ID, vacation("2024-06-14", "2024-06-14"))
	require.NoError(t, err)

	// WHEN
	sheet, err := f.svc.Timesheet(ctx, emp.ID, 2024, time.June)

	// THEN
	require.NoError(t, err)
	require.Len(t, sheet.Days, 30)
	assert.Equal(t, 160*60, sheet.TargetMinutes)
	assert.Equal(t, 4*8*60, sheet.WorkedMinutes)
	assert.Equal(t, -128*60, sheet.BalanceMins)
	assert.Equal(t, "-128h", sheet.Balance.String())
	assert.False(t, sheet.HasFlextime)

	monday := sheet.Days[2]
	assert.True(t, monday.Day.Equal(calendar.MustParseDay("2024-06-03")))
	assert.Equal(t, terminal.LocationOffice, monday.Location)
	assert.Equal(t, 480, monday.WorkedMinutes)
	assert.Equal(t, 30, monday.BreakMinutes)
	assert.Zero(t, monday.BreakShortfall)

	assert.False(t, sheet.Days[0].Workday) // Saturday
	assert.Equal(t, "vacation", sheet.Days[9].Absence)
	assert.Empty(t, sheet.Days[13].Absence) // pending
}

func TestTimesheet_NamesPublicHolidays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.bootstrap(t)
	emp := f.employee(t, "EMP-1", portal.EmployeeInput{})

	sheet, err := f.svc.Timesheet(ctx, emp.ID, 2024, time.May)
	require.NoError(t, err)

	labourDay := sheet.Days[0]
	assert.False(t, labourDay.Workday)
	assert.NotEmpty(t, labourDay.Holiday)
	assert.Equal(t, 0, sheet.WorkedMinutes)
	assert.Equal(t, -160*60, sheet.BalanceMins)
}
