package calendar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hrportal/calendar"
)

func absence(id, start, end string, c calendar.AbsenceCategory) calendar.AbsenceInterval {
	return calendar.AbsenceInterval{ID: id, Start: day(start), End: day(end), Category: c}
}

func TestValidateAbsences_SameCategoryOverlapRejected(t *testing.T) {
	// GIVEN: two vacations sharing 2024-07-05
	list := []calendar.AbsenceInterval{
		absence("a", "2024-07-01", "2024-07-05", calendar.CategoryVacation),
		absence("b", "2024-07-05", "2024-07-10", calendar.CategoryVacation),
	}

	// WHEN
	err := calendar.ValidateAbsences(list)

	// THEN
	require.Error(t, err)
	assert.ErrorIs(t, err, calendar.ErrAbsenceOverlap)
	var overlap *calendar.OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, "a", overlap.ExistingID)
	assert.Equal(t, calendar.CategoryVacation, overlap.Category)
}

func TestValidateAbsences_CrossCategoryOverlapAllowed(t *testing.T) {
	list := []calendar.AbsenceInterval{
		absence("a", "2024-07-01", "2024-07-10", calendar.CategoryVacation),
		absence("b", "2024-07-03", "2024-07-03", calendar.CategoryHoliday),
		absence("c", "2024-07-08", "2024-07-12", calendar.CategorySickLeave),
		absence("d", "2024-07-11", "2024-07-12", calendar.CategoryVacation),
	}
	assert.NoError(t, calendar.ValidateAbsences(list))
}

func TestValidateAbsences_InvalidEntries(t *testing.T) {
	err := calendar.ValidateAbsences([]calendar.AbsenceInterval{
		absence("a", "2024-07-05", "2024-07-01", calendar.CategoryVacation),
	})
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)

	err = calendar.ValidateAbsences([]calendar.AbsenceInterval{
		absence("a", "2024-07-01", "2024-07-05", "parentalLeave"),
	})
	assert.ErrorIs(t, err, calendar.ErrInvalidCategory)
}

func TestCheckNewAbsence(t *testing.T) {
	existing := []calendar.AbsenceInterval{
		absence("a", "2024-07-01", "2024-07-05", calendar.CategoryVacation),
	}

	err := calendar.CheckNewAbsence(existing, absence("", "2024-07-04", "2024-07-08", calendar.CategoryVacation))
	assert.ErrorIs(t, err, calendar.ErrAbsenceOverlap)

	err = calendar.CheckNewAbsence(existing, absence("", "2024-07-06", "2024-07-08", calendar.CategoryVacation))
	assert.NoError(t, err)

	err = calendar.CheckNewAbsence(existing, absence("", "2024-07-04", "2024-07-08", calendar.CategoryBusinessTrip))
	assert.NoError(t, err)

	// Updating an interval must not collide with itself.
	err = calendar.CheckNewAbsence(existing, absence("a", "2024-07-02", "2024-07-06", calendar.CategoryVacation))
	assert.NoError(t, err)
}

func TestSplitByYear(t *testing.T) {
	a := absence("v", "2024-12-28", "2025-01-03", calendar.CategoryVacation)

	parts := calendar.SplitByYear(a)

	require.Len(t, parts, 2)
	assert.Equal(t, day("2024-12-28"), parts[0].Start)
	assert.Equal(t, day("2024-12-31"), parts[0].End)
	assert.Equal(t, day("2025-01-01"), parts[1].Start)
	assert.Equal(t, day("2025-01-03"), parts[1].End)
	assert.Equal(t, "v", parts[1].ID)

	single := calendar.SplitByYear(absence("w", "2024-03-01", "2024-03-02", calendar.CategoryVacation))
	assert.Len(t, single, 1)
}

func TestFilterCategory(t *testing.T) {
	list := []calendar.AbsenceInterval{
		absence("a", "2024-07-01", "2024-07-05", calendar.CategoryVacation),
		absence("b", "2024-07-03", "2024-07-03", calendar.CategoryHoliday),
	}
	got := calendar.FilterCategory(list, calendar.CategoryHoliday)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
	assert.Empty(t, calendar.FilterCategory(list, calendar.CategorySickLeave))
}
