package calendar

import (
	"sort"
)

// =============================================================================
// ABSENCE INTERVALS
// =============================================================================

// AbsenceCategory classifies an absence interval.
type AbsenceCategory string

const (
	CategoryVacation     AbsenceCategory = "vacation"
	CategoryBusinessTrip AbsenceCategory = "businessTrip"
	CategorySickLeave    AbsenceCategory = "sickLeave"
	CategoryHoliday      AbsenceCategory = "holiday"
)

// Categories lists every known absence category.
func Categories() []AbsenceCategory {
	return []AbsenceCategory{CategoryVacation, CategoryBusinessTrip, CategorySickLeave, CategoryHoliday}
}

// Valid reports whether c is a known category.
func (c AbsenceCategory) Valid() bool {
	switch c {
	case CategoryVacation, CategoryBusinessTrip, CategorySickLeave, CategoryHoliday:
		return true
	}
	return false
}

// AbsenceInterval is a labelled, inclusive date range.
type AbsenceInterval struct {
	ID       string          `json:"id"`
	Start    Day             `json:"startDate"`
	End      Day             `json:"endDate"`
	Category AbsenceCategory `json:"category"`
	Label    string          `json:"label"`
}

// Range returns the interval's days as a Range.
func (a AbsenceInterval) Range() Range {
	return Range{Start: a.Start, End: a.End}
}

// Validate checks the category and that Start <= End.
func (a AbsenceInterval) Validate() error {
	if !a.Category.Valid() {
		return ErrInvalidCategory
	}
	return a.Range().Validate()
}

// ValidateAbsences checks every interval and rejects same-category overlaps.
// Overlap across categories (a holiday inside a vacation) is allowed.
func ValidateAbsences(intervals []AbsenceInterval) error {
	byCategory := make(map[AbsenceCategory][]AbsenceInterval)
	for _, a := range intervals {
		if err := a.Validate(); err != nil {
			return err
		}
		byCategory[a.Category] = append(byCategory[a.Category], a)
	}

	for category, list := range byCategory {
		sort.Slice(list, func(i, j int) bool { return list[i].Start.Before(list[j].Start) })
		for i := 1; i < len(list); i++ {
			prev, cur := list[i-1], list[i]
			if cur.Start.BeforeOrEqual(prev.End) {
				return &OverlapError{
					Category:   category,
					ExistingID: prev.ID,
					Existing:   prev.Range(),
					Requested:  cur.Range(),
				}
			}
		}
	}
	return nil
}

// CheckNewAbsence validates candidate against already stored intervals.
func CheckNewAbsence(existing []AbsenceInterval, candidate AbsenceInterval) error {
	if err := candidate.Validate(); err != nil {
		return err
	}
	for _, a := range existing {
		if a.Category != candidate.Category || a.ID == candidate.ID {
			continue
		}
		if a.Range().Overlaps(candidate.Range()) {
			return &OverlapError{
				Category:   candidate.Category,
				ExistingID: a.ID,
				Existing:   a.Range(),
				Requested:  candidate.Range(),
			}
		}
	}
	return nil
}

// SplitByYear cuts an interval at year boundaries. A vacation from Dec 28
// to Jan 3 is charged partly against each year's entitlement.
func SplitByYear(a AbsenceInterval) []AbsenceInterval {
	var parts []AbsenceInterval
	for year := a.Start.Year(); year <= a.End.Year(); year++ {
		part, ok := a.Range().Intersect(YearRange(year))
		if !ok {
			continue
		}
		p := a
		p.Start, p.End = part.Start, part.End
		parts = append(parts, p)
	}
	return parts
}

// FilterCategory returns the intervals of one category.
func FilterCategory(intervals []AbsenceInterval, c AbsenceCategory) []AbsenceInterval {
	var out []AbsenceInterval
	for _, a := range intervals {
		if a.Category == c {
			out = append(out, a)
		}
	}
	return out
}
