package calendar

import (
	"iter"
	"slices"
	"strings"
)

// =============================================================================
// REGION - Holiday region code (COUNTRY or COUNTRY-SUBDIVISION)
// =============================================================================

// Region selects a public-holiday calendar. A Region with an empty
// Subdivision is the explicit country-wide calendar, not a missing selection.
type Region struct {
	Country     string
	Subdivision string
}

// ParseRegion parses "DE" or "DE-NW". Codes are upper-cased. Only the
// syntax is checked here; whether the code is known is decided by the source.
func ParseRegion(code string) (Region, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	country, sub, hasSub := strings.Cut(code, "-")
	if len(country) != 2 || !isAlpha(country) {
		return Region{}, &UnknownRegionError{Region: code}
	}
	if hasSub && (sub == "" || len(sub) > 3 || !isAlnum(sub)) {
		return Region{}, &UnknownRegionError{Region: code}
	}
	return Region{Country: country, Subdivision: sub}, nil
}

// IsCountryWide reports whether the region has no subdivision.
func (r Region) IsCountryWide() bool { return r.Subdivision == "" }

func (r Region) String() string {
	if r.Subdivision == "" {
		return r.Country
	}
	return r.Country + "-" + r.Subdivision
}

func isAlpha(s string) bool {
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

func isAlnum(s string) bool {
	for _, c := range s {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// =============================================================================
// HOLIDAY SOURCE - External holiday data collaborator
// =============================================================================

// HolidayType mirrors the observance types of the holiday data. Only public
// holidays block work; the others exist in the raw data and are filtered out.
type HolidayType string

const (
	HolidayPublic HolidayType = "public"
	HolidayBank   HolidayType = "bank"
	HolidayOther  HolidayType = "other"
)

// Holiday is one entry of the holiday data for a region and year.
type Holiday struct {
	Date Day         `json:"date"`
	Name string      `json:"name"`
	Type HolidayType `json:"type"`
}

// HolidaySource returns the raw holiday data for a region and year.
// Unknown regions must yield an *UnknownRegionError.
type HolidaySource interface {
	Holidays(region Region, year int) ([]Holiday, error)
}

// =============================================================================
// HOLIDAY SET - Public holidays of one region and year
// =============================================================================

// HolidaySet is an immutable set of public holidays for one region and year.
type HolidaySet struct {
	region Region
	year   int
	byDay  map[Day]Holiday
	order  []Day
}

// NewHolidaySet keeps the public entries of raw that fall into year.
// When two entries share a date the first name wins.
func NewHolidaySet(region Region, year int, raw []Holiday) HolidaySet {
	s := HolidaySet{region: region, year: year, byDay: make(map[Day]Holiday)}
	for _, h := range raw {
		if h.Type != HolidayPublic || h.Date.Year() != year {
			continue
		}
		if _, dup := s.byDay[h.Date]; dup {
			continue
		}
		s.byDay[h.Date] = h
		s.order = append(s.order, h.Date)
	}
	slices.SortFunc(s.order, func(a, b Day) int { return a.t.Compare(b.t) })
	return s
}

func (s HolidaySet) Region() Region { return s.region }
func (s HolidaySet) Year() int      { return s.year }
func (s HolidaySet) Len() int       { return len(s.order) }

// Contains reports whether d is a public holiday.
func (s HolidaySet) Contains(d Day) bool {
	_, ok := s.byDay[d]
	return ok
}

// Name returns the holiday name for d, or "" if d is not a holiday.
func (s HolidaySet) Name(d Day) string {
	return s.byDay[d].Name
}

// All yields the holidays in date order. Each call starts a fresh pass.
func (s HolidaySet) All() iter.Seq[Holiday] {
	return func(yield func(Holiday) bool) {
		for _, d := range s.order {
			if !yield(s.byDay[d]) {
				return
			}
		}
	}
}

// Dates returns the holiday dates in order.
func (s HolidaySet) Dates() []Day {
	return slices.Clone(s.order)
}
