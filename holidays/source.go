package holidays

import (
	"github.com/rickar/cal/v2"
	"github.com/warp/hrportal/calendar"
)

// =============================================================================
// SOURCE - calendar.HolidaySource over rule-based holiday definitions
// =============================================================================

// Source computes holidays from the registry. It has no state and is safe
// for concurrent use.
type Source struct{}

// NewSource creates a Source.
func NewSource() *Source {
	return &Source{}
}

// Holidays returns every holiday of region in year, of any observance type.
// The observed date is used, so a US holiday falling on a Saturday is
// reported on the Friday. Neighbouring years are evaluated too because an
// observed date can move across New Year (US New Year 2022 is observed on
// 2021-12-31).
func (s *Source) Holidays(region calendar.Region, year int) ([]calendar.Holiday, error) {
	rules, ok := rulesFor(region.Country, region.Subdivision)
	if !ok {
		return nil, &calendar.UnknownRegionError{Region: region.String()}
	}

	out := make([]calendar.Holiday, 0, len(rules))
	for _, h := range rules {
		for y := year - 1; y <= year+1; y++ {
			_, observed := h.Calc(y)
			if observed.IsZero() || observed.Year() != year {
				continue
			}
			out = append(out, calendar.Holiday{
				Date: calendar.DayOf(observed),
				Name: h.Name,
				Type: holidayType(h.Type),
			})
		}
	}
	return out, nil
}

func holidayType(t cal.ObservanceType) calendar.HolidayType {
	switch t {
	case cal.ObservancePublic:
		return calendar.HolidayPublic
	case cal.ObservanceBank:
		return calendar.HolidayBank
	default:
		return calendar.HolidayOther
	}
}
