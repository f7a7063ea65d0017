/*
Package holidays supplies public-holiday data to the calendar engine.

PURPOSE:
  The calendar engine only knows the calendar.HolidaySource interface. This
  package implements it on top of github.com/rickar/cal/v2, which carries
  rule-based holiday definitions per country and subdivision.

KEY CONCEPTS:
  - Country / Subdivision: the selectable holiday regions
  - Source:  raw holiday lookup for a region and year
  - Cached:  memoising wrapper, safe for concurrent use

SEE ALSO:
  - calendar/holiday.go: Region, Holiday and HolidaySet
*/
package holidays

import (
	"sort"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/at"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/us"
)

// =============================================================================
// REGISTRY - Supported countries and subdivisions
// =============================================================================

// Subdivision is a state or province with its own holiday calendar.
type Subdivision struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Country lists a country's subdivisions. The bare Code selects the
// country-wide calendar.
type Country struct {
	Code         string        `json:"code"`
	Name         string        `json:"name"`
	Subdivisions []Subdivision `json:"subdivisions"`
}

type countryRules struct {
	name string
	base []*cal.Holiday
	subs map[string]subdivisionRules
}

type subdivisionRules struct {
	name  string
	rules []*cal.Holiday
}

var registry = map[string]countryRules{
	"DE": {
		name: "Germany",
		base: de.Holidays,
		subs: map[string]subdivisionRules{
			"BB": {"Brandenburg", de.HolidaysBB},
			"BE": {"Berlin", de.HolidaysBE},
			"BW": {"Baden-Württemberg", de.HolidaysBW},
			"BY": {"Bayern", de.HolidaysBY},
			"HB": {"Bremen", de.HolidaysHB},
			"HE": {"Hessen", de.HolidaysHE},
			"HH": {"Hamburg", de.HolidaysHH},
			"MV": {"Mecklenburg-Vorpommern", de.HolidaysMV},
			"NI": {"Niedersachsen", de.HolidaysNI},
			"NW": {"Nordrhein-Westfalen", de.HolidaysNW},
			"RP": {"Rheinland-Pfalz", de.HolidaysRP},
			"SH": {"Schleswig-Holstein", de.HolidaysSH},
			"SL": {"Saarland", de.HolidaysSL},
			"SN": {"Sachsen", de.HolidaysSN},
			"ST": {"Sachsen-Anhalt", de.HolidaysST},
			"TH": {"Thüringen", de.HolidaysTH},
		},
	},
	"AT": {name: "Austria", base: at.Holidays},
	"US": {name: "United States", base: us.Holidays},
}

// Countries returns the supported countries sorted by code, each with its
// subdivisions sorted by code.
func Countries() []Country {
	out := make([]Country, 0, len(registry))
	for code, c := range registry {
		country := Country{Code: code, Name: c.name, Subdivisions: []Subdivision{}}
		for sub, s := range c.subs {
			country.Subdivisions = append(country.Subdivisions, Subdivision{Code: code + "-" + sub, Name: s.name})
		}
		sort.Slice(country.Subdivisions, func(i, j int) bool {
			return country.Subdivisions[i].Code < country.Subdivisions[j].Code
		})
		out = append(out, country)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// IsSupported reports whether code names a known country or subdivision.
func IsSupported(country, subdivision string) bool {
	_, ok := rulesFor(country, subdivision)
	return ok
}

// rulesFor returns the rule list of a region. Subdivision lists are merged
// onto the national list; duplicates are dropped later by date.
func rulesFor(country, subdivision string) ([]*cal.Holiday, bool) {
	c, ok := registry[country]
	if !ok {
		return nil, false
	}
	if subdivision == "" {
		return c.base, true
	}
	s, ok := c.subs[subdivision]
	if !ok {
		return nil, false
	}
	rules := make([]*cal.Holiday, 0, len(c.base)+len(s.rules))
	rules = append(rules, c.base...)
	rules = append(rules, s.rules...)
	return rules, true
}
