package settings

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RESOLVER - Default -> Group -> Individual precedence
// =============================================================================

// Resolution is a resolved policy together with the layer each field came from.
type Resolution struct {
	Policy  EffectivePolicy
	Sources map[Field]Layer
}

// Resolve merges the three layers into one effective policy.
//
// For every field independently: the individual value wins if set, else the
// group value if set, else the default value. group and individual may be nil.
// def must populate every field, otherwise a *ConfigurationError is returned.
// Inputs are never mutated and the result shares no pointers with them.
func Resolve(def WorkPolicy, group, individual *WorkPolicy) (EffectivePolicy, error) {
	res, err := ResolveDetailed(def, group, individual)
	if err != nil {
		return EffectivePolicy{}, err
	}
	return res.Policy, nil
}

// ResolveDetailed is Resolve plus the per-field source layer.
func ResolveDetailed(def WorkPolicy, group, individual *WorkPolicy) (Resolution, error) {
	if missing := def.Missing(); len(missing) > 0 {
		return Resolution{}, &ConfigurationError{Missing: missing}
	}

	layers := []struct {
		layer  Layer
		policy *WorkPolicy
	}{
		{LayerIndividual, individual},
		{LayerGroup, group},
		{LayerDefault, &def},
	}

	res := Resolution{Sources: make(map[Field]Layer, len(allFields))}
	for _, f := range allFields {
		for _, l := range layers {
			if l.policy == nil || !l.policy.IsSet(f) {
				continue
			}
			assign(&res.Policy, *l.policy, f)
			res.Sources[f] = l.layer
			break
		}
	}
	return res, nil
}

// assign copies field f from a layer that has it set.
func assign(dst *EffectivePolicy, src WorkPolicy, f Field) {
	switch f {
	case FieldVacationDays:
		dst.VacationDays = *src.VacationDays
	case FieldDailyHours:
		dst.DailyHours = *src.DailyHours
	case FieldHasFlextime:
		dst.HasFlextime = *src.HasFlextime
	case FieldHolidayRegion:
		dst.HolidayRegion = *src.HolidayRegion
	case FieldMinBreakTime:
		dst.MinBreakTime = *src.MinBreakTime
	case FieldCanWorkRemote:
		dst.CanWorkRemote = *src.CanWorkRemote
	case FieldCanSelfApprove:
		dst.CanSelfApprove = *src.CanSelfApprove
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

var (
	maxDailyHours = decimal.NewFromInt(24)
	regionPattern = regexp.MustCompile(`^[A-Z]{2}(-[A-Z0-9]{1,3})?$`)
)

// Validate checks the set fields of a layer against their allowed ranges.
// Whether a region is actually known is decided by the holiday source.
func (p WorkPolicy) Validate() error {
	if p.VacationDays != nil && *p.VacationDays < 0 {
		return &ValidationError{Field: FieldVacationDays, Reason: "must be >= 0"}
	}
	if p.DailyHours != nil && (p.DailyHours.IsNegative() || p.DailyHours.GreaterThan(maxDailyHours)) {
		return &ValidationError{Field: FieldDailyHours, Reason: "must be between 0 and 24"}
	}
	if p.MinBreakTime != nil && *p.MinBreakTime < 0 {
		return &ValidationError{Field: FieldMinBreakTime, Reason: "must be >= 0"}
	}
	if p.HolidayRegion != nil && !regionPattern.MatchString(*p.HolidayRegion) {
		return &ValidationError{Field: FieldHolidayRegion, Reason: "must be COUNTRY or COUNTRY-SUBDIVISION"}
	}
	return nil
}
