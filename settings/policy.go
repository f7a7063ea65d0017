/*
Package settings resolves layered work-policy configuration.

PURPOSE:
  An employee's work policy is assembled from three layers:

    Default     -> the organisation-wide baseline, exactly one exists
    Group       -> optional overrides shared by an employee group
    Individual  -> optional overrides for a single employee

  Group and Individual layers may leave any field unset (nil). The Default
  layer must populate every field; it is the terminal fallback.

KEY CONCEPTS IN THIS FILE (policy.go):
  - WorkPolicy: one layer, every field nullable
  - EffectivePolicy: the fully resolved result for one employee
  - Field: the enumerated list of policy fields the resolver walks

PRECISION:
  DailyHours is a decimal.Decimal. 7.8 hours must stay 7.8 hours when it is
  multiplied into monthly targets.

SEE ALSO:
  - resolver.go: per-field precedence merge
  - errors.go: ConfigurationError, ValidationError
*/
package settings

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// FIELDS
// =============================================================================

// Field names one policy field. The resolver iterates Fields() so that
// precedence is applied field by field and can be audited per field.
type Field string

const (
	FieldVacationDays   Field = "vacationDays"
	FieldDailyHours     Field = "dailyHours"
	FieldHasFlextime    Field = "hasFlextime"
	FieldHolidayRegion  Field = "holidayRegion"
	FieldMinBreakTime   Field = "minBreakTime"
	FieldCanWorkRemote  Field = "canWorkRemote"
	FieldCanSelfApprove Field = "canSelfApprove"
)

var allFields = []Field{
	FieldVacationDays,
	FieldDailyHours,
	FieldHasFlextime,
	FieldHolidayRegion,
	FieldMinBreakTime,
	FieldCanWorkRemote,
	FieldCanSelfApprove,
}

// Fields returns every policy field in declaration order.
func Fields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// Layer identifies where a resolved value came from.
type Layer string

const (
	LayerDefault    Layer = "default"
	LayerGroup      Layer = "group"
	LayerIndividual Layer = "individual"
)

// =============================================================================
// WORK POLICY - One configuration layer
// =============================================================================

// WorkPolicy is a single layer of work-policy configuration.
// A nil field means "inherit from the layer below".
type WorkPolicy struct {
	VacationDays   *int             `json:"vacationDays,omitempty"`
	DailyHours     *decimal.Decimal `json:"dailyHours,omitempty"`
	HasFlextime    *bool            `json:"hasFlextime,omitempty"`
	HolidayRegion  *string          `json:"holidayRegion,omitempty"`
	MinBreakTime   *int             `json:"minBreakTime,omitempty"` // minutes
	CanWorkRemote  *bool            `json:"canWorkRemote,omitempty"`
	CanSelfApprove *bool            `json:"canSelfApprove,omitempty"`
}

// IsSet reports whether the layer carries a value for f.
func (p WorkPolicy) IsSet(f Field) bool {
	switch f {
	case FieldVacationDays:
		return p.VacationDays != nil
	case FieldDailyHours:
		return p.DailyHours != nil
	case FieldHasFlextime:
		return p.HasFlextime != nil
	case FieldHolidayRegion:
		return p.HolidayRegion != nil
	case FieldMinBreakTime:
		return p.MinBreakTime != nil
	case FieldCanWorkRemote:
		return p.CanWorkRemote != nil
	case FieldCanSelfApprove:
		return p.CanSelfApprove != nil
	default:
		return false
	}
}

// IsEmpty reports whether no field is set.
func (p WorkPolicy) IsEmpty() bool {
	for _, f := range allFields {
		if p.IsSet(f) {
			return false
		}
	}
	return true
}

// Missing lists the fields that are not set.
func (p WorkPolicy) Missing() []Field {
	var missing []Field
	for _, f := range allFields {
		if !p.IsSet(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Clone returns a deep copy; no pointer is shared with p.
func (p WorkPolicy) Clone() WorkPolicy {
	return WorkPolicy{
		VacationDays:   clonePtr(p.VacationDays),
		DailyHours:     clonePtr(p.DailyHours),
		HasFlextime:    clonePtr(p.HasFlextime),
		HolidayRegion:  clonePtr(p.HolidayRegion),
		MinBreakTime:   clonePtr(p.MinBreakTime),
		CanWorkRemote:  clonePtr(p.CanWorkRemote),
		CanSelfApprove: clonePtr(p.CanSelfApprove),
	}
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Ptr is a small helper for building layers in code and tests.
func Ptr[T any](v T) *T { return &v }

// =============================================================================
// EFFECTIVE POLICY - Fully resolved result
// =============================================================================

// EffectivePolicy is the resolved policy for one employee. Never persisted;
// recomputed whenever any layer changes.
type EffectivePolicy struct {
	VacationDays   int             `json:"vacationDays"`
	DailyHours     decimal.Decimal `json:"dailyHours"`
	HasFlextime    bool            `json:"hasFlextime"`
	HolidayRegion  string          `json:"holidayRegion"`
	MinBreakTime   int             `json:"minBreakTime"`
	CanWorkRemote  bool            `json:"canWorkRemote"`
	CanSelfApprove bool            `json:"canSelfApprove"`
}

// Equal compares two effective policies field by field. DailyHours is
// compared numerically so 8 and 8.0 are equal.
func (e EffectivePolicy) Equal(o EffectivePolicy) bool {
	return e.VacationDays == o.VacationDays &&
		e.DailyHours.Equal(o.DailyHours) &&
		e.HasFlextime == o.HasFlextime &&
		e.HolidayRegion == o.HolidayRegion &&
		e.MinBreakTime == o.MinBreakTime &&
		e.CanWorkRemote == o.CanWorkRemote &&
		e.CanSelfApprove == o.CanSelfApprove
}

// FromEffective converts a resolved policy into a fully populated layer.
func FromEffective(e EffectivePolicy) WorkPolicy {
	return WorkPolicy{
		VacationDays:   Ptr(e.VacationDays),
		DailyHours:     Ptr(e.DailyHours),
		HasFlextime:    Ptr(e.HasFlextime),
		HolidayRegion:  Ptr(e.HolidayRegion),
		MinBreakTime:   Ptr(e.MinBreakTime),
		CanWorkRemote:  Ptr(e.CanWorkRemote),
		CanSelfApprove: Ptr(e.CanSelfApprove),
	}
}
