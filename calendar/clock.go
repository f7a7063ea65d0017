package calendar

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Clock is a duration split into whole hours and minutes.
type Clock struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

var sixty = decimal.NewFromInt(60)

// DecimalHoursToClock converts 7.75 to 7h 45m. Minutes are rounded; a
// rounding result of 60 carries into the hours (0.999 -> 1h 0m).
func DecimalHoursToClock(value decimal.Decimal) Clock {
	hours := value.Floor()
	minutes := value.Sub(hours).Mul(sixty).Round(0)

	h, m := int(hours.IntPart()), int(minutes.IntPart())
	if m == 60 {
		h++
		m = 0
	}
	return Clock{Hours: h, Minutes: m}
}

// ClockFromMinutes splits a minute count. Negative counts keep the sign on
// both parts so that -90 becomes -1h -30m.
func ClockFromMinutes(total int) Clock {
	return Clock{Hours: total / 60, Minutes: total % 60}
}

func (c Clock) String() string {
	if c.Hours < 0 || c.Minutes < 0 {
		return "-" + Clock{Hours: -c.Hours, Minutes: -c.Minutes}.String()
	}
	if c.Minutes == 0 {
		return fmt.Sprintf("%dh", c.Hours)
	}
	return fmt.Sprintf("%dh %dm", c.Hours, c.Minutes)
}
