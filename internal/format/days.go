package format

import (
	"fmt"
	"time"

	"finview/internal/core"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// Today returns the clock's current calendar day.
func Today(c Clock) core.Date {
	return core.DateOf(c.Now())
}

// DaysBetween returns the whole days from today to target, ignoring time of day.
func DaysBetween(c Clock, target core.Date) int {
	diff := target.Day().Sub(Today(c).Time)
	return int(diff.Round(time.Hour).Hours() / 24)
}

// DaysUntil labels target relative to the clock's day: "Today", "Tomorrow", "N days" or "N days ago".
// An absent date yields "".
func DaysUntil(c Clock, target core.Date) string {
	if target.IsEmpty() {
		return ""
	}
	n := DaysBetween(c, target)
	switch {
	case n == 0:
		return "Today"
	case n == 1:
		return "Tomorrow"
	case n < 0:
		return fmt.Sprintf("%d days ago", -n)
	default:
		return fmt.Sprintf("%d days", n)
	}
}
