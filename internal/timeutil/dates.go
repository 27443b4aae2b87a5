package timeutil

import "time"

// Common layouts
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006"
)

// Date builds midnight of the given calendar day in the business location.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, Location)
}

// StartOfDay returns 00:00:00 of t's calendar day in the business location
func StartOfDay(t time.Time) time.Time {
	l := t.In(Location)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, Location)
}

// EndOfDay returns the last instant of t's calendar day
func EndOfDay(t time.Time) time.Time {
	l := t.In(Location)
	return time.Date(l.Year(), l.Month(), l.Day(), 23, 59, 59, 999999999, Location)
}

// ParseDate parses YYYY-MM-DD in the business location
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, Location)
}

// DaysIn returns the number of days in the month containing t.
func DaysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// InLocation converts t to the business location. Timestamps read back from
// storage carry the process zone; calendar math must not use it.
func InLocation(t time.Time) time.Time {
	return t.In(Location)
}

// InLocationPtr is InLocation for nullable columns.
func InLocationPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	l := t.In(Location)
	return &l
}

// AddMonthsClamped moves t by n calendar months keeping its business-day
// day-of-month and clock, clamping to the last day when the target month is
// shorter. time.AddDate would normalize Jan 31 + 1 month into March instead.
func AddMonthsClamped(t time.Time, n int) time.Time {
	t = InLocation(t)
	y, m, d := t.Date()
	total := int(m) - 1 + n
	ty := y + total/12
	tm := total % 12
	if tm < 0 {
		tm += 12
		ty--
	}
	month := time.Month(tm + 1)
	if last := DaysIn(ty, month); d > last {
		d = last
	}
	return time.Date(ty, month, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), Location)
}
