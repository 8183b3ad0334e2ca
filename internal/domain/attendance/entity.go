package attendance

import (
	"time"
)

const (
	ActionCheckIn  = "in"
	ActionCheckOut = "out"

	DateLayout = "2006-01-02"
	// TimestampLayout matches the millisecond ISO form browsers produce.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Record is one employee's attendance session for a single calendar date.
type Record struct {
	ID           int64
	Name         string
	Date         string // YYYY-MM-DD
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	WorkingHours *float64
	MonthName    string
	DaysInMonth  *int
}

// DailyLog is the projection served by the today view.
type DailyLog struct {
	Name         string
	CheckInTime  *time.Time
	CheckOutTime *time.Time
}

// MonthKey identifies one employee's month tally.
type MonthKey struct {
	Name      string
	MonthName string
}

// Derive returns the calendar date and month label for ts. Both come from the
// same UTC instant so they can never disagree across a day boundary.
func Derive(ts time.Time) (date string, monthName string) {
	utc := ts.UTC()
	return utc.Format(DateLayout), utc.Month().String()
}

// HoursBetween returns the fractional hours elapsed from start to end.
func HoursBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours()
}

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTimestamp(*t)
	return &s
}
