package daterange

import (
	"errors"
	"time"
)

// Layout is the ISO-8601 calendar date format used on the wire.
const Layout = "2006-01-02"

var (
	ErrInvalidRange = errors.New("daterange: start must not be after end")
	ErrZeroDate     = errors.New("daterange: start and end are required")
)

// DateRange represents an inclusive interval of calendar days [Start, End].
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Day truncates t to its calendar date at midnight UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a normalized day.
func ParseDay(value string) (time.Time, error) {
	t, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Day(start), End: Day(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a range from two YYYY-MM-DD strings.
func Parse(start, end string) (DateRange, error) {
	s, err := ParseDay(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDay(end)
	if err != nil {
		return DateRange{}, err
	}
	return New(s, e)
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrZeroDate
	}
	if dr.Start.After(dr.End) {
		return ErrInvalidRange
	}
	return nil
}

// Len is the stay length: number of days including both ends.
func (dr DateRange) Len() int {
	if dr.Start.After(dr.End) {
		return 0
	}
	return int(epochDay(dr.End)-epochDay(dr.Start)) + 1
}

// epochDay counts whole days since 1970-01-01 for a normalized day. It works
// on Unix seconds so long ranges do not overflow time.Duration.
func epochDay(t time.Time) int64 {
	secs := Day(t).Unix()
	days := secs / 86400
	if secs%86400 < 0 {
		days--
	}
	return days
}

// Days returns the ordered day sequence covered by the range.
func (dr DateRange) Days() []time.Time {
	n := dr.Len()
	days := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, dr.Start.AddDate(0, 0, i))
	}
	return days
}

func (dr DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(dr.Start) && !d.After(dr.End)
}

// Overlaps reports whether both ranges share at least one day.
// Ranges where one ends the day before the other starts do not overlap.
func (dr DateRange) Overlaps(other DateRange) bool {
	return !(other.End.Before(dr.Start) || other.Start.After(dr.End))
}

func (dr DateRange) String() string {
	return dr.Start.Format(Layout) + ".." + dr.End.Format(Layout)
}
