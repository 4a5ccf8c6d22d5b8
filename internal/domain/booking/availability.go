package booking

import (
	"errors"
	"fmt"
	"time"

	"stayrate/internal/domain/property"
	"stayrate/internal/domain/shared/daterange"
)

var (
	ErrInvalidDateRange    = errors.New("booking: invalid date range")
	ErrPropertyUnavailable = errors.New("booking: property unavailable for the requested dates")
)

// IsValid reports whether a stay is chronologically sound and does not start
// before today.
func IsValid(start, end, today time.Time) bool {
	start, end, today = daterange.Day(start), daterange.Day(end), daterange.Day(today)
	if start.After(end) {
		return false
	}
	return !start.Before(today)
}

// DefaultMaxStay is the longest stay accepted when no limit is configured.
const DefaultMaxStay = 365

// ValidateDateRange is IsValid expressed as an error for the request path.
// Stays longer than maxStay days are rejected; maxStay <= 0 disables the check.
func ValidateDateRange(start, end, now time.Time, maxStay int) (daterange.DateRange, error) {
	if start.IsZero() || end.IsZero() || !IsValid(start, end, now) {
		return daterange.DateRange{}, ErrInvalidDateRange
	}
	dr, err := daterange.New(start, end)
	if err != nil {
		return daterange.DateRange{}, err
	}
	if maxStay > 0 && dr.Len() > maxStay {
		return daterange.DateRange{}, fmt.Errorf("%w: stay of %d days exceeds the %d day limit", ErrInvalidDateRange, dr.Len(), maxStay)
	}
	return dr, nil
}

// IsAvailable reports whether no existing booking of the property shares a
// day with the requested stay. Bookings of other properties and cancelled
// bookings are ignored.
func IsAvailable(propertyID property.PropertyID, requested daterange.DateRange, existing []*Booking) bool {
	for _, b := range existing {
		if b == nil || b.PropertyID != propertyID || !b.Active() {
			continue
		}
		if b.Range.Overlaps(requested) {
			return false
		}
	}
	return true
}
