package booking

import (
	"errors"
	"testing"
	"time"

	"stayrate/internal/domain/pricing"
	"stayrate/internal/domain/property"
	"stayrate/internal/domain/rules"
	"stayrate/internal/domain/shared/daterange"
	"stayrate/internal/domain/shared/money"
)

func mustRange(t *testing.T, start, end string) daterange.DateRange {
	t.Helper()
	dr, err := daterange.Parse(start, end)
	if err != nil {
		t.Fatal(err)
	}
	return dr
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := daterange.ParseDay(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func confirmed(t *testing.T, id, propertyID, start, end string) *Booking {
	t.Helper()
	dr := mustRange(t, start, end)
	q, err := pricing.NewEngine(rules.BoundaryExclusive).Quote(dr, money.FromFloat(10), nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(CreateParams{ID: BookingID(id), PropertyID: property.PropertyID(propertyID), Range: dr, Quote: q, CreatedAt: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestIsValid(t *testing.T) {
	today := date(t, "2022-01-05")
	tests := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"future stay", "2022-01-06", "2022-01-08", true},
		{"starts today", "2022-01-05", "2022-01-05", true},
		{"reversed", "2022-01-08", "2022-01-06", false},
		{"starts yesterday", "2022-01-04", "2022-01-08", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(date(t, tt.start), date(t, tt.end), today); got != tt.want {
				t.Errorf("IsValid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidIgnoresTimeOfDay(t *testing.T) {
	now := time.Date(2022, 1, 5, 23, 59, 0, 0, time.UTC)
	start := time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC)
	if !IsValid(start, start, now) {
		t.Error("a stay starting today must be valid late in the day")
	}
}

func TestValidateDateRange(t *testing.T) {
	now := date(t, "2022-01-01")
	if _, err := ValidateDateRange(date(t, "2022-01-10"), date(t, "2022-01-02"), now, DefaultMaxStay); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}
	if _, err := ValidateDateRange(time.Time{}, date(t, "2022-01-02"), now, DefaultMaxStay); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange for zero start, got %v", err)
	}
	dr, err := ValidateDateRange(date(t, "2022-01-01"), date(t, "2022-01-10"), now, DefaultMaxStay)
	if err != nil {
		t.Fatal(err)
	}
	if dr.Len() != 10 {
		t.Errorf("Len = %d", dr.Len())
	}
}

func TestValidateDateRangeMaxStay(t *testing.T) {
	now := date(t, "2022-01-01")
	if _, err := ValidateDateRange(date(t, "2022-01-01"), date(t, "2022-01-10"), now, 10); err != nil {
		t.Errorf("stay equal to the limit must pass: %v", err)
	}
	if _, err := ValidateDateRange(date(t, "2022-01-01"), date(t, "2022-01-11"), now, 10); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange past the limit, got %v", err)
	}
	dr, err := ValidateDateRange(date(t, "2022-01-01"), date(t, "2400-01-01"), now, 0)
	if err != nil {
		t.Fatalf("zero limit must disable the check: %v", err)
	}
	if got := len(dr.Days()); got != dr.Len() {
		t.Errorf("len(Days) = %d, Len = %d", got, dr.Len())
	}
}

func TestIsAvailable(t *testing.T) {
	existing := []*Booking{confirmed(t, "b1", "p1", "2022-01-05", "2022-01-10")}
	tests := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"disjoint before", "2022-01-01", "2022-01-03", true},
		{"ends the day before", "2022-01-01", "2022-01-04", true},
		{"ends on first day", "2022-01-01", "2022-01-05", false},
		{"inside", "2022-01-06", "2022-01-08", false},
		{"identical", "2022-01-05", "2022-01-10", false},
		{"covers", "2022-01-01", "2022-01-31", false},
		{"starts on last day", "2022-01-10", "2022-01-12", false},
		{"starts the day after", "2022-01-11", "2022-01-12", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAvailable("p1", mustRange(t, tt.start, tt.end), existing); got != tt.want {
				t.Errorf("IsAvailable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAvailableIgnoresOtherPropertiesAndCancelled(t *testing.T) {
	other := confirmed(t, "b1", "p2", "2022-01-05", "2022-01-10")
	cancelled := confirmed(t, "b2", "p1", "2022-01-05", "2022-01-10")
	if err := cancelled.Cancel("guest request", time.Now()); err != nil {
		t.Fatal(err)
	}
	if !IsAvailable("p1", mustRange(t, "2022-01-06", "2022-01-07"), []*Booking{other, cancelled}) {
		t.Error("expected availability")
	}
}

func TestNewRecordsEvent(t *testing.T) {
	b := confirmed(t, "b1", "p1", "2022-01-01", "2022-01-10")
	evs := b.Drain()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	created, ok := evs[0].(BookingCreated)
	if !ok {
		t.Fatalf("unexpected event %T", evs[0])
	}
	if created.FinalPrice != 100 || created.StartDate != "2022-01-01" || created.EndDate != "2022-01-10" {
		t.Errorf("unexpected event payload: %+v", created)
	}
	if len(b.Drain()) != 0 {
		t.Error("Drain must clear pending events")
	}
}

func TestNewRejectsQuoteMismatch(t *testing.T) {
	dr := mustRange(t, "2022-01-01", "2022-01-10")
	short, err := pricing.NewEngine(rules.BoundaryExclusive).Quote(mustRange(t, "2022-01-01", "2022-01-02"), money.FromFloat(10), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(CreateParams{ID: "b1", PropertyID: "p1", Range: dr, Quote: short}); err == nil {
		t.Fatal("expected error for quote that does not cover the stay")
	}
}

func TestCancelTwiceFails(t *testing.T) {
	b := confirmed(t, "b1", "p1", "2022-01-01", "2022-01-10")
	if err := b.Cancel("", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := b.Cancel("", time.Now()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}
