package daterange

import (
	"errors"
	"testing"
	"time"
)

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDay(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestNewRejectsReversedRange(t *testing.T) {
	_, err := New(mustDay(t, "2022-01-10"), mustDay(t, "2022-01-01"))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestNewNormalizesToMidnightUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	dr, err := New(time.Date(2022, 1, 1, 15, 30, 0, 0, loc), time.Date(2022, 1, 2, 1, 0, 0, 0, loc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dr.Start.Equal(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start not normalized: %v", dr.Start)
	}
	if dr.Start.Location() != time.UTC {
		t.Errorf("start location = %v", dr.Start.Location())
	}
}

func TestLenAndDaysAreInclusive(t *testing.T) {
	tests := []struct {
		start, end string
		want       int
	}{
		{"2022-01-01", "2022-01-01", 1},
		{"2022-01-01", "2022-01-07", 7},
		{"2022-01-01", "2022-01-10", 10},
		{"2022-02-27", "2022-03-02", 4},
	}
	for _, tt := range tests {
		dr, err := Parse(tt.start, tt.end)
		if err != nil {
			t.Fatalf("parse %s..%s: %v", tt.start, tt.end, err)
		}
		if got := dr.Len(); got != tt.want {
			t.Errorf("%s: Len = %d, want %d", dr, got, tt.want)
		}
		days := dr.Days()
		if len(days) != tt.want {
			t.Fatalf("%s: len(Days) = %d, want %d", dr, len(days), tt.want)
		}
		if !days[0].Equal(dr.Start) || !days[len(days)-1].Equal(dr.End) {
			t.Errorf("%s: days do not span range: %v..%v", dr, days[0], days[len(days)-1])
		}
	}
}

func TestLenSpansCenturies(t *testing.T) {
	dr, err := Parse("2026-10-17", "2400-01-01")
	if err != nil {
		t.Fatal(err)
	}
	days := dr.Days()
	if len(days) != dr.Len() {
		t.Fatalf("len(Days) = %d, Len = %d", len(days), dr.Len())
	}
	if last := days[len(days)-1]; !last.Equal(dr.End) {
		t.Errorf("last day = %s, want %s", last.Format(Layout), dr.End.Format(Layout))
	}
	pre, _ := Parse("1969-12-30", "1970-01-02")
	if pre.Len() != 4 {
		t.Errorf("Len across epoch = %d, want 4", pre.Len())
	}
}

func TestContains(t *testing.T) {
	dr, _ := Parse("2022-01-01", "2022-01-10")
	if !dr.Contains(mustDay(t, "2022-01-01")) || !dr.Contains(mustDay(t, "2022-01-10")) {
		t.Error("range must contain both ends")
	}
	if dr.Contains(mustDay(t, "2021-12-31")) || dr.Contains(mustDay(t, "2022-01-11")) {
		t.Error("range must not contain outside days")
	}
}

func TestOverlaps(t *testing.T) {
	base, _ := Parse("2022-01-05", "2022-01-10")
	tests := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"disjoint before", "2022-01-01", "2022-01-03", false},
		{"adjacent before", "2022-01-01", "2022-01-04", false},
		{"shares first day", "2022-01-01", "2022-01-05", true},
		{"inside", "2022-01-06", "2022-01-07", true},
		{"covers", "2022-01-01", "2022-01-20", true},
		{"shares last day", "2022-01-10", "2022-01-12", true},
		{"adjacent after", "2022-01-11", "2022-01-12", false},
		{"disjoint after", "2022-02-01", "2022-02-03", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other, _ := Parse(tt.start, tt.end)
			if got := base.Overlaps(other); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := other.Overlaps(base); got != tt.want {
				t.Errorf("reverse Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}
