package money

import (
	"errors"
	"testing"
)

func TestNewRejectsNegative(t *testing.T) {
	if _, err := New(-1); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	m, err := New(10.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Float64() != 10.5 {
		t.Errorf("Float64 = %v", m.Float64())
	}
}

func TestAdjustPercentKeepsSign(t *testing.T) {
	tests := []struct {
		base, percent, want float64
	}{
		{10, -10, 9},
		{10, 10, 11},
		{10, 0, 10},
		{10, 30, 13},
		{80, -12.5, 70},
		{10, -150, -5},
	}
	for _, tt := range tests {
		got := FromFloat(tt.base).AdjustPercent(tt.percent)
		if !got.Equal(FromFloat(tt.want)) {
			t.Errorf("%v adjusted by %v%% = %s, want %v", tt.base, tt.percent, got, tt.want)
		}
	}
}

func TestArithmeticIsExact(t *testing.T) {
	total := Zero()
	for i := 0; i < 9; i++ {
		total = total.Add(FromFloat(10).AdjustPercent(-10))
	}
	total = total.Add(FromFloat(20))
	if total.Float64() != 101 {
		t.Fatalf("total = %v, want 101", total.Float64())
	}
	if got := FromFloat(5).Multiply(7); got.Float64() != 35 {
		t.Errorf("Multiply = %v", got)
	}
}

func TestNonNegative(t *testing.T) {
	if got := FromFloat(-3).NonNegative(); !got.IsZero() {
		t.Errorf("NonNegative(-3) = %s", got)
	}
	if got := FromFloat(3).NonNegative(); got.Float64() != 3 {
		t.Errorf("NonNegative(3) = %s", got)
	}
}
