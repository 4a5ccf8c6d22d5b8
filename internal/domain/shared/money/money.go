package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNegativeAmount = errors.New("money: amount cannot be negative")

var hundred = decimal.NewFromInt(100)

// Money keeps amounts as decimals so percentage arithmetic stays exact.
type Money struct {
	Amount decimal.Decimal
}

// New constructs Money from a float, rejecting negative values.
func New(amount float64) (Money, error) {
	if amount < 0 {
		return Money{}, ErrNegativeAmount
	}
	return FromFloat(amount), nil
}

// FromFloat converts without validation; useful in tests and fixtures.
func FromFloat(amount float64) Money {
	return Money{Amount: decimal.NewFromFloat(amount)}
}

func Zero() Money {
	return Money{Amount: decimal.Zero}
}

// Add adds two money values.
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount.Add(other.Amount)}
}

// Multiply multiplies the amount by the provided factor.
func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(times))}
}

// AdjustPercent returns m + m*percent/100. The sign of percent is kept:
// negative values discount, positive values surcharge.
func (m Money) AdjustPercent(percent float64) Money {
	delta := m.Amount.Mul(decimal.NewFromFloat(percent)).Div(hundred)
	return Money{Amount: m.Amount.Add(delta)}
}

// NonNegative clamps the amount at zero.
func (m Money) NonNegative() Money {
	if m.Amount.IsNegative() {
		return Zero()
	}
	return m
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) Equal(other Money) bool {
	return m.Amount.Equal(other.Amount)
}

// Float64 returns the nearest float64 value.
func (m Money) Float64() float64 {
	f, _ := m.Amount.Float64()
	return f
}

func (m Money) String() string {
	return m.Amount.StringFixed(2)
}
