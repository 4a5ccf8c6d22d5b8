package pricing

import (
	"errors"
	"time"

	"stayrate/internal/domain/rules"
	"stayrate/internal/domain/shared/money"
)

var ErrEmptyStay = errors.New("pricing: day list must not be empty")

// Source tells which kind of rule produced a day's charge.
type Source string

const (
	SourceBase            Source = "base"
	SourceMinStay         Source = "min_stay"
	SourceSpecificDay     Source = "specific_day"
	SourceDoubleCondition Source = "double_condition"
)

type DayCharge struct {
	Date   time.Time
	Amount money.Money
	Source Source
	RuleID rules.RuleID
}

// Quote is the priced outcome of one stay.
type Quote struct {
	Days    []DayCharge
	Total   money.Money
	Applied []rules.RuleID
	Dropped []rules.RuleID
}

// FinalPrice is the total charge for the whole stay.
func (q Quote) FinalPrice() float64 {
	return q.Total.Float64()
}

func (q Quote) Nights() int {
	return len(q.Days)
}

func (q Quote) Copy() Quote {
	clone := q
	clone.Days = append([]DayCharge(nil), q.Days...)
	clone.Applied = append([]rules.RuleID(nil), q.Applied...)
	clone.Dropped = append([]rules.RuleID(nil), q.Dropped...)
	return clone
}
