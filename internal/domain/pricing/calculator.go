package pricing

import (
	"time"

	"stayrate/internal/domain/rules"
	"stayrate/internal/domain/shared/daterange"
	"stayrate/internal/domain/shared/money"
)

// Price charges every day of the stay according to a selected plan.
//
// A double condition rule prices every day the same. Otherwise a day
// targeted by a specific day rule uses that rule and the rest use the
// winning min stay rule, or the base price when none qualified.
func Price(days []time.Time, base money.Money, plan rules.Plan) (Quote, error) {
	if len(days) == 0 {
		return Quote{}, ErrEmptyStay
	}
	q := Quote{Days: make([]DayCharge, 0, len(days)), Total: money.Zero()}

	if plan.Empty() {
		flat := base.NonNegative()
		for _, d := range days {
			q.Days = append(q.Days, DayCharge{Date: d, Amount: flat, Source: SourceBase})
		}
		q.Total = flat.Multiply(int64(len(days)))
		q.Applied = []rules.RuleID{}
		return q, nil
	}

	if r := plan.DoubleCondition; r != nil {
		nightly := nightlyCharge(base, *r)
		for _, d := range days {
			q.Days = append(q.Days, DayCharge{Date: d, Amount: nightly, Source: SourceDoubleCondition, RuleID: r.ID})
		}
		q.Total = nightly.Multiply(int64(len(days)))
		q.Applied = []rules.RuleID{r.ID}
		return q, nil
	}

	fallback := DayCharge{Amount: base.NonNegative(), Source: SourceBase}
	if r := plan.MinStay; r != nil {
		fallback = DayCharge{Amount: nightlyCharge(base, *r), Source: SourceMinStay, RuleID: r.ID}
	}
	for _, d := range days {
		charge := fallback
		if r, ok := plan.SpecificDay[daterange.Day(d)]; ok {
			charge = DayCharge{Amount: nightlyCharge(base, r), Source: SourceSpecificDay, RuleID: r.ID}
		}
		charge.Date = d
		q.Days = append(q.Days, charge)
		q.Total = q.Total.Add(charge.Amount)
	}
	q.Applied = plan.Applied()
	return q, nil
}

// nightlyCharge applies one rule to the base price; a fixed price wins over
// the rule's own modifier. Charges never go below zero.
func nightlyCharge(base money.Money, r rules.Rule) money.Money {
	if fixed, ok := r.Fixed(); ok {
		return money.FromFloat(fixed).NonNegative()
	}
	if mod, ok := r.Modifier(); ok {
		return base.AdjustPercent(mod).NonNegative()
	}
	return base.NonNegative()
}

// Engine runs classification, selection and pricing for one stay.
type Engine struct {
	Selector rules.Selector
}

func NewEngine(boundary rules.Boundary) Engine {
	return Engine{Selector: rules.Selector{Boundary: boundary}}
}

// Quote prices the stay. Rules that cannot be classified are reported in
// Quote.Dropped and otherwise ignored.
func (e Engine) Quote(dr daterange.DateRange, base money.Money, candidates []rules.Rule) (Quote, error) {
	if err := dr.Validate(); err != nil {
		return Quote{}, err
	}
	c := rules.Classify(candidates)
	plan := e.Selector.Select(dr, c)
	q, err := Price(dr.Days(), base, plan)
	if err != nil {
		return Quote{}, err
	}
	for _, r := range c.Dropped {
		q.Dropped = append(q.Dropped, r.ID)
	}
	return q, nil
}
