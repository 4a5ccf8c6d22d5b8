package rules

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"stayrate/internal/domain/shared/daterange"
)

// Boundary decides whether a stay of exactly MinStayLength days qualifies.
type Boundary int

const (
	// BoundaryExclusive requires the stay to be longer than the minimum.
	BoundaryExclusive Boundary = iota
	// BoundaryInclusive accepts a stay equal to the minimum.
	BoundaryInclusive
)

func ParseBoundary(raw string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "exclusive":
		return BoundaryExclusive, nil
	case "inclusive":
		return BoundaryInclusive, nil
	default:
		return BoundaryExclusive, fmt.Errorf("rules: unknown min stay boundary %q", raw)
	}
}

func (b Boundary) String() string {
	if b == BoundaryInclusive {
		return "inclusive"
	}
	return "exclusive"
}

func (b Boundary) qualifies(minStay, stayLength int) bool {
	if b == BoundaryInclusive {
		return minStay <= stayLength
	}
	return minStay < stayLength
}

// Plan is the non-overlapping set of rules that survived selection.
type Plan struct {
	DoubleCondition *Rule
	SpecificDay     map[time.Time]Rule
	MinStay         *Rule
}

func (p Plan) Empty() bool {
	return p.DoubleCondition == nil && p.MinStay == nil && len(p.SpecificDay) == 0
}

// Applied lists the ids of the rules in the plan in a stable order.
func (p Plan) Applied() []RuleID {
	if p.DoubleCondition != nil {
		return []RuleID{p.DoubleCondition.ID}
	}
	days := make([]time.Time, 0, len(p.SpecificDay))
	for d := range p.SpecificDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	ids := make([]RuleID, 0, len(days)+1)
	for _, d := range days {
		ids = append(ids, p.SpecificDay[d].ID)
	}
	if p.MinStay != nil {
		ids = append(ids, p.MinStay.ID)
	}
	return ids
}

// Selector reduces classified rules to a Plan for one stay.
type Selector struct {
	Boundary Boundary
}

func (s Selector) Select(dr daterange.DateRange, c Classification) Plan {
	if r, ok := s.SelectDoubleCondition(c.DoubleCondition, dr); ok {
		return Plan{DoubleCondition: &r}
	}
	plan := Plan{SpecificDay: s.SelectSpecificDay(c.SpecificDay, dr)}
	if r, ok := s.SelectMinStay(c.MinStay, dr.Len()); ok {
		plan.MinStay = &r
	}
	return plan
}

// SelectSpecificDay keeps, for every day of the stay, the most impactful rule
// targeting that day.
func (s Selector) SelectSpecificDay(candidates []Rule, dr daterange.DateRange) map[time.Time]Rule {
	winners := make(map[time.Time]Rule)
	for _, r := range candidates {
		day, ok := r.Day()
		if !ok || !dr.Contains(day) {
			continue
		}
		if current, seen := winners[day]; !seen || MoreImpactful(r, current) {
			winners[day] = r
		}
	}
	return winners
}

// SelectMinStay returns the qualifying rule with the largest minimum.
func (s Selector) SelectMinStay(candidates []Rule, stayLength int) (Rule, bool) {
	var (
		best  Rule
		found bool
	)
	for _, r := range candidates {
		minStay, ok := r.MinStay()
		if !ok || !s.Boundary.qualifies(minStay, stayLength) {
			continue
		}
		if !found {
			best, found = r, true
			continue
		}
		bestMin, _ := best.MinStay()
		if minStay > bestMin || (minStay == bestMin && MoreImpactful(r, best)) {
			best = r
		}
	}
	return best, found
}

// SelectDoubleCondition returns the most impactful rule whose stay length
// threshold and target day both hold for the stay.
func (s Selector) SelectDoubleCondition(candidates []Rule, dr daterange.DateRange) (Rule, bool) {
	var (
		best  Rule
		found bool
	)
	stayLength := dr.Len()
	for _, r := range candidates {
		minStay, hasMin := r.MinStay()
		day, hasDay := r.Day()
		if !hasMin || !hasDay {
			continue
		}
		if !s.Boundary.qualifies(minStay, stayLength) || !dr.Contains(day) {
			continue
		}
		if !found || MoreImpactful(r, best) {
			best, found = r, true
		}
	}
	return best, found
}

// MoreImpactful orders competing rules: a fixed price beats a modifier, a
// larger fixed price beats a smaller one, a larger |modifier| beats a smaller
// one, and the smaller id breaks what is left.
func MoreImpactful(a, b Rule) bool {
	aFixed, aHasFixed := a.Fixed()
	bFixed, bHasFixed := b.Fixed()
	if aHasFixed != bHasFixed {
		return aHasFixed
	}
	if aHasFixed && aFixed != bFixed {
		return aFixed > bFixed
	}
	aMod, _ := a.Modifier()
	bMod, _ := b.Modifier()
	if math.Abs(aMod) != math.Abs(bMod) {
		return math.Abs(aMod) > math.Abs(bMod)
	}
	return a.ID < b.ID
}
