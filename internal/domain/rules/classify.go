package rules

// Category is the mutually exclusive kind a rule is priced as.
type Category int

const (
	CategoryNone Category = iota
	CategorySpecificDay
	CategoryMinStay
	CategoryDoubleCondition
)

func (c Category) String() string {
	switch c {
	case CategorySpecificDay:
		return "specific_day"
	case CategoryMinStay:
		return "min_stay"
	case CategoryDoubleCondition:
		return "double_condition"
	default:
		return "none"
	}
}

// Category returns CategoryNone for rules that lack an effect or a condition.
func (r Rule) Category() Category {
	if !r.HasEffect() {
		return CategoryNone
	}
	switch {
	case r.HasDoubleCondition():
		return CategoryDoubleCondition
	case r.SpecificDay != nil:
		return CategorySpecificDay
	case r.MinStayLength != nil:
		return CategoryMinStay
	default:
		return CategoryNone
	}
}

// Classification partitions a rule set; every input rule lands in exactly one slice.
type Classification struct {
	SpecificDay     []Rule
	MinStay         []Rule
	DoubleCondition []Rule
	Dropped         []Rule
}

func Classify(rules []Rule) Classification {
	var c Classification
	for _, r := range rules {
		switch r.Category() {
		case CategorySpecificDay:
			c.SpecificDay = append(c.SpecificDay, r)
		case CategoryMinStay:
			c.MinStay = append(c.MinStay, r)
		case CategoryDoubleCondition:
			c.DoubleCondition = append(c.DoubleCondition, r)
		default:
			c.Dropped = append(c.Dropped, r)
		}
	}
	return c
}
