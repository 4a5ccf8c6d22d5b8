package dto

import (
	"time"

	domainrules "stayrate/internal/domain/rules"
	"stayrate/internal/domain/shared/daterange"
)

type Rule struct {
	ID            string    `json:"id"`
	PropertyID    string    `json:"property_id"`
	PriceModifier *float64  `json:"price_modifier,omitempty"`
	MinStayLength *int      `json:"min_stay_length,omitempty"`
	FixedPrice    *float64  `json:"fixed_price,omitempty"`
	SpecificDay   *string   `json:"specific_day,omitempty"`
	Category      string    `json:"category"`
	CreatedAt     time.Time `json:"created_at"`
}

type RuleCollection struct {
	Items []Rule `json:"items"`
}

func MapRule(r domainrules.Rule) Rule {
	out := Rule{
		ID:         string(r.ID),
		PropertyID: string(r.PropertyID),
		Category:   r.Category().String(),
		CreatedAt:  r.CreatedAt,
	}
	if v, ok := r.Modifier(); ok {
		out.PriceModifier = &v
	}
	if v, ok := r.MinStay(); ok {
		out.MinStayLength = &v
	}
	if v, ok := r.Fixed(); ok {
		out.FixedPrice = &v
	}
	if d, ok := r.Day(); ok {
		s := d.Format(daterange.Layout)
		out.SpecificDay = &s
	}
	return out
}
