package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stayrate/internal/domain/property"
	"stayrate/internal/domain/shared/daterange"
)

var (
	ErrRuleNotFound  = errors.New("rules: not found")
	ErrMalformedRule = errors.New("rules: malformed rule")
)

type RuleID string

// Rule is an immutable pricing condition attached to a property.
//
// A rule needs an effect (PriceModifier and/or FixedPrice) and a condition
// (MinStayLength and/or SpecificDay). PriceModifier is a signed percentage
// applied to the base price; FixedPrice overrides the nightly charge.
// Pointer fields are optional; nothing in this module writes through them.
type Rule struct {
	ID            RuleID
	PropertyID    property.PropertyID
	PriceModifier *float64
	MinStayLength *int
	FixedPrice    *float64
	SpecificDay   *time.Time
	CreatedAt     time.Time
}

type Repository interface {
	ByID(ctx context.Context, id RuleID) (*Rule, error)
	ByProperty(ctx context.Context, propertyID property.PropertyID) ([]Rule, error)
	List(ctx context.Context) ([]Rule, error)
	Save(ctx context.Context, rule *Rule) error
	Delete(ctx context.Context, id RuleID) error
}

type CreateParams struct {
	ID            RuleID
	PropertyID    property.PropertyID
	PriceModifier *float64
	MinStayLength *int
	FixedPrice    *float64
	SpecificDay   *time.Time
	Now           time.Time
}

// New validates the params and returns a rule that shares no memory with them.
func New(params CreateParams) (*Rule, error) {
	if params.ID == "" {
		return nil, fmt.Errorf("%w: id is required", ErrMalformedRule)
	}
	if params.PropertyID == "" {
		return nil, fmt.Errorf("%w: property id is required", ErrMalformedRule)
	}
	r := &Rule{
		ID:            params.ID,
		PropertyID:    params.PropertyID,
		PriceModifier: cloneFloat(params.PriceModifier),
		MinStayLength: cloneInt(params.MinStayLength),
		FixedPrice:    cloneFloat(params.FixedPrice),
		CreatedAt:     params.Now.UTC(),
	}
	if params.SpecificDay != nil {
		d := daterange.Day(*params.SpecificDay)
		r.SpecificDay = &d
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r Rule) Validate() error {
	if !r.HasEffect() {
		return fmt.Errorf("%w: price_modifier or fixed_price is required", ErrMalformedRule)
	}
	if !r.HasCondition() {
		return fmt.Errorf("%w: min_stay_length or specific_day is required", ErrMalformedRule)
	}
	if r.MinStayLength != nil && *r.MinStayLength < 1 {
		return fmt.Errorf("%w: min_stay_length must be positive", ErrMalformedRule)
	}
	if r.FixedPrice != nil && *r.FixedPrice < 0 {
		return fmt.Errorf("%w: fixed_price cannot be negative", ErrMalformedRule)
	}
	return nil
}

func (r Rule) HasEffect() bool {
	return r.PriceModifier != nil || r.FixedPrice != nil
}

func (r Rule) HasCondition() bool {
	return r.MinStayLength != nil || r.SpecificDay != nil
}

// HasDoubleCondition reports whether both a stay length and a day must hold.
func (r Rule) HasDoubleCondition() bool {
	return r.MinStayLength != nil && r.SpecificDay != nil
}

func (r Rule) Modifier() (float64, bool) {
	if r.PriceModifier == nil {
		return 0, false
	}
	return *r.PriceModifier, true
}

func (r Rule) Fixed() (float64, bool) {
	if r.FixedPrice == nil {
		return 0, false
	}
	return *r.FixedPrice, true
}

func (r Rule) MinStay() (int, bool) {
	if r.MinStayLength == nil {
		return 0, false
	}
	return *r.MinStayLength, true
}

// Day returns the targeted calendar day normalized to midnight UTC.
func (r Rule) Day() (time.Time, bool) {
	if r.SpecificDay == nil {
		return time.Time{}, false
	}
	return daterange.Day(*r.SpecificDay), true
}

// Clone returns a copy that shares no pointer fields with r.
func (r Rule) Clone() Rule {
	out := r
	out.PriceModifier = cloneFloat(r.PriceModifier)
	out.MinStayLength = cloneInt(r.MinStayLength)
	out.FixedPrice = cloneFloat(r.FixedPrice)
	if r.SpecificDay != nil {
		d := *r.SpecificDay
		out.SpecificDay = &d
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
