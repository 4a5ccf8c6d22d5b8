package mongo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	domainbooking "stayrate/internal/domain/booking"
	domainpricing "stayrate/internal/domain/pricing"
	domainproperty "stayrate/internal/domain/property"
	domainrules "stayrate/internal/domain/rules"
	"stayrate/internal/domain/shared/daterange"
	"stayrate/internal/domain/shared/money"
)

// Amounts are stored as decimal strings so round trips are exact.

type propertyDocument struct {
	ID        string `bson:"_id"`
	Name      string `bson:"name"`
	BasePrice string `bson:"base_price"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

func newPropertyDocument(p *domainproperty.Property) propertyDocument {
	return propertyDocument{
		ID:        string(p.ID),
		Name:      p.Name,
		BasePrice: p.BasePrice.Amount.String(),
		CreatedAt: p.CreatedAt.UnixMilli(),
		UpdatedAt: p.UpdatedAt.UnixMilli(),
	}
}

func (d propertyDocument) toEntity() (*domainproperty.Property, error) {
	price, err := parseMoney(d.BasePrice)
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", d.ID, err)
	}
	return &domainproperty.Property{
		ID:        domainproperty.PropertyID(d.ID),
		Name:      d.Name,
		BasePrice: price,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
	}, nil
}

type ruleDocument struct {
	ID            string   `bson:"_id"`
	PropertyID    string   `bson:"property_id"`
	PriceModifier *float64 `bson:"price_modifier,omitempty"`
	MinStayLength *int     `bson:"min_stay_length,omitempty"`
	FixedPrice    *float64 `bson:"fixed_price,omitempty"`
	SpecificDay   *string  `bson:"specific_day,omitempty"`
	CreatedAt     int64    `bson:"created_at"`
}

func newRuleDocument(r *domainrules.Rule) ruleDocument {
	c := r.Clone()
	doc := ruleDocument{
		ID:            string(c.ID),
		PropertyID:    string(c.PropertyID),
		PriceModifier: c.PriceModifier,
		MinStayLength: c.MinStayLength,
		FixedPrice:    c.FixedPrice,
		CreatedAt:     c.CreatedAt.UnixMilli(),
	}
	if day, ok := c.Day(); ok {
		s := day.Format(daterange.Layout)
		doc.SpecificDay = &s
	}
	return doc
}

// toEntity does not validate; malformed stored rules reach the engine,
// which reports them as dropped.
func (d ruleDocument) toEntity() (domainrules.Rule, error) {
	r := domainrules.Rule{
		ID:            domainrules.RuleID(d.ID),
		PropertyID:    domainproperty.PropertyID(d.PropertyID),
		PriceModifier: d.PriceModifier,
		MinStayLength: d.MinStayLength,
		FixedPrice:    d.FixedPrice,
		CreatedAt:     timestampToTime(d.CreatedAt),
	}
	if d.SpecificDay != nil {
		day, err := daterange.ParseDay(*d.SpecificDay)
		if err != nil {
			return domainrules.Rule{}, fmt.Errorf("rule %s: %w", d.ID, err)
		}
		r.SpecificDay = &day
	}
	return r, nil
}

type dayChargeDocument struct {
	Date   string `bson:"date"`
	Amount string `bson:"amount"`
	Source string `bson:"source"`
	RuleID string `bson:"rule_id,omitempty"`
}

type bookingDocument struct {
	ID         string              `bson:"_id"`
	PropertyID string              `bson:"property_id"`
	StartDate  string              `bson:"start_date"`
	EndDate    string              `bson:"end_date"`
	Total      string              `bson:"total"`
	FinalPrice float64             `bson:"final_price"`
	Days       []dayChargeDocument `bson:"days"`
	Applied    []string            `bson:"applied_rules"`
	Dropped    []string            `bson:"dropped_rules,omitempty"`
	State      string              `bson:"state"`
	CreatedAt  int64               `bson:"created_at"`
	UpdatedAt  int64               `bson:"updated_at"`
	Version    int64               `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:         string(b.ID),
		PropertyID: string(b.PropertyID),
		StartDate:  b.Range.Start.Format(daterange.Layout),
		EndDate:    b.Range.End.Format(daterange.Layout),
		Total:      b.Quote.Total.Amount.String(),
		FinalPrice: b.FinalPrice(),
		State:      string(b.State),
		CreatedAt:  b.CreatedAt.UnixMilli(),
		UpdatedAt:  b.UpdatedAt.UnixMilli(),
		Version:    b.Version,
	}
	for _, d := range b.Quote.Days {
		doc.Days = append(doc.Days, dayChargeDocument{
			Date:   d.Date.Format(daterange.Layout),
			Amount: d.Amount.Amount.String(),
			Source: string(d.Source),
			RuleID: string(d.RuleID),
		})
	}
	for _, id := range b.Quote.Applied {
		doc.Applied = append(doc.Applied, string(id))
	}
	for _, id := range b.Quote.Dropped {
		doc.Dropped = append(doc.Dropped, string(id))
	}
	return doc
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	dr, err := daterange.Parse(d.StartDate, d.EndDate)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", d.ID, err)
	}
	total, err := parseMoney(d.Total)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", d.ID, err)
	}
	quote := domainpricing.Quote{Total: total}
	for _, day := range d.Days {
		date, err := daterange.ParseDay(day.Date)
		if err != nil {
			return nil, fmt.Errorf("booking %s: %w", d.ID, err)
		}
		amount, err := parseMoney(day.Amount)
		if err != nil {
			return nil, fmt.Errorf("booking %s: %w", d.ID, err)
		}
		quote.Days = append(quote.Days, domainpricing.DayCharge{
			Date:   date,
			Amount: amount,
			Source: domainpricing.Source(day.Source),
			RuleID: domainrules.RuleID(day.RuleID),
		})
	}
	for _, id := range d.Applied {
		quote.Applied = append(quote.Applied, domainrules.RuleID(id))
	}
	for _, id := range d.Dropped {
		quote.Dropped = append(quote.Dropped, domainrules.RuleID(id))
	}
	return &domainbooking.Booking{
		ID:         domainbooking.BookingID(d.ID),
		PropertyID: domainproperty.PropertyID(d.PropertyID),
		Range:      dr,
		Quote:      quote,
		State:      domainbooking.State(d.State),
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
		Version:    d.Version,
	}, nil
}

func parseMoney(raw string) (money.Money, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return money.Money{}, fmt.Errorf("decode amount %q: %w", raw, err)
	}
	return money.Money{Amount: amount}, nil
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
