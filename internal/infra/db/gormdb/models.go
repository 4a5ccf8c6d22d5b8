package gormdb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	domainbooking "stayrate/internal/domain/booking"
	domainpricing "stayrate/internal/domain/pricing"
	domainproperty "stayrate/internal/domain/property"
	domainrules "stayrate/internal/domain/rules"
	"stayrate/internal/domain/shared/daterange"
	"stayrate/internal/domain/shared/money"
)

// Amounts are kept as decimal strings; dates as YYYY-MM-DD strings.

type propertyModel struct {
	ID         string    `gorm:"primaryKey;size:64"`
	Name       string    `gorm:"size:200;not null"`
	BasePrice  string    `gorm:"size:64;not null"`
	BookingSeq int64     `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (propertyModel) TableName() string { return "properties" }

func newPropertyModel(p *domainproperty.Property) propertyModel {
	return propertyModel{
		ID:        string(p.ID),
		Name:      p.Name,
		BasePrice: p.BasePrice.Amount.String(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (m propertyModel) toEntity() (*domainproperty.Property, error) {
	price, err := parseMoney(m.BasePrice)
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", m.ID, err)
	}
	return &domainproperty.Property{
		ID:        domainproperty.PropertyID(m.ID),
		Name:      m.Name,
		BasePrice: price,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}, nil
}

type ruleModel struct {
	ID            string    `gorm:"primaryKey;size:64"`
	PropertyID    string    `gorm:"size:64;index;not null"`
	PriceModifier *float64  `gorm:"column:price_modifier"`
	MinStayLength *int      `gorm:"column:min_stay_length"`
	FixedPrice    *float64  `gorm:"column:fixed_price"`
	SpecificDay   *string   `gorm:"size:10"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (ruleModel) TableName() string { return "pricing_rules" }

func newRuleModel(r *domainrules.Rule) ruleModel {
	c := r.Clone()
	m := ruleModel{
		ID:            string(c.ID),
		PropertyID:    string(c.PropertyID),
		PriceModifier: c.PriceModifier,
		MinStayLength: c.MinStayLength,
		FixedPrice:    c.FixedPrice,
		CreatedAt:     c.CreatedAt,
	}
	if day, ok := c.Day(); ok {
		s := day.Format(daterange.Layout)
		m.SpecificDay = &s
	}
	return m
}

// toEntity keeps malformed rules as stored; the engine drops them when pricing.
func (m ruleModel) toEntity() (domainrules.Rule, error) {
	r := domainrules.Rule{
		ID:            domainrules.RuleID(m.ID),
		PropertyID:    domainproperty.PropertyID(m.PropertyID),
		PriceModifier: m.PriceModifier,
		MinStayLength: m.MinStayLength,
		FixedPrice:    m.FixedPrice,
		CreatedAt:     m.CreatedAt.UTC(),
	}
	if m.SpecificDay != nil {
		day, err := daterange.ParseDay(*m.SpecificDay)
		if err != nil {
			return domainrules.Rule{}, fmt.Errorf("rule %s: %w", m.ID, err)
		}
		r.SpecificDay = &day
	}
	return r, nil
}

type dayChargeRow struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
	Source string `json:"source"`
	RuleID string `json:"rule_id,omitempty"`
}

type breakdownRow struct {
	Days    []dayChargeRow `json:"days"`
	Applied []string       `json:"applied"`
	Dropped []string       `json:"dropped,omitempty"`
}

type bookingModel struct {
	ID         string         `gorm:"primaryKey;size:64"`
	PropertyID string         `gorm:"size:64;index:idx_booking_property_start,priority:1;not null"`
	StartDate  string         `gorm:"size:10;index:idx_booking_property_start,priority:2;not null"`
	EndDate    string         `gorm:"size:10;not null"`
	Total      string         `gorm:"size:64;not null"`
	Breakdown  datatypes.JSON `gorm:"not null"`
	State      string         `gorm:"size:16;not null"`
	Version    int64          `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func newBookingModel(b *domainbooking.Booking) (bookingModel, error) {
	bd := breakdownRow{}
	for _, d := range b.Quote.Days {
		bd.Days = append(bd.Days, dayChargeRow{
			Date:   d.Date.Format(daterange.Layout),
			Amount: d.Amount.Amount.String(),
			Source: string(d.Source),
			RuleID: string(d.RuleID),
		})
	}
	for _, id := range b.Quote.Applied {
		bd.Applied = append(bd.Applied, string(id))
	}
	for _, id := range b.Quote.Dropped {
		bd.Dropped = append(bd.Dropped, string(id))
	}
	raw, err := json.Marshal(bd)
	if err != nil {
		return bookingModel{}, err
	}
	return bookingModel{
		ID:         string(b.ID),
		PropertyID: string(b.PropertyID),
		StartDate:  b.Range.Start.Format(daterange.Layout),
		EndDate:    b.Range.End.Format(daterange.Layout),
		Total:      b.Quote.Total.Amount.String(),
		Breakdown:  datatypes.JSON(raw),
		State:      string(b.State),
		Version:    b.Version,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}, nil
}

func (m bookingModel) toAggregate() (*domainbooking.Booking, error) {
	dr, err := daterange.Parse(m.StartDate, m.EndDate)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", m.ID, err)
	}
	total, err := parseMoney(m.Total)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", m.ID, err)
	}
	var bd breakdownRow
	if err := json.Unmarshal(m.Breakdown, &bd); err != nil {
		return nil, fmt.Errorf("booking %s: decode breakdown: %w", m.ID, err)
	}
	quote := domainpricing.Quote{Total: total}
	for _, d := range bd.Days {
		date, err := daterange.ParseDay(d.Date)
		if err != nil {
			return nil, fmt.Errorf("booking %s: %w", m.ID, err)
		}
		amount, err := parseMoney(d.Amount)
		if err != nil {
			return nil, fmt.Errorf("booking %s: %w", m.ID, err)
		}
		quote.Days = append(quote.Days, domainpricing.DayCharge{
			Date:   date,
			Amount: amount,
			Source: domainpricing.Source(d.Source),
			RuleID: domainrules.RuleID(d.RuleID),
		})
	}
	for _, id := range bd.Applied {
		quote.Applied = append(quote.Applied, domainrules.RuleID(id))
	}
	for _, id := range bd.Dropped {
		quote.Dropped = append(quote.Dropped, domainrules.RuleID(id))
	}
	return &domainbooking.Booking{
		ID:         domainbooking.BookingID(m.ID),
		PropertyID: domainproperty.PropertyID(m.PropertyID),
		Range:      dr,
		Quote:      quote,
		State:      domainbooking.State(m.State),
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
		Version:    m.Version,
	}, nil
}

type outboxModel struct {
	ID          string         `gorm:"primaryKey;size:64"`
	Name        string         `gorm:"size:128;not null"`
	Payload     []byte         `gorm:"not null"`
	OccurredAt  time.Time      `gorm:"not null"`
	Aggregate   string         `gorm:"size:64"`
	Headers     datatypes.JSON `gorm:"column:headers"`
	State       string         `gorm:"size:16;index:idx_outbox_due,priority:1;not null"`
	Attempts    int            `gorm:"not null;default:0"`
	NextAttempt time.Time      `gorm:"index:idx_outbox_due,priority:2"`
	ClaimedBy   string         `gorm:"size:64"`
	ClaimedAt   *time.Time     `gorm:"column:claimed_at"`
	SentAt      *time.Time     `gorm:"column:sent_at"`
	LastError   string         `gorm:"type:text"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
}

func (outboxModel) TableName() string { return "outbox_events" }

func parseMoney(raw string) (money.Money, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return money.Money{}, fmt.Errorf("decode amount %q: %w", raw, err)
	}
	return money.Money{Amount: amount}, nil
}
