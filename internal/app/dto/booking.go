package dto

import (
	"time"

	domainbooking "stayrate/internal/domain/booking"
	domainpricing "stayrate/internal/domain/pricing"
	domainrules "stayrate/internal/domain/rules"
	"stayrate/internal/domain/shared/daterange"
)

type DayCharge struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Source string  `json:"source"`
	RuleID string  `json:"rule_id,omitempty"`
}

// Quote is a priced stay that has not been booked.
type Quote struct {
	PropertyID   string      `json:"property_id"`
	StartDate    string      `json:"start_date"`
	EndDate      string      `json:"end_date"`
	Nights       int         `json:"nights"`
	FinalPrice   float64     `json:"final_price"`
	Available    bool        `json:"available"`
	Breakdown    []DayCharge `json:"breakdown"`
	AppliedRules []string    `json:"applied_rules"`
	DroppedRules []string    `json:"dropped_rules,omitempty"`
}

type Booking struct {
	ID           string      `json:"id"`
	PropertyID   string      `json:"property_id"`
	StartDate    string      `json:"start_date"`
	EndDate      string      `json:"end_date"`
	FinalPrice   float64     `json:"final_price"`
	State        string      `json:"state"`
	Breakdown    []DayCharge `json:"breakdown"`
	AppliedRules []string    `json:"applied_rules"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}

func MapDayCharges(days []domainpricing.DayCharge) []DayCharge {
	out := make([]DayCharge, 0, len(days))
	for _, d := range days {
		out = append(out, DayCharge{
			Date:   d.Date.Format(daterange.Layout),
			Amount: d.Amount.Float64(),
			Source: string(d.Source),
			RuleID: string(d.RuleID),
		})
	}
	return out
}

func MapBooking(b *domainbooking.Booking) Booking {
	return Booking{
		ID:           string(b.ID),
		PropertyID:   string(b.PropertyID),
		StartDate:    b.Range.Start.Format(daterange.Layout),
		EndDate:      b.Range.End.Format(daterange.Layout),
		FinalPrice:   b.FinalPrice(),
		State:        string(b.State),
		Breakdown:    MapDayCharges(b.Quote.Days),
		AppliedRules: ruleIDs(b.Quote.Applied),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func ruleIDs(ids []domainrules.RuleID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}
