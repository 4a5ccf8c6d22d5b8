package booking

import (
	"time"

	"stayrate/internal/domain/property"
	"stayrate/internal/domain/rules"
)

type BookingCreated struct {
	BookingID  BookingID           `json:"booking_id"`
	PropertyID property.PropertyID `json:"property_id"`
	StartDate  string              `json:"start_date"`
	EndDate    string              `json:"end_date"`
	FinalPrice float64             `json:"final_price"`
	RuleIDs    []rules.RuleID      `json:"rule_ids"`
	At         time.Time           `json:"at"`
}

func (e BookingCreated) EventName() string     { return "booking.created" }
func (e BookingCreated) AggregateID() string   { return string(e.BookingID) }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID  BookingID           `json:"booking_id"`
	PropertyID property.PropertyID `json:"property_id"`
	Reason     string              `json:"reason,omitempty"`
	At         time.Time           `json:"at"`
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }
