package booking

import (
	"context"
	"errors"
	"time"

	"stayrate/internal/domain/pricing"
	"stayrate/internal/domain/property"
	"stayrate/internal/domain/shared/daterange"
	"stayrate/internal/domain/shared/events"
)

var (
	ErrBookingNotFound = errors.New("booking: not found")
	ErrInvalidState    = errors.New("booking: invalid state transition")

	// ErrConcurrentUpdate is returned by repositories when the stored version
	// moved since the booking was loaded.
	ErrConcurrentUpdate = errors.New("booking: concurrent update")
)

type BookingID string

type State string

const (
	StateConfirmed State = "CONFIRMED"
	StateCancelled State = "CANCELLED"
)

// Booking is a confirmed reservation with the price fixed at creation time.
type Booking struct {
	ID         BookingID
	PropertyID property.PropertyID
	Range      daterange.DateRange
	Quote      pricing.Quote
	State      State
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
	events.Recorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	ByProperty(ctx context.Context, propertyID property.PropertyID) ([]*Booking, error)
	List(ctx context.Context) ([]*Booking, error)
	Save(ctx context.Context, b *Booking) error
}

type CreateParams struct {
	ID         BookingID
	PropertyID property.PropertyID
	Range      daterange.DateRange
	Quote      pricing.Quote
	CreatedAt  time.Time
}

func New(params CreateParams) (*Booking, error) {
	if params.ID == "" {
		return nil, errors.New("booking: id is required")
	}
	if params.PropertyID == "" {
		return nil, errors.New("booking: property id is required")
	}
	if err := params.Range.Validate(); err != nil {
		return nil, ErrInvalidDateRange
	}
	if params.Quote.Nights() != params.Range.Len() {
		return nil, errors.New("booking: quote does not cover the stay")
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:         params.ID,
		PropertyID: params.PropertyID,
		Range:      params.Range,
		Quote:      params.Quote.Copy(),
		State:      StateConfirmed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.Record(BookingCreated{
		BookingID:  b.ID,
		PropertyID: b.PropertyID,
		StartDate:  b.Range.Start.Format(daterange.Layout),
		EndDate:    b.Range.End.Format(daterange.Layout),
		FinalPrice: b.FinalPrice(),
		RuleIDs:    b.Quote.Applied,
		At:         now,
	})
	return b, nil
}

func (b *Booking) FinalPrice() float64 {
	return b.Quote.FinalPrice()
}

// Active bookings block their dates.
func (b *Booking) Active() bool {
	return b.State == StateConfirmed
}

func (b *Booking) Cancel(reason string, now time.Time) error {
	if b.State != StateConfirmed {
		return ErrInvalidState
	}
	b.State = StateCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, PropertyID: b.PropertyID, Reason: reason, At: b.UpdatedAt})
	return nil
}
