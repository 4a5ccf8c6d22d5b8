package booking

import (
	"context"
	"time"

	"stayrate/internal/app/commands"
	"stayrate/internal/app/outbox"
	"stayrate/internal/app/uow"
	domainbooking "stayrate/internal/domain/booking"
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID string `validate:"required"`
	Reason    string `validate:"max=500"`
}

func (CancelBookingCommand) Key() string { return cancelBookingKey }

type CancelBookingHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Now     func() time.Time
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (struct{}, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return struct{}{}, err
	}
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return struct{}{}, err
	}
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now()
	}
	if err := b.Cancel(cmd.Reason, now); err != nil {
		return struct{}{}, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, b.Drain())
}

var _ commands.Handler[CancelBookingCommand, struct{}] = (*CancelBookingHandler)(nil)
