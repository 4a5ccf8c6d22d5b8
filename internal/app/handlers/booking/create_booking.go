package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stayrate/internal/app/commands"
	"stayrate/internal/app/dto"
	"stayrate/internal/app/middleware"
	"stayrate/internal/app/outbox"
	"stayrate/internal/app/policies"
	"stayrate/internal/app/uow"
	domainbooking "stayrate/internal/domain/booking"
	domainpricing "stayrate/internal/domain/pricing"
	domainproperty "stayrate/internal/domain/property"
	"stayrate/internal/domain/shared/daterange"
)

const createBookingKey = "booking.create"

// CreateBookingCommand books a property for an inclusive range of calendar days.
type CreateBookingCommand struct {
	PropertyID      string `validate:"required"`
	StartDate       string `validate:"required,datetime=2006-01-02"`
	EndDate         string `validate:"required,datetime=2006-01-02"`
	IdempotencyKeyV string
}

func (CreateBookingCommand) Key() string              { return createBookingKey }
func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }
func (CreateBookingCommand) ResultPrototype() any     { return &CreateBookingResult{} }
func (c CreateBookingCommand) LockKey() string        { return "property:" + c.PropertyID }

type CreateBookingResult struct {
	BookingID  string  `json:"booking_id"`
	FinalPrice float64 `json:"final_price"`
}

type CreateBookingHandler struct {
	Engine  domainpricing.Engine
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Archive policies.BreakdownArchive
	Logger  *slog.Logger
	MaxStay int
	Now     func() time.Time
	NewID   func() string
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (CreateBookingResult, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return CreateBookingResult{}, err
	}
	now := h.now()
	dr, err := parseStay(cmd.StartDate, cmd.EndDate, now, h.MaxStay)
	if err != nil {
		return CreateBookingResult{}, err
	}

	pid := domainproperty.PropertyID(cmd.PropertyID)
	prop, err := unit.Properties().ByID(ctx, pid)
	if err != nil {
		return CreateBookingResult{}, err
	}
	existing, err := unit.Bookings().ByProperty(ctx, pid)
	if err != nil {
		return CreateBookingResult{}, err
	}
	if !domainbooking.IsAvailable(pid, dr, existing) {
		return CreateBookingResult{}, domainbooking.ErrPropertyUnavailable
	}

	candidates, err := unit.Rules().ByProperty(ctx, pid)
	if err != nil {
		return CreateBookingResult{}, err
	}
	quote, err := h.Engine.Quote(dr, prop.BasePrice, candidates)
	if err != nil {
		return CreateBookingResult{}, err
	}
	logDropped(ctx, h.logger(), pid, quote)

	b, err := domainbooking.New(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(h.newID()),
		PropertyID: pid,
		Range:      dr,
		Quote:      quote,
		CreatedAt:  now,
	})
	if err != nil {
		return CreateBookingResult{}, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return CreateBookingResult{}, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, b.Drain()); err != nil {
		return CreateBookingResult{}, err
	}

	if h.Archive != nil {
		snapshot := dto.MapBooking(b)
		uow.AfterCommit(ctx, func(ctx context.Context) {
			if err := h.Archive.Store(ctx, snapshot); err != nil {
				h.logger().WarnContext(ctx, "breakdown archive failed",
					slog.String("booking_id", snapshot.ID),
					slog.Any("error", err),
				)
			}
		})
	}
	return CreateBookingResult{BookingID: string(b.ID), FinalPrice: b.FinalPrice()}, nil
}

func (h *CreateBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *CreateBookingHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

func (h *CreateBookingHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// parseStay parses both ends and rejects reversed stays, stays starting
// before the day of now and stays longer than maxStay days.
func parseStay(start, end string, now time.Time, maxStay int) (daterange.DateRange, error) {
	s, err := daterange.ParseDay(start)
	if err != nil {
		return daterange.DateRange{}, fmt.Errorf("%w: start_date: %v", domainbooking.ErrInvalidDateRange, err)
	}
	e, err := daterange.ParseDay(end)
	if err != nil {
		return daterange.DateRange{}, fmt.Errorf("%w: end_date: %v", domainbooking.ErrInvalidDateRange, err)
	}
	return domainbooking.ValidateDateRange(s, e, now, maxStay)
}

func logDropped(ctx context.Context, logger *slog.Logger, pid domainproperty.PropertyID, q domainpricing.Quote) {
	if len(q.Dropped) == 0 {
		return
	}
	ids := make([]string, 0, len(q.Dropped))
	for _, id := range q.Dropped {
		ids = append(ids, string(id))
	}
	logger.WarnContext(ctx, "malformed pricing rules ignored",
		slog.String("property_id", string(pid)),
		slog.Any("rule_ids", ids),
	)
}

var (
	_ commands.Handler[CreateBookingCommand, CreateBookingResult] = (*CreateBookingHandler)(nil)
	_ middleware.IdempotentCommand                                = CreateBookingCommand{}
	_ middleware.LockedCommand                                    = CreateBookingCommand{}
)
