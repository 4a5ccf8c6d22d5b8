package booking

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"stayrate/internal/app/dto"
	"stayrate/internal/app/handlers/support"
	"stayrate/internal/app/queries"
	"stayrate/internal/app/uow"
	domainbooking "stayrate/internal/domain/booking"
	domainpricing "stayrate/internal/domain/pricing"
	domainproperty "stayrate/internal/domain/property"
)

const (
	getBookingKey   = "booking.get"
	listBookingsKey = "booking.list"
	quoteKey        = "booking.quote"
)

type GetBookingQuery struct {
	BookingID string `validate:"required"`
}

func (GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.Booking, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	defer support.Release(cleanup)
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.Booking{}, err
	}
	return dto.MapBooking(b), nil
}

type ListBookingsQuery struct {
	PropertyID string
}

func (ListBookingsQuery) Key() string { return listBookingsKey }

type ListBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListBookingsHandler) Handle(ctx context.Context, q ListBookingsQuery) (dto.BookingCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	defer support.Release(cleanup)

	var items []*domainbooking.Booking
	if q.PropertyID != "" {
		items, err = unit.Bookings().ByProperty(ctx, domainproperty.PropertyID(q.PropertyID))
	} else {
		items, err = unit.Bookings().List(ctx)
	}
	if err != nil {
		return dto.BookingCollection{}, err
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Range.Start.Equal(items[j].Range.Start) {
			return items[i].ID < items[j].ID
		}
		return items[i].Range.Start.Before(items[j].Range.Start)
	})
	out := dto.BookingCollection{Items: make([]dto.Booking, 0, len(items))}
	for _, b := range items {
		out.Items = append(out.Items, dto.MapBooking(b))
	}
	return out, nil
}

// QuoteQuery prices a stay without booking it.
type QuoteQuery struct {
	PropertyID string `validate:"required"`
	StartDate  string `validate:"required,datetime=2006-01-02"`
	EndDate    string `validate:"required,datetime=2006-01-02"`
}

func (QuoteQuery) Key() string { return quoteKey }

type QuoteHandler struct {
	UoWFactory uow.UoWFactory
	Engine     domainpricing.Engine
	Logger     *slog.Logger
	Now        func() time.Time
	MaxStay    int
}

func (h *QuoteHandler) Handle(ctx context.Context, q QuoteQuery) (dto.Quote, error) {
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now()
	}
	dr, err := parseStay(q.StartDate, q.EndDate, now, h.MaxStay)
	if err != nil {
		return dto.Quote{}, err
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	defer support.Release(cleanup)

	pid := domainproperty.PropertyID(q.PropertyID)
	prop, err := unit.Properties().ByID(ctx, pid)
	if err != nil {
		return dto.Quote{}, err
	}
	existing, err := unit.Bookings().ByProperty(ctx, pid)
	if err != nil {
		return dto.Quote{}, err
	}
	candidates, err := unit.Rules().ByProperty(ctx, pid)
	if err != nil {
		return dto.Quote{}, err
	}
	quote, err := h.Engine.Quote(dr, prop.BasePrice, candidates)
	if err != nil {
		return dto.Quote{}, err
	}
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logDropped(ctx, logger, pid, quote)
	return dto.MapQuote(string(pid), dr, quote, domainbooking.IsAvailable(pid, dr, existing)), nil
}

var (
	_ queries.Handler[GetBookingQuery, dto.Booking]             = (*GetBookingHandler)(nil)
	_ queries.Handler[ListBookingsQuery, dto.BookingCollection] = (*ListBookingsHandler)(nil)
	_ queries.Handler[QuoteQuery, dto.Quote]                    = (*QuoteHandler)(nil)
)
