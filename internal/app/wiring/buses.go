package wiring

import (
	"log/slog"
	"time"

	"stayrate/internal/app/commands"
	"stayrate/internal/app/dto"
	bookingapp "stayrate/internal/app/handlers/booking"
	propertiesapp "stayrate/internal/app/handlers/properties"
	rulesapp "stayrate/internal/app/handlers/rules"
	"stayrate/internal/app/middleware"
	"stayrate/internal/app/outbox"
	"stayrate/internal/app/policies"
	"stayrate/internal/app/queries"
	"stayrate/internal/app/uow"
	domainpricing "stayrate/internal/domain/pricing"
)

// Deps are the ports every handler set needs. Archive, Validator, Now and
// NewID are optional. MaxStay <= 0 accepts stays of any length.
type Deps struct {
	UoW         uow.UoWFactory
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	Idempotency middleware.IdempotencyStore
	Archive     policies.BreakdownArchive
	Validator   middleware.Validator
	Engine      domainpricing.Engine
	Logger      *slog.Logger
	Now         func() time.Time
	NewID       func() string
	MaxStay     int
}

// commitHookTimeout bounds post-commit work such as the breakdown upload.
const commitHookTimeout = 30 * time.Second

// Buses registers every handler and wraps the buses in the middleware
// pipeline: logging, validation, post-commit hooks, per-property
// serialization, idempotency, transaction, outbox flush.
func Buses(d Deps) (commands.Bus, queries.Bus) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cmdBus := commands.NewInMemoryBus()
	commands.Register[propertiesapp.CreatePropertyCommand, propertiesapp.CreatePropertyResult](cmdBus, &propertiesapp.CreatePropertyHandler{Now: d.Now, NewID: d.NewID})
	commands.Register[propertiesapp.UpdatePropertyCommand, struct{}](cmdBus, &propertiesapp.UpdatePropertyHandler{Now: d.Now})
	commands.Register[propertiesapp.DeletePropertyCommand, struct{}](cmdBus, &propertiesapp.DeletePropertyHandler{})
	commands.Register[rulesapp.CreateRuleCommand, rulesapp.CreateRuleResult](cmdBus, &rulesapp.CreateRuleHandler{Now: d.Now, NewID: d.NewID})
	commands.Register[rulesapp.DeleteRuleCommand, struct{}](cmdBus, &rulesapp.DeleteRuleHandler{})
	commands.Register[bookingapp.CreateBookingCommand, bookingapp.CreateBookingResult](cmdBus, &bookingapp.CreateBookingHandler{
		Engine:  d.Engine,
		Outbox:  d.Outbox,
		Encoder: d.Encoder,
		Archive: d.Archive,
		Logger:  logger,
		Now:     d.Now,
		NewID:   d.NewID,
		MaxStay: d.MaxStay,
	})
	commands.Register[bookingapp.CancelBookingCommand, struct{}](cmdBus, &bookingapp.CancelBookingHandler{
		Outbox:  d.Outbox,
		Encoder: d.Encoder,
		Now:     d.Now,
	})

	qBus := queries.NewInMemoryBus()
	queries.Register[propertiesapp.GetPropertyQuery, dto.Property](qBus, &propertiesapp.GetPropertyHandler{UoWFactory: d.UoW})
	queries.Register[propertiesapp.ListPropertiesQuery, dto.PropertyCollection](qBus, &propertiesapp.ListPropertiesHandler{UoWFactory: d.UoW})
	queries.Register[rulesapp.GetRuleQuery, dto.Rule](qBus, &rulesapp.GetRuleHandler{UoWFactory: d.UoW})
	queries.Register[rulesapp.ListRulesQuery, dto.RuleCollection](qBus, &rulesapp.ListRulesHandler{UoWFactory: d.UoW})
	queries.Register[bookingapp.GetBookingQuery, dto.Booking](qBus, &bookingapp.GetBookingHandler{UoWFactory: d.UoW})
	queries.Register[bookingapp.ListBookingsQuery, dto.BookingCollection](qBus, &bookingapp.ListBookingsHandler{UoWFactory: d.UoW})
	queries.Register[bookingapp.QuoteQuery, dto.Quote](qBus, &bookingapp.QuoteHandler{UoWFactory: d.UoW, Engine: d.Engine, Logger: logger, Now: d.Now, MaxStay: d.MaxStay})

	cmdMW := []middleware.CommandMiddleware{middleware.Logging(logger)}
	qMW := []middleware.QueryMiddleware{middleware.QueryLogging(logger)}
	if d.Validator != nil {
		cmdMW = append(cmdMW, middleware.Validation(d.Validator))
		qMW = append(qMW, middleware.QueryValidation(d.Validator))
	}
	cmdMW = append(cmdMW,
		middleware.CommitHooks(commitHookTimeout),
		middleware.Serialize(middleware.NewKeyedMutex()),
	)
	if d.Idempotency != nil {
		cmdMW = append(cmdMW, middleware.Idempotency(d.Idempotency, nil))
	}
	cmdMW = append(cmdMW, middleware.Transaction(d.UoW, nil))
	if d.Outbox != nil {
		cmdMW = append(cmdMW, middleware.OutboxFlush(d.Outbox))
	}
	return middleware.ChainCommands(cmdBus, cmdMW...), middleware.ChainQueries(qBus, qMW...)
}

