package memory

import (
	"context"
	"errors"

	"stayrate/internal/app/uow"
	domainbooking "stayrate/internal/domain/booking"
	domainproperty "stayrate/internal/domain/property"
	domainrules "stayrate/internal/domain/rules"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	PropertyRepo domainproperty.Repository
	RuleRepo     domainrules.Repository
	BookingRepo  domainbooking.Repository
}

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// NewFactory builds a factory over fresh, empty repositories.
func NewFactory() Factory {
	return Factory{
		PropertyRepo: NewPropertyRepository(),
		RuleRepo:     NewRuleRepository(),
		BookingRepo:  NewBookingRepository(),
	}
}

// Begin starts a lightweight boundary. Writes are applied immediately; there
// is no isolation beyond what the command pipeline's keyed lock provides.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.PropertyRepo == nil || f.RuleRepo == nil || f.BookingRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{factory: f}, nil
}

type Unit struct {
	factory Factory
}

func (u *Unit) Properties() domainproperty.Repository { return u.factory.PropertyRepo }
func (u *Unit) Rules() domainrules.Repository         { return u.factory.RuleRepo }
func (u *Unit) Bookings() domainbooking.Repository    { return u.factory.BookingRepo }

func (u *Unit) Commit(ctx context.Context) error   { return nil }
func (u *Unit) Rollback(ctx context.Context) error { return nil }

var _ uow.UoWFactory = Factory{}
