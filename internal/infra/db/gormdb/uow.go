package gormdb

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"stayrate/internal/app/uow"
	domainbooking "stayrate/internal/domain/booking"
	domainproperty "stayrate/internal/domain/property"
	domainrules "stayrate/internal/domain/rules"
)

var ErrUnitOfWorkNotConfigured = errors.New("gormdb: unit of work factory missing database")

type txKey struct{}

type txState struct {
	tx       *gorm.DB
	readOnly bool
}

// conn returns the transaction carried by ctx, or db bound to ctx.
func conn(ctx context.Context, db *gorm.DB) (*gorm.DB, bool) {
	if st, ok := ctx.Value(txKey{}).(*txState); ok && st.tx != nil {
		return st.tx.WithContext(ctx), !st.readOnly
	}
	return db.WithContext(ctx), false
}

type Factory struct {
	DB *gorm.DB

	PropertyRepo *PropertyRepository
	RuleRepo     *RuleRepository
	BookingRepo  *BookingRepository
}

func NewFactory(db *gorm.DB) Factory {
	return Factory{
		DB:           db,
		PropertyRepo: &PropertyRepository{db: db},
		RuleRepo:     &RuleRepository{db: db},
		BookingRepo:  &BookingRepository{db: db},
	}
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	tx := f.DB.WithContext(ctx).Begin(&sql.TxOptions{ReadOnly: opts.ReadOnly})
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &Unit{state: &txState{tx: tx, readOnly: opts.ReadOnly}, factory: f}, nil
}

type Unit struct {
	state   *txState
	factory Factory
	done    bool
}

func (u *Unit) Properties() domainproperty.Repository { return u.factory.PropertyRepo }
func (u *Unit) Rules() domainrules.Repository         { return u.factory.RuleRepo }
func (u *Unit) Bookings() domainbooking.Repository    { return u.factory.BookingRepo }

func (u *Unit) Commit(context.Context) error {
	u.done = true
	return u.state.tx.Commit().Error
}

func (u *Unit) Rollback(context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	return u.state.tx.Rollback().Error
}

// InjectContext makes the transaction visible to repositories through ctx.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey{}, u.state)
}

var _ uow.UoWFactory = Factory{}
