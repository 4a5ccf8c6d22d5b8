package gormdb

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainbooking "stayrate/internal/domain/booking"
	domainproperty "stayrate/internal/domain/property"
	domainrules "stayrate/internal/domain/rules"
)

type PropertyRepository struct {
	db *gorm.DB
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.PropertyID) (*domainproperty.Property, error) {
	db, _ := conn(ctx, r.db)
	var m propertyModel
	if err := db.First(&m, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainproperty.ErrPropertyNotFound
		}
		return nil, err
	}
	return m.toEntity()
}

func (r *PropertyRepository) List(ctx context.Context) ([]*domainproperty.Property, error) {
	db, _ := conn(ctx, r.db)
	var rows []propertyModel
	if err := db.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domainproperty.Property, 0, len(rows))
	for _, m := range rows {
		p, err := m.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	db, _ := conn(ctx, r.db)
	m := newPropertyModel(p)
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "base_price", "updated_at"}),
	}).Create(&m).Error
}

func (r *PropertyRepository) Delete(ctx context.Context, id domainproperty.PropertyID) error {
	db, _ := conn(ctx, r.db)
	res := db.Delete(&propertyModel{}, "id = ?", string(id))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainproperty.ErrPropertyNotFound
	}
	return nil
}

type RuleRepository struct {
	db *gorm.DB
}

func (r *RuleRepository) ByID(ctx context.Context, id domainrules.RuleID) (*domainrules.Rule, error) {
	db, _ := conn(ctx, r.db)
	var m ruleModel
	if err := db.First(&m, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainrules.ErrRuleNotFound
		}
		return nil, err
	}
	rule, err := m.toEntity()
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *RuleRepository) ByProperty(ctx context.Context, propertyID domainproperty.PropertyID) ([]domainrules.Rule, error) {
	db, _ := conn(ctx, r.db)
	return r.find(db.Where("property_id = ?", string(propertyID)))
}

func (r *RuleRepository) List(ctx context.Context) ([]domainrules.Rule, error) {
	db, _ := conn(ctx, r.db)
	return r.find(db)
}

func (r *RuleRepository) find(db *gorm.DB) ([]domainrules.Rule, error) {
	var rows []ruleModel
	if err := db.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domainrules.Rule, 0, len(rows))
	for _, m := range rows {
		rule, err := m.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

func (r *RuleRepository) Save(ctx context.Context, rule *domainrules.Rule) error {
	db, _ := conn(ctx, r.db)
	m := newRuleModel(rule)
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error
}

func (r *RuleRepository) Delete(ctx context.Context, id domainrules.RuleID) error {
	db, _ := conn(ctx, r.db)
	res := db.Delete(&ruleModel{}, "id = ?", string(id))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrules.ErrRuleNotFound
	}
	return nil
}

type BookingRepository struct {
	db *gorm.DB
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	db, _ := conn(ctx, r.db)
	var m bookingModel
	if err := db.First(&m, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return m.toAggregate()
}

// ByProperty locks the property row first when called inside a writable
// transaction, so availability checks for one property run one at a time.
func (r *BookingRepository) ByProperty(ctx context.Context, propertyID domainproperty.PropertyID) ([]*domainbooking.Booking, error) {
	db, writable := conn(ctx, r.db)
	if writable {
		var p propertyModel
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&p, "id = ?", string(propertyID)).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domainproperty.ErrPropertyNotFound
			}
			return nil, err
		}
	}
	return r.find(db.Where("property_id = ?", string(propertyID)))
}

func (r *BookingRepository) List(ctx context.Context) ([]*domainbooking.Booking, error) {
	db, _ := conn(ctx, r.db)
	return r.find(db)
}

func (r *BookingRepository) find(db *gorm.DB) ([]*domainbooking.Booking, error) {
	var rows []bookingModel
	if err := db.Order("start_date, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(rows))
	for _, m := range rows {
		b, err := m.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Save inserts new bookings and updates existing ones only when the stored
// version still matches.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	db, _ := conn(ctx, r.db)
	m, err := newBookingModel(b)
	if err != nil {
		return err
	}
	m.Version = b.Version + 1
	if b.Version == 0 {
		if err := db.Create(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domainbooking.ErrConcurrentUpdate
			}
			return err
		}
		bump := db.Model(&propertyModel{}).
			Where("id = ?", m.PropertyID).
			UpdateColumn("booking_seq", gorm.Expr("booking_seq + 1"))
		if bump.Error != nil {
			return bump.Error
		}
		b.Version = m.Version
		return nil
	}
	res := db.Model(&bookingModel{}).
		Where("id = ? AND version = ?", m.ID, b.Version).
		Updates(map[string]any{
			"state":      m.State,
			"breakdown":  m.Breakdown,
			"total":      m.Total,
			"version":    m.Version,
			"updated_at": nonZero(m.UpdatedAt),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = m.Version
	return nil
}

func nonZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

var (
	_ domainproperty.Repository = (*PropertyRepository)(nil)
	_ domainrules.Repository    = (*RuleRepository)(nil)
	_ domainbooking.Repository  = (*BookingRepository)(nil)
)
