package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"stayrate/internal/app/uow"
	domainproperty "stayrate/internal/domain/property"
	domainrules "stayrate/internal/domain/rules"
	"stayrate/internal/domain/shared/daterange"
)

type propertyFixture struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	BasePrice float64       `json:"base_price"`
	Rules     []ruleFixture `json:"rules"`
}

type ruleFixture struct {
	ID            string   `json:"id"`
	PriceModifier *float64 `json:"price_modifier"`
	MinStayLength *int     `json:"min_stay_length"`
	FixedPrice    *float64 `json:"fixed_price"`
	SpecificDay   *string  `json:"specific_day"`
}

// loadPropertyFixtures seeds properties and their rules from a JSON file.
// A missing file is not an error. Invalid entries are logged and skipped.
func loadPropertyFixtures(ctx context.Context, factory uow.UoWFactory, path string, logger *slog.Logger) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("property fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []propertyFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	now := time.Now().UTC()
	for _, fx := range fixtures {
		if err := importFixture(ctx, factory, fx, now); err != nil {
			logger.Error("fixture skipped", "property_id", fx.ID, "error", err)
			continue
		}
		logger.Info("property fixture imported", "property_id", fx.ID, "rules", len(fx.Rules))
	}
	return nil
}

func importFixture(ctx context.Context, factory uow.UoWFactory, fx propertyFixture, now time.Time) (err error) {
	prop, err := domainproperty.New(domainproperty.CreateParams{
		ID:        domainproperty.PropertyID(fx.ID),
		Name:      fx.Name,
		BasePrice: fx.BasePrice,
		Now:       now,
	})
	if err != nil {
		return err
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		ctx = injector.InjectContext(ctx)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, unit.Rollback(ctx))
		}
	}()
	if err = unit.Properties().Save(ctx, prop); err != nil {
		return err
	}
	for _, rf := range fx.Rules {
		var day *time.Time
		if rf.SpecificDay != nil {
			d, perr := daterange.ParseDay(*rf.SpecificDay)
			if perr != nil {
				return fmt.Errorf("rule %s: %w", rf.ID, perr)
			}
			day = &d
		}
		rule, rerr := domainrules.New(domainrules.CreateParams{
			ID:            domainrules.RuleID(rf.ID),
			PropertyID:    prop.ID,
			PriceModifier: rf.PriceModifier,
			MinStayLength: rf.MinStayLength,
			FixedPrice:    rf.FixedPrice,
			SpecificDay:   day,
			Now:           now,
		})
		if rerr != nil {
			return fmt.Errorf("rule %s: %w", rf.ID, rerr)
		}
		if err = unit.Rules().Save(ctx, rule); err != nil {
			return err
		}
	}
	return unit.Commit(ctx)
}
