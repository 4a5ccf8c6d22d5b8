package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stayrate/internal/app/commands"
	"stayrate/internal/app/uow"
	domainproperty "stayrate/internal/domain/property"
	domainrules "stayrate/internal/domain/rules"
	"stayrate/internal/domain/shared/daterange"
)

const (
	createRuleKey = "rule.create"
	deleteRuleKey = "rule.delete"
)

// CreateRuleCommand attaches a pricing rule to a property. SpecificDay uses
// the YYYY-MM-DD layout.
type CreateRuleCommand struct {
	PropertyID    string   `validate:"required"`
	PriceModifier *float64 `validate:"omitempty"`
	MinStayLength *int     `validate:"omitempty,min=1"`
	FixedPrice    *float64 `validate:"omitempty,gte=0"`
	SpecificDay   *string  `validate:"omitempty,datetime=2006-01-02"`
}

func (CreateRuleCommand) Key() string { return createRuleKey }

type CreateRuleResult struct {
	RuleID string `json:"rule_id"`
}

type CreateRuleHandler struct {
	Now   func() time.Time
	NewID func() string
}

func (h *CreateRuleHandler) Handle(ctx context.Context, cmd CreateRuleCommand) (CreateRuleResult, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return CreateRuleResult{}, err
	}
	pid := domainproperty.PropertyID(cmd.PropertyID)
	if _, err := unit.Properties().ByID(ctx, pid); err != nil {
		return CreateRuleResult{}, err
	}
	params := domainrules.CreateParams{
		ID:            domainrules.RuleID(h.newID()),
		PropertyID:    pid,
		PriceModifier: cmd.PriceModifier,
		MinStayLength: cmd.MinStayLength,
		FixedPrice:    cmd.FixedPrice,
		Now:           h.now(),
	}
	if cmd.SpecificDay != nil {
		day, err := daterange.ParseDay(*cmd.SpecificDay)
		if err != nil {
			return CreateRuleResult{}, fmt.Errorf("%w: specific_day: %v", domainrules.ErrMalformedRule, err)
		}
		params.SpecificDay = &day
	}
	rule, err := domainrules.New(params)
	if err != nil {
		return CreateRuleResult{}, err
	}
	if err := unit.Rules().Save(ctx, rule); err != nil {
		return CreateRuleResult{}, err
	}
	return CreateRuleResult{RuleID: string(rule.ID)}, nil
}

func (h *CreateRuleHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *CreateRuleHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

type DeleteRuleCommand struct {
	RuleID string `validate:"required"`
}

func (DeleteRuleCommand) Key() string { return deleteRuleKey }

type DeleteRuleHandler struct{}

func (h *DeleteRuleHandler) Handle(ctx context.Context, cmd DeleteRuleCommand) (struct{}, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return struct{}{}, err
	}
	id := domainrules.RuleID(cmd.RuleID)
	if _, err := unit.Rules().ByID(ctx, id); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, unit.Rules().Delete(ctx, id)
}

var (
	_ commands.Handler[CreateRuleCommand, CreateRuleResult] = (*CreateRuleHandler)(nil)
	_ commands.Handler[DeleteRuleCommand, struct{}]         = (*DeleteRuleHandler)(nil)
)
