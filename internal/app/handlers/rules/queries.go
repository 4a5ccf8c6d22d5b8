package rules

import (
	"context"
	"sort"

	"stayrate/internal/app/dto"
	"stayrate/internal/app/handlers/support"
	"stayrate/internal/app/queries"
	"stayrate/internal/app/uow"
	domainproperty "stayrate/internal/domain/property"
	domainrules "stayrate/internal/domain/rules"
)

const (
	getRuleKey   = "rule.get"
	listRulesKey = "rule.list"
)

type GetRuleQuery struct {
	RuleID string `validate:"required"`
}

func (GetRuleQuery) Key() string { return getRuleKey }

type GetRuleHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetRuleHandler) Handle(ctx context.Context, q GetRuleQuery) (dto.Rule, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Rule{}, err
	}
	defer support.Release(cleanup)
	r, err := unit.Rules().ByID(ctx, domainrules.RuleID(q.RuleID))
	if err != nil {
		return dto.Rule{}, err
	}
	return dto.MapRule(*r), nil
}

// ListRulesQuery lists every rule, or only those of PropertyID when set.
type ListRulesQuery struct {
	PropertyID string
}

func (ListRulesQuery) Key() string { return listRulesKey }

type ListRulesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListRulesHandler) Handle(ctx context.Context, q ListRulesQuery) (dto.RuleCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.RuleCollection{}, err
	}
	defer support.Release(cleanup)

	var items []domainrules.Rule
	if q.PropertyID != "" {
		items, err = unit.Rules().ByProperty(ctx, domainproperty.PropertyID(q.PropertyID))
	} else {
		items, err = unit.Rules().List(ctx)
	}
	if err != nil {
		return dto.RuleCollection{}, err
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	out := dto.RuleCollection{Items: make([]dto.Rule, 0, len(items))}
	for _, r := range items {
		out.Items = append(out.Items, dto.MapRule(r))
	}
	return out, nil
}

var (
	_ queries.Handler[GetRuleQuery, dto.Rule]             = (*GetRuleHandler)(nil)
	_ queries.Handler[ListRulesQuery, dto.RuleCollection] = (*ListRulesHandler)(nil)
)
