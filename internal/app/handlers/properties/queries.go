package properties

import (
	"context"
	"sort"

	"stayrate/internal/app/dto"
	"stayrate/internal/app/handlers/support"
	"stayrate/internal/app/queries"
	"stayrate/internal/app/uow"
	domainproperty "stayrate/internal/domain/property"
)

const (
	getPropertyKey    = "property.get"
	listPropertiesKey = "property.list"
)

type GetPropertyQuery struct {
	PropertyID string `validate:"required"`
}

func (GetPropertyQuery) Key() string { return getPropertyKey }

type GetPropertyHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetPropertyHandler) Handle(ctx context.Context, q GetPropertyQuery) (dto.Property, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Property{}, err
	}
	defer support.Release(cleanup)
	p, err := unit.Properties().ByID(ctx, domainproperty.PropertyID(q.PropertyID))
	if err != nil {
		return dto.Property{}, err
	}
	return dto.MapProperty(p), nil
}

type ListPropertiesQuery struct{}

func (ListPropertiesQuery) Key() string { return listPropertiesKey }

type ListPropertiesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListPropertiesHandler) Handle(ctx context.Context, _ ListPropertiesQuery) (dto.PropertyCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PropertyCollection{}, err
	}
	defer support.Release(cleanup)
	items, err := unit.Properties().List(ctx)
	if err != nil {
		return dto.PropertyCollection{}, err
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	out := dto.PropertyCollection{Items: make([]dto.Property, 0, len(items))}
	for _, p := range items {
		out.Items = append(out.Items, dto.MapProperty(p))
	}
	return out, nil
}

var (
	_ queries.Handler[GetPropertyQuery, dto.Property]              = (*GetPropertyHandler)(nil)
	_ queries.Handler[ListPropertiesQuery, dto.PropertyCollection] = (*ListPropertiesHandler)(nil)
)
