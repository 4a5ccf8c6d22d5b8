package properties

import (
	"context"
	"time"

	"github.com/google/uuid"

	"stayrate/internal/app/commands"
	"stayrate/internal/app/middleware"
	"stayrate/internal/app/uow"
	domainproperty "stayrate/internal/domain/property"
)

const (
	createPropertyKey = "property.create"
	updatePropertyKey = "property.update"
	deletePropertyKey = "property.delete"
)

type CreatePropertyCommand struct {
	Name            string  `validate:"required,max=200"`
	BasePrice       float64 `validate:"gte=0"`
	IdempotencyKeyV string
}

func (CreatePropertyCommand) Key() string              { return createPropertyKey }
func (c CreatePropertyCommand) IdempotencyKey() string { return c.IdempotencyKeyV }
func (CreatePropertyCommand) ResultPrototype() any     { return &CreatePropertyResult{} }

type CreatePropertyResult struct {
	PropertyID string `json:"property_id"`
}

type CreatePropertyHandler struct {
	Now   func() time.Time
	NewID func() string
}

func (h *CreatePropertyHandler) Handle(ctx context.Context, cmd CreatePropertyCommand) (CreatePropertyResult, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return CreatePropertyResult{}, err
	}
	p, err := domainproperty.New(domainproperty.CreateParams{
		ID:        domainproperty.PropertyID(h.newID()),
		Name:      cmd.Name,
		BasePrice: cmd.BasePrice,
		Now:       h.now(),
	})
	if err != nil {
		return CreatePropertyResult{}, err
	}
	if err := unit.Properties().Save(ctx, p); err != nil {
		return CreatePropertyResult{}, err
	}
	return CreatePropertyResult{PropertyID: string(p.ID)}, nil
}

func (h *CreatePropertyHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *CreatePropertyHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

type UpdatePropertyCommand struct {
	PropertyID string  `validate:"required"`
	Name       string  `validate:"max=200"`
	BasePrice  float64 `validate:"gte=0"`
}

func (UpdatePropertyCommand) Key() string { return updatePropertyKey }

type UpdatePropertyHandler struct {
	Now func() time.Time
}

func (h *UpdatePropertyHandler) Handle(ctx context.Context, cmd UpdatePropertyCommand) (struct{}, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return struct{}{}, err
	}
	p, err := unit.Properties().ByID(ctx, domainproperty.PropertyID(cmd.PropertyID))
	if err != nil {
		return struct{}{}, err
	}
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now()
	}
	if err := p.Update(cmd.Name, cmd.BasePrice, now); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, unit.Properties().Save(ctx, p)
}

// DeletePropertyCommand removes a property together with its rules.
// Bookings are kept as history.
type DeletePropertyCommand struct {
	PropertyID string `validate:"required"`
}

func (DeletePropertyCommand) Key() string { return deletePropertyKey }

type DeletePropertyHandler struct{}

func (h *DeletePropertyHandler) Handle(ctx context.Context, cmd DeletePropertyCommand) (struct{}, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return struct{}{}, err
	}
	id := domainproperty.PropertyID(cmd.PropertyID)
	if _, err := unit.Properties().ByID(ctx, id); err != nil {
		return struct{}{}, err
	}
	attached, err := unit.Rules().ByProperty(ctx, id)
	if err != nil {
		return struct{}{}, err
	}
	for _, r := range attached {
		if err := unit.Rules().Delete(ctx, r.ID); err != nil {
			return struct{}{}, err
		}
	}
	return struct{}{}, unit.Properties().Delete(ctx, id)
}

var (
	_ commands.Handler[CreatePropertyCommand, CreatePropertyResult] = (*CreatePropertyHandler)(nil)
	_ commands.Handler[UpdatePropertyCommand, struct{}]             = (*UpdatePropertyHandler)(nil)
	_ commands.Handler[DeletePropertyCommand, struct{}]             = (*DeletePropertyHandler)(nil)
	_ middleware.IdempotentCommand                                  = CreatePropertyCommand{}
)
