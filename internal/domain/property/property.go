package property

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayrate/internal/domain/shared/money"
)

var (
	ErrPropertyNotFound = errors.New("property: not found")
	ErrNameRequired     = errors.New("property: name is required")
	ErrInvalidBasePrice = errors.New("property: base price cannot be negative")
)

type PropertyID string

// Property is a rentable unit (house, flat, room) with a base nightly price.
type Property struct {
	ID        PropertyID
	Name      string
	BasePrice money.Money
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	ByID(ctx context.Context, id PropertyID) (*Property, error)
	List(ctx context.Context) ([]*Property, error)
	Save(ctx context.Context, p *Property) error
	Delete(ctx context.Context, id PropertyID) error
}

type CreateParams struct {
	ID        PropertyID
	Name      string
	BasePrice float64
	Now       time.Time
}

func New(params CreateParams) (*Property, error) {
	if params.ID == "" {
		return nil, errors.New("property: id is required")
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	price, err := money.New(params.BasePrice)
	if err != nil {
		return nil, ErrInvalidBasePrice
	}
	now := params.Now.UTC()
	return &Property{
		ID:        params.ID,
		Name:      name,
		BasePrice: price,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Update replaces the mutable attributes. An empty name keeps the current one.
func (p *Property) Update(name string, basePrice float64, now time.Time) error {
	price, err := money.New(basePrice)
	if err != nil {
		return ErrInvalidBasePrice
	}
	if name = strings.TrimSpace(name); name != "" {
		p.Name = name
	}
	p.BasePrice = price
	p.UpdatedAt = now.UTC()
	return nil
}
