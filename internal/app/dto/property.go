package dto

import (
	"time"

	domainproperty "stayrate/internal/domain/property"
)

type Property struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BasePrice float64   `json:"base_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PropertyCollection struct {
	Items []Property `json:"items"`
}

func MapProperty(p *domainproperty.Property) Property {
	return Property{
		ID:        string(p.ID),
		Name:      p.Name,
		BasePrice: p.BasePrice.Float64(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
