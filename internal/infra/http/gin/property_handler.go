package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayrate/internal/app/commands"
	"stayrate/internal/app/dto"
	bookingapp "stayrate/internal/app/handlers/booking"
	propertiesapp "stayrate/internal/app/handlers/properties"
	"stayrate/internal/app/queries"
)

type PropertyHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type propertyRequest struct {
	Name      string   `json:"name"`
	BasePrice *float64 `json:"base_price"`
}

type quoteRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (h PropertyHandler) Create(c *gin.Context) {
	var req propertyRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.BasePrice == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "base_price is required"})
		return
	}
	res, err := commands.Dispatch[propertiesapp.CreatePropertyCommand, propertiesapp.CreatePropertyResult](c.Request.Context(), h.Commands, propertiesapp.CreatePropertyCommand{
		Name:            req.Name,
		BasePrice:       *req.BasePrice,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h PropertyHandler) List(c *gin.Context) {
	res, err := queries.Ask[propertiesapp.ListPropertiesQuery, dto.PropertyCollection](c.Request.Context(), h.Queries, propertiesapp.ListPropertiesQuery{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h PropertyHandler) Get(c *gin.Context) {
	res, err := queries.Ask[propertiesapp.GetPropertyQuery, dto.Property](c.Request.Context(), h.Queries, propertiesapp.GetPropertyQuery{PropertyID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h PropertyHandler) Update(c *gin.Context) {
	var req propertyRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.BasePrice == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "base_price is required"})
		return
	}
	_, err := commands.Dispatch[propertiesapp.UpdatePropertyCommand, struct{}](c.Request.Context(), h.Commands, propertiesapp.UpdatePropertyCommand{
		PropertyID: c.Param("id"),
		Name:       req.Name,
		BasePrice:  *req.BasePrice,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.Get(c)
}

func (h PropertyHandler) Delete(c *gin.Context) {
	_, err := commands.Dispatch[propertiesapp.DeletePropertyCommand, struct{}](c.Request.Context(), h.Commands, propertiesapp.DeletePropertyCommand{PropertyID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Quote prices a stay without booking it.
func (h PropertyHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := queries.Ask[bookingapp.QuoteQuery, dto.Quote](c.Request.Context(), h.Queries, bookingapp.QuoteQuery{
		PropertyID: c.Param("id"),
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

var _ PropertyHTTP = PropertyHandler{}
