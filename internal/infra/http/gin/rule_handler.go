package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayrate/internal/app/commands"
	"stayrate/internal/app/dto"
	rulesapp "stayrate/internal/app/handlers/rules"
	"stayrate/internal/app/queries"
)

type RuleHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createRuleRequest struct {
	PropertyID    string   `json:"property_id"`
	PriceModifier *float64 `json:"price_modifier"`
	MinStayLength *int     `json:"min_stay_length"`
	FixedPrice    *float64 `json:"fixed_price"`
	SpecificDay   *string  `json:"specific_day"`
}

func (h RuleHandler) Create(c *gin.Context) {
	var req createRuleRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := commands.Dispatch[rulesapp.CreateRuleCommand, rulesapp.CreateRuleResult](c.Request.Context(), h.Commands, rulesapp.CreateRuleCommand{
		PropertyID:    req.PropertyID,
		PriceModifier: req.PriceModifier,
		MinStayLength: req.MinStayLength,
		FixedPrice:    req.FixedPrice,
		SpecificDay:   req.SpecificDay,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h RuleHandler) List(c *gin.Context) {
	res, err := queries.Ask[rulesapp.ListRulesQuery, dto.RuleCollection](c.Request.Context(), h.Queries, rulesapp.ListRulesQuery{PropertyID: c.Query("property_id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h RuleHandler) Get(c *gin.Context) {
	res, err := queries.Ask[rulesapp.GetRuleQuery, dto.Rule](c.Request.Context(), h.Queries, rulesapp.GetRuleQuery{RuleID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h RuleHandler) Delete(c *gin.Context) {
	_, err := commands.Dispatch[rulesapp.DeleteRuleCommand, struct{}](c.Request.Context(), h.Commands, rulesapp.DeleteRuleCommand{RuleID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ RuleHTTP = RuleHandler{}
