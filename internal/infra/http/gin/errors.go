package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	domainbooking "stayrate/internal/domain/booking"
	domainproperty "stayrate/internal/domain/property"
	domainrules "stayrate/internal/domain/rules"
	"stayrate/internal/domain/shared/daterange"
	"stayrate/internal/infra/validation"
)

var (
	badRequest = []error{
		validation.ErrInvalidInput,
		domainbooking.ErrInvalidDateRange,
		domainrules.ErrMalformedRule,
		domainproperty.ErrNameRequired,
		domainproperty.ErrInvalidBasePrice,
		daterange.ErrInvalidRange,
		daterange.ErrZeroDate,
	}
	notFound = []error{
		domainproperty.ErrPropertyNotFound,
		domainrules.ErrRuleNotFound,
		domainbooking.ErrBookingNotFound,
	}
	conflict = []error{
		domainbooking.ErrPropertyUnavailable,
		domainbooking.ErrInvalidState,
		domainbooking.ErrConcurrentUpdate,
	}
)

func statusFor(err error) int {
	switch {
	case matchesAny(err, badRequest):
		return http.StatusBadRequest
	case matchesAny(err, notFound):
		return http.StatusNotFound
	case matchesAny(err, conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError writes {"error": ...}. Unexpected errors are logged and hidden.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		if logger == nil {
			logger = slog.Default()
		}
		logger.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}
