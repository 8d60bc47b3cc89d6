package api

import (
	"context"
	"errors"
	"net/http"

	"menushock/internal/catalog"
	"menushock/internal/models"

	"github.com/gin-gonic/gin"
)

var errParserDisabled = errors.New("free-text parsing is disabled")

// errorResponse maps a domain error to a status code and body
func errorResponse(err error) (int, gin.H) {
	var malformed *models.MalformedEventError
	var unknown *models.UnknownIngredientError
	var invalid *catalog.ValidationError
	switch {
	case errors.As(err, &malformed):
		return http.StatusBadRequest, gin.H{"error": malformed.Error(), "field": malformed.Field}
	case errors.As(err, &unknown):
		return http.StatusUnprocessableEntity, gin.H{"error": "ingredient not recognized", "ingredient_id": unknown.ID}
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity, gin.H{"error": "catalog validation failed", "violations": invalid.Violations}
	case errors.Is(err, catalog.ErrNotLoaded), errors.Is(err, errParserDisabled):
		return http.StatusServiceUnavailable, gin.H{"error": err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, gin.H{"error": "request timed out"}
	}
	return http.StatusInternalServerError, gin.H{"error": "internal error"}
}

func (a *API) fail(c *gin.Context, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
