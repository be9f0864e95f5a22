package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vidopen/models"
)

// asError normalizes err to a *models.Error, wrapping unknown errors as
// internal.
func asError(err error) *models.Error {
	var typed *models.Error
	if errors.As(err, &typed) {
		return typed
	}
	return models.NewError(models.ErrCodeInternal, err.Error(), err)
}

// respondError writes a failed resolution with the status matching its code.
func respondError(c *gin.Context, err error, resp *models.ResolveResponse) {
	e := asError(err)
	resp.Success = false
	resp.Error = e.ToDetail()
	c.JSON(statusFor(e), resp)
}

// respondSelectorError writes a failed selector operation.
func respondSelectorError(c *gin.Context, err error) {
	e := asError(err)
	c.JSON(statusFor(e), models.SelectorResponse{Error: e.ToDetail()})
}

// statusFor translates error codes to HTTP status codes.
func statusFor(e *models.Error) int {
	switch e.Code {
	case models.ErrCodeElementNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeNoURLAttribute, models.ErrCodeURLResolution:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
