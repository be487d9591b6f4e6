package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/variantsync/models"
)

// statusForCode maps error codes to HTTP status codes.
var statusForCode = map[string]int{
	models.ErrCodeInvalidInput:    http.StatusBadRequest,
	models.ErrCodeUnauthorized:    http.StatusUnauthorized,
	models.ErrCodeNotFound:        http.StatusNotFound,
	models.ErrCodeRunInProgress:   http.StatusConflict,
	models.ErrCodeRateLimited:     http.StatusTooManyRequests,
	models.ErrCodeTimeout:         http.StatusGatewayTimeout,
	models.ErrCodeCanceled:        http.StatusServiceUnavailable,
	models.ErrCodeNavigation:      http.StatusBadGateway,
	models.ErrCodeElementNotFound: http.StatusBadGateway,
	models.ErrCodeBrowserCrash:    http.StatusServiceUnavailable,
}

// respondError writes err as an ErrorResponse. Untyped errors become 500s.
func respondError(c *gin.Context, err error) {
	var runErr *models.RunError
	if !errors.As(err, &runErr) {
		runErr = models.NewRunError(models.ErrCodeInternal, "internal error", err)
	}
	status, ok := statusForCode[runErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	c.JSON(status, models.ErrorResponse{Error: runErr.ToDetail()})
}

func badRequest(c *gin.Context, msg string) {
	respondError(c, models.NewRunError(models.ErrCodeInvalidInput, msg, nil))
}
