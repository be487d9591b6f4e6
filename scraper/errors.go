package scraper

import (
	"context"
	"errors"

	"github.com/go-rod/rod"
	"github.com/use-agent/variantsync/models"
)

// categorizeError wraps raw rod errors into typed RunErrors so callers and
// the API layer can tell timeouts, shutdown cancellation and missing elements
// from navigation trouble.
func categorizeError(err error, msg string) *models.RunError {
	var notFound *rod.ElementNotFoundError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewRunError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewRunError(models.ErrCodeCanceled, msg, err)
	case errors.As(err, &notFound):
		return models.NewRunError(models.ErrCodeElementNotFound, msg, err)
	default:
		return models.NewRunError(models.ErrCodeNavigation, msg, err)
	}
}
