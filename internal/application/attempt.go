package application

import (
	"errors"

	"github.com/skygrow/skygrow/internal/domain"
)

// attemptFromError classifies an attempt failure. Adapter errors that carry
// their own category win; transport errors are classified centrally; anything
// else gets the caller's fallback.
func attemptFromError(err error, fallback domain.FailureCategory) domain.AttemptResult {
	var carrier domain.CategoryCarrier
	if errors.As(err, &carrier) {
		return domain.AttemptFailed(carrier.Category(), err.Error())
	}
	if errors.Is(err, domain.ErrTokenRefreshFailed) {
		return domain.AttemptFailed(domain.FailureAuth, err.Error())
	}
	if category := domain.CategorizeError(err); category != domain.FailureAPIError {
		return domain.AttemptFailed(category, err.Error())
	}
	return domain.AttemptFailed(fallback, err.Error())
}
