package bluesky

import (
	"fmt"

	"github.com/skygrow/skygrow/internal/domain"
)

// APIError is the final non-success response of an XRPC call, after any bounded
// nonce/expiry retries have been spent.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("bluesky api error: status=%d error=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("bluesky api error: status=%d", e.StatusCode)
}

// Category maps the response status onto the engine's closed failure set.
func (e *APIError) Category() domain.FailureCategory {
	return domain.CategorizeStatus(e.StatusCode)
}
