package domain

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// FailureCategory is the closed set of attempt-failure labels used for attempt
// bookkeeping and metrics. The engine pattern-matches on these instead of
// inspecting raw error bodies.
type FailureCategory string

const (
	FailureBadRequest   FailureCategory = "bad_request"
	FailureUnauthorized FailureCategory = "unauthorized"
	FailureForbidden    FailureCategory = "forbidden"
	FailureNotFound     FailureCategory = "not_found"
	FailureRateLimited  FailureCategory = "rate_limited"
	FailureServerError  FailureCategory = "server_error"
	FailureAPIError     FailureCategory = "api_error"
	FailureTimeout      FailureCategory = "timeout"
	FailureNetwork      FailureCategory = "network_error"
	FailureParse        FailureCategory = "parse_error"
	FailureAuth         FailureCategory = "auth_error"
	FailureProfile      FailureCategory = "profile_error"
)

// AttemptResult is the explicit outcome of one follow or unfollow attempt.
// Success carries no category; failure always carries exactly one.
type AttemptResult struct {
	OK       bool
	Category FailureCategory
	Reason   string
}

func AttemptOK() AttemptResult {
	return AttemptResult{OK: true}
}

func AttemptFailed(category FailureCategory, reason string) AttemptResult {
	return AttemptResult{Category: category, Reason: reason}
}

// CategoryCarrier is implemented by adapter errors that already know their
// failure category, sparing callers a second classification pass.
type CategoryCarrier interface {
	Category() FailureCategory
}

// CategorizeStatus maps a non-success HTTP status to a failure category.
func CategorizeStatus(statusCode int) FailureCategory {
	switch {
	case statusCode == http.StatusBadRequest:
		return FailureBadRequest
	case statusCode == http.StatusUnauthorized:
		return FailureUnauthorized
	case statusCode == http.StatusForbidden:
		return FailureForbidden
	case statusCode == http.StatusNotFound:
		return FailureNotFound
	case statusCode == http.StatusTooManyRequests:
		return FailureRateLimited
	case statusCode >= 500:
		return FailureServerError
	default:
		return FailureAPIError
	}
}

// CategorizeError maps transport-level failures to a category. String matching
// on provider error text is confined to this one function.
func CategorizeError(err error) FailureCategory {
	if err == nil {
		return FailureAPIError
	}
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return FailureTimeout
	case errors.As(err, &netErr):
		return FailureNetwork
	case errors.Is(err, ErrTokenRefreshFailed):
		return FailureAuth
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return FailureTimeout
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network"):
		return FailureNetwork
	case strings.Contains(msg, "json") || strings.Contains(msg, "decode") || strings.Contains(msg, "unmarshal"):
		return FailureParse
	case strings.Contains(msg, "auth") || strings.Contains(msg, "token"):
		return FailureAuth
	default:
		return FailureAPIError
	}
}
