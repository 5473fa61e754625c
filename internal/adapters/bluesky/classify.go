package bluesky

import (
	"encoding/json"
	"net/http"
	"strings"
)

// challenge describes a recoverable error response from a DPoP-protected
// endpoint. The caller retries at most once per challenge kind.
type challenge int

const (
	challengeNone challenge = iota
	challengeNonce
	challengeExpiredToken
)

// classifyChallenge inspects a failed response body and headers for the two
// recoverable conditions: a server-issued DPoP nonce, or an expired access
// token. Anything else is terminal for the request.
func classifyChallenge(status int, header http.Header, body []byte) (challenge, string) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return challengeNone, ""
	}

	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized:
	default:
		return challengeNone, ""
	}

	if eb.Error == "use_dpop_nonce" {
		if nonce := header.Get("DPoP-Nonce"); nonce != "" {
			return challengeNonce, nonce
		}
		return challengeNone, ""
	}

	if status == http.StatusBadRequest && eb.Error == "invalid_token" &&
		strings.Contains(strings.ToLower(eb.Message), "exp") {
		return challengeExpiredToken, ""
	}

	return challengeNone, ""
}
