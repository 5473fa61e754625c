package bluesky

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/skygrow/skygrow/internal/domain"
	"github.com/skygrow/skygrow/internal/ports"
)

// TokenClient performs the DPoP-bound refresh-token grant for a confidential
// client. The client secret key signs the assertion JWT; the session's own DPoP
// key signs the proof, so the issued tokens stay bound to the session key.
type TokenClient struct {
	clientID  string
	secretKey *DPoPKey
	client    *http.Client
	logger    *slog.Logger
	nowFn     func() time.Time

	mu        sync.Mutex
	endpoints map[string]string // authserver issuer -> token endpoint
}

// NewTokenClient builds a TokenRefresher. secretJWK is the confidential
// client's private signing key in JWK form, matching the key published in the
// client metadata JWKS.
func NewTokenClient(clientID, secretJWK string, timeout time.Duration, logger *slog.Logger) (*TokenClient, error) {
	key, err := ParseDPoPKey(secretJWK)
	if err != nil {
		return nil, fmt.Errorf("load client secret key: %w", err)
	}
	return &TokenClient{
		clientID:  clientID,
		secretKey: key,
		client:    &http.Client{Timeout: timeout},
		logger:    logger.With(slog.String("module", "bluesky"), slog.String("layer", "adapter")),
		nowFn:     time.Now,
		endpoints: make(map[string]string),
	}, nil
}

// Refresh exchanges the session's refresh token for a new pair. The returned
// string is the final authorization-server DPoP nonce observed during the
// exchange; callers persist it alongside the tokens.
func (c *TokenClient) Refresh(ctx context.Context, sess *domain.OAuthSession) (ports.TokenPair, string, error) {
	endpoint, err := c.tokenEndpoint(ctx, sess.AuthserverIss)
	if err != nil {
		return ports.TokenPair{}, "", err
	}

	sessionKey, err := ParseDPoPKey(sess.DPoPPrivateJWK)
	if err != nil {
		return ports.TokenPair{}, "", err
	}

	nonce := sess.DPoPAuthserverNonce
	retried := false
	for {
		status, header, body, err := c.postGrant(ctx, endpoint, sess, sessionKey, nonce)
		if err != nil {
			return ports.TokenPair{}, "", err
		}

		if status == http.StatusOK {
			var tr tokenResponse
			if err := json.Unmarshal(body, &tr); err != nil {
				return ports.TokenPair{}, "", fmt.Errorf("decode token response: %w", err)
			}
			if tr.AccessToken == "" || tr.RefreshToken == "" {
				return ports.TokenPair{}, "", errors.New("token response missing token pair")
			}
			if n := header.Get("DPoP-Nonce"); n != "" {
				nonce = n
			}
			c.logger.InfoContext(ctx, "token pair refreshed",
				slog.String("operation", "refresh_tokens"),
				slog.String("did", sess.DID),
				slog.String("outcome", "success"))
			return ports.TokenPair{AccessToken: tr.AccessToken, RefreshToken: tr.RefreshToken}, nonce, nil
		}

		if kind, n := classifyChallenge(status, header, body); kind == challengeNonce && !retried {
			retried = true
			nonce = n
			continue
		}

		c.logger.WarnContext(ctx, "token refresh rejected",
			slog.String("operation", "refresh_tokens"),
			slog.String("did", sess.DID),
			slog.Int("status", status),
			slog.String("outcome", "failure"))
		return ports.TokenPair{}, "", apiErrorFrom(status, body)
	}
}

func (c *TokenClient) postGrant(ctx context.Context, endpoint string, sess *domain.OAuthSession, sessionKey *DPoPKey, nonce string) (int, http.Header, []byte, error) {
	now := c.nowFn()

	assertion, err := ClientAssertion(c.clientID, sess.AuthserverIss, c.secretKey, now)
	if err != nil {
		return 0, nil, nil, err
	}
	proof, err := sessionKey.AuthserverProof(http.MethodPost, endpoint, nonce, now)
	if err != nil {
		return 0, nil, nil, err
	}

	form := url.Values{
		"grant_type":            {"refresh_token"},
		"refresh_token":         {sess.RefreshToken},
		"client_id":             {c.clientID},
		"client_assertion_type": {"urn:ietf:params:oauth:client-assertion-type:jwt-bearer"},
		"client_assertion":      {assertion},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("DPoP", proof)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, nil, &APIError{StatusCode: 0, Code: string(domain.CategorizeError(err)), Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read token response: %w", err)
	}
	return resp.StatusCode, resp.Header, body, nil
}

// tokenEndpoint resolves and caches the authserver's token endpoint from its
// published metadata.
func (c *TokenClient) tokenEndpoint(ctx context.Context, issuer string) (string, error) {
	c.mu.Lock()
	cached, ok := c.endpoints[issuer]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	metaURL := strings.TrimRight(issuer, "/") + "/.well-known/oauth-authorization-server"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metaURL, nil)
	if err != nil {
		return "", fmt.Errorf("build metadata request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", &APIError{StatusCode: 0, Code: string(domain.CategorizeError(err)), Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read metadata response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apiErrorFrom(resp.StatusCode, body)
	}

	var meta authserverMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return "", fmt.Errorf("decode authserver metadata: %w", err)
	}
	if meta.TokenEndpoint == "" {
		return "", errors.New("authserver metadata missing token_endpoint")
	}

	c.mu.Lock()
	c.endpoints[issuer] = meta.TokenEndpoint
	c.mu.Unlock()
	return meta.TokenEndpoint, nil
}
