package bluesky

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/skygrow/skygrow/internal/domain"
	"github.com/skygrow/skygrow/internal/ports"
)

const (
	// DefaultAppViewURL is the unauthenticated Bluesky AppView.
	DefaultAppViewURL = "https://public.api.bsky.app"

	followersPageSize = 100
)

// PublicClient reads public actor data from the Bluesky AppView. No
// authentication is required for these endpoints.
type PublicClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewPublicClient builds a Directory backed by the given AppView base URL.
func NewPublicClient(baseURL string, timeout time.Duration, logger *slog.Logger) *PublicClient {
	if baseURL == "" {
		baseURL = DefaultAppViewURL
	}
	return &PublicClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(slog.String("module", "bluesky"), slog.String("layer", "adapter")),
	}
}

// GetProfile resolves a handle or DID to its public profile.
func (c *PublicClient) GetProfile(ctx context.Context, actor string) (ports.Profile, error) {
	endpoint := fmt.Sprintf("%s/xrpc/app.bsky.actor.getProfile?actor=%s", c.baseURL, url.QueryEscape(actor))

	var resp profileResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		c.logger.WarnContext(ctx, "profile lookup failed",
			slog.String("operation", "get_profile"),
			slog.String("actor", actor),
			slog.String("outcome", "failure"),
			slog.Any("error", err))
		return ports.Profile{}, err
	}
	return ports.Profile{
		DID:            resp.DID,
		Handle:         resp.Handle,
		FollowersCount: resp.FollowersCount,
	}, nil
}

// ListFollowers fetches one page of an actor's followers.
func (c *PublicClient) ListFollowers(ctx context.Context, actor, cursor string, limit int) (ports.FollowerPage, error) {
	if limit <= 0 || limit > followersPageSize {
		limit = followersPageSize
	}
	endpoint := fmt.Sprintf("%s/xrpc/app.bsky.graph.getFollowers?actor=%s&limit=%d",
		c.baseURL, url.QueryEscape(actor), limit)
	if cursor != "" {
		endpoint += "&cursor=" + url.QueryEscape(cursor)
	}

	var resp followersResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return ports.FollowerPage{}, err
	}

	page := ports.FollowerPage{Cursor: resp.Cursor}
	for _, f := range resp.Followers {
		page.Followers = append(page.Followers, ports.Profile{
			DID:    f.DID,
			Handle: f.Handle,
		})
	}
	return page, nil
}

func (c *PublicClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &APIError{StatusCode: 0, Code: string(domain.CategorizeError(err)), Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return apiErrorFrom(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiErrorFrom builds an APIError from a non-success XRPC response body.
func apiErrorFrom(status int, body []byte) *APIError {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	msg := eb.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Code: eb.Error, Message: msg}
}
