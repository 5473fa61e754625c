package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/skygrow/skygrow/internal/domain"
	"github.com/skygrow/skygrow/internal/ports"
)

const listRecordsPageSize = 100

// PDSClient issues authenticated repository operations against the session
// owner's PDS. Each call signs a fresh DPoP proof; server nonce rotations and
// an expired access token are each recovered at most once per call, with the
// new nonce or token pair persisted before the retry is attempted.
type PDSClient struct {
	client    *http.Client
	sessions  ports.OAuthSessionRepository
	refresher ports.TokenRefresher
	logger    *slog.Logger
	nowFn     func() time.Time
}

// NewPDSClient builds a RepoWriter over the given session store and refresher.
func NewPDSClient(timeout time.Duration, sessions ports.OAuthSessionRepository, refresher ports.TokenRefresher, logger *slog.Logger) *PDSClient {
	return &PDSClient{
		client:    &http.Client{Timeout: timeout},
		sessions:  sessions,
		refresher: refresher,
		logger:    logger.With(slog.String("module", "bluesky"), slog.String("layer", "adapter")),
		nowFn:     time.Now,
	}
}

// CreateFollow writes an app.bsky.graph.follow record for the subject DID.
func (c *PDSClient) CreateFollow(ctx context.Context, sess *domain.OAuthSession, subjectDID string) error {
	payload := createRecordRequest{
		Repo:       sess.DID,
		Collection: followCollection,
		Record: followRecord{
			Type:      followCollection,
			Subject:   subjectDID,
			CreatedAt: c.nowFn().UTC().Format(time.RFC3339),
		},
	}
	_, err := c.call(ctx, sess, http.MethodPost, "/xrpc/com.atproto.repo.createRecord", payload)
	if err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "follow record created",
		slog.String("operation", "create_follow"),
		slog.String("subject", subjectDID),
		slog.String("outcome", "success"))
	return nil
}

// ListFollows pages through the owner's follow records, newest first, up to limit.
func (c *PDSClient) ListFollows(ctx context.Context, sess *domain.OAuthSession, limit int) ([]ports.FollowRecord, error) {
	var out []ports.FollowRecord
	cursor := ""
	for limit <= 0 || len(out) < limit {
		pageSize := listRecordsPageSize
		if limit > 0 && limit-len(out) < pageSize {
			pageSize = limit - len(out)
		}
		path := fmt.Sprintf("/xrpc/com.atproto.repo.listRecords?repo=%s&collection=%s&limit=%d",
			url.QueryEscape(sess.DID), followCollection, pageSize)
		if cursor != "" {
			path += "&cursor=" + url.QueryEscape(cursor)
		}

		body, err := c.call(ctx, sess, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		var resp listRecordsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode listRecords response: %w", err)
		}
		for _, rec := range resp.Records {
			out = append(out, ports.FollowRecord{
				URI:     rec.URI,
				RKey:    rkeyFromURI(rec.URI),
				Subject: rec.Value.Subject,
			})
		}
		if resp.Cursor == "" || len(resp.Records) == 0 {
			break
		}
		cursor = resp.Cursor
	}
	return out, nil
}

// DeleteFollow removes the follow record with the given rkey.
func (c *PDSClient) DeleteFollow(ctx context.Context, sess *domain.OAuthSession, rkey string) error {
	payload := deleteRecordRequest{
		Repo:       sess.DID,
		Collection: followCollection,
		RKey:       rkey,
	}
	if _, err := c.call(ctx, sess, http.MethodPost, "/xrpc/com.atproto.repo.deleteRecord", payload); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "follow record deleted",
		slog.String("operation", "delete_follow"),
		slog.String("rkey", rkey),
		slog.String("outcome", "success"))
	return nil
}

// call runs one authenticated XRPC request with the bounded retry protocol.
// The nonce retry and the expiry retry are independent: a call may consume one
// of each, never two of the same kind.
func (c *PDSClient) call(ctx context.Context, sess *domain.OAuthSession, method, path string, payload any) ([]byte, error) {
	nonceRetried := false
	expiryRetried := false

	for {
		status, header, body, err := c.do(ctx, sess, method, path, payload)
		if err != nil {
			return nil, err
		}
		if status == http.StatusOK || status == http.StatusCreated {
			return body, nil
		}

		kind, nonce := classifyChallenge(status, header, body)
		switch {
		case kind == challengeNonce && !nonceRetried:
			nonceRetried = true
			if err := c.adoptNonce(ctx, sess, nonce); err != nil {
				return nil, err
			}
			c.logger.DebugContext(ctx, "dpop nonce rotated, retrying",
				slog.String("operation", "pds_call"),
				slog.String("path", path))
			continue
		case kind == challengeExpiredToken && !expiryRetried:
			expiryRetried = true
			if err := c.refreshSession(ctx, sess); err != nil {
				return nil, err
			}
			c.logger.InfoContext(ctx, "access token refreshed, retrying",
				slog.String("operation", "pds_call"),
				slog.String("did", sess.DID))
			continue
		}
		return nil, apiErrorFrom(status, body)
	}
}

func (c *PDSClient) do(ctx context.Context, sess *domain.OAuthSession, method, path string, payload any) (int, http.Header, []byte, error) {
	endpoint := strings.TrimRight(sess.PDSURL, "/") + path

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("build request: %w", err)
	}

	key, err := ParseDPoPKey(sess.DPoPPrivateJWK)
	if err != nil {
		return 0, nil, nil, err
	}
	// The proof binds the URL without its query string.
	proofURL := endpoint
	if i := strings.IndexByte(proofURL, '?'); i >= 0 {
		proofURL = proofURL[:i]
	}
	proof, err := key.ResourceProof(method, proofURL, sess.AccessToken, sess.DPoPPDSNonce, c.nowFn())
	if err != nil {
		return 0, nil, nil, err
	}

	req.Header.Set("Authorization", "DPoP "+sess.AccessToken)
	req.Header.Set("DPoP", proof)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, nil, &APIError{StatusCode: 0, Code: string(domain.CategorizeError(err)), Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, resp.Header, body, nil
}

// adoptNonce persists the rotated PDS nonce before the retry so a crash between
// the two requests cannot strand a stale nonce in storage.
func (c *PDSClient) adoptNonce(ctx context.Context, sess *domain.OAuthSession, nonce string) error {
	if err := c.sessions.UpdatePDSNonce(ctx, sess.DID, nonce); err != nil {
		return fmt.Errorf("persist pds nonce: %w", err)
	}
	sess.DPoPPDSNonce = nonce
	return nil
}

// refreshSession rotates the token pair and commits it before retrying. Refresh
// tokens are single-use: the write must land before the new pair is exercised.
func (c *PDSClient) refreshSession(ctx context.Context, sess *domain.OAuthSession) error {
	pair, authserverNonce, err := c.refresher.Refresh(ctx, sess)
	if err != nil {
		return errors.Join(domain.ErrTokenRefreshFailed, err)
	}
	if err := c.sessions.UpdateTokens(ctx, sess.DID, pair.AccessToken, pair.RefreshToken, authserverNonce, c.nowFn().UTC()); err != nil {
		return fmt.Errorf("persist refreshed tokens: %w", err)
	}
	sess.AccessToken = pair.AccessToken
	sess.RefreshToken = pair.RefreshToken
	sess.DPoPAuthserverNonce = authserverNonce
	return nil
}

// rkeyFromURI extracts the record key from an at:// record URI.
func rkeyFromURI(uri string) string {
	if i := strings.LastIndexByte(uri, '/'); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
