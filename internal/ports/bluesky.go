package ports

import (
	"context"

	"github.com/skygrow/skygrow/internal/domain"
)

// Profile is the subset of a Bluesky actor profile the engine needs.
type Profile struct {
	DID            string
	Handle         string
	FollowersCount int
}

// FollowerPage is one page of a followers listing; an empty cursor means the
// listing is exhausted.
type FollowerPage struct {
	Followers []Profile
	Cursor    string
}

// Directory resolves actors and lists followers via the public (unauthenticated)
// AppView API.
type Directory interface {
	GetProfile(ctx context.Context, actor string) (Profile, error)
	ListFollowers(ctx context.Context, actorDID, cursor string, limit int) (FollowerPage, error)
}

// FollowRecord is one app.bsky.graph.follow record in the owner's repository.
type FollowRecord struct {
	URI     string
	RKey    string
	Subject string
}

// RepoWriter issues authenticated record operations against the session owner's
// PDS. Implementations handle DPoP proofing and the bounded nonce/expiry retry
// protocol internally; callers only see the final outcome.
type RepoWriter interface {
	CreateFollow(ctx context.Context, sess *domain.OAuthSession, subjectDID string) error
	ListFollows(ctx context.Context, sess *domain.OAuthSession, limit int) ([]FollowRecord, error)
	DeleteFollow(ctx context.Context, sess *domain.OAuthSession, rkey string) error
}

// TokenPair is the result of a refresh-token grant.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenRefresher performs the DPoP-bound refresh-token grant against the
// session's authorization server. It returns the new pair plus the final
// authorization-server nonce, or an error on any transport/protocol failure.
type TokenRefresher interface {
	Refresh(ctx context.Context, sess *domain.OAuthSession) (TokenPair, string, error)
}

// CampaignLockStore is a per-campaign advisory lock preventing the scheduled
// sweep and a manual trigger from processing the same campaign concurrently.
type CampaignLockStore interface {
	Acquire(ctx context.Context, campaignID int64) (bool, error)
	Release(ctx context.Context, campaignID int64) error
}
