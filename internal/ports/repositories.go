package ports

import (
	"context"
	"time"

	"github.com/skygrow/skygrow/internal/domain"
)

// CampaignRepository reads campaign state for the daily engine.
// The engine's only write is flipping setup_running off once collection finishes.
type CampaignRepository interface {
	GetByID(ctx context.Context, campaignID int64) (domain.Campaign, error)
	ListActive(ctx context.Context) ([]domain.Campaign, error)
	SetSetupRunning(ctx context.Context, campaignID int64, running bool) error
	SetTotalTargets(ctx context.Context, campaignID int64, total int) error
}

// CandidateRepository manages follower-candidate rows. Selection predicates are
// idempotent: already-followed rows are never re-selected by the follow query,
// unfollowed rows drop out of every query, attempt ceilings gate retries.
type CandidateRepository interface {
	// ListAwaitingReciprocation returns rows with followed_at set,
	// reciprocated_at null and unfollowed_at null.
	ListAwaitingReciprocation(ctx context.Context, campaignID int64, limit int) ([]domain.FollowerCandidate, error)
	// CountFollowedOn counts rows whose followed_at falls on the given UTC calendar day.
	CountFollowedOn(ctx context.Context, campaignID int64, day time.Time) (int, error)
	// ListReadyToFollow returns rows with followed_at null, unfollowed_at null and
	// follow_attempt_count below maxAttempts.
	ListReadyToFollow(ctx context.Context, campaignID int64, maxAttempts, limit int) ([]domain.FollowerCandidate, error)
	// ListReadyToUnfollow returns rows followed before cutoff with reciprocated_at
	// null, unfollowed_at null and unfollow_attempt_count below maxAttempts.
	ListReadyToUnfollow(ctx context.Context, campaignID int64, cutoff time.Time, maxAttempts, limit int) ([]domain.FollowerCandidate, error)
	// SaveBatch persists a processed batch in one transaction; each phase commits
	// once after its batch rather than per row.
	SaveBatch(ctx context.Context, candidates []domain.FollowerCandidate) error
	// InsertNew bulk-inserts freshly discovered handles, skipping ones already
	// present for the campaign. Returns the number actually inserted.
	InsertNew(ctx context.Context, campaignID int64, handles []string) (int, error)
	// ListHandles returns every handle already recorded for the campaign.
	ListHandles(ctx context.Context, campaignID int64) ([]string, error)
	// CountByStatus aggregates rows per status label for stats reporting.
	CountByStatus(ctx context.Context, campaignID int64) (map[domain.CandidateStatus]int, error)
}

// OAuthSessionRepository owns stored DPoP-bound OAuth sessions. Token and nonce
// updates are each a single committed transaction: remote token rotation is
// one-shot, so losing the write strands the session.
type OAuthSessionRepository interface {
	GetByDID(ctx context.Context, did string) (domain.OAuthSession, error)
	UpdateTokens(ctx context.Context, did, accessToken, refreshToken, authserverNonce string, updatedAt time.Time) error
	UpdatePDSNonce(ctx context.Context, did, nonce string) error
}

// ExecutionLogRepository appends campaign-day execution rows. Append-only by
// contract: no update or delete methods exist.
type ExecutionLogRepository interface {
	Append(ctx context.Context, entry domain.CampaignExecutionLog) error
	ListRecent(ctx context.Context, campaignID int64, limit int) ([]domain.CampaignExecutionLog, error)
}
