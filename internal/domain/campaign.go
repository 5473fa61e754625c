package domain

import (
	"time"
)

// Campaign is a named growth effort owned by one Bluesky account.
// The daily engine only ever flips SetupRunning off; creation and soft-deletion
// belong to the API surface.
type Campaign struct {
	ID           int64
	Name         string
	UserDID      string
	Targets      []string
	TotalTargets int
	SetupRunning bool
	Running      bool
	CreatedAt    time.Time
	DeletedAt    *time.Time
}

// Active reports whether the daily engine may process this campaign.
func (c Campaign) Active() bool {
	return !c.SetupRunning && c.DeletedAt == nil
}

// CandidateStatus is the coarse phase label mirrored onto each candidate row.
type CandidateStatus string

const (
	StatusReadyToFollow        CandidateStatus = "ready_to_follow"
	StatusWaitingForFollowback CandidateStatus = "waiting_for_followback"
	StatusFollowingBack        CandidateStatus = "following_back"
	StatusUnfollowed           CandidateStatus = "unfollowed"
	StatusLimitReached         CandidateStatus = "limit_reached"
)

// FollowerCandidate is one discovered account a campaign may act on.
// State moves strictly forward through {not followed, followed, reciprocated|unfollowed};
// all mutation goes through the Mark*/Record* methods so the guards cannot be bypassed.
type FollowerCandidate struct {
	ID                   int64
	CampaignID           int64
	Handle               string
	FollowedAt           *time.Time
	ReciprocatedAt       *time.Time
	UnfollowedAt         *time.Time
	FollowAttemptCount   int
	UnfollowAttemptCount int
	LastCheckedAt        *time.Time
	Status               CandidateStatus
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// MarkFollowed records a successful follow. It refuses to resurrect a row that
// was already unfollowed.
func (c *FollowerCandidate) MarkFollowed(at time.Time) error {
	if c.UnfollowedAt != nil {
		return ErrAlreadyUnfollowed
	}
	t := at.UTC()
	c.FollowedAt = &t
	c.Status = StatusWaitingForFollowback
	return nil
}

// MarkReciprocated records an observed follow-back.
func (c *FollowerCandidate) MarkReciprocated(at time.Time) error {
	if c.UnfollowedAt != nil {
		return ErrAlreadyUnfollowed
	}
	t := at.UTC()
	c.ReciprocatedAt = &t
	c.Status = StatusFollowingBack
	return nil
}

// MarkUnfollowed terminates the row. Terminal state; no further transitions.
func (c *FollowerCandidate) MarkUnfollowed(at time.Time) {
	t := at.UTC()
	c.UnfollowedAt = &t
	c.Status = StatusUnfollowed
}

// RecordFollowFailure bumps the follow attempt counter. The counter moves only
// on failure: a candidate that was actually followed must stay selectable for
// reciprocation checks without burning attempts.
func (c *FollowerCandidate) RecordFollowFailure(maxAttempts int) {
	c.FollowAttemptCount++
	if maxAttempts > 0 && c.FollowAttemptCount >= maxAttempts && c.FollowedAt == nil {
		c.Status = StatusLimitReached
	}
}

// RecordUnfollowAttempt bumps the unfollow attempt counter. Unlike the follow
// side this moves on every attempt, success or not.
func (c *FollowerCandidate) RecordUnfollowAttempt() {
	c.UnfollowAttemptCount++
}

// Touch stamps the last reciprocation check.
func (c *FollowerCandidate) Touch(at time.Time) {
	t := at.UTC()
	c.LastCheckedAt = &t
}

// OAuthSession is the stored confidential-client session for one user DID.
// The engine mutates it only through the repositories, and only to persist
// rotated tokens and server-issued DPoP nonces.
type OAuthSession struct {
	ID                  int64
	DID                 string
	Handle              string
	PDSURL              string
	AuthserverIss       string
	AccessToken         string
	RefreshToken        string
	DPoPAuthserverNonce string
	DPoPPDSNonce        string
	DPoPPrivateJWK      string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ExecutionStatus labels one campaign-day execution log row.
type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
	ExecutionPartial ExecutionStatus = "partial"
)

// CampaignExecutionLog is one append-only ledger row per campaign-day run.
// Rows are created by the engine at the end of a run and never mutated.
type CampaignExecutionLog struct {
	ID              int64
	CampaignID      int64
	ExecutedAt      time.Time
	FollowsCount    int
	UnfollowsCount  int
	FollowBacks     int
	ErrorsCount     int
	DurationSeconds int
	Status          ExecutionStatus
	ErrorMessage    string
	CreatedAt       time.Time
}
