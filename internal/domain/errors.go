package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrNoSession signals a campaign owner without a stored OAuth session.
	// The run for that campaign aborts immediately; sibling campaigns are unaffected.
	ErrNoSession = errors.New("no oauth session for user")
	// ErrCampaignLocked signals that another invocation is already processing the campaign.
	ErrCampaignLocked = errors.New("campaign run already in progress")
	// ErrSetupRunning is returned when a trigger targets a campaign whose initial
	// follower collection has not finished yet.
	ErrSetupRunning = errors.New("campaign setup still running")
	// ErrCampaignDeleted is returned when a trigger targets a soft-deleted campaign.
	ErrCampaignDeleted = errors.New("campaign deleted")
	// ErrTokenRefreshFailed wraps transport/protocol failures of the refresh-token grant.
	ErrTokenRefreshFailed = errors.New("token refresh failed")
	// ErrAlreadyUnfollowed guards the forward-only candidate lifecycle: a row with
	// unfollowed_at set must never regain followed or reciprocated state.
	ErrAlreadyUnfollowed = errors.New("candidate already unfollowed")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
)
