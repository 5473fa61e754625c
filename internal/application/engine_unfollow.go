package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/skygrow/skygrow/internal/domain"
)

// runUnfollowPass unfollows candidates that were followed before the delay
// cutoff and never reciprocated, up to the daily quota. Every attempt burns an
// unfollow attempt, success or not; a candidate whose follow record is already
// gone counts as unfollowed.
func (s *Service) runUnfollowPass(ctx context.Context, campaign domain.Campaign, sess *domain.OAuthSession) (unfollows, errorCount int) {
	cutoff := s.nowFn().Add(-time.Duration(s.cfg.UnfollowDelayDays) * 24 * time.Hour)

	batch, err := s.candidates.ListReadyToUnfollow(ctx, campaign.ID, cutoff, s.cfg.MaxUnfollowAttempts, s.cfg.MaxUnfollowsPerDay)
	if err != nil {
		slog.Default().ErrorContext(ctx, "unfollow batch load failed",
			"module", "application",
			"layer", "application",
			"operation", "unfollow_pass",
			"outcome", "failure",
			"campaign_id", campaign.ID,
			"error", err,
		)
		return 0, 1
	}

	changed := make([]domain.FollowerCandidate, 0, len(batch))
	for i := range batch {
		candidate := &batch[i]
		now := s.nowFn()

		candidate.RecordUnfollowAttempt()

		result := s.unfollowCandidate(ctx, sess, candidate.Handle)
		if result.OK {
			candidate.MarkUnfollowed(now)
			unfollows++
			s.metrics.observeUnfollow("success", "")
		} else {
			errorCount++
			s.metrics.observeUnfollow("failure", string(result.Category))
			slog.Default().WarnContext(ctx, "unfollow attempt failed",
				"module", "application",
				"layer", "application",
				"operation", "unfollow_pass",
				"outcome", "failure",
				"campaign_id", campaign.ID,
				"handle", candidate.Handle,
				"reason", string(result.Category),
				"detail", result.Reason,
			)
		}
		candidate.UpdatedAt = now
		changed = append(changed, *candidate)
		s.pause()
	}

	if len(changed) > 0 {
		if err := s.candidates.SaveBatch(ctx, changed); err != nil {
			errorCount++
			slog.Default().ErrorContext(ctx, "unfollow batch save failed",
				"module", "application",
				"layer", "application",
				"operation", "unfollow_pass",
				"outcome", "failure",
				"campaign_id", campaign.ID,
				"error", err,
			)
			return 0, errorCount
		}
	}
	return unfollows, errorCount
}

// unfollowCandidate resolves the handle, scans a bounded window of the owner's
// follow records for the matching subject and deletes it. A missing record is
// success: the goal state already holds.
func (s *Service) unfollowCandidate(ctx context.Context, sess *domain.OAuthSession, handle string) domain.AttemptResult {
	profile, err := s.directory.GetProfile(ctx, handle)
	if err != nil {
		return attemptFromError(err, domain.FailureProfile)
	}
	if profile.DID == "" {
		return domain.AttemptFailed(domain.FailureProfile, "profile has no did")
	}

	records, err := s.repo.ListFollows(ctx, sess, s.cfg.FollowListScanLimit)
	if err != nil {
		if errors.Is(err, domain.ErrTokenRefreshFailed) {
			s.metrics.authFailures.Inc()
		}
		return attemptFromError(err, domain.FailureAPIError)
	}

	rkey := ""
	for _, rec := range records {
		if rec.Subject == profile.DID {
			rkey = rec.RKey
			break
		}
	}
	if rkey == "" {
		return domain.AttemptOK()
	}

	if err := s.repo.DeleteFollow(ctx, sess, rkey); err != nil {
		if errors.Is(err, domain.ErrTokenRefreshFailed) {
			s.metrics.authFailures.Inc()
		}
		return attemptFromError(err, domain.FailureAPIError)
	}
	return domain.AttemptOK()
}
