package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/skygrow/skygrow/internal/domain"
)

// runFollowPass follows new candidates up to the remaining daily quota.
// The quota counts successful follows on the current UTC day, so a rerun on
// the same day only gets what the earlier run left.
func (s *Service) runFollowPass(ctx context.Context, campaign domain.Campaign, sess *domain.OAuthSession) (follows, errorCount int) {
	today := s.nowFn()
	followedToday, err := s.candidates.CountFollowedOn(ctx, campaign.ID, today)
	if err != nil {
		slog.Default().ErrorContext(ctx, "daily follow count failed",
			"module", "application",
			"layer", "application",
			"operation", "follow_pass",
			"outcome", "failure",
			"campaign_id", campaign.ID,
			"error", err,
		)
		return 0, 1
	}

	remaining := s.cfg.MaxFollowsPerDay - followedToday
	if remaining <= 0 {
		return 0, 0
	}

	batch, err := s.candidates.ListReadyToFollow(ctx, campaign.ID, s.cfg.MaxFollowAttempts, remaining)
	if err != nil {
		slog.Default().ErrorContext(ctx, "follow batch load failed",
			"module", "application",
			"layer", "application",
			"operation", "follow_pass",
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

		result := s.followCandidate(ctx, sess, candidate.Handle)
		if result.OK {
			if err := candidate.MarkFollowed(now); err != nil {
				// Unfollowed rows are filtered out of the batch query;
				// hitting this means state moved under us.
				errorCount++
				s.metrics.observeFollow("failure", "state_conflict")
				s.pause()
				continue
			}
			follows++
			s.metrics.observeFollow("success", "")
		} else {
			candidate.RecordFollowFailure(s.cfg.MaxFollowAttempts)
			errorCount++
			s.metrics.observeFollow("failure", string(result.Category))
			slog.Default().WarnContext(ctx, "follow attempt failed",
				"module", "application",
				"layer", "application",
				"operation", "follow_pass",
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
			slog.Default().ErrorContext(ctx, "follow batch save failed",
				"module", "application",
				"layer", "application",
				"operation", "follow_pass",
				"outcome", "failure",
				"campaign_id", campaign.ID,
				"error", err,
			)
			return 0, errorCount
		}
	}
	return follows, errorCount
}

// followCandidate resolves the handle and writes the follow record.
func (s *Service) followCandidate(ctx context.Context, sess *domain.OAuthSession, handle string) domain.AttemptResult {
	profile, err := s.directory.GetProfile(ctx, handle)
	if err != nil {
		return attemptFromError(err, domain.FailureProfile)
	}
	if profile.DID == "" {
		return domain.AttemptFailed(domain.FailureProfile, "profile has no did")
	}

	if err := s.repo.CreateFollow(ctx, sess, profile.DID); err != nil {
		if errors.Is(err, domain.ErrTokenRefreshFailed) {
			s.metrics.authFailures.Inc()
		}
		return attemptFromError(err, domain.FailureAPIError)
	}
	return domain.AttemptOK()
}
