package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skygrow/skygrow/internal/domain"
)

// checkFollowBacks scans a bounded batch of followed-but-unreciprocated
// candidates and marks the ones that now follow the campaign owner back.
// A failing candidate is stamped and skipped; it never blocks the batch.
func (s *Service) checkFollowBacks(ctx context.Context, campaign domain.Campaign, sess *domain.OAuthSession) (followBacks, errorCount int) {
	batch, err := s.candidates.ListAwaitingReciprocation(ctx, campaign.ID, s.cfg.FollowBackBatchSize)
	if err != nil {
		slog.Default().ErrorContext(ctx, "reciprocation batch load failed",
			"module", "application",
			"layer", "application",
			"operation", "check_follow_backs",
			"outcome", "failure",
			"campaign_id", campaign.ID,
			"error", err,
		)
		return 0, 1
	}
	if len(batch) == 0 {
		return 0, 0
	}

	changed := make([]domain.FollowerCandidate, 0, len(batch))
	for i := range batch {
		candidate := &batch[i]
		now := s.nowFn()

		reciprocated, err := s.isFollowingBack(ctx, candidate.Handle, sess.DID)
		if err != nil {
			errorCount++
			slog.Default().WarnContext(ctx, "follow-back check failed",
				"module", "application",
				"layer", "application",
				"operation", "check_follow_backs",
				"outcome", "failure",
				"campaign_id", campaign.ID,
				"handle", candidate.Handle,
				"reason", string(domain.CategorizeError(err)),
				"error", err,
			)
			s.pause()
			continue
		}

		if reciprocated {
			if err := candidate.MarkReciprocated(now); err == nil {
				followBacks++
				s.metrics.followBacks.Inc()
			}
		}
		candidate.Touch(now)
		candidate.UpdatedAt = now
		changed = append(changed, *candidate)
		s.pause()
	}

	if len(changed) > 0 {
		if err := s.candidates.SaveBatch(ctx, changed); err != nil {
			errorCount++
			slog.Default().ErrorContext(ctx, "reciprocation batch save failed",
				"module", "application",
				"layer", "application",
				"operation", "check_follow_backs",
				"outcome", "failure",
				"campaign_id", campaign.ID,
				"error", err,
			)
			return 0, errorCount
		}
	}
	return followBacks, errorCount
}

// isFollowingBack resolves the candidate's DID, then pages through the owner's
// recent followers looking for it. The page bound keeps one check cheap; a
// reciprocation deeper in the list is caught on a later day.
func (s *Service) isFollowingBack(ctx context.Context, candidateHandle, ownerDID string) (bool, error) {
	profile, err := s.directory.GetProfile(ctx, candidateHandle)
	if err != nil {
		return false, err
	}
	if profile.DID == "" {
		return false, fmt.Errorf("profile %q has no did", candidateHandle)
	}

	cursor := ""
	for page := 0; page < s.cfg.FollowerPagesPerCheck; page++ {
		followers, err := s.directory.ListFollowers(ctx, ownerDID, cursor, s.cfg.FollowersPageSize)
		if err != nil {
			return false, err
		}
		for _, f := range followers.Followers {
			if f.DID == profile.DID {
				return true, nil
			}
		}
		if followers.Cursor == "" {
			break
		}
		cursor = followers.Cursor
	}
	return false, nil
}
