package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skygrow/skygrow/internal/domain"
)

// RunCampaignSetup builds the campaign's candidate pool: it enumerates each
// seed target's followers via the public API, drops accounts that already
// follow the campaign owner, bulk-inserts the rest and flips setup_running
// off. Any failure leaves setup_running on so the campaign stays out of the
// daily sweep until a retried setup succeeds.
func (s *Service) RunCampaignSetup(ctx context.Context, campaignID int64) (SetupResult, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return SetupResult{}, err
	}
	if campaign.DeletedAt != nil {
		return SetupResult{}, domain.ErrCampaignDeleted
	}

	result := SetupResult{CampaignID: campaignID}

	ownFollowers, err := s.collectFollowers(ctx, campaign.UserDID, s.cfg.SetupPageCap)
	if err != nil {
		return result, fmt.Errorf("enumerate own followers: %w", err)
	}

	seen := make(map[string]struct{}, len(ownFollowers))
	for handle := range ownFollowers {
		seen[handle] = struct{}{}
	}
	// The owner never becomes a candidate of their own campaign.
	ownProfile, err := s.directory.GetProfile(ctx, campaign.UserDID)
	if err != nil {
		return result, fmt.Errorf("resolve campaign owner: %w", err)
	}
	seen[ownProfile.Handle] = struct{}{}

	existing, err := s.candidates.ListHandles(ctx, campaignID)
	if err != nil {
		return result, fmt.Errorf("list existing candidates: %w", err)
	}
	for _, handle := range existing {
		seen[handle] = struct{}{}
	}

	var discovered []string
	for _, target := range campaign.Targets {
		result.TargetsScanned++

		profile, err := s.directory.GetProfile(ctx, target)
		if err != nil {
			slog.Default().WarnContext(ctx, "seed target lookup failed",
				"module", "application",
				"layer", "application",
				"operation", "campaign_setup",
				"outcome", "failure",
				"campaign_id", campaignID,
				"target", target,
				"error", err,
			)
			s.pause()
			continue
		}

		followers, err := s.collectFollowers(ctx, profile.DID, s.cfg.SetupPageCap)
		if err != nil {
			slog.Default().WarnContext(ctx, "seed target enumeration failed",
				"module", "application",
				"layer", "application",
				"operation", "campaign_setup",
				"outcome", "failure",
				"campaign_id", campaignID,
				"target", target,
				"error", err,
			)
			s.pause()
			continue
		}

		for handle := range followers {
			if _, dup := seen[handle]; dup {
				continue
			}
			seen[handle] = struct{}{}
			discovered = append(discovered, handle)
		}
		s.pause()
	}
	result.Discovered = len(discovered)

	inserted, err := s.candidates.InsertNew(ctx, campaignID, discovered)
	if err != nil {
		return result, fmt.Errorf("insert candidates: %w", err)
	}
	result.Inserted = inserted

	total := len(existing) + inserted
	if err := s.campaigns.SetTotalTargets(ctx, campaignID, total); err != nil {
		return result, fmt.Errorf("set total targets: %w", err)
	}
	if err := s.campaigns.SetSetupRunning(ctx, campaignID, false); err != nil {
		return result, fmt.Errorf("finish setup: %w", err)
	}

	slog.Default().InfoContext(ctx, "campaign setup completed",
		"module", "application",
		"layer", "application",
		"operation", "campaign_setup",
		"outcome", "success",
		"campaign_id", campaignID,
		"targets_scanned", result.TargetsScanned,
		"discovered", result.Discovered,
		"inserted", result.Inserted,
	)
	return result, nil
}

// collectFollowers pages through an actor's followers until exhaustion or the
// page cap, returning the set of handles.
func (s *Service) collectFollowers(ctx context.Context, actorDID string, pageCap int) (map[string]struct{}, error) {
	handles := make(map[string]struct{})
	cursor := ""
	for page := 0; pageCap <= 0 || page < pageCap; page++ {
		followers, err := s.directory.ListFollowers(ctx, actorDID, cursor, s.cfg.FollowersPageSize)
		if err != nil {
			return nil, err
		}
		for _, f := range followers.Followers {
			if f.Handle != "" {
				handles[f.Handle] = struct{}{}
			}
		}
		if followers.Cursor == "" || len(followers.Followers) == 0 {
			return handles, nil
		}
		cursor = followers.Cursor
	}
	return handles, nil
}
