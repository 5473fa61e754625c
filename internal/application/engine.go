package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/skygrow/skygrow/internal/domain"
)

// RunAllCampaigns executes the daily pass for every active campaign. A failing
// campaign is logged and skipped; it never blocks its siblings.
func (s *Service) RunAllCampaigns(ctx context.Context) (SweepResult, error) {
	campaigns, err := s.campaigns.ListActive(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list active campaigns: %w", err)
	}

	s.metrics.activeCampaigns.Set(float64(len(campaigns)))

	var result SweepResult
	result.Campaigns = len(campaigns)
	for _, campaign := range campaigns {
		run, runErr := s.RunCampaign(ctx, campaign.ID)
		switch {
		case errors.Is(runErr, domain.ErrCampaignLocked):
			result.Skipped++
			continue
		case runErr != nil:
			result.Failed++
			slog.Default().ErrorContext(ctx, "campaign run failed",
				"module", "application",
				"layer", "application",
				"operation", "run_all_campaigns",
				"outcome", "failure",
				"campaign_id", campaign.ID,
				"error", runErr,
			)
			continue
		}
		result.Follows += run.Follows
		result.Unfollows += run.Unfollows
		result.FollowBacks += run.FollowBacks
		result.Errors += run.Errors
	}

	s.metrics.sweepRuns.Inc()
	slog.Default().InfoContext(ctx, "campaign sweep completed",
		"module", "application",
		"layer", "application",
		"operation", "run_all_campaigns",
		"outcome", "success",
		"summary", result.Summary(),
	)
	return result, nil
}

// RunCampaign executes one campaign's daily pass: reciprocation check, follow
// pass, unfollow pass, then exactly one execution-log row. The per-campaign
// lock keeps a manual trigger and the scheduled sweep from interleaving.
func (s *Service) RunCampaign(ctx context.Context, campaignID int64) (RunResult, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return RunResult{}, err
	}
	if campaign.DeletedAt != nil {
		return RunResult{}, domain.ErrCampaignDeleted
	}
	if campaign.SetupRunning {
		return RunResult{}, domain.ErrSetupRunning
	}

	acquired, err := s.locks.Acquire(ctx, campaignID)
	if err != nil {
		return RunResult{}, fmt.Errorf("acquire campaign lock: %w", err)
	}
	if !acquired {
		return RunResult{CampaignID: campaignID, Skipped: true}, domain.ErrCampaignLocked
	}
	defer func() {
		if releaseErr := s.locks.Release(context.WithoutCancel(ctx), campaignID); releaseErr != nil {
			slog.Default().WarnContext(ctx, "campaign lock release failed",
				"module", "application",
				"layer", "application",
				"operation", "run_campaign",
				"campaign_id", campaignID,
				"error", releaseErr,
			)
		}
	}()

	started := s.nowFn()
	result := RunResult{CampaignID: campaignID}

	sess, err := s.sessions.GetByDID(ctx, campaign.UserDID)
	if err != nil {
		entry := domain.CampaignExecutionLog{
			CampaignID:   campaignID,
			ExecutedAt:   started,
			Status:       domain.ExecutionFailed,
			ErrorMessage: fmt.Sprintf("oauth session unavailable for %s: %v", campaign.UserDID, err),
		}
		if appendErr := s.executions.Append(ctx, entry); appendErr != nil {
			slog.Default().ErrorContext(ctx, "execution log append failed",
				"module", "application",
				"layer", "application",
				"operation", "run_campaign",
				"campaign_id", campaignID,
				"error", appendErr,
			)
		}
		s.metrics.authFailures.Inc()
		return RunResult{CampaignID: campaignID, Status: domain.ExecutionFailed},
			fmt.Errorf("load oauth session for campaign %d: %w", campaignID, err)
	}

	followBacks, fbErrors := s.checkFollowBacks(ctx, campaign, &sess)
	result.FollowBacks = followBacks
	result.Errors += fbErrors

	follows, fErrors := s.runFollowPass(ctx, campaign, &sess)
	result.Follows = follows
	result.Errors += fErrors

	unfollows, uErrors := s.runUnfollowPass(ctx, campaign, &sess)
	result.Unfollows = unfollows
	result.Errors += uErrors

	finished := s.nowFn()
	result.Status = domain.ExecutionSuccess
	if result.Errors > 0 {
		result.Status = domain.ExecutionPartial
	}

	entry := domain.CampaignExecutionLog{
		CampaignID:      campaignID,
		ExecutedAt:      started,
		FollowsCount:    result.Follows,
		UnfollowsCount:  result.Unfollows,
		FollowBacks:     result.FollowBacks,
		ErrorsCount:     result.Errors,
		DurationSeconds: int(finished.Sub(started).Seconds()),
		Status:          result.Status,
	}
	if err := s.executions.Append(ctx, entry); err != nil {
		return result, fmt.Errorf("append execution log: %w", err)
	}

	slog.Default().InfoContext(ctx, "campaign run completed",
		"module", "application",
		"layer", "application",
		"operation", "run_campaign",
		"outcome", "success",
		"campaign_id", campaignID,
		"follows", result.Follows,
		"unfollows", result.Unfollows,
		"follow_backs", result.FollowBacks,
		"errors", result.Errors,
		"status", string(result.Status),
	)
	return result, nil
}

// Stats assembles the per-campaign reporting payload.
func (s *Service) Stats(ctx context.Context, campaignID int64, recentRuns int) (CampaignStats, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return CampaignStats{}, err
	}
	counts, err := s.candidates.CountByStatus(ctx, campaignID)
	if err != nil {
		return CampaignStats{}, fmt.Errorf("count candidates: %w", err)
	}
	if recentRuns <= 0 {
		recentRuns = 10
	}
	runs, err := s.executions.ListRecent(ctx, campaignID, recentRuns)
	if err != nil {
		return CampaignStats{}, fmt.Errorf("list recent executions: %w", err)
	}
	return CampaignStats{Campaign: campaign, StatusCounts: counts, RecentRuns: runs}, nil
}
