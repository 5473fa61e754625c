package application

import (
	"fmt"

	"github.com/skygrow/skygrow/internal/domain"
)

// RunResult is the outcome of one campaign run.
type RunResult struct {
	CampaignID  int64
	Skipped     bool
	Follows     int
	Unfollows   int
	FollowBacks int
	Errors      int
	Status      domain.ExecutionStatus
}

// SweepResult aggregates one pass over every active campaign.
type SweepResult struct {
	Campaigns   int
	Skipped     int
	Failed      int
	Follows     int
	Unfollows   int
	FollowBacks int
	Errors      int
}

// Summary renders the one-line human-readable sweep digest.
func (r SweepResult) Summary() string {
	return fmt.Sprintf("processed %d campaigns (%d skipped, %d failed): %d follows, %d unfollows, %d follow-backs, %d errors",
		r.Campaigns, r.Skipped, r.Failed, r.Follows, r.Unfollows, r.FollowBacks, r.Errors)
}

// SetupResult is the outcome of the campaign setup pipeline.
type SetupResult struct {
	CampaignID     int64
	TargetsScanned int
	Discovered     int
	Inserted       int
}

// CampaignStats is the per-campaign reporting payload.
type CampaignStats struct {
	Campaign     domain.Campaign
	StatusCounts map[domain.CandidateStatus]int
	RecentRuns   []domain.CampaignExecutionLog
}
