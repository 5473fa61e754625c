package application

import (
	"time"

	"github.com/skygrow/skygrow/internal/ports"
)

// Config carries the campaign policy knobs. Defaults mirror the documented
// policy; bootstrap overrides them from file and environment.
type Config struct {
	MaxFollowsPerDay    int
	MaxUnfollowsPerDay  int
	UnfollowDelayDays   int
	MaxFollowAttempts   int
	MaxUnfollowAttempts int

	// InterRequestDelay spaces consecutive Bluesky calls within a pass.
	InterRequestDelay time.Duration

	// FollowBackBatchSize bounds the reciprocation check per run.
	FollowBackBatchSize int
	// FollowerPagesPerCheck bounds how deep one reciprocation lookup pages
	// through the owner's followers.
	FollowerPagesPerCheck int
	FollowersPageSize     int

	// FollowListScanLimit bounds how many of the owner's follow records one
	// unfollow lookup scans for the matching subject.
	FollowListScanLimit int

	// SetupPageCap bounds target-follower enumeration during campaign setup.
	SetupPageCap int
}

// DefaultConfig returns the stock campaign policy.
func DefaultConfig() Config {
	return Config{
		MaxFollowsPerDay:      5,
		MaxUnfollowsPerDay:    10,
		UnfollowDelayDays:     5,
		MaxFollowAttempts:     3,
		MaxUnfollowAttempts:   2,
		InterRequestDelay:     2 * time.Second,
		FollowBackBatchSize:   20,
		FollowerPagesPerCheck: 3,
		FollowersPageSize:     100,
		FollowListScanLimit:   100,
		SetupPageCap:          1000,
	}
}

type Service struct {
	cfg        Config
	campaigns  ports.CampaignRepository
	candidates ports.CandidateRepository
	sessions   ports.OAuthSessionRepository
	executions ports.ExecutionLogRepository
	directory  ports.Directory
	repo       ports.RepoWriter
	locks      ports.CampaignLockStore
	metrics    *Metrics
	nowFn      func() time.Time
	sleepFn    func(time.Duration)
}

type Dependencies struct {
	Config     Config
	Campaigns  ports.CampaignRepository
	Candidates ports.CandidateRepository
	Sessions   ports.OAuthSessionRepository
	Executions ports.ExecutionLogRepository
	Directory  ports.Directory
	Repo       ports.RepoWriter
	Locks      ports.CampaignLockStore
	Metrics    *Metrics
}

func NewService(deps Dependencies) *Service {
	m := deps.Metrics
	if m == nil {
		m = NopMetrics()
	}
	return &Service{
		cfg:        deps.Config,
		campaigns:  deps.Campaigns,
		candidates: deps.Candidates,
		sessions:   deps.Sessions,
		executions: deps.Executions,
		directory:  deps.Directory,
		repo:       deps.Repo,
		locks:      deps.Locks,
		metrics:    m,
		nowFn:      func() time.Time { return time.Now().UTC() },
		sleepFn:    time.Sleep,
	}
}

// pause spaces consecutive remote calls.
func (s *Service) pause() {
	if s.cfg.InterRequestDelay > 0 {
		s.sleepFn(s.cfg.InterRequestDelay)
	}
}
