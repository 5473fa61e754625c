package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/skygrow/skygrow/internal/domain"
	"github.com/skygrow/skygrow/internal/ports"
)

type fakeCampaignRepo struct {
	campaigns map[int64]*domain.Campaign
}

func (f *fakeCampaignRepo) GetByID(_ context.Context, id int64) (domain.Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok {
		return domain.Campaign{}, domain.ErrNotFound
	}
	return *c, nil
}

func (f *fakeCampaignRepo) ListActive(context.Context) ([]domain.Campaign, error) {
	var out []domain.Campaign
	for _, c := range f.campaigns {
		if c.Active() {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCampaignRepo) SetSetupRunning(_ context.Context, id int64, running bool) error {
	c, ok := f.campaigns[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.SetupRunning = running
	return nil
}

func (f *fakeCampaignRepo) SetTotalTargets(_ context.Context, id int64, total int) error {
	c, ok := f.campaigns[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.TotalTargets = total
	return nil
}

// fakeCandidateRepo mirrors the production selection predicates over an
// in-memory slice so engine tests exercise the same eligibility rules.
type fakeCandidateRepo struct {
	rows    []domain.FollowerCandidate
	saveErr error
}

func (f *fakeCandidateRepo) ListAwaitingReciprocation(_ context.Context, campaignID int64, limit int) ([]domain.FollowerCandidate, error) {
	var out []domain.FollowerCandidate
	for _, r := range f.rows {
		if r.CampaignID != campaignID || r.FollowedAt == nil || r.ReciprocatedAt != nil || r.UnfollowedAt != nil {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeCandidateRepo) CountFollowedOn(_ context.Context, campaignID int64, day time.Time) (int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	count := 0
	for _, r := range f.rows {
		if r.CampaignID != campaignID || r.FollowedAt == nil {
			continue
		}
		if !r.FollowedAt.Before(start) && r.FollowedAt.Before(end) {
			count++
		}
	}
	return count, nil
}

func (f *fakeCandidateRepo) ListReadyToFollow(_ context.Context, campaignID int64, maxAttempts, limit int) ([]domain.FollowerCandidate, error) {
	var out []domain.FollowerCandidate
	for _, r := range f.rows {
		if r.CampaignID != campaignID || r.FollowedAt != nil || r.UnfollowedAt != nil || r.FollowAttemptCount >= maxAttempts {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeCandidateRepo) ListReadyToUnfollow(_ context.Context, campaignID int64, cutoff time.Time, maxAttempts, limit int) ([]domain.FollowerCandidate, error) {
	var out []domain.FollowerCandidate
	for _, r := range f.rows {
		if r.CampaignID != campaignID || r.FollowedAt == nil || r.ReciprocatedAt != nil || r.UnfollowedAt != nil {
			continue
		}
		if !r.FollowedAt.Before(cutoff) || r.UnfollowAttemptCount >= maxAttempts {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeCandidateRepo) SaveBatch(_ context.Context, candidates []domain.FollowerCandidate) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	for _, c := range candidates {
		found := false
		for i := range f.rows {
			if f.rows[i].ID == c.ID {
				f.rows[i] = c
				found = true
				break
			}
		}
		if !found {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (f *fakeCandidateRepo) InsertNew(_ context.Context, campaignID int64, handles []string) (int, error) {
	existing := make(map[string]struct{})
	for _, r := range f.rows {
		if r.CampaignID == campaignID {
			existing[r.Handle] = struct{}{}
		}
	}
	inserted := 0
	for _, h := range handles {
		if _, dup := existing[h]; dup {
			continue
		}
		existing[h] = struct{}{}
		f.rows = append(f.rows, domain.FollowerCandidate{
			ID:         int64(len(f.rows) + 1),
			CampaignID: campaignID,
			Handle:     h,
			Status:     domain.StatusReadyToFollow,
		})
		inserted++
	}
	return inserted, nil
}

func (f *fakeCandidateRepo) ListHandles(_ context.Context, campaignID int64) ([]string, error) {
	var out []string
	for _, r := range f.rows {
		if r.CampaignID == campaignID {
			out = append(out, r.Handle)
		}
	}
	return out, nil
}

func (f *fakeCandidateRepo) CountByStatus(_ context.Context, campaignID int64) (map[domain.CandidateStatus]int, error) {
	out := make(map[domain.CandidateStatus]int)
	for _, r := range f.rows {
		if r.CampaignID == campaignID {
			out[r.Status]++
		}
	}
	return out, nil
}

func (f *fakeCandidateRepo) byHandle(handle string) domain.FollowerCandidate {
	for _, r := range f.rows {
		if r.Handle == handle {
			return r
		}
	}
	return domain.FollowerCandidate{}
}

type fakeSessionStore struct {
	sessions map[string]*domain.OAuthSession
}

func (f *fakeSessionStore) GetByDID(_ context.Context, did string) (domain.OAuthSession, error) {
	s, ok := f.sessions[did]
	if !ok {
		return domain.OAuthSession{}, domain.ErrNoSession
	}
	return *s, nil
}

func (f *fakeSessionStore) UpdateTokens(_ context.Context, did, access, refresh, nonce string, at time.Time) error {
	s, ok := f.sessions[did]
	if !ok {
		return domain.ErrNoSession
	}
	s.AccessToken = access
	s.RefreshToken = refresh
	s.DPoPAuthserverNonce = nonce
	s.UpdatedAt = at
	return nil
}

func (f *fakeSessionStore) UpdatePDSNonce(_ context.Context, did, nonce string) error {
	s, ok := f.sessions[did]
	if !ok {
		return domain.ErrNoSession
	}
	s.DPoPPDSNonce = nonce
	return nil
}

type fakeExecutionLog struct {
	entries []domain.CampaignExecutionLog
}

func (f *fakeExecutionLog) Append(_ context.Context, entry domain.CampaignExecutionLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeExecutionLog) ListRecent(_ context.Context, campaignID int64, limit int) ([]domain.CampaignExecutionLog, error) {
	var out []domain.CampaignExecutionLog
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].CampaignID == campaignID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

type fakeDirectory struct {
	profiles map[string]ports.Profile
	// followerPages maps actor DID to ordered pages; the cursor is the page index.
	followerPages map[string][]ports.FollowerPage
	profileErr    map[string]error
}

func (f *fakeDirectory) GetProfile(_ context.Context, actor string) (ports.Profile, error) {
	if err, ok := f.profileErr[actor]; ok {
		return ports.Profile{}, err
	}
	p, ok := f.profiles[actor]
	if !ok {
		return ports.Profile{}, fmt.Errorf("unknown actor %s", actor)
	}
	return p, nil
}

func (f *fakeDirectory) ListFollowers(_ context.Context, actorDID, cursor string, _ int) (ports.FollowerPage, error) {
	pages := f.followerPages[actorDID]
	idx := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "%d", &idx)
	}
	if idx >= len(pages) {
		return ports.FollowerPage{}, nil
	}
	page := pages[idx]
	if idx+1 < len(pages) {
		page.Cursor = fmt.Sprintf("%d", idx+1)
	} else {
		page.Cursor = ""
	}
	return page, nil
}

type fakeRepoWriter struct {
	createErr   map[string]error // subject DID -> error
	created     []string
	follows     []ports.FollowRecord
	deleted     []string
	deleteErr   error
	listErr     error
	createCalls int
	listLimits  []int
}

func (f *fakeRepoWriter) CreateFollow(_ context.Context, _ *domain.OAuthSession, subjectDID string) error {
	f.createCalls++
	if err, ok := f.createErr[subjectDID]; ok {
		return err
	}
	f.created = append(f.created, subjectDID)
	return nil
}

func (f *fakeRepoWriter) ListFollows(_ context.Context, _ *domain.OAuthSession, limit int) ([]ports.FollowRecord, error) {
	f.listLimits = append(f.listLimits, limit)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit > 0 && len(f.follows) > limit {
		return f.follows[:limit], nil
	}
	return f.follows, nil
}

func (f *fakeRepoWriter) DeleteFollow(_ context.Context, _ *domain.OAuthSession, rkey string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, rkey)
	return nil
}

type fakeLockStore struct {
	held     map[int64]bool
	acquired []int64
	released []int64
}

func (f *fakeLockStore) Acquire(_ context.Context, id int64) (bool, error) {
	if f.held[id] {
		return false, nil
	}
	f.acquired = append(f.acquired, id)
	return true, nil
}

func (f *fakeLockStore) Release(_ context.Context, id int64) error {
	f.released = append(f.released, id)
	return nil
}

type fixture struct {
	svc        *Service
	campaigns  *fakeCampaignRepo
	candidates *fakeCandidateRepo
	sessions   *fakeSessionStore
	executions *fakeExecutionLog
	directory  *fakeDirectory
	repo       *fakeRepoWriter
	locks      *fakeLockStore
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	f := &fixture{
		campaigns:  &fakeCampaignRepo{campaigns: map[int64]*domain.Campaign{}},
		candidates: &fakeCandidateRepo{},
		sessions:   &fakeSessionStore{sessions: map[string]*domain.OAuthSession{}},
		executions: &fakeExecutionLog{},
		directory: &fakeDirectory{
			profiles:      map[string]ports.Profile{},
			followerPages: map[string][]ports.FollowerPage{},
			profileErr:    map[string]error{},
		},
		repo:  &fakeRepoWriter{createErr: map[string]error{}},
		locks: &fakeLockStore{held: map[int64]bool{}},
		now:   now,
	}

	f.svc = NewService(Dependencies{
		Config:     DefaultConfig(),
		Campaigns:  f.campaigns,
		Candidates: f.candidates,
		Sessions:   f.sessions,
		Executions: f.executions,
		Directory:  f.directory,
		Repo:       f.repo,
		Locks:      f.locks,
	})
	f.svc.nowFn = func() time.Time { return f.now }
	f.svc.sleepFn = func(time.Duration) {}
	return f
}

// seedCampaign registers a campaign with a stored session for its owner.
func (f *fixture) seedCampaign(id int64, did string) {
	f.campaigns.campaigns[id] = &domain.Campaign{ID: id, Name: fmt.Sprintf("campaign-%d", id), UserDID: did}
	f.sessions.sessions[did] = &domain.OAuthSession{
		DID:         did,
		AccessToken: "access",
		PDSURL:      "https://pds.example",
	}
	f.directory.profiles[did] = ports.Profile{DID: did, Handle: "owner.bsky.social"}
}

// seedCandidate adds a candidate and a resolvable profile for its handle.
func (f *fixture) seedCandidate(c domain.FollowerCandidate) {
	if c.ID == 0 {
		c.ID = int64(len(f.candidates.rows) + 1)
	}
	if c.Status == "" {
		c.Status = domain.StatusReadyToFollow
	}
	f.candidates.rows = append(f.candidates.rows, c)
	f.directory.profiles[c.Handle] = ports.Profile{DID: "did:plc:" + c.Handle, Handle: c.Handle}
}

func hoursAgo(now time.Time, h int) *time.Time {
	t := now.Add(-time.Duration(h) * time.Hour)
	return &t
}
