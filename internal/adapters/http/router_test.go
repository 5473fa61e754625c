package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skygrow/skygrow/internal/application"
	"github.com/skygrow/skygrow/internal/domain"
	"github.com/skygrow/skygrow/internal/ports"
)

type stubCampaigns struct {
	campaign domain.Campaign
	err      error
}

func (s *stubCampaigns) GetByID(context.Context, int64) (domain.Campaign, error) {
	return s.campaign, s.err
}
func (s *stubCampaigns) ListActive(context.Context) ([]domain.Campaign, error) { return nil, nil }
func (s *stubCampaigns) SetSetupRunning(context.Context, int64, bool) error    { return nil }
func (s *stubCampaigns) SetTotalTargets(context.Context, int64, int) error     { return nil }

type stubCandidates struct{}

func (stubCandidates) ListAwaitingReciprocation(context.Context, int64, int) ([]domain.FollowerCandidate, error) {
	return nil, nil
}
func (stubCandidates) CountFollowedOn(context.Context, int64, time.Time) (int, error) {
	return 0, nil
}
func (stubCandidates) ListReadyToFollow(context.Context, int64, int, int) ([]domain.FollowerCandidate, error) {
	return nil, nil
}
func (stubCandidates) ListReadyToUnfollow(context.Context, int64, time.Time, int, int) ([]domain.FollowerCandidate, error) {
	return nil, nil
}
func (stubCandidates) SaveBatch(context.Context, []domain.FollowerCandidate) error { return nil }
func (stubCandidates) InsertNew(context.Context, int64, []string) (int, error)     { return 0, nil }
func (stubCandidates) ListHandles(context.Context, int64) ([]string, error)        { return nil, nil }
func (stubCandidates) CountByStatus(context.Context, int64) (map[domain.CandidateStatus]int, error) {
	return map[domain.CandidateStatus]int{domain.StatusReadyToFollow: 4}, nil
}

type stubSessions struct{}

func (stubSessions) GetByDID(context.Context, string) (domain.OAuthSession, error) {
	return domain.OAuthSession{DID: "did:plc:owner"}, nil
}
func (stubSessions) UpdateTokens(context.Context, string, string, string, string, time.Time) error {
	return nil
}
func (stubSessions) UpdatePDSNonce(context.Context, string, string) error { return nil }

type stubExecutions struct{}

func (stubExecutions) Append(context.Context, domain.CampaignExecutionLog) error { return nil }
func (stubExecutions) ListRecent(context.Context, int64, int) ([]domain.CampaignExecutionLog, error) {
	return []domain.CampaignExecutionLog{{CampaignID: 7, Status: domain.ExecutionSuccess}}, nil
}

type stubDirectory struct{}

func (stubDirectory) GetProfile(context.Context, string) (ports.Profile, error) {
	return ports.Profile{DID: "did:plc:x"}, nil
}
func (stubDirectory) ListFollowers(context.Context, string, string, int) (ports.FollowerPage, error) {
	return ports.FollowerPage{}, nil
}

type stubRepo struct{}

func (stubRepo) CreateFollow(context.Context, *domain.OAuthSession, string) error { return nil }
func (stubRepo) ListFollows(context.Context, *domain.OAuthSession, int) ([]ports.FollowRecord, error) {
	return nil, nil
}
func (stubRepo) DeleteFollow(context.Context, *domain.OAuthSession, string) error { return nil }

type stubLocks struct{ held bool }

func (s stubLocks) Acquire(context.Context, int64) (bool, error) { return !s.held, nil }
func (s stubLocks) Release(context.Context, int64) error         { return nil }

func newTestRouter(campaigns *stubCampaigns, locks stubLocks) http.Handler {
	svc := application.NewService(application.Dependencies{
		Config:     application.DefaultConfig(),
		Campaigns:  campaigns,
		Candidates: stubCandidates{},
		Sessions:   stubSessions{},
		Executions: stubExecutions{},
		Directory:  stubDirectory{},
		Repo:       stubRepo{},
		Locks:      locks,
	})
	return NewRouter(NewHandler(svc))
}

func TestStatsRoute(t *testing.T) {
	campaigns := &stubCampaigns{campaign: domain.Campaign{ID: 7, Name: "growth", TotalTargets: 4}}
	router := newTestRouter(campaigns, stubLocks{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/campaigns/v1/7/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var body struct {
		Status string `json:"status"`
		Data   struct {
			CampaignID   int64          `json:"campaign_id"`
			StatusCounts map[string]int `json:"status_counts"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "success" || body.Data.CampaignID != 7 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Data.StatusCounts["ready_to_follow"] != 4 {
		t.Fatalf("status counts = %v", body.Data.StatusCounts)
	}
}

func TestMissingCampaignMapsTo404(t *testing.T) {
	campaigns := &stubCampaigns{err: domain.ErrNotFound}
	router := newTestRouter(campaigns, stubLocks{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/campaigns/v1/99/run", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != "NOT_FOUND" {
		t.Fatalf("code = %s", body.Code)
	}
}

func TestLockedCampaignMapsTo409(t *testing.T) {
	campaigns := &stubCampaigns{campaign: domain.Campaign{ID: 7, UserDID: "did:plc:owner"}}
	router := newTestRouter(campaigns, stubLocks{held: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/campaigns/v1/7/run", nil))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestInvalidCampaignID(t *testing.T) {
	router := newTestRouter(&stubCampaigns{}, stubLocks{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/campaigns/v1/abc/run", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(&stubCampaigns{}, stubLocks{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", path, rec.Code)
		}
	}
}
