package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/skygrow/skygrow/internal/domain"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) runAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RunAllCampaigns(r.Context())
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"campaigns":    result.Campaigns,
		"skipped":      result.Skipped,
		"failed":       result.Failed,
		"follows":      result.Follows,
		"unfollows":    result.Unfollows,
		"follow_backs": result.FollowBacks,
		"errors":       result.Errors,
		"summary":      result.Summary(),
	})
}

func (h *Handler) runOne(w http.ResponseWriter, r *http.Request) {
	campaignID, err := campaignIDFromURL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid campaign id")
		return
	}

	result, err := h.service.RunCampaign(r.Context(), campaignID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"campaign_id":  result.CampaignID,
		"follows":      result.Follows,
		"unfollows":    result.Unfollows,
		"follow_backs": result.FollowBacks,
		"errors":       result.Errors,
		"status":       result.Status,
	})
}

func (h *Handler) runSetup(w http.ResponseWriter, r *http.Request) {
	campaignID, err := campaignIDFromURL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid campaign id")
		return
	}

	result, err := h.service.RunCampaignSetup(r.Context(), campaignID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"campaign_id":     result.CampaignID,
		"targets_scanned": result.TargetsScanned,
		"discovered":      result.Discovered,
		"inserted":        result.Inserted,
	})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	campaignID, err := campaignIDFromURL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid campaign id")
		return
	}

	stats, err := h.service.Stats(r.Context(), campaignID, 10)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	counts := make(map[string]int, len(stats.StatusCounts))
	for status, n := range stats.StatusCounts {
		counts[string(status)] = n
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"campaign_id":   stats.Campaign.ID,
		"name":          stats.Campaign.Name,
		"total_targets": stats.Campaign.TotalTargets,
		"setup_running": stats.Campaign.SetupRunning,
		"status_counts": counts,
		"recent_runs":   executionRows(stats.RecentRuns),
	})
}

func (h *Handler) executions(w http.ResponseWriter, r *http.Request) {
	campaignID, err := campaignIDFromURL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid campaign id")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	stats, err := h.service.Stats(r.Context(), campaignID, limit)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"campaign_id": campaignID,
		"executions":  executionRows(stats.RecentRuns),
	})
}

func executionRows(entries []domain.CampaignExecutionLog) []map[string]any {
	rows := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]any{
			"executed_at":      e.ExecutedAt,
			"follows":          e.FollowsCount,
			"unfollows":        e.UnfollowsCount,
			"follow_backs":     e.FollowBacks,
			"errors":           e.ErrorsCount,
			"duration_seconds": e.DurationSeconds,
			"status":           e.Status,
			"error_message":    e.ErrorMessage,
		})
	}
	return rows
}

func campaignIDFromURL(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "campaign_id"), 10, 64)
}

func mapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "campaign not found"
	case errors.Is(err, domain.ErrCampaignDeleted):
		return http.StatusGone, "CAMPAIGN_DELETED", "campaign deleted"
	case errors.Is(err, domain.ErrCampaignLocked):
		return http.StatusConflict, "CAMPAIGN_LOCKED", "campaign run already in progress"
	case errors.Is(err, domain.ErrSetupRunning):
		return http.StatusConflict, "SETUP_RUNNING", "campaign setup still running"
	case errors.Is(err, domain.ErrNoSession):
		return http.StatusConflict, "NO_SESSION", "no oauth session for campaign owner"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}
