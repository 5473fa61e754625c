package postgres

import (
	"encoding/json"

	"github.com/skygrow/skygrow/internal/domain"
)

func toDomainCampaign(row campaignModel) domain.Campaign {
	var targets []string
	if row.Targets != "" {
		_ = json.Unmarshal([]byte(row.Targets), &targets)
	}
	return domain.Campaign{
		ID:           row.ID,
		Name:         row.Name,
		UserDID:      row.UserDID,
		Targets:      targets,
		TotalTargets: row.TotalTargets,
		SetupRunning: row.SetupRunning,
		Running:      row.Running,
		CreatedAt:    row.CreatedAt,
		DeletedAt:    row.DeletedAt,
	}
}

func toDomainCandidate(row candidateModel) domain.FollowerCandidate {
	return domain.FollowerCandidate{
		ID:                   row.ID,
		CampaignID:           row.CampaignID,
		Handle:               row.Handle,
		FollowedAt:           row.FollowedAt,
		ReciprocatedAt:       row.ReciprocatedAt,
		UnfollowedAt:         row.UnfollowedAt,
		FollowAttemptCount:   row.FollowAttemptCount,
		UnfollowAttemptCount: row.UnfollowAttemptCount,
		LastCheckedAt:        row.LastCheckedAt,
		Status:               domain.CandidateStatus(row.Status),
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}

func toCandidateModel(c domain.FollowerCandidate) candidateModel {
	return candidateModel{
		ID:                   c.ID,
		CampaignID:           c.CampaignID,
		Handle:               c.Handle,
		FollowedAt:           c.FollowedAt,
		ReciprocatedAt:       c.ReciprocatedAt,
		UnfollowedAt:         c.UnfollowedAt,
		FollowAttemptCount:   c.FollowAttemptCount,
		UnfollowAttemptCount: c.UnfollowAttemptCount,
		LastCheckedAt:        c.LastCheckedAt,
		Status:               string(c.Status),
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

func toDomainSession(row oauthSessionModel) domain.OAuthSession {
	return domain.OAuthSession{
		ID:                  row.ID,
		DID:                 row.DID,
		Handle:              row.Handle,
		PDSURL:              row.PDSURL,
		AuthserverIss:       row.AuthserverIss,
		AccessToken:         row.AccessToken,
		RefreshToken:        row.RefreshToken,
		DPoPAuthserverNonce: row.DPoPAuthserverNonce,
		DPoPPDSNonce:        row.DPoPPDSNonce,
		DPoPPrivateJWK:      row.DPoPPrivateJWK,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}

func toDomainExecutionLog(row executionLogModel) domain.CampaignExecutionLog {
	return domain.CampaignExecutionLog{
		ID:              row.ID,
		CampaignID:      row.CampaignID,
		ExecutedAt:      row.ExecutedAt,
		FollowsCount:    row.FollowsCount,
		UnfollowsCount:  row.UnfollowsCount,
		FollowBacks:     row.FollowBacks,
		ErrorsCount:     row.ErrorsCount,
		DurationSeconds: row.DurationSeconds,
		Status:          domain.ExecutionStatus(row.Status),
		ErrorMessage:    row.ErrorMessage,
		CreatedAt:       row.CreatedAt,
	}
}
