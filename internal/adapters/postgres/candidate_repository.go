package postgres

import (
	"context"
	"time"

	"github.com/skygrow/skygrow/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type candidateRepository struct {
	db *gorm.DB
}

func (r *candidateRepository) ListAwaitingReciprocation(ctx context.Context, campaignID int64, limit int) ([]domain.FollowerCandidate, error) {
	var rows []candidateModel
	query := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Where("followed_at IS NOT NULL").
		Where("reciprocated_at IS NULL").
		Where("unfollowed_at IS NULL").
		Order("followed_at ASC").
		Limit(limit)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainCandidates(rows), nil
}

func (r *candidateRepository) CountFollowedOn(ctx context.Context, campaignID int64, day time.Time) (int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	var count int64
	query := r.db.WithContext(ctx).
		Model(&candidateModel{}).
		Where("campaign_id = ?", campaignID).
		Where("followed_at >= ? AND followed_at < ?", start, end)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *candidateRepository) ListReadyToFollow(ctx context.Context, campaignID int64, maxAttempts, limit int) ([]domain.FollowerCandidate, error) {
	var rows []candidateModel
	query := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Where("followed_at IS NULL").
		Where("unfollowed_at IS NULL").
		Where("follow_attempt_count < ?", maxAttempts).
		Order("id ASC").
		Limit(limit)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainCandidates(rows), nil
}

func (r *candidateRepository) ListReadyToUnfollow(ctx context.Context, campaignID int64, cutoff time.Time, maxAttempts, limit int) ([]domain.FollowerCandidate, error) {
	var rows []candidateModel
	query := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Where("followed_at IS NOT NULL").
		Where("followed_at < ?", cutoff).
		Where("reciprocated_at IS NULL").
		Where("unfollowed_at IS NULL").
		Where("unfollow_attempt_count < ?", maxAttempts).
		Order("followed_at ASC").
		Limit(limit)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainCandidates(rows), nil
}

func (r *candidateRepository) SaveBatch(ctx context.Context, candidates []domain.FollowerCandidate) error {
	if len(candidates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range candidates {
			rec := toCandidateModel(c)
			res := tx.Model(&candidateModel{}).
				Where("id = ?", rec.ID).
				Updates(map[string]any{
					"followed_at":            rec.FollowedAt,
					"reciprocated_at":        rec.ReciprocatedAt,
					"unfollowed_at":          rec.UnfollowedAt,
					"follow_attempt_count":   rec.FollowAttemptCount,
					"unfollow_attempt_count": rec.UnfollowAttemptCount,
					"last_checked_at":        rec.LastCheckedAt,
					"status":                 rec.Status,
					"updated_at":             rec.UpdatedAt,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrNotFound
			}
		}
		return nil
	})
}

func (r *candidateRepository) InsertNew(ctx context.Context, campaignID int64, handles []string) (int, error) {
	if len(handles) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	rows := make([]candidateModel, 0, len(handles))
	for _, h := range handles {
		rows = append(rows, candidateModel{
			CampaignID: campaignID,
			Handle:     h,
			Status:     string(domain.StatusReadyToFollow),
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "handle"}},
			DoNothing: true,
		}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r *candidateRepository) ListHandles(ctx context.Context, campaignID int64) ([]string, error) {
	var handles []string
	query := r.db.WithContext(ctx).
		Model(&candidateModel{}).
		Where("campaign_id = ?", campaignID).
		Pluck("handle", &handles)
	if err := query.Error; err != nil {
		return nil, err
	}
	return handles, nil
}

func (r *candidateRepository) CountByStatus(ctx context.Context, campaignID int64) (map[domain.CandidateStatus]int, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	query := r.db.WithContext(ctx).
		Model(&candidateModel{}).
		Select("status, COUNT(*) AS count").
		Where("campaign_id = ?", campaignID).
		Group("status")
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[domain.CandidateStatus]int, len(rows))
	for _, row := range rows {
		result[domain.CandidateStatus(row.Status)] = int(row.Count)
	}
	return result, nil
}

func toDomainCandidates(rows []candidateModel) []domain.FollowerCandidate {
	result := make([]domain.FollowerCandidate, 0, len(rows))
	for _, item := range rows {
		result = append(result, toDomainCandidate(item))
	}
	return result
}
