package postgres

import (
	"context"

	"github.com/skygrow/skygrow/internal/domain"
	"gorm.io/gorm"
)

type executionLogRepository struct {
	db *gorm.DB
}

func (r *executionLogRepository) Append(ctx context.Context, entry domain.CampaignExecutionLog) error {
	rec := executionLogModel{
		CampaignID:      entry.CampaignID,
		ExecutedAt:      entry.ExecutedAt,
		FollowsCount:    entry.FollowsCount,
		UnfollowsCount:  entry.UnfollowsCount,
		FollowBacks:     entry.FollowBacks,
		ErrorsCount:     entry.ErrorsCount,
		DurationSeconds: entry.DurationSeconds,
		Status:          string(entry.Status),
		ErrorMessage:    entry.ErrorMessage,
		CreatedAt:       entry.ExecutedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *executionLogRepository) ListRecent(ctx context.Context, campaignID int64, limit int) ([]domain.CampaignExecutionLog, error) {
	var rows []executionLogModel
	query := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("executed_at DESC").
		Limit(limit)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.CampaignExecutionLog, 0, len(rows))
	for _, item := range rows {
		result = append(result, toDomainExecutionLog(item))
	}
	return result, nil
}
