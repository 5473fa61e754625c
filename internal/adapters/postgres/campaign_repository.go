package postgres

import (
	"context"
	"errors"

	"github.com/skygrow/skygrow/internal/domain"
	"gorm.io/gorm"
)

type campaignRepository struct {
	db *gorm.DB
}

func (r *campaignRepository) GetByID(ctx context.Context, campaignID int64) (domain.Campaign, error) {
	var rec campaignModel
	if err := r.db.WithContext(ctx).Where("id = ?", campaignID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Campaign{}, domain.ErrNotFound
		}
		return domain.Campaign{}, err
	}
	return toDomainCampaign(rec), nil
}

func (r *campaignRepository) ListActive(ctx context.Context) ([]domain.Campaign, error) {
	var rows []campaignModel
	query := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Where("setup_running = ?", false).
		Order("id ASC")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Campaign, 0, len(rows))
	for _, item := range rows {
		result = append(result, toDomainCampaign(item))
	}
	return result, nil
}

func (r *campaignRepository) SetSetupRunning(ctx context.Context, campaignID int64, running bool) error {
	res := r.db.WithContext(ctx).
		Model(&campaignModel{}).
		Where("id = ?", campaignID).
		Update("setup_running", running)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *campaignRepository) SetTotalTargets(ctx context.Context, campaignID int64, total int) error {
	res := r.db.WithContext(ctx).
		Model(&campaignModel{}).
		Where("id = ?", campaignID).
		Update("total_targets", total)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
