package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/skygrow/skygrow/internal/domain"
	"gorm.io/gorm"
)

type oauthSessionRepository struct {
	db *gorm.DB
}

func (r *oauthSessionRepository) GetByDID(ctx context.Context, did string) (domain.OAuthSession, error) {
	var rec oauthSessionModel
	if err := r.db.WithContext(ctx).Where("did = ?", did).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.OAuthSession{}, domain.ErrNoSession
		}
		return domain.OAuthSession{}, err
	}
	return toDomainSession(rec), nil
}

// UpdateTokens commits the rotated pair in one transaction. Refresh tokens are
// single-use upstream, so a lost write strands the session permanently.
func (r *oauthSessionRepository) UpdateTokens(ctx context.Context, did, accessToken, refreshToken, authserverNonce string, updatedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&oauthSessionModel{}).
		Where("did = ?", did).
		Updates(map[string]any{
			"access_token":          accessToken,
			"refresh_token":         refreshToken,
			"dpop_authserver_nonce": authserverNonce,
			"updated_at":            updatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNoSession
	}
	return nil
}

func (r *oauthSessionRepository) UpdatePDSNonce(ctx context.Context, did, nonce string) error {
	res := r.db.WithContext(ctx).
		Model(&oauthSessionModel{}).
		Where("did = ?", did).
		Update("dpop_pds_nonce", nonce)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNoSession
	}
	return nil
}
