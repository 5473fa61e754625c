package postgres

import (
	"time"
)

type campaignModel struct {
	ID           int64      `gorm:"column:id;primaryKey"`
	Name         string     `gorm:"column:name"`
	UserDID      string     `gorm:"column:user_did"`
	Targets      string     `gorm:"column:targets;type:jsonb"`
	TotalTargets int        `gorm:"column:total_targets"`
	SetupRunning bool       `gorm:"column:setup_running"`
	Running      bool       `gorm:"column:running"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	DeletedAt    *time.Time `gorm:"column:deleted_at"`
}

func (campaignModel) TableName() string { return "campaigns" }

type candidateModel struct {
	ID                   int64      `gorm:"column:id;primaryKey"`
	CampaignID           int64      `gorm:"column:campaign_id"`
	Handle               string     `gorm:"column:handle"`
	FollowedAt           *time.Time `gorm:"column:followed_at"`
	ReciprocatedAt       *time.Time `gorm:"column:reciprocated_at"`
	UnfollowedAt         *time.Time `gorm:"column:unfollowed_at"`
	FollowAttemptCount   int        `gorm:"column:follow_attempt_count"`
	UnfollowAttemptCount int        `gorm:"column:unfollow_attempt_count"`
	LastCheckedAt        *time.Time `gorm:"column:last_checked_at"`
	Status               string     `gorm:"column:status"`
	CreatedAt            time.Time  `gorm:"column:created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at"`
}

func (candidateModel) TableName() string { return "followers_to_get" }

type oauthSessionModel struct {
	ID                  int64     `gorm:"column:id;primaryKey"`
	DID                 string    `gorm:"column:did"`
	Handle              string    `gorm:"column:handle"`
	PDSURL              string    `gorm:"column:pds_url"`
	AuthserverIss       string    `gorm:"column:authserver_iss"`
	AccessToken         string    `gorm:"column:access_token"`
	RefreshToken        string    `gorm:"column:refresh_token"`
	DPoPAuthserverNonce string    `gorm:"column:dpop_authserver_nonce"`
	DPoPPDSNonce        string    `gorm:"column:dpop_pds_nonce"`
	DPoPPrivateJWK      string    `gorm:"column:dpop_private_jwk"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (oauthSessionModel) TableName() string { return "oauth_sessions" }

type executionLogModel struct {
	ID              int64     `gorm:"column:id;primaryKey"`
	CampaignID      int64     `gorm:"column:campaign_id"`
	ExecutedAt      time.Time `gorm:"column:executed_at"`
	FollowsCount    int       `gorm:"column:follows_count"`
	UnfollowsCount  int       `gorm:"column:unfollows_count"`
	FollowBacks     int       `gorm:"column:follow_backs"`
	ErrorsCount     int       `gorm:"column:errors_count"`
	DurationSeconds int       `gorm:"column:duration_seconds"`
	Status          string    `gorm:"column:status"`
	ErrorMessage    string    `gorm:"column:error_message"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (executionLogModel) TableName() string { return "campaign_execution_log" }
