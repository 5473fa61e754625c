package postgres

import (
	"github.com/skygrow/skygrow/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Campaigns  ports.CampaignRepository
	Candidates ports.CandidateRepository
	Sessions   ports.OAuthSessionRepository
	Executions ports.ExecutionLogRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Campaigns:  &campaignRepository{db: db},
		Candidates: &candidateRepository{db: db},
		Sessions:   &oauthSessionRepository{db: db},
		Executions: &executionLogRepository{db: db},
	}
}
