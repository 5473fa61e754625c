package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/skygrow/skygrow/internal/application"
)

// SweepWorker periodically runs the daily pass over every active campaign.
type SweepWorker struct {
	logger   *slog.Logger
	service  *application.Service
	interval time.Duration
}

func NewSweepWorker(logger *slog.Logger, service *application.Service, interval time.Duration) *SweepWorker {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &SweepWorker{
		logger:   logger,
		service:  service,
		interval: interval,
	}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		result, err := w.service.RunAllCampaigns(ctx)
		if err != nil {
			w.logger.ErrorContext(ctx, "campaign sweep iteration failed",
				"module", "events.sweep_worker",
				"layer", "adapter",
				"operation", "run_all_campaigns",
				"outcome", "failure",
				"error", err,
			)
		} else {
			w.logger.InfoContext(ctx, "campaign sweep iteration completed",
				"module", "events.sweep_worker",
				"layer", "adapter",
				"operation", "run_all_campaigns",
				"outcome", "success",
				"summary", result.Summary(),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
