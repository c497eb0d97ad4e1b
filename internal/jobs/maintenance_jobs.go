package jobs

import (
	"context"
	"time"

	"bloodbridge-backend/internal/logger"
)

const jobTimeout = 5 * time.Minute

// ExpireBanners deactivates banners whose end date has passed.
func (jr *JobRunner) ExpireBanners() {
	jr.runWithRecovery("ExpireBanners", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		count, err := jr.store.BannerRepository.DeactivateExpired(ctx, time.Now())
		if err != nil {
			logger.Error("Failed to deactivate expired banners", "error", err)
			return
		}
		logger.Info("Deactivated expired banners", "count", count)
	})
}

// ExpireStaleRequests rejects blood requests that have sat unresolved for
// longer than the configured age.
func (jr *JobRunner) ExpireStaleRequests() {
	jr.runWithRecovery("ExpireStaleRequests", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		cutoff := time.Now().AddDate(0, 0, -jr.config.Scheduler.StaleRequestDays)
		count, err := jr.store.RequestRepository.RejectStale(ctx, cutoff)
		if err != nil {
			logger.Error("Failed to reject stale requests", "error", err)
			return
		}
		logger.Info("Rejected stale requests", "count", count, "cutoff", cutoff)
	})
}
