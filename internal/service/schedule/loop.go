package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/LouYuanbo1/mvfscraper/internal/service/scraper"
)

// Run invokes svc, sleeps interval, and repeats until ctx is done. Cancelling
// ctx is only observed between attempts: an attempt in flight runs to
// completion under a context that is never cancelled.
func Run(ctx context.Context, svc scraper.ScraperService, interval time.Duration) error {
	slog.Info("scheduler started", "interval", interval)
	for {
		res := svc.Attempt(context.WithoutCancel(ctx))
		slog.Debug("attempt finished", "attempt", res.Attempt, "ok", res.OK(), "duration", res.Duration)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("scheduler stopped", "attempts", res.Attempt)
			return nil
		case <-timer.C:
		}
	}
}
