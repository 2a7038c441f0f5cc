package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/LouYuanbo1/mvfscraper/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/mvfscraper/internal/infra/crawler/types"
)

var pollInterval = 250 * time.Millisecond

// WaitForPresence polls until loc is present or timeout elapses. A timeout is
// logged and reported as false; the caller decides whether that is fatal.
func WaitForPresence(ctx context.Context, session chrome.Session, loc types.Locator, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ok, err := session.Present(ctx, loc)
		if err != nil {
			slog.Debug("presence check failed", "locator", loc.String(), "err", err)
		}
		if ok {
			return true
		}
		select {
		case <-ctx.Done():
			slog.Warn("timed out waiting for page to load", "locator", loc.String(), "timeout", timeout)
			return false
		case <-ticker.C:
		}
	}
}
