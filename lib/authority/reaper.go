// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"context"
	"time"
)

// Reap sweeps expired sessions on a ticker until ctx is cancelled.
// Run it in its own goroutine alongside the serving loop.
func (a *Authority) Reap(ctx context.Context, interval time.Duration) {
	ticker := a.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Sweep(ctx)
		}
	}
}

// Sweep destroys every session whose expiration policy has elapsed
// and returns the number destroyed. Grants and validations already
// refuse expired sessions on their own; the sweep reclaims the
// storage. Destruction failures are logged and skipped.
func (a *Authority) Sweep(ctx context.Context) int {
	sessions, err := a.store.Sessions(ctx)
	if err != nil {
		a.logger.Warn("expiration sweep: listing sessions failed", "error", err)
		return 0
	}

	now := a.clock.Now()
	reaped := 0
	for _, session := range sessions {
		if !session.Expired(a.policyFor(session), now) {
			continue
		}
		removed, err := a.store.Destroy(ctx, session.ID())
		if err != nil {
			a.logger.Warn("expiration sweep: destroy failed",
				"session", session.ID(),
				"error", err,
			)
			continue
		}
		removed.Invalidate()
		reaped++
	}
	if reaped > 0 {
		a.logger.Info("expiration sweep", "reaped", reaped)
	}
	return reaped
}
