package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// orphanState tracks orphan detection metrics (thread-safe), reported
// through Pool.Health.
type orphanState struct {
	mu        sync.Mutex
	lastScan  time.Time
	recovered int
}

// runOrphanDetection periodically recovers InProgress items whose
// claim is stale: "items in InProgress with updated_at
// older than call_timeout_s + grace should periodically be CAS'd back
// to Pending." Every pod in a multi-worker deployment runs this
// independently; recover_orphans is idempotent.
func (p *Pool) runOrphanDetection(ctx context.Context) {
	defer p.wg.Done()

	// A one-time startup sweep recovers items this or a prior process
	// left InProgress across a crash, before the periodic scan begins.
	p.recoverOrphans(ctx)

	ticker := time.NewTicker(p.cfg.OrphanDetectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.recoverOrphans(ctx)
		}
	}
}

func (p *Pool) recoverOrphans(ctx context.Context) {
	now := time.Now().UTC()
	threshold := now.Add(-p.cfg.OrphanThreshold())

	ids, err := p.store.RecoverOrphans(ctx, threshold, now, "orphaned: no heartbeat since claim")
	if err != nil {
		slog.Error("orphan detection failed", "error", err)
		return
	}

	p.orphans.mu.Lock()
	p.orphans.lastScan = now
	p.orphans.recovered += len(ids)
	p.orphans.mu.Unlock()

	if len(ids) > 0 {
		p.log.Warn("recovered orphaned calls", "count", len(ids), "ids", ids)
	}
}
