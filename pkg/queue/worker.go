package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chriscow/postop-callsvc/pkg/callmodel"
)

// worker pulls claimed items off the pool's shared channel and
// executes them via callexec, one at a time.
type worker struct {
	id   string
	pool *Pool
	log  *slog.Logger

	mu             sync.RWMutex
	status         WorkerStatus
	currentCallID  string
	callsProcessed int
	lastActivity   time.Time
}

func newWorker(id string, pool *Pool) *worker {
	return &worker{
		id:           id,
		pool:         pool,
		log:          slog.With("worker_id", id, "pod_id", pool.podID),
		status:       WorkerStatusIdle,
		lastActivity: time.Now(),
	}
}

func (w *worker) run(ctx context.Context) {
	defer w.pool.wg.Done()
	w.log.Info("worker started")

	for {
		select {
		case <-w.pool.stopCh:
			w.log.Info("worker shutting down")
			return
		case <-ctx.Done():
			w.log.Info("context cancelled, worker shutting down")
			return
		case item, ok := <-w.pool.workCh:
			if !ok {
				return
			}
			w.process(ctx, item)
		}
	}
}

// process executes one claimed item under a per-call wall-clock
// budget (default 5 min), then records the outcome.
func (w *worker) process(ctx context.Context, item *callmodel.CallScheduleItem) {
	log := w.log.With("call_id", item.ID)
	w.setStatus(WorkerStatusWorking, item.ID)
	defer w.setStatus(WorkerStatusIdle, "")

	callCtx, cancel := context.WithTimeout(ctx, w.pool.cfg.CallTimeout)
	defer cancel()

	status := w.pool.executor.Execute(callCtx, item)

	if callCtx.Err() != nil {
		log.Warn("call execution context ended", "reason", callCtx.Err(), "final_status", status)
	}

	w.mu.Lock()
	w.callsProcessed++
	w.mu.Unlock()

	log.Info("call processing complete", "status", status)
}

func (w *worker) setStatus(status WorkerStatus, callID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.currentCallID = callID
	w.lastActivity = time.Now()
}

func (w *worker) health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:             w.id,
		Status:         w.status,
		CurrentCallID:  w.currentCallID,
		CallsProcessed: w.callsProcessed,
		LastActivity:   w.lastActivity,
	}
}
