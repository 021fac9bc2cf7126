package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chriscow/postop-callsvc/pkg/atomicstore"
	"github.com/chriscow/postop-callsvc/pkg/callexec"
	"github.com/chriscow/postop-callsvc/pkg/callmodel"
	"github.com/chriscow/postop-callsvc/pkg/config"
)

// Pool owns the ticker goroutine, the executor worker group, and the
// orphan reaper for one process
type Pool struct {
	podID    string
	store    *atomicstore.Store
	executor *callexec.Executor
	cfg      *config.QueueConfig
	log      *slog.Logger

	workCh   chan *callmodel.CallScheduleItem
	workers  []*worker
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	started  bool

	orphans orphanState
}

// NewPool constructs a Pool. Call Start to begin ticking and
// processing.
func NewPool(podID string, store *atomicstore.Store, executor *callexec.Executor, cfg *config.QueueConfig) *Pool {
	return &Pool{
		podID:    podID,
		store:    store,
		executor: executor,
		cfg:      cfg,
		log:      slog.With("component", "queue", "pod_id", podID),
		workCh:   make(chan *callmodel.CallScheduleItem, cfg.MaxBatch),
		stopCh:   make(chan struct{}),
	}
}

// Start spawns the executor workers, the ticker, and the orphan
// reaper. Safe to call only once; subsequent calls are no-ops.
func (p *Pool) Start(ctx context.Context) {
	if p.started {
		p.log.Warn("worker pool already started, ignoring duplicate Start call")
		return
	}
	p.started = true

	p.log.Info("starting worker pool", "worker_count", p.cfg.WorkerCount, "tick_interval", p.cfg.TickInterval)

	for i := 0; i < p.cfg.WorkerCount; i++ {
		w := newWorker(fmt.Sprintf("%s-worker-%d", p.podID, i), p)
		p.workers = append(p.workers, w)
		p.wg.Add(1)
		go w.run(ctx)
	}

	p.wg.Add(1)
	go p.runTicker(ctx)

	p.wg.Add(1)
	go p.runOrphanDetection(ctx)
}

// Stop signals the ticker and workers to stop and waits up to
// DrainTimeout for in-flight executions to finish. Safe to call
// multiple times.
func (p *Pool) Stop() {
	p.log.Info("stopping worker pool gracefully")
	p.stopOnce.Do(func() { close(p.stopCh) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("worker pool stopped gracefully")
	case <-time.After(p.cfg.DrainTimeout):
		p.log.Warn("drain timeout exceeded, exiting with executions still in flight", "drain_timeout", p.cfg.DrainTimeout)
	}
}

// runTicker calls dequeue_due every TickInterval and fans claimed
// items out onto workCh in the order dequeue_due returned them
// (priority asc, created_at asc). The ticker does no execution
// itself
func (p *Pool) runTicker(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Pool) tick(ctx context.Context) {
	items, err := p.store.DequeueDue(ctx, time.Now().UTC(), p.cfg.MaxBatch)
	if err != nil {
		p.log.Error("dequeue_due failed", "error", err)
		return
	}
	if len(items) == 0 {
		return
	}
	p.log.Info("ticker claimed due calls", "count", len(items))

	for _, item := range items {
		select {
		case p.workCh <- item:
		case <-p.stopCh:
			return
		}
	}
}

// Health returns the current health status of the pool.
func (p *Pool) Health() *PoolHealth {
	workerStats := make([]WorkerHealth, len(p.workers))
	activeWorkers := 0
	for i, w := range p.workers {
		stats := w.health()
		workerStats[i] = stats
		if stats.Status == WorkerStatusWorking {
			activeWorkers++
		}
	}

	p.orphans.mu.Lock()
	lastScan := p.orphans.lastScan
	recovered := p.orphans.recovered
	p.orphans.mu.Unlock()

	return &PoolHealth{
		IsHealthy:        len(p.workers) > 0,
		PodID:            p.podID,
		ActiveWorkers:    activeWorkers,
		TotalWorkers:     len(p.workers),
		QueueDepth:       len(p.workCh),
		WorkerStats:      workerStats,
		LastOrphanScan:   lastScan,
		OrphansRecovered: recovered,
	}
}
