package config

import "time"

// QueueConfig controls the worker pool's ticker, executor concurrency,
// and shutdown/orphan-detection behavior. Overlaid from the
// TICK_INTERVAL_S, MAX_BATCH, WORKER_CONCURRENCY, CALL_TIMEOUT_S, and
// DRAIN_TIMEOUT_S environment variables.
type QueueConfig struct {
	// WorkerCount is the number of executor goroutines per process.
	WorkerCount int

	// TickInterval is how often the ticker calls dequeue_due.
	TickInterval time.Duration

	// MaxBatch is the limit passed to dequeue_due per tick.
	MaxBatch int

	// CallTimeout bounds a single call's wall-clock execution budget.
	CallTimeout time.Duration

	// DrainTimeout bounds graceful shutdown: how long Stop waits for
	// in-flight calls to finish before returning anyway.
	DrainTimeout time.Duration

	// OrphanDetectionInterval is how often the reaper scans for stale
	// InProgress items.
	OrphanDetectionInterval time.Duration

	// OrphanGrace is added to CallTimeout to compute the staleness
	// threshold: "call_timeout_s + grace".
	OrphanGrace time.Duration
}

// DefaultQueueConfig returns the built-in worker pool defaults: tick
// 60s, drain 60s, call timeout 5m.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		WorkerCount:             5,
		TickInterval:            60 * time.Second,
		MaxBatch:                50,
		CallTimeout:             5 * time.Minute,
		DrainTimeout:            60 * time.Second,
		OrphanDetectionInterval: 5 * time.Minute,
		OrphanGrace:             2 * time.Minute,
	}
}

// OrphanThreshold is the staleness cutoff: InProgress items whose
// updated_at is older than this are considered orphaned.
func (c *QueueConfig) OrphanThreshold() time.Duration {
	return c.CallTimeout + c.OrphanGrace
}
