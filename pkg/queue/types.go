// Package queue is the Worker Pool: a Ticker that claims due calls via
// the Atomic Store and hands them to a fixed group of Executor
// workers, plus a background orphan reaper.
//
// One goroutine owns the ticker and claim loop; a fixed group of
// worker goroutines execute claimed items from a shared channel.
// Start/Stop uses sync.Once/stopCh/WaitGroup so Stop is idempotent and
// blocks until in-flight work drains or the shutdown timeout elapses.
package queue

import "time"

// PoolHealth reports the worker pool's current health.
type PoolHealth struct {
	IsHealthy        bool           `json:"is_healthy"`
	PodID            string         `json:"pod_id"`
	ActiveWorkers    int            `json:"active_workers"`
	TotalWorkers     int            `json:"total_workers"`
	QueueDepth       int            `json:"queue_depth"`
	WorkerStats      []WorkerHealth `json:"worker_stats"`
	LastOrphanScan   time.Time      `json:"last_orphan_scan"`
	OrphansRecovered int            `json:"orphans_recovered"`
}

// WorkerStatus is a worker's current activity.
type WorkerStatus string

// Supported statuses.
const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusWorking WorkerStatus = "working"
)

// WorkerHealth reports a single executor worker's current activity.
type WorkerHealth struct {
	ID             string       `json:"id"`
	Status         WorkerStatus `json:"status"`
	CurrentCallID  string       `json:"current_call_id,omitempty"`
	CallsProcessed int          `json:"calls_processed"`
	LastActivity   time.Time    `json:"last_activity"`
}
