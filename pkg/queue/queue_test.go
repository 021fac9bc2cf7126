package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/chriscow/postop-callsvc/pkg/atomicstore"
	"github.com/chriscow/postop-callsvc/pkg/callexec"
	"github.com/chriscow/postop-callsvc/pkg/callmodel"
	"github.com/chriscow/postop-callsvc/pkg/config"
	"github.com/chriscow/postop-callsvc/pkg/fabric"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, cfg *config.QueueConfig) (*Pool, *atomicstore.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store, err := atomicstore.New(context.Background(), rdb, nil)
	require.NoError(t, err)

	executor := callexec.New(fabric.NewMockAdapter(), store, callexec.Config{AgentName: "postop-agent", SIPOutboundTrunkID: "trunk-1"})
	pool := NewPool("test-pod", store, executor, cfg)
	return pool, store
}

func sampleItem(id string, when time.Time) *callmodel.CallScheduleItem {
	now := time.Now().UTC()
	return &callmodel.CallScheduleItem{
		ID:            id,
		PatientID:     "patient-1",
		PatientPhone:  "+15551234567",
		ScheduledTime: when,
		CallType:      callmodel.CallTypeWellnessCheck,
		Priority:      2,
		Status:        callmodel.StatusPending,
		MaxAttempts:   3,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestPool_TicksAndDispatchesDueCallsToWorkers(t *testing.T) {
	cfg := config.DefaultQueueConfig()
	cfg.WorkerCount = 2
	cfg.TickInterval = 20 * time.Millisecond
	cfg.OrphanDetectionInterval = time.Hour
	pool, store := newTestPool(t, cfg)

	now := time.Now().UTC()
	due := sampleItem("due-1", now.Add(-time.Minute))
	require.NoError(t, store.BatchSchedule(context.Background(), []*callmodel.CallScheduleItem{due}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	require.Eventually(t, func() bool {
		h := pool.Health()
		for _, w := range h.WorkerStats {
			if w.CallsProcessed > 0 {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestPool_StopDrainsInFlightWorkWithinDrainTimeout(t *testing.T) {
	cfg := config.DefaultQueueConfig()
	cfg.WorkerCount = 1
	cfg.TickInterval = 10 * time.Millisecond
	cfg.DrainTimeout = 500 * time.Millisecond
	cfg.OrphanDetectionInterval = time.Hour
	pool, store := newTestPool(t, cfg)

	now := time.Now().UTC()
	due := sampleItem("due-1", now.Add(-time.Minute))
	require.NoError(t, store.BatchSchedule(context.Background(), []*callmodel.CallScheduleItem{due}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	require.Eventually(t, func() bool {
		return pool.Health().QueueDepth > 0 || pool.Health().ActiveWorkers > 0 || func() bool {
			rec, err := store.GetByID(context.Background(), "due-1")
			return err == nil && rec.Status != callmodel.StatusPending
		}()
	}, time.Second, 5*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return within twice the drain timeout")
	}
}

func TestPool_OrphanReaperRecoversStaleInProgressCalls(t *testing.T) {
	cfg := config.DefaultQueueConfig()
	cfg.CallTimeout = time.Millisecond
	cfg.OrphanGrace = time.Millisecond
	cfg.OrphanDetectionInterval = 20 * time.Millisecond
	cfg.TickInterval = time.Hour // keep the ticker from re-claiming during the test
	pool, store := newTestPool(t, cfg)

	now := time.Now().UTC()
	stuck := sampleItem("stuck-1", now.Add(-time.Hour))
	require.NoError(t, store.BatchSchedule(context.Background(), []*callmodel.CallScheduleItem{stuck}))

	claimed, err := store.DequeueDue(context.Background(), now, 50)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	require.Eventually(t, func() bool {
		rec, err := store.GetByID(context.Background(), "stuck-1")
		return err == nil && rec.Status == callmodel.StatusPending
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return pool.Health().OrphansRecovered > 0
	}, time.Second, 10*time.Millisecond)
}
