package atomicstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/chriscow/postop-callsvc/pkg/callmodel"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s, err := New(context.Background(), rdb, nil)
	require.NoError(t, err)
	return s, mr
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

func TestDequeueDue_ClaimsOnlyDueItems(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	due := sampleItem("due-1", now.Add(-time.Minute))
	future := sampleItem("future-1", now.Add(time.Hour))
	require.NoError(t, s.BatchSchedule(ctx, []*callmodel.CallScheduleItem{due, future}))

	claimed, err := s.DequeueDue(ctx, now, 50)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.Equal(t, "due-1", claimed[0].ID)
	require.Equal(t, callmodel.StatusInProgress, claimed[0].Status)
}

func TestDequeueDue_AtMostOneClaimAcrossConcurrentWorkers(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	items := make([]*callmodel.CallScheduleItem, 0, 10)
	for i := 0; i < 10; i++ {
		items = append(items, sampleItem(idFor(i), now.Add(-time.Minute)))
	}
	require.NoError(t, s.BatchSchedule(ctx, items))

	var mu sync.Mutex
	seen := map[string]int{}
	var wg sync.WaitGroup
	for w := 0; w < 3; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := s.DequeueDue(ctx, now, 100)
			require.NoError(t, err)
			mu.Lock()
			for _, c := range claimed {
				seen[c.ID]++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, 10, "union of claims must equal all due items")
	for id, count := range seen {
		require.Equal(t, 1, count, "item %s claimed more than once", id)
	}
}

func idFor(i int) string { return "item-" + string(rune('a'+i)) }

func TestIncrementAttempt_RetryThenMaxReached(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	item := sampleItem("retry-1", now)
	item.MaxAttempts = 3
	require.NoError(t, s.BatchSchedule(ctx, []*callmodel.CallScheduleItem{item}))

	for i := 1; i <= 2; i++ {
		count, action, err := s.IncrementAttempt(ctx, item.ID, item.MaxAttempts)
		require.NoError(t, err)
		require.Equal(t, i, count)
		require.Equal(t, ActionRetry, action)
	}

	count, action, err := s.IncrementAttempt(ctx, item.ID, item.MaxAttempts)
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.Equal(t, ActionMaxReached, action)

	got, err := s.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, callmodel.StatusFailed, got.Status)
}

func TestConditionalStatusUpdate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	item := sampleItem("cas-1", now.Add(-time.Minute))
	require.NoError(t, s.BatchSchedule(ctx, []*callmodel.CallScheduleItem{item}))

	claimed, err := s.DequeueDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	ok, err := s.ConditionalStatusUpdate(ctx, item.ID, callmodel.StatusPending, callmodel.StatusCompleted, "")
	require.NoError(t, err)
	require.False(t, ok, "stale expected status must fail the CAS")

	ok, err = s.ConditionalStatusUpdate(ctx, item.ID, callmodel.StatusInProgress, callmodel.StatusCompleted, "")
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, callmodel.StatusCompleted, got.Status)
}

func TestRecoverOrphans_ReclaimsEveryStaleInProgressClaim(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	stale := sampleItem("orphan-1", now.Add(-time.Hour))
	stale2 := sampleItem("orphan-2", now.Add(-time.Hour))
	require.NoError(t, s.BatchSchedule(ctx, []*callmodel.CallScheduleItem{stale, stale2}))

	claimed, err := s.DequeueDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 2)

	// Both claimed at ~now; a threshold a moment after the claim makes
	// both claims stale, so both are recovered.
	recovered, err := s.RecoverOrphans(ctx, now.Add(time.Second), now.Add(time.Second), "orphaned: no heartbeat")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{stale.ID, stale2.ID}, recovered)

	got, err := s.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	require.Equal(t, callmodel.StatusPending, got.Status)

	// Recovered items must be reclaimable again via dequeue_due.
	reclaimed, err := s.DequeueDue(ctx, now.Add(2*time.Second), 10)
	require.NoError(t, err)
	require.Len(t, reclaimed, 2)
}

func TestRecoverOrphans_LeavesFreshClaimsAlone(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	item := sampleItem("fresh-claim", now.Add(-time.Minute))
	require.NoError(t, s.BatchSchedule(ctx, []*callmodel.CallScheduleItem{item}))

	claimed, err := s.DequeueDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	recovered, err := s.RecoverOrphans(ctx, now.Add(-time.Second), now, "orphaned")
	require.NoError(t, err)
	require.Empty(t, recovered)

	got, err := s.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, callmodel.StatusInProgress, got.Status)
}

func TestGetWithLock(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	item := sampleItem("lock-1", time.Now().UTC())
	require.NoError(t, s.BatchSchedule(ctx, []*callmodel.CallScheduleItem{item}))

	got, err := s.GetWithLock(ctx, item.ID, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, item.ID, got.ID)

	// Lock is released afterward, so a second acquisition succeeds.
	got2, err := s.GetWithLock(ctx, item.ID, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, item.ID, got2.ID)
}

func TestArchiveOld_ComparesEpochNotLexicalTimestamp(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// old's updated_at lands exactly on the second (no fractional part
	// once formatted), while the cutoff has a fractional part 250ms
	// later. A lexical string comparison gets this backwards ('.' sorts
	// below 'Z'), so only an epoch-seconds comparison correctly treats
	// old as older than cutoff.
	old := sampleItem("old-1", base.Add(time.Hour))
	old.Status = callmodel.StatusCompleted
	old.UpdatedAt = base

	recent := sampleItem("recent-1", base.Add(time.Hour))
	recent.Status = callmodel.StatusCompleted
	recent.UpdatedAt = base.Add(time.Second)

	require.NoError(t, s.BatchSchedule(ctx, []*callmodel.CallScheduleItem{old, recent}))

	cutoff := base.Add(250 * time.Millisecond)
	n, err := s.ArchiveOld(ctx, cutoff)
	require.NoError(t, err)
	require.Equal(t, 1, n, "only the item updated strictly before cutoff should archive")

	_, err = s.GetByID(ctx, "old-1")
	require.Error(t, err, "archived item should be gone from the hot path")

	stillThere, err := s.GetByID(ctx, "recent-1")
	require.NoError(t, err)
	require.Equal(t, callmodel.StatusCompleted, stillThere.Status)
}

func TestIncrementAttempt_RetryDoesNotFireBeforeBackoffElapses(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	// Scheduled in the past, so without a backoff floor the retry would
	// be immediately due again.
	item := sampleItem("backoff-1", now.Add(-time.Hour))
	require.NoError(t, s.BatchSchedule(ctx, []*callmodel.CallScheduleItem{item}))

	count, action, err := s.IncrementAttempt(ctx, item.ID, item.MaxAttempts)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, ActionRetry, action)

	// Immediately due: the first backoff tier (300s) has not elapsed.
	due, err := s.DequeueDue(ctx, now, 10)
	require.NoError(t, err)
	require.Empty(t, due, "retry must not be claimable before its backoff delay elapses")

	// Due once the backoff has elapsed.
	due, err = s.DequeueDue(ctx, now.Add(301*time.Second), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
}
