// Package atomicstore is the Go-native Atomic Store: a Redis-backed
// K/V + sorted-set store exposing the scripted atomic primitives the
// scheduler and worker pool rely on as their only synchronization
// point.
package atomicstore

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/chriscow/postop-callsvc/pkg/callerrors"
	"github.com/chriscow/postop-callsvc/pkg/callmodel"
	"github.com/redis/go-redis/v9"
)

//go:embed scripts/*.lua
var luaScripts embed.FS

// Key layout: the persisted-state keys under the "postop:" namespace,
// plus the in_progress claim index and the analysis hashes.
const (
	keyPrefix       = "postop:scheduled_calls:"
	keyByTime       = keyPrefix + "by_time"
	keyInProgress   = keyPrefix + "in_progress"
	keyPatientSet   = keyPrefix + "patient:"
	keyRecordPrefix = "postop:call_records:"
	keyLockPrefix   = keyPrefix + "lock:"
	keyArchive      = keyPrefix + "archive"
	keyAnalysisPrefix = keyPrefix + "analysis:"
)

func itemKey(id string) string   { return keyPrefix + id }
func recordKey(id string) string { return keyRecordPrefix + id }
func patientKey(patientID string) string { return keyPatientSet + patientID }
func lockKey(id string) string   { return keyLockPrefix + id }
func analysisKey(sessionID string) string { return keyAnalysisPrefix + sessionID }

// ArchiveSink receives items the Redis hot path has aged out, for
// durable long-term storage. Nil-safe: a nil ArchiveSink simply skips
// durable persistence.
type ArchiveSink interface {
	Put(ctx context.Context, call *callmodel.ArchivedCall) error
}

// Store is the Redis-backed Atomic Store.
type Store struct {
	rdb     *redis.Client
	archive ArchiveSink
	log     *slog.Logger

	dequeueSHA           string
	incrementSHA         string
	conditionalUpdateSHA string
	archiveSHA           string
	recoverOrphansSHA    string
}

// New constructs a Store, loading the embedded Lua scripts into Redis.
func New(ctx context.Context, rdb *redis.Client, archive ArchiveSink) (*Store, error) {
	s := &Store{rdb: rdb, archive: archive, log: slog.With("component", "atomicstore")}

	scripts := map[string]*string{
		"scripts/dequeue_due.lua":               &s.dequeueSHA,
		"scripts/increment_attempt.lua":         &s.incrementSHA,
		"scripts/conditional_status_update.lua": &s.conditionalUpdateSHA,
		"scripts/archive_old.lua":               &s.archiveSHA,
		"scripts/recover_orphans.lua":           &s.recoverOrphansSHA,
	}
	for path, dst := range scripts {
		body, err := luaScripts.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading embedded script %s: %w", path, err)
		}
		sha, err := rdb.ScriptLoad(ctx, string(body)).Result()
		if err != nil {
			return nil, fmt.Errorf("loading script %s: %w", path, err)
		}
		*dst = sha
	}

	return s, nil
}

// Ping checks connectivity to the backing Redis instance, for use by
// health check endpoints.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// eval runs a script by SHA, re-loading it on NOSCRIPT (e.g. after a
// Redis restart flushed the script cache).
func (s *Store) eval(ctx context.Context, shaPath string, sha *string, keys []string, args ...any) (any, error) {
	res, err := s.rdb.EvalSha(ctx, *sha, keys, args...).Result()
	if err != nil && isNoScript(err) {
		body, rerr := luaScripts.ReadFile(shaPath)
		if rerr != nil {
			return nil, rerr
		}
		newSHA, rerr := s.rdb.ScriptLoad(ctx, string(body)).Result()
		if rerr != nil {
			return nil, rerr
		}
		*sha = newSHA
		res, err = s.rdb.EvalSha(ctx, *sha, keys, args...).Result()
	}
	return res, err
}

func isNoScript(err error) bool {
	return err != nil && len(err.Error()) >= 8 && err.Error()[:8] == "NOSCRIPT"
}

// DequeueDue claims up to limit Pending items due at or before now,
// flips them to InProgress, and returns them ordered by (priority asc,
// created_at asc) tie-break rule.
func (s *Store) DequeueDue(ctx context.Context, now time.Time, limit int) ([]*callmodel.CallScheduleItem, error) {
	res, err := s.eval(ctx, "scripts/dequeue_due.lua", &s.dequeueSHA,
		[]string{keyByTime, keyPrefix, keyInProgress},
		now.UTC().Unix(), limit, now.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, callerrors.New(callerrors.KindStoreTransient, "dequeue_due failed", err)
	}

	ids, err := toStringSlice(res)
	if err != nil {
		return nil, callerrors.New(callerrors.KindStoreCorrupt, "dequeue_due returned unexpected shape", err)
	}

	items := make([]*callmodel.CallScheduleItem, 0, len(ids))
	for _, id := range ids {
		item, err := s.getItem(ctx, id)
		if err != nil {
			s.log.Warn("dequeued item vanished before hydration", "id", id, "error", err)
			continue
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority < items[j].Priority
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	s.log.Info("atomically claimed due calls", "count", len(items))
	return items, nil
}

// IncrementAttemptAction is the action increment_attempt reports.
type IncrementAttemptAction string

// Supported actions.
const (
	ActionRetry     IncrementAttemptAction = "retry"
	ActionMaxReached IncrementAttemptAction = "max_reached"
)

// retryBackoffSeconds is the exponential backoff schedule
// increment_attempt.lua applies to the retry's by_time score: attempts
// 1..3 wait 300/900/1800s, attempt 4+ caps at 1800s. Mirrors
// pkg/callexec.RetryDelay's schedule, which reports the same numbers
// for logging; the two must stay in sync.
const retryBackoffSeconds = "300,900,1800"

// IncrementAttempt atomically increments attempt_count, failing the
// item permanently or re-queueing it for retry no earlier than its
// original scheduled time and no sooner than the attempt's exponential
// backoff allows.
func (s *Store) IncrementAttempt(ctx context.Context, id string, maxAttempts int) (int, IncrementAttemptAction, error) {
	_ = maxAttempts // max_attempts is read from the stored hash by the script itself
	now := time.Now().UTC()
	res, err := s.eval(ctx, "scripts/increment_attempt.lua", &s.incrementSHA,
		[]string{itemKey(id), keyByTime, keyInProgress},
		now.Format(time.RFC3339Nano), id, now.Unix(), retryBackoffSeconds)
	if err != nil {
		return 0, "", callerrors.New(callerrors.KindStoreTransient, "increment_attempt failed", err)
	}

	arr, ok := res.([]any)
	if !ok || len(arr) != 2 {
		return 0, "", callerrors.New(callerrors.KindStoreCorrupt, "increment_attempt returned unexpected shape", nil)
	}
	count, action, err := parseIncrementResult(arr)
	if err != nil {
		return 0, "", callerrors.New(callerrors.KindStoreCorrupt, "increment_attempt malformed result", err)
	}

	s.log.Info("attempt incremented", "id", id, "count", count, "action", action)
	return count, action, nil
}

// ConditionalStatusUpdate is a CAS on status.
func (s *Store) ConditionalStatusUpdate(ctx context.Context, id string, expected, newStatus callmodel.CallStatus, notes string) (bool, error) {
	now := time.Now().UTC()
	res, err := s.eval(ctx, "scripts/conditional_status_update.lua", &s.conditionalUpdateSHA,
		[]string{itemKey(id), keyByTime, keyInProgress},
		string(expected), string(newStatus), now.Format(time.RFC3339Nano), notes, id, now.Unix())
	if err != nil {
		return false, callerrors.New(callerrors.KindStoreTransient, "conditional_status_update failed", err)
	}

	n, ok := res.(int64)
	if !ok {
		return false, callerrors.New(callerrors.KindStoreCorrupt, "conditional_status_update returned unexpected shape", nil)
	}
	success := n == 1
	if success {
		s.log.Info("status updated", "id", id, "from", expected, "to", newStatus)
	} else {
		s.log.Warn("status update CAS failed", "id", id, "expected", expected, "to", newStatus)
	}
	return success, nil
}

// BatchSchedule transactionally writes each item's hash, due-index
// entry, and patient-set membership. All-or-nothing.
func (s *Store) BatchSchedule(ctx context.Context, items []*callmodel.CallScheduleItem) error {
	if len(items) == 0 {
		return nil
	}

	pipe := s.rdb.TxPipeline()
	for _, item := range items {
		m := item.ToMap()
		anyMap := make(map[string]any, len(m))
		for k, v := range m {
			anyMap[k] = v
		}
		pipe.HSet(ctx, itemKey(item.ID), anyMap)
		pipe.ZAdd(ctx, keyByTime, redis.Z{Score: float64(item.ScheduledTime.UTC().Unix()), Member: item.ID})
		if item.PatientID != "" {
			pipe.SAdd(ctx, patientKey(item.PatientID), item.ID)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return callerrors.New(callerrors.KindStoreTransient, "batch_schedule failed", err)
	}
	s.log.Info("batch scheduled calls atomically", "count", len(items))
	return nil
}

// ArchiveOld moves terminal items older than cutoff into the durable
// archive tier, removing them from the hot path.
func (s *Store) ArchiveOld(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.eval(ctx, "scripts/archive_old.lua", &s.archiveSHA,
		[]string{keyPrefix, keyArchive},
		float64(cutoff.UTC().UnixNano())/1e9)
	if err != nil {
		return 0, callerrors.New(callerrors.KindStoreTransient, "archive_old failed", err)
	}

	ids, err := toStringSlice(res)
	if err != nil {
		return 0, callerrors.New(callerrors.KindStoreCorrupt, "archive_old returned unexpected shape", err)
	}

	if s.archive != nil {
		for _, id := range ids {
			raw, err := s.rdb.HGet(ctx, keyArchive, id).Result()
			if err != nil {
				s.log.Warn("could not read archived payload for durable persist", "id", id, "error", err)
				continue
			}
			if err := s.persistArchived(ctx, id, raw); err != nil {
				s.log.Error("durable archive persist failed", "id", id, "error", err)
			}
		}
	}

	s.log.Info("archived old calls", "count", len(ids), "cutoff", cutoff)
	return len(ids), nil
}

func (s *Store) persistArchived(ctx context.Context, id, rawPayload string) error {
	// rawPayload is the JSON-encoded flat [field, value, field, value, ...]
	// array cjson.encode(HGETALL) produces; re-flatten into the map shape
	// ArchivedCall.Payload expects.
	var flat []string
	if err := json.Unmarshal([]byte(rawPayload), &flat); err != nil {
		return fmt.Errorf("decoding archived payload: %w", err)
	}
	m := make(map[string]string, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		m[flat[i]] = flat[i+1]
	}
	item := callmodel.CallScheduleItemFromMap(m)
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("re-encoding archived item: %w", err)
	}

	return s.archive.Put(ctx, &callmodel.ArchivedCall{
		ID:         id,
		PatientID:  item.PatientID,
		CallType:   item.CallType,
		ArchivedAt: time.Now().UTC(),
		Payload:    payload,
	})
}

// RecoverOrphans CAS's InProgress items whose claim is older than
// threshold back to Pending, re-inserting them into by_time scored at
// now (not their original scheduled time, since that firing time has
// already passed and the item must be re-picked promptly). Used by the
// worker pool's periodic orphan reaper and its startup sweep.
func (s *Store) RecoverOrphans(ctx context.Context, threshold, now time.Time, notes string) ([]string, error) {
	res, err := s.eval(ctx, "scripts/recover_orphans.lua", &s.recoverOrphansSHA,
		[]string{keyInProgress, keyByTime, keyPrefix},
		threshold.UTC().Unix(), now.UTC().Unix(), now.UTC().Format(time.RFC3339Nano), notes)
	if err != nil {
		return nil, callerrors.New(callerrors.KindStoreTransient, "recover_orphans failed", err)
	}

	ids, err := toStringSlice(res)
	if err != nil {
		return nil, callerrors.New(callerrors.KindStoreCorrupt, "recover_orphans returned unexpected shape", err)
	}

	if len(ids) > 0 {
		s.log.Warn("recovered orphaned in-progress calls", "count", len(ids), "ids", ids)
	}
	return ids, nil
}

// GetWithLock acquires a short-lived named lock, snapshots the item,
// and releases the lock. Used for rare multi-step edits outside the
// hot CAS path.
func (s *Store) GetWithLock(ctx context.Context, id string, ttl time.Duration) (*callmodel.CallScheduleItem, error) {
	lk := lockKey(id)
	acquired, err := s.rdb.SetNX(ctx, lk, "locked", ttl).Result()
	if err != nil {
		return nil, callerrors.New(callerrors.KindStoreTransient, "lock acquisition failed", err)
	}
	if !acquired {
		return nil, callerrors.New(callerrors.KindStoreTransient, fmt.Sprintf("could not acquire lock for %s", id), nil)
	}
	defer func() {
		if err := s.rdb.Del(ctx, lk).Err(); err != nil {
			s.log.Error("failed to release lock", "id", id, "error", err)
		}
	}()

	return s.getItem(ctx, id)
}

func (s *Store) getItem(ctx context.Context, id string) (*callmodel.CallScheduleItem, error) {
	m, err := s.rdb.HGetAll(ctx, itemKey(id)).Result()
	if err != nil {
		return nil, callerrors.New(callerrors.KindStoreTransient, "hgetall failed", err)
	}
	if len(m) == 0 {
		return nil, callerrors.New(callerrors.KindStoreCorrupt, fmt.Sprintf("call %s not found", id), nil)
	}
	return callmodel.CallScheduleItemFromMap(m), nil
}

// GetByID reads an item snapshot without locking.
func (s *Store) GetByID(ctx context.Context, id string) (*callmodel.CallScheduleItem, error) {
	return s.getItem(ctx, id)
}

// GetByPatient returns all non-archived items for a patient.
func (s *Store) GetByPatient(ctx context.Context, patientID string) ([]*callmodel.CallScheduleItem, error) {
	ids, err := s.rdb.SMembers(ctx, patientKey(patientID)).Result()
	if err != nil {
		return nil, callerrors.New(callerrors.KindStoreTransient, "smembers failed", err)
	}
	items := make([]*callmodel.CallScheduleItem, 0, len(ids))
	for _, id := range ids {
		item, err := s.getItem(ctx, id)
		if err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// PendingInWindow returns Pending items due in [from, to], ordered by
// (priority asc, created_at asc).
func (s *Store) PendingInWindow(ctx context.Context, from, to time.Time) ([]*callmodel.CallScheduleItem, error) {
	ids, err := s.rdb.ZRangeByScore(ctx, keyByTime, &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", from.UTC().Unix()),
		Max: fmt.Sprintf("%d", to.UTC().Unix()),
	}).Result()
	if err != nil {
		return nil, callerrors.New(callerrors.KindStoreTransient, "zrangebyscore failed", err)
	}
	items := make([]*callmodel.CallScheduleItem, 0, len(ids))
	for _, id := range ids {
		item, err := s.getItem(ctx, id)
		if err != nil {
			continue
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority < items[j].Priority
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

// SaveRecord writes a CallRecord hash (write-once from workers).
func (s *Store) SaveRecord(ctx context.Context, rec *callmodel.CallRecord) error {
	m := rec.ToMap()
	anyMap := make(map[string]any, len(m))
	for k, v := range m {
		anyMap[k] = v
	}
	if err := s.rdb.HSet(ctx, recordKey(rec.ID), anyMap).Err(); err != nil {
		return callerrors.New(callerrors.KindStoreTransient, "save_record failed", err)
	}
	return nil
}

// SaveAnalysis persists a Transcript Analyzer result under its session
// id, independent of the CallScheduleItems it produced, so the
// analysis itself can be retrieved later for audit or display.
func (s *Store) SaveAnalysis(ctx context.Context, sessionID string, payload []byte) error {
	err := s.rdb.HSet(ctx, analysisKey(sessionID), map[string]any{
		"payload":     string(payload),
		"analyzed_at": time.Now().UTC().Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		return callerrors.New(callerrors.KindStoreTransient, "save_analysis failed", err)
	}
	return nil
}

// GetAnalysis retrieves the raw JSON payload previously persisted by
// SaveAnalysis for sessionID. ok is false when nothing was stored.
func (s *Store) GetAnalysis(ctx context.Context, sessionID string) (payload []byte, ok bool, err error) {
	raw, rerr := s.rdb.HGet(ctx, analysisKey(sessionID), "payload").Result()
	if rerr == redis.Nil {
		return nil, false, nil
	}
	if rerr != nil {
		return nil, false, callerrors.New(callerrors.KindStoreTransient, "get_analysis failed", rerr)
	}
	return []byte(raw), true, nil
}

func toStringSlice(v any) ([]string, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", v)
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("expected string element, got %T", e)
		}
		out = append(out, s)
	}
	return out, nil
}

func parseIncrementResult(arr []any) (int, IncrementAttemptAction, error) {
	countStr, ok := arr[0].(string)
	var count int64
	var err error
	if ok {
		count, err = parseInt64(countStr)
	} else if n, ok := arr[0].(int64); ok {
		count = n
	} else {
		return 0, "", fmt.Errorf("unexpected count type %T", arr[0])
	}
	if err != nil {
		return 0, "", err
	}
	action, ok := arr[1].(string)
	if !ok {
		return 0, "", fmt.Errorf("unexpected action type %T", arr[1])
	}
	return int(count), IncrementAttemptAction(action), nil
}

func parseInt64(s string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
