package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/chriscow/postop-callsvc/pkg/atomicstore"
	"github.com/chriscow/postop-callsvc/pkg/callmodel"
)

// Scheduler is the query/update facade the worker pool and HTTP API use
// on top of the Atomic Store, matching CallScheduler's non-atomic
// convenience methods (get_patient_calls, update_call_status, ...).
type Scheduler struct {
	store *atomicstore.Store
	log   *slog.Logger
}

// New wraps an Atomic Store as a Scheduler.
func New(store *atomicstore.Store) *Scheduler {
	return &Scheduler{store: store, log: slog.With("component", "scheduler")}
}

// ScheduleForPatient generates the full call set for a patient's
// discharge and atomically persists it in one transaction.
func (s *Scheduler) ScheduleForPatient(ctx context.Context, patientID, patientPhone, patientName string, dischargeTime time.Time, orders []*callmodel.DischargeOrder) ([]*callmodel.CallScheduleItem, error) {
	calls := GenerateCallsForPatient(patientID, patientPhone, patientName, dischargeTime, orders)
	if err := s.store.BatchSchedule(ctx, calls); err != nil {
		return nil, err
	}
	s.log.Info("generated and scheduled calls for patient", "patient_id", patientID, "count", len(calls))
	return calls, nil
}

// ScheduleFromAnalysis persists the CallScheduleItems a Transcript
// Analyzer recommendation set produces, used by the HTTP API's
// discharge-session analyze endpoint.
func (s *Scheduler) ScheduleFromAnalysis(ctx context.Context, calls []*callmodel.CallScheduleItem) error {
	if len(calls) == 0 {
		return nil
	}
	if err := s.store.BatchSchedule(ctx, calls); err != nil {
		return err
	}
	s.log.Info("scheduled calls from transcript analysis", "count", len(calls))
	return nil
}

// PendingCalls returns the Pending items due within [from, to].
func (s *Scheduler) PendingCalls(ctx context.Context, from, to time.Time) ([]*callmodel.CallScheduleItem, error) {
	items, err := s.store.PendingInWindow(ctx, from, to)
	if err != nil {
		return nil, err
	}
	pending := make([]*callmodel.CallScheduleItem, 0, len(items))
	for _, item := range items {
		if item.Status == callmodel.StatusPending {
			pending = append(pending, item)
		}
	}
	return pending, nil
}

// PatientCalls returns all scheduled calls for a patient, oldest
// scheduled_time first.
func (s *Scheduler) PatientCalls(ctx context.Context, patientID string) ([]*callmodel.CallScheduleItem, error) {
	items, err := s.store.GetByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	sortByScheduledTime(items)
	return items, nil
}

func sortByScheduledTime(items []*callmodel.CallScheduleItem) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].ScheduledTime.Before(items[j-1].ScheduledTime); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

// CallByID returns a single call's current snapshot.
func (s *Scheduler) CallByID(ctx context.Context, id string) (*callmodel.CallScheduleItem, error) {
	return s.store.GetByID(ctx, id)
}

// UpdateStatus reads the item's current status and CAS-updates it from
// that status to newStatus; it returns false when the status changed
// between the read and the update. Used by administrative endpoints
// (e.g. an operator cancelling a call).
func (s *Scheduler) UpdateStatus(ctx context.Context, id string, newStatus callmodel.CallStatus, notes string) (bool, error) {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return s.store.ConditionalStatusUpdate(ctx, id, item.Status, newStatus, notes)
}

// ArchiveOlderThan moves terminal items older than cutoff into the
// durable archive tier.
func (s *Scheduler) ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return s.store.ArchiveOld(ctx, cutoff)
}
