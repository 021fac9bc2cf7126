package callexec

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/chriscow/postop-callsvc/pkg/atomicstore"
	"github.com/chriscow/postop-callsvc/pkg/callerrors"
	"github.com/chriscow/postop-callsvc/pkg/callmodel"
	"github.com/chriscow/postop-callsvc/pkg/fabric"
	"github.com/google/uuid"
)

// Config configures the executor's fabric binding.
type Config struct {
	AgentName          string
	SIPOutboundTrunkID string
}

// Executor runs one call's full prepare → dispatch → SIP → record →
// classify → retry cycle
type Executor struct {
	adapter fabric.Adapter
	store   *atomicstore.Store
	cfg     Config
	log     *slog.Logger
}

// New constructs an Executor.
func New(adapter fabric.Adapter, store *atomicstore.Store, cfg Config) *Executor {
	return &Executor{adapter: adapter, store: store, cfg: cfg, log: slog.With("component", "callexec")}
}

func roomName(item *callmodel.CallScheduleItem) string {
	return "followup-" + item.ID
}

func prepareMetadata(item *callmodel.CallScheduleItem) map[string]any {
	return map[string]any{
		"call_schedule_item_id": item.ID,
		"patient_phone":         item.PatientPhone,
		"call_type":             string(item.CallType),
		"related_order_id":      item.RelatedDischargeOrderID,
		"llm_prompt":            item.LLMPrompt,
	}
}

// Execute runs one attempt of item, writes the resulting CallRecord,
// applies the retry policy, and returns the final CallStatus.
func (e *Executor) Execute(ctx context.Context, item *callmodel.CallScheduleItem) callmodel.CallStatus {
	now := time.Now().UTC()
	record := &callmodel.CallRecord{
		ID:                 uuid.NewString(),
		CallScheduleItemID: item.ID,
		PatientID:          item.PatientID,
		StartedAt:          &now,
		RoomName:           roomName(item),
		RetryCount:         item.AttemptCount,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	dispatchID, err := e.adapter.CreateAgentDispatch(ctx, fabric.AgentDispatchRequest{
		AgentName: e.cfg.AgentName,
		RoomName:  record.RoomName,
		Metadata:  prepareMetadata(item),
	})
	if err != nil {
		return e.finishFailed(ctx, item, record, "dispatch failed: "+err.Error(), "", true)
	}

	participantID, err := e.adapter.CreateSIPParticipant(ctx, fabric.SIPCallRequest{
		RoomName:            record.RoomName,
		TrunkID:             e.cfg.SIPOutboundTrunkID,
		PhoneNumber:         item.PatientPhone,
		ParticipantIdentity: "patient",
		WaitUntilAnswered:   true,
	})
	if err != nil {
		var sipErr *fabric.SIPError
		if errors.As(err, &sipErr) {
			retryable := ClassifySIPError(sipErr.SIPStatusCode)
			return e.finishFailed(ctx, item, record, sipErr.Error(), sipErr.SIPStatusCode, retryable)
		}
		return e.finishFailed(ctx, item, record, "sip dial failed: "+err.Error(), "", true)
	}

	record.ParticipantIdentity = participantID
	ended := time.Now().UTC()
	record.EndedAt = &ended
	record.Status = callmodel.StatusCompleted
	record.CalculateDuration()
	record.ConversationSummary = "dispatched " + dispatchID + ", bridged participant " + participantID

	if err := e.store.SaveRecord(ctx, record); err != nil {
		e.log.Error("failed to save call record", "id", item.ID, "error", err)
	}
	if _, err := e.store.ConditionalStatusUpdate(ctx, item.ID, callmodel.StatusInProgress, callmodel.StatusCompleted, "call completed"); err != nil {
		e.log.Error("failed to mark call completed", "id", item.ID, "error", err)
	}

	e.log.Info("call completed", "id", item.ID, "room", record.RoomName)
	return callmodel.StatusCompleted
}

// finishFailed records the failure outcome and applies retry policy.
func (e *Executor) finishFailed(ctx context.Context, item *callmodel.CallScheduleItem, record *callmodel.CallRecord, message, sipStatusCode string, retryable bool) callmodel.CallStatus {
	ended := time.Now().UTC()
	record.EndedAt = &ended
	record.Status = callmodel.StatusFailed
	record.ErrorMessage = message
	record.CalculateDuration()

	if err := e.store.SaveRecord(ctx, record); err != nil {
		e.log.Error("failed to save call record", "id", item.ID, "error", err)
	}

	if !retryable {
		if _, err := e.store.ConditionalStatusUpdate(ctx, item.ID, callmodel.StatusInProgress, callmodel.StatusFailed, message); err != nil {
			e.log.Error("failed to mark call permanently failed", "id", item.ID, "error", err)
		}
		e.log.Warn("call permanently failed", "id", item.ID, "sip_status", sipStatusCode, "error", message)
		return callmodel.StatusFailed
	}

	count, action, err := e.store.IncrementAttempt(ctx, item.ID, item.MaxAttempts)
	if err != nil {
		e.log.Error("increment_attempt failed", "id", item.ID, "error", callerrors.New(callerrors.KindStoreTransient, "increment_attempt", err))
		return callmodel.StatusFailed
	}

	if action == atomicstore.ActionMaxReached {
		e.log.Warn("call exhausted retry policy", "id", item.ID, "attempts", count)
		return callmodel.StatusFailed
	}

	e.log.Info("call scheduled for retry", "id", item.ID, "attempt", count, "next_delay", RetryDelay(count))
	return callmodel.StatusPending
}
