package callmodel

import "time"

// CallScheduleItem is a single future follow-up call.
type CallScheduleItem struct {
	ID                   string
	PatientID            string
	PatientPhone         string // E.164
	ScheduledTime        time.Time
	CallType             CallType
	Priority             int // 1=urgent … 3=routine
	LLMPrompt            string
	Status               CallStatus
	MaxAttempts          int
	AttemptCount         int
	RelatedDischargeOrderID string // empty if absent
	Metadata             map[string]any
	Notes                string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CanRetry reports whether this item is eligible for another attempt,
//: attempt_count < max_attempts and status is one of the
// two retryable terminal-ish states.
func (c *CallScheduleItem) CanRetry() bool {
	if c.AttemptCount >= c.MaxAttempts {
		return false
	}
	return c.Status == StatusFailed || c.Status == StatusNoAnswer
}

// CallRecord is an append-only execution record for one call attempt.
type CallRecord struct {
	ID                       string
	CallScheduleItemID       string
	PatientID                string
	StartedAt                *time.Time
	EndedAt                  *time.Time
	DurationSeconds          *float64
	Status                   CallStatus // terminal: Completed | Failed | Voicemail | NoAnswer
	RoomName                 string
	ParticipantIdentity      string
	ErrorMessage             string
	RetryCount               int
	ConversationSummary      string
	PatientResponses         map[string]any
	AdditionalCallsScheduled []string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// CalculateDuration derives DurationSeconds from StartedAt/EndedAt when
// both are set.
func (r *CallRecord) CalculateDuration() {
	if r.StartedAt == nil || r.EndedAt == nil {
		return
	}
	d := r.EndedAt.Sub(*r.StartedAt).Seconds()
	r.DurationSeconds = &d
}

// DischargeInstruction is a single captured instruction from the
// passive-listening dialog controller, consumed by the Transcript
// Analyzer.
type DischargeInstruction struct {
	Text       string
	Category   InstructionCategory
	CapturedAt time.Time
}

// CallTemplate is the optional per-order template driving call
// generation: a timing-spec string, the call type to emit, its
// priority, and a prompt template filled with patient/order fields.
type CallTemplate struct {
	Timing         string
	CallType       CallType
	Priority       int
	PromptTemplate string
}

// DischargeOrder is a single clinician order that may carry a
// CallTemplate describing the follow-up call(s) it generates.
type DischargeOrder struct {
	ID           string
	PatientID    string
	PatientPhone string
	OrderText    string
	CallTemplate *CallTemplate // nil if this order generates no calls
}

// ArchivedCall is the durable-tier row a CallScheduleItem becomes once
// archive_old moves it out of the Atomic Store's hot path.
type ArchivedCall struct {
	ID         string
	PatientID  string
	CallType   CallType
	ArchivedAt time.Time
	Payload    []byte // JSON snapshot of the CallScheduleItem at archive time
}
