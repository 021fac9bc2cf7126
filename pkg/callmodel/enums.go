// Package callmodel defines the call-scheduling domain entities: the
// scheduled item, its execution record, and the enums that drive the
// scheduler and worker pool state machines.
package callmodel

import (
	"log/slog"
	"strings"
)

// CallType identifies the purpose of a scheduled follow-up call.
type CallType string

// Supported call types.
const (
	CallTypeDischargeReminder CallType = "discharge_reminder"
	CallTypeWellnessCheck     CallType = "wellness_check"
	CallTypeMedicationReminder CallType = "medication_reminder"
	CallTypeFollowUp          CallType = "follow_up"
	CallTypeUrgent            CallType = "urgent"
	CallTypeCompressionCheck  CallType = "compression_check"
	CallTypeActivityGuidance  CallType = "activity_guidance"
	CallTypeGeneralFollowup   CallType = "general_followup"
)

// callTypeAliases maps loosely-spelled values (as produced by an LLM
// classifier or legacy callers) onto the canonical CallType values.
var callTypeAliases = map[string]CallType{
	"discharge_reminder":  CallTypeDischargeReminder,
	"discharge_followup":  CallTypeDischargeReminder,
	"wellness_check":      CallTypeWellnessCheck,
	"wellness_call":       CallTypeWellnessCheck,
	"medication_reminder": CallTypeMedicationReminder,
	"medication_check":    CallTypeMedicationReminder,
	"follow_up":           CallTypeFollowUp,
	"follow_up_call":      CallTypeFollowUp,
	"urgent":              CallTypeUrgent,
	"compression_check":   CallTypeCompressionCheck,
	"compression_reminder": CallTypeCompressionCheck,
	"activity_guidance":   CallTypeActivityGuidance,
	"general_followup":    CallTypeGeneralFollowup,
	"general_follow_up":   CallTypeGeneralFollowup,
	"followup":            CallTypeGeneralFollowup,
}

// CallTypeFromString tolerantly parses a call type, accepting the
// canonical form and known aliases. Unknown values map to
// CallTypeGeneralFollowup so a misbehaving LLM classifier never blocks
// scheduling.
func CallTypeFromString(s string) CallType {
	key := strings.ToLower(strings.TrimSpace(s))
	if ct, ok := callTypeAliases[key]; ok {
		return ct
	}
	slog.Warn("unrecognized call type, defaulting to general_followup", "value", s)
	return CallTypeGeneralFollowup
}

// CallStatus is the lifecycle state of a CallScheduleItem.
type CallStatus string

// Supported statuses, matching the scheduler's state machine.
const (
	StatusPending    CallStatus = "pending"
	StatusInProgress CallStatus = "in_progress"
	StatusCompleted  CallStatus = "completed"
	StatusFailed     CallStatus = "failed"
	StatusCancelled  CallStatus = "cancelled"
	StatusNoAnswer   CallStatus = "no_answer"
	StatusVoicemail  CallStatus = "voicemail"
)

var callStatusAliases = map[string]CallStatus{
	"pending":     StatusPending,
	"in_progress": StatusInProgress,
	"inprogress":  StatusInProgress,
	"completed":   StatusCompleted,
	"answered":    StatusCompleted,
	"failed":      StatusFailed,
	"cancelled":   StatusCancelled,
	"canceled":    StatusCancelled,
	"no_answer":   StatusNoAnswer,
	"noanswer":    StatusNoAnswer,
	"voicemail":   StatusVoicemail,
	"voice_mail":  StatusVoicemail,
}

// CallStatusFromString tolerantly parses a call status. Unknown values
// map to StatusFailed with a logged warning: the boundary where
// free-text from the fabric/LLM meets the state machine must never
// produce an unrepresentable state.
func CallStatusFromString(s string) CallStatus {
	key := strings.ToLower(strings.TrimSpace(s))
	if cs, ok := callStatusAliases[key]; ok {
		return cs
	}
	slog.Warn("unrecognized call status, defaulting to failed", "value", s)
	return StatusFailed
}

// isTerminal reports whether a status has no further worker-driven
// transitions and must be removed from the due index.
func (s CallStatus) isTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// InstructionCategory classifies a captured discharge instruction.
type InstructionCategory string

// Supported categories.
const (
	CategoryMedication InstructionCategory = "medication"
	CategoryActivity   InstructionCategory = "activity"
	CategoryWound      InstructionCategory = "wound"
	CategoryDiet       InstructionCategory = "diet"
	CategoryFollowup   InstructionCategory = "followup"
	CategoryWarning    InstructionCategory = "warning"
	CategoryDevice     InstructionCategory = "device"
	CategoryPrecaution InstructionCategory = "precaution"
	CategoryOther      InstructionCategory = "other"
)
