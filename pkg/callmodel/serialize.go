package callmodel

import (
	"encoding/json"
	"strconv"
	"time"
)

// timeLayout is precise enough to round-trip through Redis hash
// fields without losing sub-second resolution.
const timeLayout = time.RFC3339Nano

// ToMap flattens a CallScheduleItem into a string-keyed map suitable
// for a Redis hash. Metadata is JSON-encoded; absent optional fields
// round-trip as empty strings.
func (c *CallScheduleItem) ToMap() map[string]string {
	metadataJSON := "{}"
	if len(c.Metadata) > 0 {
		if b, err := json.Marshal(c.Metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	return map[string]string{
		"id":                        c.ID,
		"patient_id":                c.PatientID,
		"patient_phone":             c.PatientPhone,
		"scheduled_time":            c.ScheduledTime.UTC().Format(timeLayout),
		"scheduled_time_epoch":      strconv.FormatInt(c.ScheduledTime.UTC().Unix(), 10),
		"updated_at_epoch":          strconv.FormatInt(c.UpdatedAt.UTC().Unix(), 10),
		"call_type":                 string(c.CallType),
		"priority":                  strconv.Itoa(c.Priority),
		"llm_prompt":                c.LLMPrompt,
		"status":                    string(c.Status),
		"max_attempts":              strconv.Itoa(c.MaxAttempts),
		"attempt_count":             strconv.Itoa(c.AttemptCount),
		"related_discharge_order_id": c.RelatedDischargeOrderID,
		"metadata":                  metadataJSON,
		"notes":                     c.Notes,
		"created_at":                c.CreatedAt.UTC().Format(timeLayout),
		"updated_at":                c.UpdatedAt.UTC().Format(timeLayout),
	}
}

// CallScheduleItemFromMap reconstructs a CallScheduleItem from a Redis
// hash, tolerating missing/empty fields.
func CallScheduleItemFromMap(m map[string]string) *CallScheduleItem {
	c := &CallScheduleItem{
		ID:                      m["id"],
		PatientID:               m["patient_id"],
		PatientPhone:            m["patient_phone"],
		CallType:                CallTypeFromString(m["call_type"]),
		LLMPrompt:               m["llm_prompt"],
		Status:                  CallStatusFromString(m["status"]),
		RelatedDischargeOrderID: m["related_discharge_order_id"],
		Notes:                   m["notes"],
	}

	c.Priority = atoiOr(m["priority"], 3)
	c.MaxAttempts = atoiOr(m["max_attempts"], 3)
	c.AttemptCount = atoiOr(m["attempt_count"], 0)
	c.ScheduledTime = parseTimeOrZero(m["scheduled_time"])
	c.CreatedAt = parseTimeOrZero(m["created_at"])
	c.UpdatedAt = parseTimeOrZero(m["updated_at"])

	if raw := m["metadata"]; raw != "" {
		var meta map[string]any
		if err := json.Unmarshal([]byte(raw), &meta); err == nil {
			c.Metadata = meta
		}
	}

	return c
}

// ToMap flattens a CallRecord into a string-keyed map for Redis hash
// storage.
func (r *CallRecord) ToMap() map[string]string {
	patientResponsesJSON := "{}"
	if len(r.PatientResponses) > 0 {
		if b, err := json.Marshal(r.PatientResponses); err == nil {
			patientResponsesJSON = string(b)
		}
	}
	additionalJSON := "[]"
	if len(r.AdditionalCallsScheduled) > 0 {
		if b, err := json.Marshal(r.AdditionalCallsScheduled); err == nil {
			additionalJSON = string(b)
		}
	}

	m := map[string]string{
		"id":                         r.ID,
		"call_schedule_item_id":      r.CallScheduleItemID,
		"patient_id":                 r.PatientID,
		"status":                     string(r.Status),
		"room_name":                  r.RoomName,
		"participant_identity":       r.ParticipantIdentity,
		"error_message":              r.ErrorMessage,
		"retry_count":                strconv.Itoa(r.RetryCount),
		"conversation_summary":       r.ConversationSummary,
		"patient_responses":         patientResponsesJSON,
		"additional_calls_scheduled": additionalJSON,
		"created_at":                 r.CreatedAt.UTC().Format(timeLayout),
		"updated_at":                 r.UpdatedAt.UTC().Format(timeLayout),
	}

	if r.StartedAt != nil {
		m["started_at"] = r.StartedAt.UTC().Format(timeLayout)
	} else {
		m["started_at"] = ""
	}
	if r.EndedAt != nil {
		m["ended_at"] = r.EndedAt.UTC().Format(timeLayout)
	} else {
		m["ended_at"] = ""
	}
	if r.DurationSeconds != nil {
		m["duration_seconds"] = strconv.FormatFloat(*r.DurationSeconds, 'f', -1, 64)
	} else {
		m["duration_seconds"] = ""
	}

	return m
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseTimeOrZero(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
