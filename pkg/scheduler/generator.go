package scheduler

import (
	"time"

	"github.com/chriscow/postop-callsvc/pkg/callmodel"
	"github.com/google/uuid"
)

const defaultMaxAttempts = 3

// GenerateCallsForPatient expands every order's template into one or
// more CallScheduleItems, then appends a general wellness-check call,
// mirroring CallScheduler.generate_calls_for_patient.
func GenerateCallsForPatient(patientID, patientPhone, patientName string, dischargeTime time.Time, orders []*callmodel.DischargeOrder) []*callmodel.CallScheduleItem {
	var calls []*callmodel.CallScheduleItem

	for _, order := range orders {
		if order.CallTemplate == nil {
			continue
		}
		calls = append(calls, generateCallsFromOrder(order, patientID, patientPhone, patientName, dischargeTime)...)
	}

	calls = append(calls, generateWellnessCheckCall(patientID, patientPhone, patientName, dischargeTime))

	return calls
}

func generateCallsFromOrder(order *callmodel.DischargeOrder, patientID, patientPhone, patientName string, dischargeTime time.Time) []*callmodel.CallScheduleItem {
	tmpl := order.CallTemplate
	scheduledTimes := ParseTimingSpec(tmpl.Timing, dischargeTime)

	calls := make([]*callmodel.CallScheduleItem, 0, len(scheduledTimes))
	now := time.Now().UTC()
	for _, scheduledTime := range scheduledTimes {
		prompt := fillPromptTemplate(tmpl.PromptTemplate, patientName, order.OrderText)

		callType := tmpl.CallType
		if callType == "" {
			callType = callmodel.CallTypeDischargeReminder
		}

		calls = append(calls, &callmodel.CallScheduleItem{
			ID:                      uuid.NewString(),
			PatientID:               patientID,
			PatientPhone:            patientPhone,
			ScheduledTime:           scheduledTime.UTC(),
			CallType:                callType,
			Priority:                tmpl.Priority,
			LLMPrompt:               prompt,
			Status:                  callmodel.StatusPending,
			MaxAttempts:             defaultMaxAttempts,
			RelatedDischargeOrderID: order.ID,
			Metadata: map[string]any{
				"order_id":       order.ID,
				"original_timing": tmpl.Timing,
			},
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return calls
}

// generateWellnessCheckCall schedules a general courtesy call 18 hours
// after discharge, independent of any order, matching
// CallScheduler._generate_wellness_check_call.
func generateWellnessCheckCall(patientID, patientPhone, patientName string, dischargeTime time.Time) *callmodel.CallScheduleItem {
	now := time.Now().UTC()
	prompt := "You are calling " + patientName + " for a courtesy wellness check after their procedure. " +
		"This is a general follow-up call to see how they're feeling. " +
		"Ask about their overall comfort, pain levels, and if they have any questions about their recovery. " +
		"Be warm and caring in your approach."

	return &callmodel.CallScheduleItem{
		ID:            uuid.NewString(),
		PatientID:     patientID,
		PatientPhone:  patientPhone,
		ScheduledTime: dischargeTime.Add(18 * time.Hour).UTC(),
		CallType:      callmodel.CallTypeWellnessCheck,
		Priority:      3,
		LLMPrompt:     prompt,
		Status:        callmodel.StatusPending,
		MaxAttempts:   defaultMaxAttempts,
		Metadata: map[string]any{
			"call_source": "automatic_wellness_check",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
