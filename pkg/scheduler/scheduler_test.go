package scheduler

import (
	"testing"
	"time"

	"github.com/chriscow/postop-callsvc/pkg/callmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discharge = time.Date(2026, 6, 20, 10, 0, 0, 0, time.UTC)

func TestParseTimingSpec_HoursAfterDischarge(t *testing.T) {
	times := ParseTimingSpec("24_hours_after_discharge", discharge)
	require.Len(t, times, 1)
	assert.Equal(t, discharge.Add(24*time.Hour), times[0])
}

func TestParseTimingSpec_DailyFor(t *testing.T) {
	times := ParseTimingSpec("daily_for_3_days_starting_8_hours_after_discharge", discharge)
	require.Len(t, times, 3)
	start := discharge.Add(8 * time.Hour)
	assert.Equal(t, start, times[0])
	assert.Equal(t, start.AddDate(0, 0, 1), times[1])
	assert.Equal(t, start.AddDate(0, 0, 2), times[2])
}

func TestParseTimingSpec_DayBeforeDate(t *testing.T) {
	times := ParseTimingSpec("day_before_date:2026-06-23", discharge)
	require.Len(t, times, 1)
	assert.Equal(t, 14, times[0].Hour())
	assert.Equal(t, 22, times[0].Day())
	assert.Equal(t, time.June, times[0].Month())
}

func TestParseTimingSpec_WithinTwentyFourHours(t *testing.T) {
	times := ParseTimingSpec("within_24_hours", discharge)
	require.Len(t, times, 1)
	assert.Equal(t, discharge.Add(18*time.Hour), times[0])
}

func TestParseTimingSpec_UnknownFallsBackTo24Hours(t *testing.T) {
	times := ParseTimingSpec("some_nonsense_spec", discharge)
	require.Len(t, times, 1)
	assert.Equal(t, discharge.Add(24*time.Hour), times[0])
}

func TestGenerateCallsForPatient_AlwaysIncludesWellnessCheck(t *testing.T) {
	calls := GenerateCallsForPatient("patient-1", "+15555550100", "Jordan", discharge, nil)
	require.Len(t, calls, 1)
	assert.Equal(t, callmodel.CallTypeWellnessCheck, calls[0].CallType)
	assert.Equal(t, discharge.Add(18*time.Hour), calls[0].ScheduledTime)
}

func TestGenerateCallsForPatient_OrderWithTemplate(t *testing.T) {
	order := &callmodel.DischargeOrder{
		ID:        "vm_compression",
		OrderText: "Leave the compression bandage on for 24 hours.",
		CallTemplate: &callmodel.CallTemplate{
			Timing:         "24_hours_after_discharge",
			CallType:       callmodel.CallTypeDischargeReminder,
			Priority:       2,
			PromptTemplate: "You are calling {patient_name}. They were instructed: '{discharge_order}'.",
		},
	}

	calls := GenerateCallsForPatient("patient-1", "+15555550100", "Jordan", discharge, []*callmodel.DischargeOrder{order})
	require.Len(t, calls, 2) // one from the order, one wellness check

	var orderCall *callmodel.CallScheduleItem
	for _, c := range calls {
		if c.RelatedDischargeOrderID == "vm_compression" {
			orderCall = c
		}
	}
	require.NotNil(t, orderCall)
	assert.Contains(t, orderCall.LLMPrompt, "Jordan")
	assert.Contains(t, orderCall.LLMPrompt, "compression bandage")
	assert.Equal(t, 2, orderCall.Priority)
	assert.Equal(t, callmodel.StatusPending, orderCall.Status)
}

func TestGenerateCallsForPatient_SkipsOrdersWithoutTemplate(t *testing.T) {
	order := &callmodel.DischargeOrder{ID: "vm_shower", OrderText: "May shower tomorrow."}
	calls := GenerateCallsForPatient("patient-1", "+15555550100", "Jordan", discharge, []*callmodel.DischargeOrder{order})
	require.Len(t, calls, 1) // only the wellness check
	assert.Equal(t, callmodel.CallTypeWellnessCheck, calls[0].CallType)
}
