package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/chriscow/postop-callsvc/pkg/callmodel"
	"github.com/chriscow/postop-callsvc/pkg/llmadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var instructions = []callmodel.DischargeInstruction{
	{Text: "Take ibuprofen every 6 hours.", Category: callmodel.CategoryMedication},
	{Text: "Keep the bandage dry for 24 hours.", Category: callmodel.CategoryWound},
}

func TestAnalyzeDischargeTranscript_EmptyInstructions(t *testing.T) {
	mock := llmadapter.NewMockClient()
	a := New(mock)

	result := a.AnalyzeDischargeTranscript(context.Background(), "sess-1", "Jordan", "English", nil)
	require.Len(t, result.CallRecommendations, 1)
	assert.Equal(t, callmodel.CallTypeWellnessCheck, result.CallRecommendations[0].CallType)
	assert.Equal(t, 0.5, result.AnalysisConfidence)
}

func TestAnalyzeDischargeTranscript_MalformedLLMOutputFallsBack(t *testing.T) {
	mock := llmadapter.NewMockClient()
	mock.QueueResponse("Sorry, I can't help with that today.")
	a := New(mock)

	result := a.AnalyzeDischargeTranscript(context.Background(), "sess-2", "Jordan", "English", instructions)
	require.Len(t, result.CallRecommendations, 2)
	assert.Equal(t, callmodel.CallTypeGeneralFollowup, result.CallRecommendations[0].CallType)
	assert.Equal(t, TimingNextDay, result.CallRecommendations[0].ScheduledTiming)
	assert.Equal(t, callmodel.CallTypeWellnessCheck, result.CallRecommendations[1].CallType)
	assert.Equal(t, TimingThreeDays, result.CallRecommendations[1].ScheduledTiming)
	assert.Equal(t, 0.6, result.AnalysisConfidence)
}

func TestAnalyzeDischargeTranscript_LLMUnavailableFallsBack(t *testing.T) {
	mock := llmadapter.NewMockClient()
	mock.QueueUnavailable()
	a := New(mock)

	result := a.AnalyzeDischargeTranscript(context.Background(), "sess-3", "Jordan", "English", instructions)
	assert.Equal(t, 0.6, result.AnalysisConfidence)
}

func TestAnalyzeDischargeTranscript_WellFormedJSON(t *testing.T) {
	mock := llmadapter.NewMockClient()
	mock.QueueResponse(`Here is the analysis:
` + "```json\n" + `{
  "instruction_analysis": [
    {"original_text": "Take ibuprofen every 6 hours.", "instruction_type": "medication", "key_points": ["dosing"], "urgency": 2, "recommended_timing": "next_day", "clinical_flags": [], "requires_follow_up": true}
  ],
  "call_recommendations": [
    {"call_type": "medication_reminder", "scheduled_timing": "next_day", "priority": 2, "personalized_prompt": "Hi Jordan, checking on your ibuprofen.", "instruction_references": ["instruction 1"], "wellness_focus": false, "language_specific_notes": ""}
  ],
  "overall_assessment": {"complexity": "moderate", "special_considerations": [], "estimated_recovery_timeline": "one week", "analysis_confidence": 0.9}
}
` + "```")
	a := New(mock)

	result := a.AnalyzeDischargeTranscript(context.Background(), "sess-4", "Jordan", "English", instructions)
	require.Len(t, result.CallRecommendations, 1)
	assert.Equal(t, callmodel.CallTypeMedicationReminder, result.CallRecommendations[0].CallType)
	assert.Equal(t, 0.9, result.AnalysisConfidence)
	assert.Equal(t, "moderate", result.OverallComplexity)
}

func TestToCallScheduleItems_ComputesOffsets(t *testing.T) {
	discharge := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	analysis := &TranscriptAnalysis{
		SessionID: "sess-5",
		CallRecommendations: []CallRecommendation{
			{CallType: callmodel.CallTypeWellnessCheck, ScheduledTiming: TimingNextDay, Priority: 3},
		},
	}

	items := ToCallScheduleItems(analysis, "patient-1", "+15555550100", discharge)
	require.Len(t, items, 1)
	assert.Equal(t, discharge.Add(20*time.Hour), items[0].ScheduledTime)
}
