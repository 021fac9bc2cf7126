package analyzer

import (
	"fmt"

	"github.com/chriscow/postop-callsvc/pkg/callmodel"
)

// minimalAnalysis is returned when there are no instructions to
// analyze at all (EmptyInstructions failure mode):
// a single wellness check at NextDay.
func minimalAnalysis(sessionID, patientName, patientLanguage string) *TranscriptAnalysis {
	return &TranscriptAnalysis{
		SessionID:       sessionID,
		PatientName:     patientName,
		PatientLanguage: patientLanguage,
		CallRecommendations: []CallRecommendation{
			{
				CallType:        callmodel.CallTypeWellnessCheck,
				ScheduledTiming: TimingNextDay,
				Priority:        3,
				LLMPrompt: fmt.Sprintf("Hello %s, this is a courtesy call from PostOp AI to check how you're feeling "+
					"after your procedure. How are you doing today?", patientName),
				WellnessFocus:         true,
				LanguageSpecificNotes: fmt.Sprintf("Use appropriate greeting for %s speakers", patientLanguage),
			},
		},
		OverallComplexity:         "simple",
		SpecialConsiderations:     []string{"No specific discharge instructions recorded"},
		EstimatedRecoveryTimeline: "Standard recovery expected",
		AnalysisConfidence:        0.5,
	}
}

// fallbackAnalysis is the deterministic analysis used in place of an
// LLM call that fails (LLMUnavailable) or returns unparseable
// output (LLMMalformed): one GeneralFollowup at +20h (NextDay) and one
// WellnessCheck at +68h (ThreeDays), confidence 0.6.
func fallbackAnalysis(sessionID, patientName, patientLanguage string, instructions []callmodel.DischargeInstruction) *TranscriptAnalysis {
	analyzed := make([]AnalyzedInstruction, 0, len(instructions))
	refs := make([]string, 0, len(instructions))
	for i, inst := range instructions {
		analyzed = append(analyzed, AnalyzedInstruction{
			OriginalText:      inst.Text,
			InstructionType:   string(inst.Category),
			KeyPoints:         []string{truncate(inst.Text, 100)},
			Urgency:           2,
			RecommendedTiming: TimingNextDay,
			RequiresFollowUp:  true,
		})
		refs = append(refs, fmt.Sprintf("instruction %d", i+1))
	}

	return &TranscriptAnalysis{
		SessionID:            sessionID,
		PatientName:          patientName,
		PatientLanguage:      patientLanguage,
		AnalyzedInstructions: analyzed,
		CallRecommendations: []CallRecommendation{
			{
				CallType:        callmodel.CallTypeGeneralFollowup,
				ScheduledTiming: TimingNextDay,
				Priority:        2,
				LLMPrompt: fmt.Sprintf("Hello %s, I'm calling to follow up on your discharge instructions "+
					"and see how you're feeling.", patientName),
				InstructionReferences: refs,
				WellnessFocus:         true,
			},
			{
				CallType:        callmodel.CallTypeWellnessCheck,
				ScheduledTiming: TimingThreeDays,
				Priority:        3,
				LLMPrompt: fmt.Sprintf("Hi %s, this is a follow-up wellness check. "+
					"How has your recovery been going?", patientName),
				WellnessFocus: true,
			},
		},
		OverallComplexity:         "moderate",
		EstimatedRecoveryTimeline: "Unable to determine; manual review recommended",
		AnalysisConfidence:        0.6,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
