package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chriscow/postop-callsvc/pkg/callmodel"
)

// rawResponse mirrors the JSON shape requested in prompt.go.
type rawResponse struct {
	InstructionAnalysis []rawInstruction        `json:"instruction_analysis"`
	CallRecommendations []rawRecommendation      `json:"call_recommendations"`
	OverallAssessment   rawOverallAssessment     `json:"overall_assessment"`
}

type rawInstruction struct {
	OriginalText      string   `json:"original_text"`
	InstructionType   string   `json:"instruction_type"`
	KeyPoints         []string `json:"key_points"`
	Urgency           any      `json:"urgency"`
	RecommendedTiming string   `json:"recommended_timing"`
	ClinicalFlags     []string `json:"clinical_flags"`
	RequiresFollowUp  *bool    `json:"requires_follow_up"`
}

type rawRecommendation struct {
	CallType              string   `json:"call_type"`
	ScheduledTiming       string   `json:"scheduled_timing"`
	Priority              int      `json:"priority"`
	PersonalizedPrompt    string   `json:"personalized_prompt"`
	InstructionReferences []string `json:"instruction_references"`
	WellnessFocus         bool     `json:"wellness_focus"`
	LanguageSpecificNotes string   `json:"language_specific_notes"`
}

type rawOverallAssessment struct {
	Complexity                string   `json:"complexity"`
	SpecialConsiderations     []string `json:"special_considerations"`
	EstimatedRecoveryTimeline string   `json:"estimated_recovery_timeline"`
	AnalysisConfidence        float64  `json:"analysis_confidence"`
}

// extractJSONObject tolerates fenced code blocks and preamble text by
// slicing from the first '{' to the last '}', mirroring the original's
// llm_response.find('{') / rfind('}') approach.
func extractJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}

// parseResponse parses the LLM's raw text into a TranscriptAnalysis,
// tolerating fenced code blocks and remapping loosely-spelled enum
// values. Returns an error if no JSON object can be recovered at all;
// callers should fall back deterministically on error.
func parseResponse(text, sessionID, patientName, patientLanguage string) (*TranscriptAnalysis, error) {
	jsonStr, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var raw rawResponse
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("decoding analysis JSON: %w", err)
	}

	instructions := make([]AnalyzedInstruction, 0, len(raw.InstructionAnalysis))
	for _, ri := range raw.InstructionAnalysis {
		requiresFollowUp := true
		if ri.RequiresFollowUp != nil {
			requiresFollowUp = *ri.RequiresFollowUp
		}
		instructions = append(instructions, AnalyzedInstruction{
			OriginalText:      ri.OriginalText,
			InstructionType:   defaultString(ri.InstructionType, "general"),
			KeyPoints:         ri.KeyPoints,
			Urgency:           parseUrgency(ri.Urgency),
			RecommendedTiming: timingFromString(ri.RecommendedTiming),
			ClinicalFlags:     ri.ClinicalFlags,
			RequiresFollowUp:  requiresFollowUp,
		})
	}

	recs := make([]CallRecommendation, 0, len(raw.CallRecommendations))
	for _, rc := range raw.CallRecommendations {
		priority := rc.Priority
		if priority == 0 {
			priority = 3
		}
		recs = append(recs, CallRecommendation{
			CallType:              callmodel.CallTypeFromString(rc.CallType),
			ScheduledTiming:       timingFromString(rc.ScheduledTiming),
			Priority:              priority,
			LLMPrompt:             rc.PersonalizedPrompt,
			InstructionReferences: rc.InstructionReferences,
			WellnessFocus:         rc.WellnessFocus,
			LanguageSpecificNotes: rc.LanguageSpecificNotes,
		})
	}

	confidence := raw.OverallAssessment.AnalysisConfidence
	if confidence == 0 {
		confidence = 0.8
	}

	return &TranscriptAnalysis{
		SessionID:                 sessionID,
		PatientName:               patientName,
		PatientLanguage:           patientLanguage,
		AnalyzedInstructions:      instructions,
		CallRecommendations:       recs,
		OverallComplexity:         defaultString(raw.OverallAssessment.Complexity, "moderate"),
		SpecialConsiderations:     raw.OverallAssessment.SpecialConsiderations,
		EstimatedRecoveryTimeline: raw.OverallAssessment.EstimatedRecoveryTimeline,
		AnalysisConfidence:        confidence,
	}, nil
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// parseUrgency tolerates either a numeric 1-3 or a string label.
func parseUrgency(v any) int {
	switch val := v.(type) {
	case float64:
		n := int(val)
		if n < 1 || n > 3 {
			return 3
		}
		return n
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "urgent":
			return 1
		case "important":
			return 2
		default:
			return 3
		}
	default:
		return 3
	}
}

func timingFromString(s string) Timing {
	key := strings.ToLower(strings.TrimSpace(s))
	if t, ok := timingAliases[key]; ok {
		return t
	}
	return TimingNextDay
}
