package analyzer

import (
	"context"
	"log/slog"
	"time"

	"github.com/chriscow/postop-callsvc/pkg/callmodel"
	"github.com/chriscow/postop-callsvc/pkg/llmadapter"
	"github.com/google/uuid"
)

const (
	analysisModel       = "claude-sonnet-4-5"
	analysisMaxTokens   = 2048
	analysisTemperature = 0.2
	analysisTimeoutS    = 30
)

// Analyzer runs the Transcript Analyzer algorithm against an LLM
// adapter, falling back deterministically on failure or malformed
// output
type Analyzer struct {
	llm llmadapter.Client
	log *slog.Logger
}

// New constructs an Analyzer backed by llm.
func New(llm llmadapter.Client) *Analyzer {
	return &Analyzer{llm: llm, log: slog.With("component", "analyzer")}
}

// AnalyzeDischargeTranscript produces a TranscriptAnalysis for one
// session's captured instructions.
func (a *Analyzer) AnalyzeDischargeTranscript(ctx context.Context, sessionID, patientName, patientLanguage string, instructions []callmodel.DischargeInstruction) *TranscriptAnalysis {
	if len(instructions) == 0 {
		a.log.Warn("no instructions to analyze", "session_id", sessionID)
		return minimalAnalysis(sessionID, patientName, patientLanguage)
	}

	prompt := buildPrompt(patientName, patientLanguage, instructions)
	resp, err := a.llm.ChatCompletion(ctx, llmadapter.Request{
		Model:       analysisModel,
		MaxTokens:   analysisMaxTokens,
		Temperature: analysisTemperature,
		TimeoutS:    analysisTimeoutS,
		Messages: []llmadapter.Message{
			{Role: llmadapter.RoleSystem, Content: systemPrompt},
			{Role: llmadapter.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		a.log.Error("llm analysis call failed, using deterministic fallback", "session_id", sessionID, "error", err)
		return fallbackAnalysis(sessionID, patientName, patientLanguage, instructions)
	}

	analysis, err := parseResponse(resp.Content, sessionID, patientName, patientLanguage)
	if err != nil {
		a.log.Error("llm analysis response malformed, using deterministic fallback", "session_id", sessionID, "error", err)
		return fallbackAnalysis(sessionID, patientName, patientLanguage, instructions)
	}

	a.log.Info("completed llm analysis", "session_id", sessionID, "recommendations", len(analysis.CallRecommendations))
	return analysis
}

// ToCallScheduleItems converts each recommendation in an analysis into
// a CallScheduleItem anchored to dischargeTime, filling in the phone
// number the caller supplies.
func ToCallScheduleItems(analysis *TranscriptAnalysis, patientID, patientPhone string, dischargeTime time.Time) []*callmodel.CallScheduleItem {
	now := time.Now().UTC()
	items := make([]*callmodel.CallScheduleItem, 0, len(analysis.CallRecommendations))
	for _, rec := range analysis.CallRecommendations {
		offset := time.Duration(TimingOffsetHours(rec.ScheduledTiming) * float64(time.Hour))
		items = append(items, &callmodel.CallScheduleItem{
			ID:            uuid.NewString(),
			PatientID:     patientID,
			PatientPhone:  patientPhone,
			ScheduledTime: dischargeTime.Add(offset).UTC(),
			CallType:      rec.CallType,
			Priority:      rec.Priority,
			LLMPrompt:     rec.LLMPrompt,
			Status:        callmodel.StatusPending,
			MaxAttempts:   3,
			Metadata: map[string]any{
				"source":                 "transcript_analyzer",
				"session_id":             analysis.SessionID,
				"wellness_focus":         rec.WellnessFocus,
				"language_specific_note": rec.LanguageSpecificNotes,
			},
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return items
}
