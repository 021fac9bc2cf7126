// Package analyzer is the Transcript Analyzer it turns a
// captured discharge instruction set into a structured analysis and a
// list of call recommendations, via one LLM call with a deterministic
// fallback on failure or malformed output.
package analyzer

import "github.com/chriscow/postop-callsvc/pkg/callmodel"

// Timing is a scheduling bucket, each a fixed offset from discharge.
type Timing string

// Supported timing buckets and their discharge offsets
const (
	TimingImmediate Timing = "immediate" // +3h
	TimingNextDay   Timing = "next_day"  // +20h
	TimingTwoDays   Timing = "two_days"  // +44h
	TimingThreeDays Timing = "three_days" // +68h
	TimingOneWeek   Timing = "one_week"  // +7d
	TimingTwoWeeks  Timing = "two_weeks" // +14d
)

var timingAliases = map[string]Timing{
	"immediate":  TimingImmediate,
	"next_day":   TimingNextDay,
	"next day":   TimingNextDay,
	"two_days":   TimingTwoDays,
	"two days":   TimingTwoDays,
	"three_days": TimingThreeDays,
	"three days": TimingThreeDays,
	"one_week":   TimingOneWeek,
	"one week":   TimingOneWeek,
	"two_weeks":  TimingTwoWeeks,
	"two weeks":  TimingTwoWeeks,
}

// AnalyzedInstruction is the per-instruction slice of the analysis.
type AnalyzedInstruction struct {
	OriginalText      string
	InstructionType   string
	KeyPoints         []string
	Urgency           int // 1=urgent, 2=important, 3=routine
	RecommendedTiming Timing
	ClinicalFlags     []string
	RequiresFollowUp  bool
}

// CallRecommendation is a single recommended follow-up call.
type CallRecommendation struct {
	CallType               callmodel.CallType
	ScheduledTiming        Timing
	Priority               int
	LLMPrompt              string
	InstructionReferences  []string
	WellnessFocus          bool
	LanguageSpecificNotes  string
}

// TranscriptAnalysis is the complete result of analyzing one session's
// captured instructions.
type TranscriptAnalysis struct {
	SessionID                string
	PatientName              string
	PatientLanguage          string
	AnalyzedInstructions     []AnalyzedInstruction
	CallRecommendations      []CallRecommendation
	OverallComplexity        string // simple | moderate | complex
	SpecialConsiderations    []string
	EstimatedRecoveryTimeline string
	AnalysisConfidence       float64
}

// TimingOffsetHours returns the discharge-relative offset for a
// timing bucket fixed conversion table.
func TimingOffsetHours(t Timing) float64 {
	switch t {
	case TimingImmediate:
		return 3
	case TimingNextDay:
		return 20
	case TimingTwoDays:
		return 44
	case TimingThreeDays:
		return 68
	case TimingOneWeek:
		return 7 * 24
	case TimingTwoWeeks:
		return 14 * 24
	default:
		return 20
	}
}
