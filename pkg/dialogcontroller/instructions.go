package dialogcontroller

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/chriscow/postop-callsvc/pkg/callerrors"
	"github.com/chriscow/postop-callsvc/pkg/callmodel"
	"github.com/chriscow/postop-callsvc/pkg/llmadapter"
)

// normalizeForDedup lowercases and trims trailing sentence punctuation
// so "Take two Tylenol every four hours." and "take two tylenol every
// four hours" collapse to the same dedup key.
func normalizeForDedup(text string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(text)), ".!?")
}

// CollectInstruction appends text as a discharge instruction unless a
// case- and trailing-punctuation-insensitive duplicate is already
// present. collected_instructions is append-only with a trailing
// de-dup filter, never retroactively merged.
func (s *Session) CollectInstruction(text string, category callmodel.InstructionCategory, at time.Time) bool {
	key := normalizeForDedup(text)
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}
	s.Instructions = append(s.Instructions, callmodel.DischargeInstruction{
		Text:       text,
		Category:   category,
		CapturedAt: at,
	})
	return true
}

type classifyResult struct {
	IsInstruction bool   `json:"is_instruction"`
	Category      string `json:"category"`
}

// classifyInstructionPrompt asks the LLM whether a turn is a true
// discharge instruction worth recording.
const classifyInstructionPrompt = `You are classifying one sentence spoken during a nurse's discharge instructions to a patient.
Decide whether it is an actual discharge instruction (something the patient must do, avoid, watch for, or follow up on) as opposed to small talk, a question, or filler.
Respond with JSON only: {"is_instruction": true|false, "category": "medication|activity|wound|diet|followup|warning|device|precaution|other"}`

// classifyInstruction asks the LLM classifier whether text is a true
// discharge instruction. On any LLM failure or malformed response it
// falls back to a deterministic keyword rule.
func classifyInstruction(ctx context.Context, llm llmadapter.Client, text string) (bool, callmodel.InstructionCategory) {
	if llm == nil {
		return keywordClassify(text)
	}

	resp, err := llm.ChatCompletion(ctx, llmadapter.Request{
		Model: "claude-sonnet-4-5",
		Messages: []llmadapter.Message{
			{Role: llmadapter.RoleSystem, Content: classifyInstructionPrompt},
			{Role: llmadapter.RoleUser, Content: text},
		},
		MaxTokens:   128,
		Temperature: 0,
		TimeoutS:    10,
	})
	if err != nil {
		slog.Warn("dialog controller: classification LLM call failed, using keyword fallback", "error", err)
		return keywordClassify(text)
	}

	raw, err := extractJSONObject(resp.Content)
	if err != nil {
		slog.Warn("dialog controller: classification response not JSON, using keyword fallback", "error", err)
		return keywordClassify(text)
	}

	var result classifyResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		slog.Warn("dialog controller: classification JSON malformed, using keyword fallback", "error", err)
		return keywordClassify(text)
	}
	if !result.IsInstruction {
		return false, ""
	}
	return true, categoryFromString(result.Category)
}

// extractJSONObject slices from the first '{' to the last '}' to
// tolerate a fenced code block or preamble around the JSON payload,
// the same tolerant-extraction approach pkg/analyzer uses for the
// Transcript Analyzer's LLM responses.
func extractJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return "", callerrors.New(callerrors.KindLLMMalformed, "no JSON object found in classifier response", nil)
	}
	return s[start : end+1], nil
}

func categoryFromString(s string) callmodel.InstructionCategory {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "medication":
		return callmodel.CategoryMedication
	case "activity":
		return callmodel.CategoryActivity
	case "wound":
		return callmodel.CategoryWound
	case "diet":
		return callmodel.CategoryDiet
	case "followup":
		return callmodel.CategoryFollowup
	case "warning":
		return callmodel.CategoryWarning
	case "device":
		return callmodel.CategoryDevice
	case "precaution":
		return callmodel.CategoryPrecaution
	default:
		return callmodel.CategoryOther
	}
}

// keywordClassify is the deterministic fallback classifier used when
// the LLM is unavailable or returns something unparseable: a true
// discharge instruction almost always names a concrete clinical
// category, so absence of any such keyword is treated as non-instruction
// small talk.
func keywordClassify(text string) (bool, callmodel.InstructionCategory) {
	lower := strings.ToLower(text)

	type rule struct {
		category callmodel.InstructionCategory
		keywords []string
	}
	rules := []rule{
		{callmodel.CategoryMedication, []string{"mg", "tablet", "pill", "medication", "dose", "prescription", "tylenol", "ibuprofen"}},
		{callmodel.CategoryWound, []string{"bandage", "dressing", "incision", "wound", "stitches", "sutures"}},
		{callmodel.CategoryActivity, []string{"exercise", "walk", "lifting", "lift", "activity", "rest for", "avoid heavy"}},
		{callmodel.CategoryDiet, []string{"eat", "diet", "fluids", "drink plenty", "nutrition"}},
		{callmodel.CategoryDevice, []string{"brace", "crutches", "cane", "monitor", "compression device"}},
		{callmodel.CategoryWarning, []string{"call us if", "go to the er", "emergency", "911", "warning sign"}},
		{callmodel.CategoryFollowup, []string{"follow up", "follow-up", "appointment", "see the doctor", "schedule a visit"}},
		{callmodel.CategoryPrecaution, []string{"avoid", "do not", "don't", "make sure not to"}},
	}

	for _, r := range rules {
		if containsAny(lower, r.keywords) {
			return true, r.category
		}
	}
	return false, ""
}
