package api

import (
	"time"

	"github.com/chriscow/postop-callsvc/pkg/callmodel"
)

// wireInstruction is the over-the-wire shape of a captured instruction;
// callmodel.DischargeInstruction carries no JSON tags since it's an
// internal domain type, not a wire format.
type wireInstruction struct {
	Text       string    `json:"text" binding:"required"`
	Category   string    `json:"category" binding:"required"`
	CapturedAt time.Time `json:"captured_at"`
}

func (w wireInstruction) toDomain() callmodel.DischargeInstruction {
	return callmodel.DischargeInstruction{
		Text:       w.Text,
		Category:   callmodel.InstructionCategory(w.Category),
		CapturedAt: w.CapturedAt,
	}
}

// AnalyzeSessionRequest is the body of POST /discharge-sessions/:id/analyze:
// the captured passive-listening session, handed over once the dialog
// controller reaches its Terminal state.
type AnalyzeSessionRequest struct {
	PatientID       string            `json:"patient_id" binding:"required"`
	PatientPhone    string            `json:"patient_phone" binding:"required"`
	PatientName     string            `json:"patient_name"`
	PatientLanguage string            `json:"patient_language"`
	DischargeTime   time.Time         `json:"discharge_time" binding:"required"`
	Instructions    []wireInstruction `json:"instructions" binding:"required"`
}

func (r AnalyzeSessionRequest) toDomainInstructions() []callmodel.DischargeInstruction {
	out := make([]callmodel.DischargeInstruction, len(r.Instructions))
	for i, w := range r.Instructions {
		out[i] = w.toDomain()
	}
	return out
}
