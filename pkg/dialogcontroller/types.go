// Package dialogcontroller implements the in-call passive-listening
// state machine a cooperative, single-speaker-at-a-time
// controller driven by user-turn-completed events from the
// transcriber, gating TTS output, collecting discharge instructions,
// and detecting exit signals in priority order.
package dialogcontroller

import (
	"time"

	"github.com/chriscow/postop-callsvc/pkg/callmodel"
)

// State is a position in the Intro -> Passive -> Summary ->
// EmailConfirm -> Terminal state machine.
type State string

// Supported states.
const (
	StateIntro        State = "intro"
	StatePassive      State = "passive"
	StateSummary      State = "summary"
	StateEmailConfirm State = "email_confirm"
	StateTerminal     State = "terminal"
)

// ExitSignal names the kind of utterance that ended passive listening.
type ExitSignal string

// Supported exit signals, in descending priority order.
const (
	SignalNone                ExitSignal = ""
	SignalDirectAddress       ExitSignal = "direct_address"
	SignalCompletionPhrase    ExitSignal = "completion_phrase"
	SignalVerificationRequest ExitSignal = "verification_request"
	SignalExplicitExit        ExitSignal = "explicit_exit"
	SignalSocialClosing       ExitSignal = "social_closing"
	SignalSilenceTimeout      ExitSignal = "silence_timeout"
)

// Session holds the per-call state the controller mutates as turns
// arrive. The zero value is not usable; construct with NewSession.
type Session struct {
	ID           string
	Patient      string
	PatientEmail string
	Language     string // explicit session metadata, empty if not configured

	InferredLanguage string // updated from transcriber language hints as turns arrive

	State    State
	TTSMuted bool
	LastTurn time.Time

	Instructions []callmodel.DischargeInstruction
	seen         map[string]struct{} // normalized text -> present, for dedup

	EmailConfirmed bool
}

// NewSession starts a session in Intro with no instructions collected.
func NewSession(id, patient, explicitLanguage string) *Session {
	return &Session{
		ID:       id,
		Patient:  patient,
		Language: explicitLanguage,
		State:    StateIntro,
		seen:     make(map[string]struct{}),
	}
}

// HasInstructions reports whether at least one instruction has been
// collected, the gate social closings require before they can exit
// passive listening.
func (s *Session) HasInstructions() bool {
	return len(s.Instructions) > 0
}
