package dialogcontroller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chriscow/postop-callsvc/pkg/emailadapter"
	"github.com/chriscow/postop-callsvc/pkg/llmadapter"
	"github.com/chriscow/postop-callsvc/pkg/transcriber"
)

// defaultSilenceTimeout is the user-inactivity exit timer while in
// Passive state.
const defaultSilenceTimeout = 30 * time.Second

// Speaker is the TTS boundary the controller drives: mute/unmute at
// the session level so the model cannot produce audible speech while
// is_passive_mode is true, and a single-shot utterance once unmuted.
// Concrete implementations bind to whatever realtime session the call
// fabric's media pipeline is wired to.
type Speaker interface {
	SetMuted(muted bool)
	Say(text string)
}

// Controller drives one call's Intro -> Passive -> Summary ->
// EmailConfirm -> Terminal state machine
type Controller struct {
	llm            llmadapter.Client
	email          *emailadapter.Service
	speaker        Speaker
	silenceTimeout time.Duration
	log            *slog.Logger
}

// New constructs a Controller. llm may be nil, in which case turn
// classification always uses the keyword fallback; email may be nil,
// in which case the fail-open emailadapter.Service no-ops.
func New(llm llmadapter.Client, email *emailadapter.Service, speaker Speaker) *Controller {
	return &Controller{
		llm:            llm,
		email:          email,
		speaker:        speaker,
		silenceTimeout: defaultSilenceTimeout,
		log:            slog.With("component", "dialogcontroller"),
	}
}

// StartPassiveListening transitions Intro -> Passive and mutes TTS,
// start_passive_listening contract: "is_passive_mode =
// true and mutes TTS output."
func (c *Controller) StartPassiveListening(sess *Session) {
	sess.State = StatePassive
	sess.TTSMuted = true
	sess.LastTurn = time.Now()
	c.speaker.SetMuted(true)
}

// Run drives the session to completion, consuming turns from source
// until the session reaches Terminal or ctx is cancelled. Processing
// inside a single call is single-threaded cooperative: one turn is
// processed at a time.
func (c *Controller) Run(ctx context.Context, sess *Session, source transcriber.Source) {
	if sess.State == StateIntro {
		c.StartPassiveListening(sess)
	}

	turns := source.Turns()
	timer := time.NewTimer(c.silenceTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case turn, ok := <-turns:
			if !ok {
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			sess.LastTurn = time.Now()
			if turn.Language != "" {
				sess.InferredLanguage = turn.Language
			}
			c.handleTurn(ctx, sess, turn)
			if sess.State == StateTerminal {
				return
			}
			timer.Reset(c.silenceTimeout)

		case <-timer.C:
			if sess.State == StatePassive {
				c.exitPassive(ctx, sess, SignalSilenceTimeout)
			}
			if sess.State == StateTerminal {
				return
			}
			timer.Reset(c.silenceTimeout)
		}
	}
}

func (c *Controller) handleTurn(ctx context.Context, sess *Session, turn transcriber.TurnCompleted) {
	switch sess.State {
	case StatePassive:
		c.handlePassiveTurn(ctx, sess, turn.Text)
	case StateEmailConfirm:
		c.handleEmailConfirmTurn(ctx, sess, turn.Text)
	default:
		// Intro, Summary, Terminal: no turn-driven behavior here.
	}
}

func (c *Controller) handlePassiveTurn(ctx context.Context, sess *Session, text string) {
	if isInstruction, category := classifyInstruction(ctx, c.llm, text); isInstruction {
		if sess.CollectInstruction(text, category, time.Now()) {
			c.log.Debug("collected discharge instruction", "session", sess.ID, "category", category)
		}
	}

	// Exit signal detection is re-entrant-safe: the first matching
	// signal per turn wins, evaluated in priority order.
	if signal := DetectExitSignal(text, sess.HasInstructions()); signal != SignalNone {
		c.exitPassive(ctx, sess, signal)
	}
}

// exitPassive ends Passive, re-enables TTS, and speaks the
// deterministic summary. The controller never returns to Passive once
// Summary has begun.
func (c *Controller) exitPassive(ctx context.Context, sess *Session, signal ExitSignal) {
	sess.State = StateSummary
	sess.TTSMuted = false
	c.speaker.SetMuted(false)
	c.log.Info("exiting passive listening", "session", sess.ID, "signal", signal, "instructions", len(sess.Instructions))

	summary := BuildSummary(sess.Instructions)
	c.speaker.Say(summary)

	language := resolveLanguage(sess.Language, sess.InferredLanguage)
	if !isEnglish(language) {
		c.speaker.Say(LanguageRepeatOffer(language))
	}

	sess.State = StateEmailConfirm
}

func (c *Controller) handleEmailConfirmTurn(ctx context.Context, sess *Session, text string) {
	if !IsConfirmation(text) {
		return
	}
	sess.EmailConfirmed = true

	if err := c.email.SendSummary(ctx, emailadapter.Summary{
		To:        sess.PatientEmail,
		Subject:   fmt.Sprintf("Discharge instructions summary for %s", sess.Patient),
		BodyPlain: BuildSummary(sess.Instructions),
	}); err != nil {
		c.log.Error("failed to send discharge summary email", "session", sess.ID, "error", err)
	}

	sess.State = StateTerminal
}
