package dialogcontroller

import (
	"regexp"
	"strings"
)

// directAddressRe matches the assistant's name or a generic
// assistant-address token, case-insensitively, but is checked against
// directAddressExclusionRe first so third-person/possessive mentions
// ("maya is my daughter's name too", "ask maya", "maya mentioned")
// don't falsely trigger an exit.
var directAddressRe = regexp.MustCompile(`(?i)\b(maya|ai assistant|computer|system|translation service|interpreter|assistant)\b`)

var directAddressExclusionRe = regexp.MustCompile(`(?i)\b(ask|tell)\s+maya\b|\bmaya\s+(is|mentioned|said|told|asked)\b`)

var completionPhrases = []string{
	"that's all", "that's everything", "we're done", "we're all done",
	"we're finished", "that's it", "that covers it", "that covers everything",
	"any questions", "do you have any questions", "questions?",
	"all done", "finished", "complete",
}

// completionSofteners exclude a completion phrase match when the
// utterance is hedged rather than truly finished ("almost done",
// "done with this part", a trailing "so far").
var completionSofteners = []string{"almost", "done with this", "so far"}

var verificationPhrases = []string{
	"did you get", "did you capture", "do you have all the instructions",
	"are you getting this", "did you hear everything", "have you been recording",
	"are you capturing", "did you understand everything", "can you repeat",
	"what instructions did you get", "can you summarize", "tell me what you heard",
	"read back the instructions", "what did you capture", "do you need me to repeat anything",
}

var explicitExitPhrases = []string{"exit passive", "stop listening"}

var socialClosingPhrases = []string{
	"good luck", "take care", "feel better", "get well soon", "hope you feel better",
	"best wishes", "have a good day", "see you later", "until next time", "be safe",
	"rest well", "heal quickly", "wishing you well", "get some rest", "take it easy", "be well",
}

// confirmationPhrases are the EmailConfirm-state phrases that accept
// the spoken summary and authorize sending it.
var confirmationPhrases = []string{"that's correct", "yes, that's right", "looks good", "that's right", "correct"}

func containsAny(textLower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(textLower, p) {
			return true
		}
	}
	return false
}

// DetectExitSignal evaluates the five exit signals in priority order
// (highest wins) against one completed turn. hasInstructions gates
// SignalSocialClosing: a closing remark before anything has been
// collected is just small talk, not an exit.
func DetectExitSignal(text string, hasInstructions bool) ExitSignal {
	lower := strings.ToLower(text)

	if directAddressRe.MatchString(lower) && !directAddressExclusionRe.MatchString(lower) {
		return SignalDirectAddress
	}
	if containsAny(lower, completionPhrases) && !containsAny(lower, completionSofteners) {
		return SignalCompletionPhrase
	}
	if containsAny(lower, verificationPhrases) {
		return SignalVerificationRequest
	}
	if containsAny(lower, explicitExitPhrases) {
		return SignalExplicitExit
	}
	if hasInstructions && containsAny(lower, socialClosingPhrases) {
		return SignalSocialClosing
	}
	return SignalNone
}

// IsConfirmation reports whether text is an EmailConfirm-state
// confirmation phrase accepting the spoken summary.
func IsConfirmation(text string) bool {
	return containsAny(strings.ToLower(text), confirmationPhrases)
}
