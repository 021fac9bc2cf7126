package dialogcontroller

import "strings"

// resolveLanguage decides the patient's effective language for the
// summary language-repeat offer. Precedence (recorded in DESIGN.md):
// explicit session metadata, then a language hint inferred from
// transcriber turns, then English.
func resolveLanguage(explicit, inferred string) string {
	if explicit != "" {
		return explicit
	}
	if inferred != "" {
		return inferred
	}
	return "English"
}

func isEnglish(language string) bool {
	return strings.EqualFold(strings.TrimSpace(language), "english") || language == ""
}
