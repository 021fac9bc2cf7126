package dialogcontroller

import (
	"fmt"
	"strings"

	"github.com/chriscow/postop-callsvc/pkg/callmodel"
)

var categoryLabels = map[callmodel.InstructionCategory]string{
	callmodel.CategoryMedication: "Medication",
	callmodel.CategoryActivity:   "Activity",
	callmodel.CategoryWound:      "Wound Care",
	callmodel.CategoryDiet:       "Diet",
	callmodel.CategoryFollowup:   "Follow-up",
	callmodel.CategoryWarning:    "Warning Sign",
	callmodel.CategoryDevice:     "Device",
	callmodel.CategoryPrecaution: "Precaution",
	callmodel.CategoryOther:      "Other",
}

func categoryLabel(c callmodel.InstructionCategory) string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return "Other"
}

// BuildSummary renders the deterministic, numbered summary spoken on
// exit from Passive: one line per deduplicated instruction with its
// category label, in collection order. Instructions is already
// deduplicated by CollectInstruction, so no further filtering happens
// here.
func BuildSummary(instructions []callmodel.DischargeInstruction) string {
	if len(instructions) == 0 {
		return "I didn't capture any discharge instructions during passive listening."
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Here's a summary of the %d discharge instructions I captured:\n", len(instructions)))
	for i, instr := range instructions {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, categoryLabel(instr.Category), instr.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// LanguageRepeatOffer is the prompt spoken after the English summary
// when the patient's resolved language is not English.
func LanguageRepeatOffer(language string) string {
	return fmt.Sprintf("Would you like me to repeat that summary in %s?", language)
}
