package analyzer

import (
	"fmt"
	"strings"

	"github.com/chriscow/postop-callsvc/pkg/callmodel"
)

const systemPrompt = "You are a medical AI assistant specialized in analyzing patient discharge " +
	"instructions to determine optimal follow-up call scheduling. Respond with strict JSON only."

// buildPrompt renders the analysis prompt for one session, numbering
// each instruction with its category, per
// transcript_analyzer.py's _create_analysis_prompt.
func buildPrompt(patientName, patientLanguage string, instructions []callmodel.DischargeInstruction) string {
	var block strings.Builder
	for i, inst := range instructions {
		fmt.Fprintf(&block, "%d. [%s] %s\n", i+1, inst.Category, inst.Text)
	}

	return fmt.Sprintf(`PATIENT INFORMATION:
- Name: %s
- Preferred Language: %s

DISCHARGE INSTRUCTIONS TO ANALYZE:
%s

Provide your analysis as a JSON object with this structure:

{
  "instruction_analysis": [
    {
      "instruction_number": 1,
      "original_text": "exact text from instruction",
      "instruction_type": "medication|activity|followup|warning|general",
      "key_points": ["point 1", "point 2"],
      "urgency": 1-3,
      "recommended_timing": "immediate|next_day|two_days|three_days|one_week|two_weeks",
      "clinical_flags": ["warning sign 1"],
      "requires_follow_up": true
    }
  ],
  "call_recommendations": [
    {
      "call_type": "compression_check|medication_reminder|wellness_check|activity_guidance|general_followup",
      "scheduled_timing": "next_day|two_days|etc",
      "priority": 1-3,
      "instruction_references": ["instruction 1"],
      "wellness_focus": true,
      "personalized_prompt": "Specific call script for this patient",
      "language_specific_notes": "Cultural considerations for %s speakers"
    }
  ],
  "overall_assessment": {
    "complexity": "simple|moderate|complex",
    "special_considerations": ["consideration 1"],
    "estimated_recovery_timeline": "description",
    "analysis_confidence": 0.0-1.0
  }
}

Respond with the JSON object only.`, patientName, patientLanguage, block.String(), patientLanguage)
}
