package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/mediassist-gateway/internal/domain/symptoms"
)

// GetSystemPrompt gives strict directions and the JSON shape of a symptom analysis.
func GetSystemPrompt() string {
	return `You are an expert medical AI assistant. Based on the symptoms and patient context provided, generate a list of potential differential diagnoses. You must produce one valid JSON object only (no markdown, no commentary, no code fences).

Requirements:
- For each diagnosis include a "name", a "confidence" level (exactly one of "High", "Medium", "Low", "Possible") and a "rationale".
- For the top 1-2 most likely diagnoses, provide "suggestedInvestigations" (e.g. blood tests, imaging) with a rationale for each, and "suggestedManagement" steps (e.g. initial treatments).
- "diagnoses" must always be present, even when empty.
- Always include a standard disclaimer that this is for informational purposes only and is not a substitute for professional medical advice.

Schema (example with empty values):
{
  "diagnoses": [
    {"name": "<string>", "confidence": "<High|Medium|Low|Possible>", "rationale": "<string>"}
  ],
  "suggestedInvestigations": [
    {"name": "<string>", "rationale": "<string>"}
  ],
  "suggestedManagement": ["<string>"],
  "disclaimer": "<string>"
}`
}

// GetUserPrompt renders the payload; absent context fields are left out.
func GetUserPrompt(p symptoms.Payload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Symptoms: %s\n", p.Symptoms)
	if pc := p.PatientContext; pc != nil {
		if pc.Age != nil {
			fmt.Fprintf(&b, "Patient Age: %d\n", *pc.Age)
		}
		if pc.Sex != nil {
			fmt.Fprintf(&b, "Patient Sex: %s\n", *pc.Sex)
		}
		if pc.History != nil && strings.TrimSpace(*pc.History) != "" {
			fmt.Fprintf(&b, "Relevant History: %s\n", *pc.History)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
