// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package guardrails

import (
	"fmt"
)

// Disclaimer templates keyed by quality tier. Tiers without an entry return
// the response unannotated even when the verdict did not pass (warnings
// without a risk-triggered downgrade can leave a failed verdict at the
// medium tier).
const (
	hallucinationRiskDisclaimer = "*This response may contain information not directly from the provided documents. Please verify important details.*"
	lowConfidenceDisclaimer     = "*This response has low confidence. Please verify important details.*"
	uncertainDisclaimer         = "*I'm not entirely certain about this information. Please verify if important.*"
)

// RenderSafeResponse maps a verdict onto the final response text.
//
// A passed verdict returns the response unchanged. A failed verdict wraps
// the response with the disclaimer for its quality tier, when one exists.
// Pure function: no side effects, deterministic in (response, verdict).
func RenderSafeResponse(response string, verdict *VerdictRecord) string {
	if verdict == nil || verdict.Passed {
		return response
	}

	switch verdict.Quality {
	case QualityHallucinationRisk:
		return annotate(response, hallucinationRiskDisclaimer)
	case QualityLowConfidence:
		return annotate(response, lowConfidenceDisclaimer)
	case QualityUncertain:
		return annotate(response, uncertainDisclaimer)
	default:
		return response
	}
}

func annotate(response, disclaimer string) string {
	return fmt.Sprintf("**Please note:** %s\n\n%s", response, disclaimer)
}

// PromptInstructions returns the fixed anti-hallucination instruction block
// appended to RAG prompts so the model grounds its answers before the guard
// engine ever sees them.
func PromptInstructions() string {
	return `
CRITICAL INSTRUCTIONS TO PREVENT HALLUCINATIONS:
- ONLY use information explicitly stated in the provided context
- If information is not in the context, say "I don't have that information in the provided documents"
- Use phrases like "According to the document" or "Based on the provided context"
- Avoid making claims about things not mentioned in the context
- If uncertain, use phrases like "The document suggests" or "It appears that"
- Never make up statistics, dates, or specific details not in the context
- If asked about something not in the documents, politely explain you don't have that information
- Always ground your responses in the provided source material
- Use caution when making generalizations or broad statements
`
}
