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

// groundingThreshold is the minimum share of a response's unique non-stop
// words that must also occur in the context for the response to count as
// grounded.
const groundingThreshold = 0.3

// HallucinationDetector scans a response against the hallucination-cue
// pattern set and against the supplied context to flag unsupported or
// overconfident claims.
//
// The detector holds only a reference to the read-only pattern library and
// is safe for concurrent use.
type HallucinationDetector struct {
	lib *PatternLibrary
}

// NewHallucinationDetector creates a detector backed by the given library.
// Panics on a nil library (fail-fast for programming errors).
func NewHallucinationDetector(lib *PatternLibrary) *HallucinationDetector {
	if lib == nil {
		panic("NewHallucinationDetector: lib must not be nil")
	}
	return &HallucinationDetector{lib: lib}
}

// Detect scans the response for hallucination risk against the context.
//
// Checks run in a fixed order: cue patterns, then the grounding check, then
// the overconfidence check. Each cue match appends one warning naming the
// triggering rule. A single absolute-term phrase can trigger both a cue
// warning and the overconfidence warning; the duplication is intentional and
// not deduplicated. Risk is true iff any warning was raised.
//
// An empty context always fails the grounding check; an empty response never
// matches any pattern.
func (d *HallucinationDetector) Detect(response, context string) (bool, []string) {
	var warnings []string

	for _, rule := range d.lib.HallucinationRules() {
		if rule.Matches(response) {
			warnings = append(warnings,
				fmt.Sprintf("Potential hallucination pattern detected: %s", rule.ID))
		}
	}

	if !d.isGrounded(response, context) {
		warnings = append(warnings,
			"Response may contain information not found in provided context")
	}

	if d.hasOverconfidentLanguage(response) {
		warnings = append(warnings,
			"Response uses overly confident language without proper source attribution")
	}

	return len(warnings) > 0, warnings
}

// isGrounded checks that at least groundingThreshold of the response's
// unique non-stop words also occur in the context's word set.
func (d *HallucinationDetector) isGrounded(response, context string) bool {
	if context == "" || response == "" {
		return false
	}

	contextWords := d.lib.ContentWords(context)
	responseWords := d.lib.ContentWords(response)
	if len(responseWords) == 0 {
		return false
	}

	overlap := 0
	for w := range responseWords {
		if _, ok := contextWords[w]; ok {
			overlap++
		}
	}

	return float64(overlap)/float64(len(responseWords)) >= groundingThreshold
}

// hasOverconfidentLanguage reports whether any unqualified absolute or
// certainty term appears without an attribution phrase.
func (d *HallucinationDetector) hasOverconfidentLanguage(response string) bool {
	for _, rule := range d.lib.OverconfidenceRules() {
		if rule.Matches(response) {
			return true
		}
	}
	return false
}
