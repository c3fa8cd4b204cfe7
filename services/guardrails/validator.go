// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package guardrails

import (
	"strings"
)

const (
	// maxResponseLength is the character count above which a response is
	// flagged as too long.
	maxResponseLength = 2000

	// minResponseLength is the character count below which a response is
	// flagged as too short.
	minResponseLength = 50

	// minQuestionOverlap is the minimum number of non-stop words a response
	// must share with the question to count as on topic.
	minQuestionOverlap = 2
)

// Confidence score arithmetic. The base score is adjusted by the bonuses and
// penalties below, then clamped into [0, 1].
const (
	baseConfidence     = 0.5
	attributionBonus   = 0.3
	uncertaintyPenalty = 0.1
	certaintyBonus     = 0.1
	groundingBonus     = 0.2
)

// ResponseValidator scores appropriateness, topicality, length, and
// grounding for a response, producing the intermediate record the
// coordinator merges into the final verdict.
//
// Safe for concurrent use; it holds only a reference to the read-only
// pattern library.
type ResponseValidator struct {
	lib *PatternLibrary
}

// NewResponseValidator creates a validator backed by the given library.
// Panics on a nil library (fail-fast for programming errors).
func NewResponseValidator(lib *PatternLibrary) *ResponseValidator {
	if lib == nil {
		panic("NewResponseValidator: lib must not be nil")
	}
	return &ResponseValidator{lib: lib}
}

// Validate scores the response for quality, appropriateness, and accuracy.
//
// Warnings and suggestions accumulate in detection order: appropriateness,
// topicality, length. The quality tier follows from the confidence score and
// warning presence; warnings only block the high-confidence tier, not the
// lower ones. That asymmetry is a deliberate policy choice, preserved
// exactly, not an oversight.
func (v *ResponseValidator) Validate(response, question, context string) ValidationResult {
	var warnings []string
	var suggestions []string

	if v.containsInappropriateContent(response) {
		warnings = append(warnings, "Response may contain inappropriate content")
		suggestions = append(suggestions, "Reframe response to be more professional and appropriate")
	}

	if v.isOffTopic(response, question) {
		warnings = append(warnings, "Response may be off-topic")
		suggestions = append(suggestions, "Focus on answering the specific question asked")
	}

	if len(response) > maxResponseLength {
		warnings = append(warnings, "Response is very long")
		suggestions = append(suggestions, "Consider breaking into smaller, more digestible parts")
	} else if len(response) < minResponseLength {
		warnings = append(warnings, "Response is very short")
		suggestions = append(suggestions, "Provide more detailed information if available")
	}

	score := v.confidenceScore(response, context)

	return ValidationResult{
		Warnings:        warnings,
		Suggestions:     suggestions,
		ConfidenceScore: score,
		Quality:         determineQuality(score, warnings),
		SourceCoverage:  v.sourceCoverage(response, context),
	}
}

// containsInappropriateContent matches the response against the
// inappropriate-content pattern set.
func (v *ResponseValidator) containsInappropriateContent(response string) bool {
	for _, rule := range v.lib.InappropriateRules() {
		if rule.Matches(response) {
			return true
		}
	}
	return false
}

// isOffTopic fires when an off-topic cue pattern matches, or when the
// response shares fewer than minQuestionOverlap non-stop words with the
// question. The two checks are independent; either is sufficient.
func (v *ResponseValidator) isOffTopic(response, question string) bool {
	for _, rule := range v.lib.OffTopicRules() {
		if rule.Matches(response) {
			return true
		}
	}

	questionWords := v.lib.ContentWords(question)
	responseWords := v.lib.ContentWords(response)
	overlap := 0
	for w := range questionWords {
		if _, ok := responseWords[w]; ok {
			overlap++
		}
	}
	return overlap < minQuestionOverlap
}

// confidenceScore computes the response's confidence score.
//
// Uncertainty and certainty markers are counted per distinct marker present
// in the response, not per occurrence of each marker.
func (v *ResponseValidator) confidenceScore(response, context string) float64 {
	score := baseConfidence
	lower := strings.ToLower(response)

	if v.lib.HasAttribution(response) {
		score += attributionBonus
	}

	for _, marker := range v.lib.uncertaintyMarkers {
		if strings.Contains(lower, marker) {
			score -= uncertaintyPenalty
		}
	}

	for _, marker := range v.lib.confidenceMarkers {
		if strings.Contains(lower, marker) {
			score += certaintyBonus
		}
	}

	if v.isWellGrounded(response, context) {
		score += groundingBonus
	}

	return clamp01(score)
}

// isWellGrounded reports whether the response carries any grounding
// indicator word ("document", "source", ...). Requires both a response and
// a context to be present.
func (v *ResponseValidator) isWellGrounded(response, context string) bool {
	if context == "" || response == "" {
		return false
	}
	lower := strings.ToLower(response)
	for _, indicator := range v.lib.groundingIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// sourceCoverage is the fraction of the context's non-stop vocabulary that
// also appears in the response. Returns exactly 0.0 when the context is
// empty.
func (v *ResponseValidator) sourceCoverage(response, context string) float64 {
	if context == "" || response == "" {
		return 0.0
	}

	contextWords := v.lib.ContentWords(context)
	if len(contextWords) == 0 {
		return 0.0
	}
	responseWords := v.lib.ContentWords(response)

	overlap := 0
	for w := range contextWords {
		if _, ok := responseWords[w]; ok {
			overlap++
		}
	}

	coverage := float64(overlap) / float64(len(contextWords))
	if coverage > 1.0 {
		return 1.0
	}
	return coverage
}

// determineQuality maps a confidence score and warning presence onto a
// quality tier. Thresholds apply in order; only the high-confidence tier is
// blocked by warnings.
func determineQuality(score float64, warnings []string) QualityTier {
	switch {
	case score >= 0.8 && len(warnings) == 0:
		return QualityHighConfidence
	case score >= 0.5:
		return QualityMediumConfidence
	case score >= 0.3:
		return QualityLowConfidence
	default:
		return QualityUncertain
	}
}

// clamp01 clamps x into [0, 1].
func clamp01(x float64) float64 {
	if x < 0.0 {
		return 0.0
	}
	if x > 1.0 {
		return 1.0
	}
	return x
}
