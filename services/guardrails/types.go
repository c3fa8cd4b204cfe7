// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package guardrails

import (
	"errors"
	"fmt"
)

// ErrInvalidInput reports a contract violation at the engine boundary,
// such as a nil request. Empty strings are valid inputs and never produce
// this error; they simply score low.
var ErrInvalidInput = errors.New("guardrails: invalid input")

// QualityTier is the closed set of response quality levels.
//
// The confidence tiers are ordered: high > medium > low > uncertain.
// QualityHallucinationRisk sits outside that ordering; it is the terminal
// tier and is only reachable through the coordinator's downgrade rule,
// never assigned directly by the validator. QualityError is reserved for
// the calling layer: it marks a synthetic verdict substituted for a failed
// upstream pipeline call and is never produced by the engine itself.
type QualityTier string

const (
	QualityHighConfidence    QualityTier = "high_confidence"
	QualityMediumConfidence  QualityTier = "medium_confidence"
	QualityLowConfidence     QualityTier = "low_confidence"
	QualityUncertain         QualityTier = "uncertain"
	QualityHallucinationRisk QualityTier = "hallucination_risk"
	QualityError             QualityTier = "error"
)

// VerdictRecord is the engine's sole output type.
//
// A record is created fresh on every validation call, has no identity or
// persistence beyond the call, and is never mutated after construction.
//
// Invariants:
//   - ConfidenceScore and SourceCoverage are clamped into [0, 1].
//   - Passed is true iff Warnings is empty.
//   - A non-empty Warnings never coexists with QualityHighConfidence.
type VerdictRecord struct {
	Passed          bool        `json:"passed"`
	Quality         QualityTier `json:"quality"`
	ConfidenceScore float64     `json:"confidence_score"`
	Warnings        []string    `json:"warnings"`
	Suggestions     []string    `json:"suggestions"`
	SourceCoverage  float64     `json:"source_coverage"`
}

// ValidationResult is the intermediate record produced by ResponseValidator.
// The coordinator merges it with the hallucination detector's findings into
// the final VerdictRecord; neither intermediate is mutated during the merge.
type ValidationResult struct {
	Warnings        []string
	Suggestions     []string
	ConfidenceScore float64
	Quality         QualityTier
	SourceCoverage  float64
}

// NewErrorVerdict builds the synthetic verdict the calling layer substitutes
// when the upstream retrieval/generation pipeline fails. The guard engine
// never raises for well-typed input, so this is the only path that yields
// the QualityError tier. The renderer never needs to special-case a missing
// verdict because callers always hand it a well-formed record.
func NewErrorVerdict(err error) *VerdictRecord {
	return &VerdictRecord{
		Passed:          false,
		Quality:         QualityError,
		ConfidenceScore: 0.0,
		Warnings:        []string{fmt.Sprintf("System error: %v", err)},
		Suggestions:     []string{"Please try rephrasing your question"},
		SourceCoverage:  0.0,
	}
}
