// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package guardrails

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// coordinatorTracer is the OpenTelemetry tracer for coordinator operations.
var coordinatorTracer = otel.Tracer("petrel.guardrails.coordinator")

// ValidationRequest carries the inputs for one validation call.
//
// Response is the model's answer, Question the user query, Context the
// concatenated retrieved passages. SourceDocuments optionally carries the
// raw passage texts; they are appended to the context before scoring.
// Empty strings are valid inputs, not errors.
type ValidationRequest struct {
	Response        string
	Question        string
	Context         string
	SourceDocuments []string
}

// Coordinator orchestrates the hallucination detector and the response
// validator, merges their findings, and applies the tier-downgrade rule to
// produce the final verdict.
//
// The two sub-scorers share no mutable state and run order-independently.
// A Coordinator is safe for unlimited concurrent calls.
type Coordinator struct {
	detector  *HallucinationDetector
	validator *ResponseValidator
}

// NewCoordinator creates a coordinator whose sub-scorers share the given
// pattern library. Panics on a nil library (fail-fast for programming
// errors).
func NewCoordinator(lib *PatternLibrary) *Coordinator {
	if lib == nil {
		panic("NewCoordinator: lib must not be nil")
	}
	return &Coordinator{
		detector:  NewHallucinationDetector(lib),
		validator: NewResponseValidator(lib),
	}
}

// Validate runs all guardrails over the request and returns a fresh verdict.
//
// The merged warning order is fixed: validator warnings first, hallucination
// warnings appended after. When hallucination risk is present, two extra
// suggestions are appended and the quality tier is downgraded exactly one
// step: high -> medium -> low -> hallucination risk, with any tier outside
// that chain mapping directly to hallucination risk. The confidence score
// and source coverage pass through from the validator unchanged.
//
// Returns ErrInvalidInput only for a nil request; the engine never raises
// for malformed but well-typed input. Identical inputs always yield
// identical verdicts.
func (g *Coordinator) Validate(ctx context.Context, req *ValidationRequest) (*VerdictRecord, error) {
	if req == nil {
		return nil, ErrInvalidInput
	}

	_, span := coordinatorTracer.Start(ctx, "Coordinator.Validate")
	defer span.End()

	slog.Debug("Validating response",
		"question", truncate(req.Question, 100),
		"source_documents", len(req.SourceDocuments),
	)

	// Combine all context sources into one grounding corpus.
	fullContext := req.Context
	if len(req.SourceDocuments) > 0 {
		if fullContext != "" {
			fullContext += "\n\n"
		}
		fullContext += strings.Join(req.SourceDocuments, "\n\n")
	}

	risk, hallucinationWarnings := g.detector.Detect(req.Response, fullContext)
	validation := g.validator.Validate(req.Response, req.Question, fullContext)

	warnings := make([]string, 0, len(validation.Warnings)+len(hallucinationWarnings))
	warnings = append(warnings, validation.Warnings...)
	warnings = append(warnings, hallucinationWarnings...)

	suggestions := make([]string, 0, len(validation.Suggestions)+2)
	suggestions = append(suggestions, validation.Suggestions...)
	if risk {
		suggestions = append(suggestions,
			"Add source attribution to claims",
			"Use more cautious language when uncertain",
		)
	}

	quality := validation.Quality
	if risk {
		quality = downgrade(quality)
	}

	verdict := &VerdictRecord{
		Passed:          len(warnings) == 0,
		Quality:         quality,
		ConfidenceScore: validation.ConfidenceScore,
		Warnings:        warnings,
		Suggestions:     suggestions,
		SourceCoverage:  validation.SourceCoverage,
	}

	span.SetAttributes(
		attribute.Bool("guardrails.passed", verdict.Passed),
		attribute.String("guardrails.quality", string(verdict.Quality)),
		attribute.Float64("guardrails.confidence_score", verdict.ConfidenceScore),
		attribute.Int("guardrails.warning_count", len(verdict.Warnings)),
	)

	return verdict, nil
}

// downgrade applies the one-step tier demotion used when hallucination risk
// is detected. A strict lookup, not a loop: a single validation call
// demotes at most one step no matter how many hallucination warnings fired.
func downgrade(quality QualityTier) QualityTier {
	switch quality {
	case QualityHighConfidence:
		return QualityMediumConfidence
	case QualityMediumConfidence:
		return QualityLowConfidence
	default:
		return QualityHallucinationRisk
	}
}

// truncate shortens s to at most n bytes for log output.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
