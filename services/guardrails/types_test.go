// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package guardrails

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewErrorVerdict verifies the synthetic verdict substituted when the
// upstream pipeline fails.
func TestNewErrorVerdict(t *testing.T) {
	verdict := NewErrorVerdict(errors.New("weaviate unreachable"))

	assert.False(t, verdict.Passed)
	assert.Equal(t, QualityError, verdict.Quality)
	assert.Zero(t, verdict.ConfidenceScore)
	assert.Zero(t, verdict.SourceCoverage)
	assert.Equal(t, []string{"System error: weaviate unreachable"}, verdict.Warnings)
	assert.Equal(t, []string{"Please try rephrasing your question"}, verdict.Suggestions)
}

// TestVerdictRecord_JSONShape verifies the wire field names the HTTP layer
// exposes.
func TestVerdictRecord_JSONShape(t *testing.T) {
	verdict := &VerdictRecord{
		Passed:          false,
		Quality:         QualityLowConfidence,
		ConfidenceScore: 0.4,
		Warnings:        []string{"Response is very short"},
		Suggestions:     []string{"Provide more detailed information if available"},
		SourceCoverage:  0.25,
	}

	raw, err := json.Marshal(verdict)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	for _, key := range []string{
		"passed", "quality", "confidence_score",
		"warnings", "suggestions", "source_coverage",
	} {
		assert.Contains(t, decoded, key)
	}
	assert.Equal(t, "low_confidence", decoded["quality"])
}
