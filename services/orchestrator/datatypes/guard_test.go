// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrelai/PetrelGuard/services/guardrails"
)

// =============================================================================
// ChatRequest Tests
// =============================================================================

func TestChatRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     ChatRequest
		wantErr bool
	}{
		{
			name: "valid minimal request",
			req:  ChatRequest{Question: "When does the batch window open?"},
		},
		{
			name: "valid full request",
			req: ChatRequest{
				RequestID: uuid.NewString(),
				Timestamp: 1756100000000,
				Question:  "When does the batch window open?",
				Limit:     10,
			},
		},
		{
			name:    "missing question",
			req:     ChatRequest{},
			wantErr: true,
		},
		{
			name:    "question too long",
			req:     ChatRequest{Question: strings.Repeat("a", MaxQuestionBytes+1)},
			wantErr: true,
		},
		{
			name:    "malformed request id",
			req:     ChatRequest{RequestID: "not-a-uuid", Question: "q"},
			wantErr: true,
		},
		{
			name:    "limit above cap",
			req:     ChatRequest{Question: "q", Limit: MaxRetrievalLimit + 1},
			wantErr: true,
		},
		{
			name:    "negative limit",
			req:     ChatRequest{Question: "q", Limit: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChatRequest_EnsureDefaults(t *testing.T) {
	req := ChatRequest{Question: "q"}

	req.EnsureDefaults()

	assert.NotEmpty(t, req.RequestID)
	_, err := uuid.Parse(req.RequestID)
	assert.NoError(t, err, "generated RequestID should be a UUID")
	assert.Greater(t, req.Timestamp, int64(0))
	assert.Equal(t, DefaultRetrievalLimit, req.Limit)
}

func TestChatRequest_EnsureDefaults_PreservesClientValues(t *testing.T) {
	id := uuid.NewString()
	req := ChatRequest{
		RequestID: id,
		Timestamp: 1756100000000,
		Question:  "q",
		Limit:     7,
	}

	req.EnsureDefaults()

	assert.Equal(t, id, req.RequestID)
	assert.Equal(t, int64(1756100000000), req.Timestamp)
	assert.Equal(t, 7, req.Limit)
}

// =============================================================================
// ValidateRequest Tests
// =============================================================================

func TestValidateRequest_Validate(t *testing.T) {
	t.Run("empty request is valid input", func(t *testing.T) {
		req := ValidateRequest{}
		assert.NoError(t, req.Validate())
	})

	t.Run("response too long", func(t *testing.T) {
		req := ValidateRequest{Response: strings.Repeat("a", MaxValidateResponseBytes+1)}
		assert.Error(t, req.Validate())
	})
}

// =============================================================================
// Response Constructor Tests
// =============================================================================

func TestNewChatResponse(t *testing.T) {
	verdict := &guardrails.VerdictRecord{Passed: true, Quality: guardrails.QualityHighConfidence}
	sources := []SourceInfo{{Source: "ops.md_part_1", Score: 1.2}}

	resp := NewChatResponse("req-1", "the answer", sources, verdict)

	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.ResponseID)
	assert.Equal(t, "req-1", resp.RequestID)
	assert.Greater(t, resp.Timestamp, int64(0))
	assert.Equal(t, "the answer", resp.Answer)
	assert.Equal(t, sources, resp.Sources)
	assert.Same(t, verdict, resp.Verdict)
}

func TestNewValidateResponse(t *testing.T) {
	verdict := &guardrails.VerdictRecord{Passed: false, Quality: guardrails.QualityLowConfidence}

	resp := NewValidateResponse("annotated answer", verdict)

	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.ResponseID)
	assert.Greater(t, resp.Timestamp, int64(0))
	assert.Equal(t, "annotated answer", resp.SafeResponse)
	assert.Same(t, verdict, resp.Verdict)
}
