// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides the request and response structures for the
// orchestrator service.
//
// This file contains the types for the guarded chat and validation
// endpoints. For Weaviate schema and query helpers, see
// weaviate_schemas.go and weaviate_query.go.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/petrelai/PetrelGuard/services/guardrails"
)

const (
	// MaxQuestionBytes is the maximum size of a user question.
	MaxQuestionBytes = 32 * 1024 // 32KB

	// MaxValidateResponseBytes is the maximum size of a candidate response
	// submitted for standalone validation.
	MaxValidateResponseBytes = 256 * 1024 // 256KB

	// DefaultRetrievalLimit is the number of document chunks retrieved per
	// question when the client does not specify one.
	DefaultRetrievalLimit = 4

	// MaxRetrievalLimit caps how many chunks a single request may pull.
	MaxRetrievalLimit = 20
)

// guardValidate is the validator instance for guard datatypes.
var guardValidate = validator.New()

// =============================================================================
// Guarded Chat Types
// =============================================================================

// ChatRequest represents a guarded RAG chat request body.
//
// # Description
//
// ChatRequest carries the user's question for the POST /v1/chat endpoint.
// The answer is generated from retrieved document context and passes
// through the guard engine before it is returned.
//
// # Fields
//
//   - RequestID: Unique identifier for this request (UUID v4). Generated
//     server-side when the client omits it.
//   - Timestamp: Unix timestamp in milliseconds (UTC). Generated when omitted.
//   - Question: Required. The user's question, at most 32KB.
//   - Limit: Optional. Number of document chunks to retrieve (1-20).
//     Defaults to DefaultRetrievalLimit.
type ChatRequest struct {
	RequestID string `json:"request_id" validate:"omitempty,uuid4"`
	Timestamp int64  `json:"timestamp" validate:"gte=0"`
	Question  string `json:"question" validate:"required,max=32768"`
	Limit     int    `json:"limit" validate:"gte=0,lte=20"`
}

// Validate validates the ChatRequest fields after JSON binding.
func (r *ChatRequest) Validate() error {
	return guardValidate.Struct(r)
}

// EnsureDefaults populates identifiers and limits the client omitted.
func (r *ChatRequest) EnsureDefaults() {
	if r.RequestID == "" {
		r.RequestID = uuid.NewString()
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}
	if r.Limit == 0 {
		r.Limit = DefaultRetrievalLimit
	}
}

// SourceInfo identifies one retrieved document chunk that contributed to an
// answer.
type SourceInfo struct {
	Source string  `json:"source"`
	Score  float64 `json:"score,omitempty"`
}

// ChatResponse represents the response from a guarded chat request.
//
// # Description
//
// Contains the rendered answer (already annotated with a disclaimer when the
// verdict failed), the retrieved sources, and the full guard verdict so
// clients can inspect confidence, warnings, and coverage.
//
// # Fields
//
//   - ResponseID: Unique identifier for this response (UUID v4).
//   - RequestID: Echo of the request ID for correlation.
//   - Timestamp: Unix timestamp in milliseconds (UTC).
//   - Answer: The rendered answer text.
//   - Sources: Document chunks the answer was grounded on.
//   - Verdict: The guard engine's verdict for the raw answer.
//   - ProcessingTimeMs: Wall-clock processing time in milliseconds.
type ChatResponse struct {
	ResponseID       string                    `json:"response_id"`
	RequestID        string                    `json:"request_id"`
	Timestamp        int64                     `json:"timestamp"`
	Answer           string                    `json:"answer"`
	Sources          []SourceInfo              `json:"sources,omitempty"`
	Verdict          *guardrails.VerdictRecord `json:"verdict"`
	ProcessingTimeMs int64                     `json:"processing_time_ms,omitempty"`
}

// NewChatResponse creates a ChatResponse with a generated ID and timestamp.
func NewChatResponse(requestID, answer string, sources []SourceInfo,
	verdict *guardrails.VerdictRecord) *ChatResponse {

	return &ChatResponse{
		ResponseID: uuid.NewString(),
		RequestID:  requestID,
		Timestamp:  time.Now().UnixMilli(),
		Answer:     answer,
		Sources:    sources,
		Verdict:    verdict,
	}
}

// =============================================================================
// Standalone Validation Types
// =============================================================================

// ValidateRequest represents a standalone validation request body for the
// POST /v1/guardrails/validate endpoint.
//
// # Description
//
// Lets callers run the guard engine over a response they generated
// elsewhere. Question, Context, and SourceDocuments are optional; an empty
// context simply fails the grounding checks rather than erroring.
type ValidateRequest struct {
	Response        string   `json:"response" validate:"max=262144"`
	Question        string   `json:"question" validate:"max=32768"`
	Context         string   `json:"context"`
	SourceDocuments []string `json:"source_documents,omitempty"`
}

// Validate validates the ValidateRequest fields after JSON binding.
func (r *ValidateRequest) Validate() error {
	return guardValidate.Struct(r)
}

// ValidateResponse wraps the verdict with correlation metadata. SafeResponse
// is the submitted response rendered through the disclaimer rules, so callers
// can forward it directly.
type ValidateResponse struct {
	ResponseID   string                    `json:"response_id"`
	Timestamp    int64                     `json:"timestamp"`
	SafeResponse string                    `json:"safe_response"`
	Verdict      *guardrails.VerdictRecord `json:"verdict"`
}

// NewValidateResponse creates a ValidateResponse with a generated ID and
// timestamp.
func NewValidateResponse(safeResponse string, verdict *guardrails.VerdictRecord) *ValidateResponse {
	return &ValidateResponse{
		ResponseID:   uuid.NewString(),
		Timestamp:    time.Now().UnixMilli(),
		SafeResponse: safeResponse,
		Verdict:      verdict,
	}
}
