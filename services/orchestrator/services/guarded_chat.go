// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package services provides business logic services for the orchestrator.
//
// This package contains service structs that encapsulate business logic,
// separating it from HTTP handlers. Services are responsible for:
//   - Orchestrating calls to external services (Weaviate, LLM)
//   - Running every generated answer through the guard engine
//   - Applying business rules and error handling
//
// Services are designed to be:
//   - Testable: Dependencies are injected via constructors
//   - Composable: Services can call other services
//   - Traceable: All methods accept context for distributed tracing
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/petrelai/PetrelGuard/services/guardrails"
	"github.com/petrelai/PetrelGuard/services/llm"
	"github.com/petrelai/PetrelGuard/services/orchestrator/datatypes"
	"github.com/petrelai/PetrelGuard/services/orchestrator/observability"
)

// guardedChatTracer is the OpenTelemetry tracer for GuardedRAGService operations.
var guardedChatTracer = otel.Tracer("petrel.orchestrator.services.guarded_chat")

// Compile-time interface implementation checks.
var (
	_ DocumentRetriever = (*WeaviateRetriever)(nil)
)

// errorAnswer is returned to the user when the retrieval or generation
// pipeline fails. The real failure travels in the verdict's warning.
const errorAnswer = "I encountered an error processing your question. Please try again."

// =============================================================================
// Interfaces
// =============================================================================

// DocumentRetriever defines the contract for retrieving document chunks
// that ground a generated answer.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type DocumentRetriever interface {
	// Retrieve returns up to limit chunks ranked by relevance to the query.
	// An empty result is not an error; the guard engine will flag the
	// ungrounded answer downstream.
	Retrieve(ctx context.Context, query string, limit int) ([]RetrievedChunk, error)
}

// RetrievedChunk is one document chunk returned by a retriever.
type RetrievedChunk struct {
	Content string
	Source  string
	Score   float64
}

// =============================================================================
// WeaviateRetriever
// =============================================================================

// WeaviateRetriever retrieves document chunks from Weaviate using BM25
// keyword search over the Document class.
type WeaviateRetriever struct {
	client *weaviate.Client
}

// NewWeaviateRetriever creates a retriever backed by the given client.
// Panics on a nil client (fail-fast for programming errors).
func NewWeaviateRetriever(client *weaviate.Client) *WeaviateRetriever {
	if client == nil {
		panic("NewWeaviateRetriever: client must not be nil")
	}
	return &WeaviateRetriever{client: client}
}

// Retrieve implements DocumentRetriever via a BM25 query.
func (r *WeaviateRetriever) Retrieve(ctx context.Context, query string, limit int) ([]RetrievedChunk, error) {
	ctx, span := guardedChatTracer.Start(ctx, "WeaviateRetriever.Retrieve")
	defer span.End()
	span.SetAttributes(attribute.Int("retrieval.limit", limit))

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
		{Name: "parent_source"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "score"}}},
	}

	resp, err := r.client.GraphQL().Get().
		WithClassName(datatypes.DocumentClassName).
		WithFields(fields...).
		WithBM25(r.client.GraphQL().Bm25ArgBuilder().WithQuery(query).WithProperties("content")).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("document search failed: %w", err)
	}
	if len(resp.Errors) > 0 {
		err := fmt.Errorf("document search error: %s", resp.Errors[0].Message)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	parsed, err := datatypes.ParseGraphQLResponse[bm25QueryResponse](resp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	chunks := make([]RetrievedChunk, 0, len(parsed.Get.Document))
	for _, doc := range parsed.Get.Document {
		// BM25 scores arrive as strings in the GraphQL _additional block.
		score, _ := strconv.ParseFloat(doc.Additional.Score, 64)
		chunks = append(chunks, RetrievedChunk{
			Content: doc.Content,
			Source:  doc.Source,
			Score:   score,
		})
	}

	span.SetAttributes(attribute.Int("retrieval.chunks", len(chunks)))
	return chunks, nil
}

// bm25QueryResponse matches the shape of a BM25 Get query over Document.
type bm25QueryResponse struct {
	Get struct {
		Document []struct {
			Content      string `json:"content"`
			Source       string `json:"source"`
			ParentSource string `json:"parent_source"`
			Additional   struct {
				Score string `json:"score"`
			} `json:"_additional"`
		} `json:"Document"`
	} `json:"Get"`
}

// =============================================================================
// GuardedRAGService
// =============================================================================

// GuardedRAGService answers user questions from retrieved document context
// and runs every answer through the guard engine before returning it. It
// orchestrates the flow between:
//   - Retriever: Fetches relevant document chunks (BM25 over Weaviate)
//   - LLM client: Generates an answer from the retrieved context
//   - Guard coordinator: Validates the answer and produces a verdict
//   - Renderer: Annotates failed answers with a disclaimer
//
// The service is stateless; all state is passed in via requests. This allows
// horizontal scaling of the orchestrator.
//
// Usage:
//
//	service := NewGuardedRAGService(retriever, llmClient, coordinator)
//	resp, err := service.Process(ctx, &req)
type GuardedRAGService struct {
	retriever   DocumentRetriever
	llmClient   llm.LLMClient
	coordinator *guardrails.Coordinator
}

// NewGuardedRAGService creates a new GuardedRAGService with the provided
// dependencies. Panics when any dependency is nil (fail-fast for programming
// errors).
func NewGuardedRAGService(
	retriever DocumentRetriever,
	llmClient llm.LLMClient,
	coordinator *guardrails.Coordinator,
) *GuardedRAGService {
	if retriever == nil {
		panic("NewGuardedRAGService: retriever must not be nil")
	}
	if llmClient == nil {
		panic("NewGuardedRAGService: llmClient must not be nil")
	}
	if coordinator == nil {
		panic("NewGuardedRAGService: coordinator must not be nil")
	}
	return &GuardedRAGService{
		retriever:   retriever,
		llmClient:   llmClient,
		coordinator: coordinator,
	}
}

// Process handles a guarded chat request end-to-end.
//
// The processing flow is:
//  1. Ensure request defaults (ID, timestamp, retrieval limit)
//  2. Validate the request
//  3. Retrieve document chunks for the question
//  4. Generate an answer with the anti-hallucination prompt
//  5. Validate the answer through the guard engine
//  6. Render the safe response and build the reply
//
// A retrieval or generation failure does not surface as an error: the
// response carries the fallback answer and a synthetic error verdict, so the
// caller always receives a well-formed reply. Only request validation
// failures return an error.
func (s *GuardedRAGService) Process(ctx context.Context, req *datatypes.ChatRequest) (*datatypes.ChatResponse, error) {
	ctx, span := guardedChatTracer.Start(ctx, "GuardedRAGService.Process")
	defer span.End()

	started := time.Now()

	req.EnsureDefaults()
	span.SetAttributes(attribute.String("request.id", req.RequestID))

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(observability.EndpointChat, observability.ErrorCodeValidation)
		}
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	slog.Info("Processing guarded chat request",
		"requestId", req.RequestID,
		"limit", req.Limit,
	)

	chunks, err := s.retriever.Retrieve(ctx, req.Question, req.Limit)
	if err != nil {
		slog.Error("Document retrieval failed", "requestId", req.RequestID, "error", err)
		span.RecordError(err)
		return s.errorResponse(req, observability.ErrorCodeRetrieval, err, started), nil
	}

	contextText := formatContext(chunks)
	prompt := buildPrompt(contextText, req.Question)

	answer, err := s.llmClient.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		slog.Error("LLM generation failed", "requestId", req.RequestID, "error", err)
		span.RecordError(err)
		return s.errorResponse(req, observability.ErrorCodeLLMError, err, started), nil
	}

	validationStart := time.Now()
	verdict, err := s.coordinator.Validate(ctx, &guardrails.ValidationRequest{
		Response: answer,
		Question: req.Question,
		Context:  contextText,
	})
	if err != nil {
		// Only reachable through a programming error (nil request).
		span.RecordError(err)
		return s.errorResponse(req, observability.ErrorCodeInternal, err, started), nil
	}

	if m := observability.DefaultMetrics; m != nil {
		m.RecordValidationDuration(observability.EndpointChat, time.Since(validationStart).Seconds())
		m.RecordVerdict(observability.EndpointChat, string(verdict.Quality),
			verdict.Passed, verdict.ConfidenceScore, len(verdict.Warnings))
		m.RecordRequest(observability.EndpointChat, true)
	}

	span.SetAttributes(
		attribute.Bool("verdict.passed", verdict.Passed),
		attribute.String("verdict.quality", string(verdict.Quality)),
		attribute.Int("retrieval.chunks", len(chunks)),
	)

	resp := datatypes.NewChatResponse(
		req.RequestID,
		guardrails.RenderSafeResponse(answer, verdict),
		sourceInfos(chunks),
		verdict,
	)
	resp.ProcessingTimeMs = time.Since(started).Milliseconds()
	return resp, nil
}

// errorResponse builds the fallback reply for a failed pipeline stage.
func (s *GuardedRAGService) errorResponse(req *datatypes.ChatRequest,
	code observability.ErrorCode, err error, started time.Time) *datatypes.ChatResponse {

	if m := observability.DefaultMetrics; m != nil {
		m.RecordError(observability.EndpointChat, code)
		m.RecordRequest(observability.EndpointChat, false)
	}

	resp := datatypes.NewChatResponse(req.RequestID, errorAnswer, nil, guardrails.NewErrorVerdict(err))
	resp.ProcessingTimeMs = time.Since(started).Milliseconds()
	return resp
}

// =============================================================================
// Prompt Construction
// =============================================================================

// formatContext renders retrieved chunks as a numbered context block.
func formatContext(chunks []RetrievedChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = fmt.Sprintf("[Document %d: %s]\n%s", i+1, chunk.Source, chunk.Content)
	}
	return strings.Join(parts, "\n\n")
}

// buildPrompt assembles the grounded generation prompt: the anti-hallucination
// instruction block, the retrieved context, then the question.
func buildPrompt(contextText, question string) string {
	var b strings.Builder
	b.WriteString(guardrails.PromptInstructions())
	b.WriteString("\nContext from documents:\n")
	if contextText == "" {
		b.WriteString("(no documents found)\n")
	} else {
		b.WriteString(contextText)
		b.WriteString("\n")
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

// sourceInfos converts retrieved chunks to the response source list.
func sourceInfos(chunks []RetrievedChunk) []datatypes.SourceInfo {
	if len(chunks) == 0 {
		return nil
	}
	sources := make([]datatypes.SourceInfo, len(chunks))
	for i, chunk := range chunks {
		sources[i] = datatypes.SourceInfo{Source: chunk.Source, Score: chunk.Score}
	}
	return sources
}
