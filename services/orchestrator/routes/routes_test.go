// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/petrelai/PetrelGuard/services/guardrails"
	"github.com/petrelai/PetrelGuard/services/llm"
	"github.com/petrelai/PetrelGuard/services/orchestrator/services"
)

// ============================================================================
// Test Setup
// ============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

// mockLLMClient is a minimal mock for llm.LLMClient
type mockLLMClient struct{}

func (m *mockLLMClient) Generate(_ context.Context, _ string, _ llm.GenerationParams) (string, error) {
	return "mock response", nil
}

// mockRetriever is a minimal mock for services.DocumentRetriever
type mockRetriever struct{}

func (m *mockRetriever) Retrieve(_ context.Context, _ string, _ int) ([]services.RetrievedChunk, error) {
	return nil, nil
}

func newTestCoordinator() *guardrails.Coordinator {
	return guardrails.NewCoordinator(guardrails.MustLoadPatternLibrary())
}

func hasRoute(router *gin.Engine, method, path string) bool {
	for _, r := range router.Routes() {
		if r.Method == method && r.Path == path {
			return true
		}
	}
	return false
}

// ============================================================================
// SetupRoutes Tests
// ============================================================================

func TestSetupRoutes_WithoutWeaviateClient(t *testing.T) {
	router := gin.New()

	// Should not panic when the weaviate client and chat service are nil
	SetupRoutes(router, nil, nil, newTestCoordinator())

	coreRoutes := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"POST", "/v1/guardrails/validate"},
	}
	for _, expected := range coreRoutes {
		if !hasRoute(router, expected.method, expected.path) {
			t.Errorf("Expected route %s %s not found", expected.method, expected.path)
		}
	}
}

func TestSetupRoutes_VectorDBRoutesNotRegisteredWithoutClient(t *testing.T) {
	router := gin.New()

	SetupRoutes(router, nil, nil, newTestCoordinator())

	// These routes should NOT be registered when the pipeline is absent
	vectorDBRoutes := []struct {
		method string
		path   string
	}{
		{"POST", "/v1/chat"},
		{"POST", "/v1/documents"},
		{"GET", "/v1/documents"},
		{"DELETE", "/v1/document"},
	}
	for _, unexpected := range vectorDBRoutes {
		if hasRoute(router, unexpected.method, unexpected.path) {
			t.Errorf("Route %s %s should not be registered without Weaviate", unexpected.method, unexpected.path)
		}
	}
}

func TestSetupRoutes_ChatRegisteredWithService(t *testing.T) {
	router := gin.New()

	chatService := services.NewGuardedRAGService(&mockRetriever{}, &mockLLMClient{}, newTestCoordinator())
	SetupRoutes(router, nil, chatService, newTestCoordinator())

	if !hasRoute(router, "POST", "/v1/chat") {
		t.Error("Expected route POST /v1/chat not found")
	}
}

func TestSetupRoutes_HealthEndpointResponds(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, nil, nil, newTestCoordinator())

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("health check status = %d, want %d", w.Code, http.StatusOK)
	}
}
