// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/petrelai/PetrelGuard/services/guardrails"
	"github.com/petrelai/PetrelGuard/services/orchestrator/datatypes"
	"github.com/petrelai/PetrelGuard/services/orchestrator/observability"
)

// HandleValidate runs the guard engine over a caller-supplied response.
//
// POST /v1/guardrails/validate
//
// The endpoint never rejects well-typed input: empty responses and contexts
// are valid and simply score low. Only malformed JSON or size-limit
// violations return 400.
func HandleValidate(coordinator *guardrails.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ValidateRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(observability.EndpointValidate, observability.ErrorCodeValidation)
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		started := time.Now()
		verdict, err := coordinator.Validate(c.Request.Context(), &guardrails.ValidationRequest{
			Response:        req.Response,
			Question:        req.Question,
			Context:         req.Context,
			SourceDocuments: req.SourceDocuments,
		})
		if err != nil {
			slog.Error("Guard engine validation failed", "error", err)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(observability.EndpointValidate, observability.ErrorCodeInternal)
				m.RecordRequest(observability.EndpointValidate, false)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Validation failed"})
			return
		}

		if m := observability.DefaultMetrics; m != nil {
			m.RecordValidationDuration(observability.EndpointValidate, time.Since(started).Seconds())
			m.RecordVerdict(observability.EndpointValidate, string(verdict.Quality),
				verdict.Passed, verdict.ConfidenceScore, len(verdict.Warnings))
			m.RecordRequest(observability.EndpointValidate, true)
		}

		safe := guardrails.RenderSafeResponse(req.Response, verdict)
		c.JSON(http.StatusOK, datatypes.NewValidateResponse(safe, verdict))
	}
}
