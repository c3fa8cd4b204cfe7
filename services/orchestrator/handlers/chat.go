// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/petrelai/PetrelGuard/services/orchestrator/datatypes"
	"github.com/petrelai/PetrelGuard/services/orchestrator/services"
)

// HandleGuardedChat answers a question from ingested documents with the
// guard engine in the loop.
//
// POST /v1/chat
//
// Pipeline failures (retrieval, generation) still return 200 with the
// fallback answer and an error-tier verdict; the client always gets a
// well-formed reply. Request validation failures return 400.
func HandleGuardedChat(service *services.GuardedRAGService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ChatRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		resp, err := service.Process(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}
