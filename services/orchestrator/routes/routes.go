// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/petrelai/PetrelGuard/services/guardrails"
	"github.com/petrelai/PetrelGuard/services/orchestrator/handlers"
	"github.com/petrelai/PetrelGuard/services/orchestrator/services"
)

// SetupRoutes registers all HTTP routes.
//
// The standalone validation endpoint is always available; the chat and
// document endpoints require a Weaviate-backed pipeline and are only
// registered when their dependencies exist.
func SetupRoutes(router *gin.Engine, client *weaviate.Client,
	chatService *services.GuardedRAGService, coordinator *guardrails.Coordinator) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/guardrails/validate", handlers.HandleValidate(coordinator))

		if chatService != nil {
			v1.POST("/chat", handlers.HandleGuardedChat(chatService))
		}

		if client != nil {
			v1.POST("/documents", handlers.CreateDocument(client))
			v1.GET("/documents", handlers.ListDocuments(client))
			v1.DELETE("/document", handlers.DeleteBySource(client))
		}
	}
}
