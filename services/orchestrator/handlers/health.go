// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers provides the Gin HTTP handlers for the orchestrator.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "petrelguard-orchestrator",
	})
}
