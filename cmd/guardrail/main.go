// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command guardrail starts the PetrelGuard orchestrator HTTP server.
//
// This is the main entry point for the containerized guardrail service.
// It reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - GUARDRAIL_PORT: HTTP server port (default: 8000)
//   - LLM_BACKEND_TYPE: LLM provider - ollama, openai (default: ollama)
//   - WEAVIATE_SERVICE_URL: Weaviate vector DB URL (optional)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: petrel-otel-collector:4317)
//   - DOCS_DIR: Directory watched for documents to auto-ingest (optional)
//   - GUARDRAIL_LOG_DIR: Directory for JSON file logs (optional)
//
// # Usage
//
//	# Build
//	go build -o guardrail ./cmd/guardrail
//
//	# Run
//	./guardrail
//
//	# Or via container
//	podman-compose up guardrail
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/petrelai/PetrelGuard/pkg/logging"
	"github.com/petrelai/PetrelGuard/services/orchestrator"
)

func main() {
	// Setup structured logging. File logging is opt-in via GUARDRAIL_LOG_DIR
	// (container deployments ship stderr to the collector instead).
	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		LogDir:  os.Getenv("GUARDRAIL_LOG_DIR"),
		Service: "orchestrator",
		JSON:    true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	// Build configuration from environment variables
	cfg := orchestrator.Config{
		Port:         getEnvInt("GUARDRAIL_PORT", 8000),
		LLMBackend:   getEnvString("LLM_BACKEND_TYPE", "ollama"),
		WeaviateURL:  os.Getenv("WEAVIATE_SERVICE_URL"),
		OTelEndpoint: getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "petrel-otel-collector:4317"),
		DocsDir:      os.Getenv("DOCS_DIR"),
	}

	slog.Info("Starting guardrail orchestrator",
		"port", cfg.Port,
		"llm_backend", cfg.LLMBackend,
		"weaviate_url", cfg.WeaviateURL,
	)

	svc, err := orchestrator.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create orchestrator: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Orchestrator error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
