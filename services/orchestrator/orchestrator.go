// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package orchestrator provides the core orchestrator service for PetrelGuard.
//
// This package contains the main service type that coordinates all
// components: HTTP routing, the LLM client, the guardrail coordinator,
// the vector database, and observability infrastructure.
//
// # Usage
//
//	cfg := orchestrator.Config{Port: 8000, LLMBackend: "ollama"}
//	svc, err := orchestrator.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/petrelai/PetrelGuard/services/guardrails"
	"github.com/petrelai/PetrelGuard/services/llm"
	"github.com/petrelai/PetrelGuard/services/orchestrator/datatypes"
	"github.com/petrelai/PetrelGuard/services/orchestrator/ingest"
	"github.com/petrelai/PetrelGuard/services/orchestrator/observability"
	"github.com/petrelai/PetrelGuard/services/orchestrator/routes"
	"github.com/petrelai/PetrelGuard/services/orchestrator/services"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the orchestrator service.
//
// # Description
//
// Service abstracts the orchestrator lifecycle, enabling testing and
// alternative implementations. Only essential lifecycle methods are exposed.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and should
// only be called once per instance.
//
// # Assumptions
//
//   - Service is fully initialized before Run() is called
//   - Run() is called at most once per Service instance
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	//
	// # Outputs
	//
	//   - error: Non-nil if server fails to start or encounters fatal error
	Run() error

	// Router returns the underlying Gin engine for testing.
	//
	// # Outputs
	//
	//   - *gin.Engine: The configured router with all routes registered
	//
	// # Assumptions
	//
	//   - Caller will not modify the router
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds orchestrator configuration options.
//
// # Description
//
// Config centralizes all configuration for the orchestrator service.
// Values can be populated from environment variables or programmatically
// for testing.
//
// # Required Fields
//
// None - all fields have sensible defaults.
//
// # Examples
//
//	// Minimal config (uses all defaults)
//	cfg := Config{}
//
//	// Full configuration
//	cfg := Config{
//	    Port:          8000,
//	    LLMBackend:    "openai",
//	    WeaviateURL:   "http://localhost:8080",
//	    OTelEndpoint:  "localhost:4317",
//	    EnableMetrics: true,
//	    DocsDir:       "./docs",
//	}
type Config struct {
	// Port is the HTTP server port. Default: 8000
	Port int

	// LLMBackend specifies the LLM provider.
	// Valid values: "ollama", "openai"
	// Default: "ollama"
	LLMBackend string

	// WeaviateURL is the Weaviate vector database URL.
	// If empty, retrieval and chat features are disabled and only the
	// standalone validation endpoint is served.
	// Example: "http://localhost:8080"
	WeaviateURL string

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "petrel-otel-collector:4317"
	OTelEndpoint string

	// EnableMetrics enables the Prometheus metrics endpoint.
	// Default: true
	EnableMetrics bool

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	// Default: uses GIN_MODE env var or "debug"
	GinMode string

	// DocsDir is a directory watched for documents to ingest.
	// If empty, the ingest watcher is disabled. Requires Weaviate.
	DocsDir string
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Description
//
// service is the main implementation that coordinates:
//   - HTTP routing via Gin
//   - LLM client management
//   - The guardrail coordinator for response validation
//   - Optional Weaviate integration and document ingestion
//   - OpenTelemetry tracing
//   - Prometheus metrics
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New() returns.
//
// # Assumptions
//
//   - All external services (LLM, Weaviate, OTel) are reachable if configured
type service struct {
	config         Config
	router         *gin.Engine
	llmClient      llm.LLMClient
	coordinator    *guardrails.Coordinator
	chatService    *services.GuardedRAGService
	weaviateClient *weaviate.Client
	docsWatcher    *ingest.Watcher
	tracerCleanup  func(context.Context)
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a new orchestrator Service with the given configuration.
//
// # Description
//
// New initializes all orchestrator components:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing
//  3. Initializes Prometheus metrics
//  4. Loads the guardrail pattern library and builds the coordinator
//  5. Creates a Weaviate client if a URL is provided
//  6. Creates the LLM client based on backend type
//  7. Assembles the guarded RAG pipeline when Weaviate is available
//  8. Starts the docs ingest watcher when configured
//  9. Sets up HTTP routes
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//
// # Outputs
//
//   - Service: Ready-to-run orchestrator service
//   - error: Non-nil if initialization fails
//
// # Examples
//
//	cfg := Config{Port: 8000, LLMBackend: "ollama"}
//	svc, err := New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
//
// # Limitations
//
//   - LLM client creation may fail if provider credentials are missing
//   - Weaviate connection is optional but schema check runs if connected
//
// # Assumptions
//
//   - Environment variables are set for LLM providers (API keys, URLs)
//   - Network is available for external service connections
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	// Initialize OpenTelemetry tracer
	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	// Initialize Prometheus metrics
	if s.config.EnableMetrics {
		observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics")
	}

	// Load validation patterns and build the coordinator
	library, err := guardrails.LoadPatternLibrary()
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to load guardrail patterns: %w", err)
	}
	s.coordinator = guardrails.NewCoordinator(library)

	// Initialize Weaviate client (optional)
	if err := s.initWeaviate(); err != nil {
		slog.Warn("Weaviate initialization failed, running in validation-only mode",
			"error", err)
		// Not fatal - the standalone validation endpoint still works
	}

	// Initialize LLM client
	if err := s.initLLMClient(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	// Assemble the guarded RAG pipeline (requires Weaviate)
	if s.weaviateClient != nil {
		retriever := services.NewWeaviateRetriever(s.weaviateClient)
		s.chatService = services.NewGuardedRAGService(retriever, s.llmClient, s.coordinator)
	}

	// Start the docs ingest watcher (requires Weaviate)
	if s.weaviateClient != nil && s.config.DocsDir != "" {
		if err := s.initDocsWatcher(); err != nil {
			slog.Warn("Docs watcher initialization failed",
				"docs_dir", s.config.DocsDir,
				"error", err)
			// Not fatal - documents can still be ingested via the API
		}
	}

	// Setup HTTP router
	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
//
// # Outputs
//
//   - error: Non-nil if server fails to start or encounters fatal error
//
// # Limitations
//
//   - Blocks until server stops
//   - Cleanup is automatic on return
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting orchestrator server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
//
// # Inputs
//
//   - cfg: User-provided configuration
//
// # Outputs
//
//   - Config: Configuration with defaults applied
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.LLMBackend == "" {
		cfg.LLMBackend = "ollama"
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "petrel-otel-collector:4317"
	}
	// EnableMetrics defaults to true (zero value is false, so we need explicit check)
	// We'll handle this by always enabling unless explicitly disabled via a setter
	cfg.EnableMetrics = true

	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// # Description
//
// Sets up OTLP trace exporter to send spans to the configured collector.
//
// # Outputs
//
//   - func(context.Context): Cleanup function to call on shutdown
//   - error: Non-nil if tracer setup fails
//
// # Limitations
//
//   - Uses insecure gRPC connection (appropriate for internal networks)
//
// # Assumptions
//
//   - OTel collector is reachable at configured endpoint
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("petrelguard-orchestrator")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initWeaviate initializes the Weaviate vector database client.
//
// # Description
//
// Creates a Weaviate client if WeaviateURL is configured.
// Validates the URL format and ensures the schema is created.
//
// # Outputs
//
//   - error: Non-nil if Weaviate initialization fails
//
// # Limitations
//
//   - Returns nil error if WeaviateURL is empty (optional dependency)
//
// # Assumptions
//
//   - Weaviate server is running and accessible
func (s *service) initWeaviate() error {
	weaviateURL := strings.Trim(s.config.WeaviateURL, "\"' ")

	if weaviateURL == "" || !strings.Contains(weaviateURL, "http") {
		slog.Info("Weaviate URL not configured, running in validation-only mode")
		return nil
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("invalid Weaviate URL: %s", weaviateURL)
	}

	clientConf := weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	}

	s.weaviateClient, err = weaviate.NewClient(clientConf)
	if err != nil {
		return fmt.Errorf("failed to create Weaviate client: %w", err)
	}

	datatypes.EnsureWeaviateSchema(s.weaviateClient)
	slog.Info("Weaviate client initialized", "url", weaviateURL)

	return nil
}

// initLLMClient initializes the LLM provider client.
//
// # Description
//
// Creates the appropriate LLM client based on the configured backend type.
//
// # Outputs
//
//   - error: Non-nil if LLM client creation fails
//
// # Limitations
//
//   - Only supports: ollama, openai
//
// # Assumptions
//
//   - Required environment variables are set for the chosen provider
func (s *service) initLLMClient() error {
	var err error

	switch s.config.LLMBackend {
	case "openai":
		s.llmClient, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI LLM backend")
	case "ollama":
		s.llmClient, err = llm.NewOllamaClient()
		slog.Info("Using Ollama LLM backend")
	default:
		slog.Warn("Unknown LLM backend, defaulting to ollama", "backend", s.config.LLMBackend)
		s.llmClient, err = llm.NewOllamaClient()
	}

	return err
}

// initDocsWatcher starts the filesystem watcher that auto-ingests documents.
//
// # Outputs
//
//   - error: Non-nil if the watcher cannot be created or started
//
// # Assumptions
//
//   - Weaviate client is available (checked by caller)
//   - DocsDir is non-empty (checked by caller)
func (s *service) initDocsWatcher() error {
	watcher, err := ingest.NewWatcher(s.weaviateClient, s.config.DocsDir)
	if err != nil {
		return fmt.Errorf("failed to create docs watcher: %w", err)
	}

	if err := watcher.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start docs watcher: %w", err)
	}
	s.docsWatcher = watcher

	slog.Info("Docs ingest watcher started", "docs_dir", s.config.DocsDir)
	return nil
}

// initRouter sets up the Gin HTTP router with all routes.
//
// # Description
//
// Creates the Gin engine, applies middleware, and registers all routes.
// Routes are configured based on available dependencies (e.g., Weaviate).
//
// # Assumptions
//
//   - All dependencies (LLM, coordinator) are initialized
func (s *service) initRouter() {
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("petrelguard-orchestrator"))

	routes.SetupRoutes(s.router, s.weaviateClient, s.chatService, s.coordinator)
}

// cleanup releases all resources held by the service.
//
// # Description
//
// Called when Run() exits or on initialization failure.
// Stops the docs watcher and shuts down the tracer.
func (s *service) cleanup() {
	// Stop docs watcher
	if s.docsWatcher != nil {
		if err := s.docsWatcher.Close(); err != nil {
			slog.Warn("Docs watcher close error", "error", err)
		}
	}

	// Shutdown tracer
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
