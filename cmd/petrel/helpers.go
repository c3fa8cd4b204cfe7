// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/petrelai/PetrelGuard/services/guardrails"
)

const (
	// DefaultOrchestratorHost is where a local stack exposes the orchestrator.
	DefaultOrchestratorHost = "localhost"

	// DefaultOrchestratorPort matches the server's default port.
	DefaultOrchestratorPort = 8000
)

// requestTimeout bounds every CLI request. Generation against a local
// model can be slow, so this is generous.
const requestTimeout = 3 * time.Minute

func getOrchestratorBaseURL() string {
	// 1. Priority: Environment Variable (Used by Tests & Docker overrides)
	if url := os.Getenv("PETREL_ORCHESTRATOR_URL"); url != "" {
		return url
	}
	// 2. Default: Standard Host/Port
	return fmt.Sprintf("http://%s:%d", DefaultOrchestratorHost, DefaultOrchestratorPort)
}

// postJSON sends a JSON body and decodes the JSON response into out.
// Non-2xx statuses are returned as errors carrying the response body.
func postJSON(url string, body any, out any) error {
	postBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to create request body: %w", err)
	}

	client := &http.Client{Timeout: requestTimeout}
	resp, err := client.Post(url, "application/json", bytes.NewBuffer(postBody))
	if err != nil {
		return fmt.Errorf("failed to reach orchestrator: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("orchestrator returned an error (status %d): %s",
			resp.StatusCode, string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to parse response from orchestrator: %w", err)
	}
	return nil
}

// renderVerdict prints a verdict in a compact human-readable form.
func renderVerdict(v *guardrails.VerdictRecord) {
	if v == nil {
		fmt.Println("(no verdict returned)")
		return
	}

	status := "PASSED"
	if !v.Passed {
		status = "FAILED"
	}
	fmt.Printf("Verdict: %s (quality: %s, confidence: %.2f)\n",
		status, v.Quality, v.ConfidenceScore)

	if len(v.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range v.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	if len(v.Suggestions) > 0 {
		fmt.Println("\nSuggestions:")
		for _, s := range v.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
	}
}

func runHealthCommand(cmd *cobra.Command, args []string) {
	url := fmt.Sprintf("%s/health", getOrchestratorBaseURL())

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Printf("Orchestrator unreachable: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Orchestrator unhealthy (status %d)\n", resp.StatusCode)
		os.Exit(1)
	}
	fmt.Println("Orchestrator is healthy")
}
