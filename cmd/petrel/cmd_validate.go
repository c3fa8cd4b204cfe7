// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petrelai/PetrelGuard/services/orchestrator/datatypes"
)

func runValidateCommand(cmd *cobra.Command, args []string) {
	response, err := resolveResponseText(args)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if strings.TrimSpace(response) == "" {
		log.Fatal("Error: no response text provided (argument or stdin)")
	}

	contextValue, err := resolveContext()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	url := fmt.Sprintf("%s/v1/guardrails/validate", getOrchestratorBaseURL())
	req := datatypes.ValidateRequest{
		Response: response,
		Question: validateQuestion,
		Context:  contextValue,
	}

	var resp datatypes.ValidateResponse
	if err := postJSON(url, req, &resp); err != nil {
		log.Fatalf("Error: %v", err)
	}

	renderVerdict(resp.Verdict)

	// Non-zero exit on failure so the command can gate pipelines.
	if resp.Verdict == nil || !resp.Verdict.Passed {
		os.Exit(1)
	}
}

// resolveResponseText takes the response from args, or stdin when absent.
func resolveResponseText(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read response from stdin: %w", err)
	}
	return string(data), nil
}

// resolveContext merges the --context and --context-file flags.
func resolveContext() (string, error) {
	if contextFile == "" {
		return contextText, nil
	}

	data, err := os.ReadFile(contextFile)
	if err != nil {
		return "", fmt.Errorf("failed to read context file: %w", err)
	}
	if contextText == "" {
		return string(data), nil
	}
	return contextText + "\n" + string(data), nil
}
