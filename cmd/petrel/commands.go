// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	retrievalLimit   int
	validateQuestion string
	contextText      string
	contextFile      string
	dataSpace        string
	versionTag       string

	rootCmd = &cobra.Command{
		Use:   "petrel",
		Short: "A cli for the PetrelGuard response validation service",
		Long: `Petrel is a tool for asking guarded questions against a local
document knowledge base and for validating LLM responses for
hallucination risk.`,
	}

	// --- Ask ---
	askCmd = &cobra.Command{
		Use:   "ask [question]",
		Short: "Asks a question through the guarded RAG pipeline",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAskCommand, // Defined in cmd_ask.go
	}

	// --- Validate ---
	validateCmd = &cobra.Command{
		Use:   "validate [response text]",
		Short: "Validates response text against the guardrail engine",
		Long: `Validates a response for quality and hallucination risk.
The response is read from the argument, or from stdin when omitted.
Exits non-zero when the verdict does not pass, so it can gate CI jobs.`,
		Run: runValidateCommand, // Defined in cmd_validate.go
	}

	// --- Documents ---
	documentsCmd = &cobra.Command{
		Use:   "documents",
		Short: "Manage the document knowledge base",
	}
	ingestCmd = &cobra.Command{
		Use:     "ingest [path...]",
		Short:   "Ingest local files or directories into the knowledge base",
		Aliases: []string{"index", "i"},
		Args:    cobra.MinimumNArgs(1),
		Run:     runIngestCommand, // Defined in cmd_documents.go
	}
	listDocumentsCmd = &cobra.Command{
		Use:   "list",
		Short: "List all ingested documents",
		Run:   runListDocuments, // Defined in cmd_documents.go
	}
	deleteDocumentCmd = &cobra.Command{
		Use:   "delete [source]",
		Short: "Delete all chunks belonging to one document",
		Args:  cobra.ExactArgs(1),
		Run:   runDeleteDocument, // Defined in cmd_documents.go
	}

	// --- Health ---
	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check whether the orchestrator is reachable",
		Run:   runHealthCommand, // Defined in helpers.go
	}
)

func init() {
	askCmd.Flags().IntVar(&retrievalLimit, "limit", 0,
		"Maximum number of document chunks to retrieve (default: server-side)")

	validateCmd.Flags().StringVar(&contextText, "context", "",
		"Context the response should be grounded in")
	validateCmd.Flags().StringVar(&contextFile, "context-file", "",
		"File containing the grounding context")
	validateCmd.Flags().StringVar(&validateQuestion, "question", "",
		"Question the response answers (enables relevance checks)")

	ingestCmd.Flags().StringVar(&dataSpace, "data-space", "",
		"Logical namespace for the ingested documents")
	ingestCmd.Flags().StringVar(&versionTag, "version", "",
		"Version tag recorded on the ingested chunks")

	documentsCmd.AddCommand(listDocumentsCmd)
	documentsCmd.AddCommand(deleteDocumentCmd)

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(healthCmd)
}
