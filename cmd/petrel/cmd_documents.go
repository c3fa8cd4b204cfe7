// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

// blockedDirs are skipped entirely when walking ingest paths.
var blockedDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
}

// allowedFileExts mirrors what the server-side watcher picks up.
var allowedFileExts = map[string]bool{
	".md": true, ".txt": true, ".rst": true,
	".py": true, ".js": true, ".ts": true, ".java": true,
	".c": true, ".cpp": true, ".h": true, ".hpp": true,
	".rs": true, ".go": true,
	".json": true, ".yaml": true, ".yml": true,
}

func runIngestCommand(cmd *cobra.Command, args []string) {
	ingestURL := fmt.Sprintf("%s/v1/documents", getOrchestratorBaseURL())

	fmt.Println("Finding files to ingest...")
	var allFiles []string
	for _, path := range args {
		err := filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if blockedDirs[info.Name()] {
					log.Printf("Skipping blocked directory: %s\n", p)
					return filepath.SkipDir
				}
				return nil
			}
			if !allowedFileExts[filepath.Ext(p)] {
				return nil
			}
			allFiles = append(allFiles, p)
			return nil
		})
		if err != nil {
			log.Printf("Error walking path %s: %v", path, err)
		}
	}
	if len(allFiles) == 0 {
		fmt.Println("No valid files found to process.")
		return
	}
	fmt.Printf("Found %d files. Starting ingestion...\n", len(allFiles))

	succeeded := 0
	for _, file := range allFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Printf("Could not read file %s: %v", file, err)
			continue
		}

		body := map[string]string{
			"content":     string(content),
			"source":      filepath.Base(file),
			"data_space":  dataSpace,
			"version_tag": versionTag,
		}

		var resp struct {
			ChunksProcessed int `json:"chunks_processed"`
		}
		if err := postJSON(ingestURL, body, &resp); err != nil {
			log.Printf("Failed to ingest %s: %v", file, err)
			continue
		}
		fmt.Printf("Ingested %s (%d chunks)\n", file, resp.ChunksProcessed)
		succeeded++
	}

	fmt.Printf("\nDone: %d of %d files ingested.\n", succeeded, len(allFiles))
}

func runListDocuments(cmd *cobra.Command, args []string) {
	listURL := fmt.Sprintf("%s/v1/documents", getOrchestratorBaseURL())

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(listURL)
	if err != nil {
		log.Fatalf("Error: failed to reach orchestrator: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Error: orchestrator returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var listResp struct {
		Documents []string `json:"documents"`
	}
	if err := json.Unmarshal(bodyBytes, &listResp); err != nil {
		log.Fatalf("Error: failed to parse response: %v", err)
	}

	if len(listResp.Documents) == 0 {
		fmt.Println("No documents ingested.")
		return
	}
	fmt.Printf("Ingested documents (%d):\n", len(listResp.Documents))
	for _, doc := range listResp.Documents {
		fmt.Printf("  - %s\n", doc)
	}
}

func runDeleteDocument(cmd *cobra.Command, args []string) {
	source := args[0]
	deleteURL := fmt.Sprintf("%s/v1/document?source=%s",
		getOrchestratorBaseURL(), url.QueryEscape(source))

	req, err := http.NewRequest(http.MethodDelete, deleteURL, nil)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Error: failed to reach orchestrator: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Error: orchestrator returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var deleteResp struct {
		ChunksDeleted int64 `json:"chunks_deleted"`
	}
	if err := json.Unmarshal(bodyBytes, &deleteResp); err != nil {
		log.Fatalf("Error: failed to parse response: %v", err)
	}
	fmt.Printf("Deleted %s (%d chunks)\n", source, deleteResp.ChunksDeleted)
}
