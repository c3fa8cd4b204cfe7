// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command petrel is the CLI for the PetrelGuard response validation service.
//
// It talks to a running orchestrator over HTTP and covers the common
// workflows: asking guarded questions, validating response text directly,
// and managing the document knowledge base.
package main

import (
	"log"
)

func main() {
	// Execute the root command. Cobra handles parsing the arguments.
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
