// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petrelai/PetrelGuard/services/orchestrator/datatypes"
)

func runAskCommand(cmd *cobra.Command, args []string) {
	question := strings.Join(args, " ")
	fmt.Printf("Asking: %s\n", question)
	fmt.Println("---")

	resp, err := sendChatRequest(question)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	fmt.Printf("\nAnswer:\n%s\n", resp.Answer)

	if resp.Verdict != nil {
		fmt.Println()
		renderVerdict(resp.Verdict)
	}

	if len(resp.Sources) > 0 {
		fmt.Println("\nSources Used:")
		for i, source := range resp.Sources {
			scoreInfo := ""
			if source.Score != 0 {
				scoreInfo = fmt.Sprintf("(Score: %.4f)", source.Score)
			}
			fmt.Printf("%d. %s %s\n", i+1, source.Source, scoreInfo)
		}
	} else {
		fmt.Println("\n(No specific sources identified)")
	}
	fmt.Println("\n---")
}

func sendChatRequest(question string) (datatypes.ChatResponse, error) {
	var chatResp datatypes.ChatResponse

	url := fmt.Sprintf("%s/v1/chat", getOrchestratorBaseURL())
	req := datatypes.ChatRequest{
		Question: question,
		Limit:    retrievalLimit,
	}

	if err := postJSON(url, req, &chatResp); err != nil {
		return chatResp, err
	}
	return chatResp, nil
}
