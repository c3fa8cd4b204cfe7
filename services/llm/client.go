// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm provides clients for the LLM backends that generate the
// responses the guard engine validates.
package llm

import "context"

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient defines the standard interface for any LLM backend.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}
