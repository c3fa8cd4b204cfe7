// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"encoding/json"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// ParseGraphQLResponse parses a Weaviate GraphQL response into the target type.
//
// # Description
//
// This generic function encapsulates the marshal/unmarshal pattern required
// to convert Weaviate's dynamic response (map[string]models.JSONObject) into
// a strongly-typed Go struct. The target type T must have json tags matching
// the expected response shape.
//
// # Example
//
//	resp, err := client.GraphQL().Get().WithClassName("Document").Do(ctx)
//	if err != nil { ... }
//
//	parsed, err := ParseGraphQLResponse[DocumentQueryResponse](resp)
//	if err != nil { ... }
//
//	for _, d := range parsed.Get.Document {
//	    fmt.Println(d.Source)
//	}
//
// # Limitations
//
//   - Requires the target type to exactly match the expected response structure.
//   - Type mismatches result in zero values, not errors.
func ParseGraphQLResponse[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}

	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}

	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}

	return &result, nil
}

// DocumentQueryResponse represents the response from querying the Document
// class.
type DocumentQueryResponse struct {
	Get struct {
		Document []DocumentResult `json:"Document"`
	} `json:"Get"`
}

// DocumentResult represents a single document chunk from a query.
type DocumentResult struct {
	Content      string `json:"content"`
	Source       string `json:"source"`
	ParentSource string `json:"parent_source"`
	DataSpace    string `json:"data_space"`
	VersionTag   string `json:"version_tag"`
	IngestedAt   int64  `json:"ingested_at"`
	Additional   struct {
		ID    string   `json:"id"`
		Score *float32 `json:"score"`
	} `json:"_additional"`
}

// DocumentProperties represents the properties for creating a Document object.
type DocumentProperties struct {
	Content      string `json:"content"`
	Source       string `json:"source"`
	ParentSource string `json:"parent_source"`
	DataSpace    string `json:"data_space"`
	VersionTag   string `json:"version_tag"`
	IngestedAt   int64  `json:"ingested_at"`
}

// ToMap converts DocumentProperties to the map format required by the
// Weaviate client's WithProperties() method.
func (p *DocumentProperties) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"content":       p.Content,
		"source":        p.Source,
		"parent_source": p.ParentSource,
		"data_space":    p.DataSpace,
		"version_tag":   p.VersionTag,
		"ingested_at":   p.IngestedAt,
	}
}
