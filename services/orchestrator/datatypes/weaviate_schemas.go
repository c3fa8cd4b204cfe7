// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"context"
	"log"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// DocumentClassName is the Weaviate class holding ingested document chunks.
const DocumentClassName = "Document"

// GetDocumentSchema returns the schema for ingested document chunks.
//
// Retrieval is keyword-based (BM25 over the content property), so the class
// carries no vectorizer. The inverted index keeps timestamps so ingestion
// time can be filtered on.
func GetDocumentSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       DocumentClassName,
		Description: "A document chunk used as grounding context for guarded answers.",
		Vectorizer:  "none",
		InvertedIndexConfig: &models.InvertedIndexConfig{
			IndexNullState:  true,
			IndexTimestamps: true,
		},
		Properties: []*models.Property{
			{
				Name:         "content",
				DataType:     []string{"text"},
				Description:  "The main content of the chunk.",
				Tokenization: "word",
			},
			{
				Name:            "source",
				DataType:        []string{"text"},
				Description:     "The chunk identifier (parent source plus part number).",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "parent_source",
				DataType:        []string{"text"},
				Description:     "The original file the chunk was split from.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "version_tag",
				DataType:        []string{"text"},
				Description:     "A version tag (e.g., 'v1', 'v2') for this document.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "data_space",
				DataType:        []string{"text"},
				Description:     "Logical data space for segmentation (e.g., 'work', 'personal').",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "ingested_at",
				DataType:        []string{"number"},
				Description:     "Timestamp (Unix ms) of when the chunk was ingested.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

// EnsureWeaviateSchema creates any missing classes at startup.
func EnsureWeaviateSchema(client *weaviate.Client) {
	schemaGetters := []func() *models.Class{
		GetDocumentSchema,
	}

	for _, getSchema := range schemaGetters {
		class := getSchema()
		slog.Info("Checking schema", "class", class.Class)

		// The client returns an error when the class does not exist yet.
		_, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(context.Background())
		if err != nil {
			slog.Info("Schema not found, creating it...", "class", class.Class)
			err := client.Schema().ClassCreator().WithClass(class).Do(context.Background())
			if err != nil {
				log.Fatalf("Failed to create schema for class %s: %v", class.Class, err)
			}
			slog.Info("Successfully created schema", "class", class.Class)
		} else {
			slog.Info("Schema already exists", "class", class.Class)
		}
	}
}
