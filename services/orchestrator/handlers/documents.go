// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/petrelai/PetrelGuard/services/orchestrator/datatypes"
)

var (
	CHUNK_SIZE        = 1000
	CHUNK_OVERLAP     = int(float64(CHUNK_SIZE) * 0.10) // Chunk_overlap is 10% of the CHUNK_SIZE
	defaultSeparators = []string{"\n\n", "\n", " ", ""}
	pythonSeparators  = []string{"\nclass ", "\ndef ", "\n\t", "\n", " "}
	cStyleSeparators  = []string{
		"\nfunction ", "\nclass ", "\ninterface ",
		"\npublic ", "\nprivate ", "\nprotected ",
		"\nfunc", "\ntype",
		"\n\n", "\n", " ", "",
	}

	markdownSeparators = []string{
		"\n# ", "\n## ", "\n### ", "\n#### ", "\n##### ", "\n###### ",
		"\n\n", "\n", " ", "",
	}
)

type IngestDocumentRequest struct {
	Content    string `json:"content"`
	Source     string `json:"source"`
	DataSpace  string `json:"data_space"`
	VersionTag string `json:"version_tag"`
}

// CreateDocument receives document content and adds it to Weaviate.
// This is a thin wrapper around RunIngestion.
func CreateDocument(client *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req IngestDocumentRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if req.Source == "" || req.Content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "source and content are required"})
			return
		}

		chunksCreated, err := RunIngestion(c.Request.Context(), client, req)
		if err != nil {
			slog.Error("Ingestion failed", "source", req.Source, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		slog.Info("Successfully processed document via API", "source", req.Source, "chunks_processed", chunksCreated)
		c.JSON(http.StatusCreated, gin.H{
			"status":           "success",
			"source":           req.Source,
			"chunks_processed": chunksCreated,
		})
	}
}

// ListDocuments gets a unique list of all ingested 'parent_source' files
func ListDocuments(client *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		slog.Info("Received request to list ingested documents")

		agg, err := client.GraphQL().Aggregate().
			WithClassName(datatypes.DocumentClassName).
			WithGroupBy("parent_source").
			Do(context.Background())

		if err != nil {
			slog.Error("Failed to aggregate documents from Weaviate", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query documents"})
			return
		}

		var docList []string

		// Parse the nested aggregate response
		if agg.Data["Aggregate"] != nil {
			aggMap, ok := agg.Data["Aggregate"].(map[string]interface{})
			if ok && aggMap[datatypes.DocumentClassName] != nil {
				docGroups, ok := aggMap[datatypes.DocumentClassName].([]interface{})
				if ok {
					for _, groupItem := range docGroups {
						groupMap, ok := groupItem.(map[string]interface{})
						if ok && groupMap["groupedBy"] != nil {
							groupedByMap, ok := groupMap["groupedBy"].(map[string]interface{})
							if ok && groupedByMap["value"] != nil {
								if sourceName, ok := groupedByMap["value"].(string); ok {
									docList = append(docList, sourceName)
								}
							}
						}
					}
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{"documents": docList})
	}
}

// DeleteBySource removes every chunk belonging to one parent source.
func DeleteBySource(client *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		source := c.Query("source")
		if source == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "source query parameter is required"})
			return
		}

		where := filters.Where().
			WithPath([]string{"parent_source"}).
			WithOperator(filters.Equal).
			WithValueText(source)

		resp, err := client.Batch().ObjectsBatchDeleter().
			WithClassName(datatypes.DocumentClassName).
			WithWhere(where).
			Do(c.Request.Context())
		if err != nil {
			slog.Error("Failed to delete document chunks", "source", source, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
			return
		}

		var deleted int64
		if resp != nil && resp.Results != nil {
			deleted = resp.Results.Successful
		}
		slog.Info("Deleted document chunks", "source", source, "chunks_deleted", deleted)
		c.JSON(http.StatusOK, gin.H{
			"status":         "success",
			"source":         source,
			"chunks_deleted": deleted,
		})
	}
}

// RunIngestion is the reusable logic for ingesting a document. Chunks are
// stored without vectors; retrieval is BM25 keyword search.
func RunIngestion(ctx context.Context, client *weaviate.Client, req IngestDocumentRequest) (int, error) {
	slog.Info("Ingestion request received", "source", req.Source)

	splitter := getSplitterForFile(req.Source)

	chunks, err := splitter.SplitText(req.Content)
	if err != nil {
		slog.Error("Failed to split text", "source", req.Source, "error", err)
		return 0, fmt.Errorf("failed to split content: %w", err)
	}
	if len(chunks) == 0 {
		slog.Warn("No chunks produced after splitting", "source", req.Source)
		return 0, nil
	}
	slog.Info("Split document into chunks", "source", req.Source, "chunk_count", len(chunks))

	// Batch Weaviate import in one request. Chunk IDs are derived from the
	// content hash so re-ingesting identical content overwrites in place.
	batcher := client.Batch().ObjectsBatcher()
	objects := make([]*models.Object, len(chunks))

	for i, chunk := range chunks {
		props := datatypes.DocumentProperties{
			Content:      chunk,
			Source:       fmt.Sprintf("%s_part_%d", req.Source, i+1),
			ParentSource: req.Source,
			DataSpace:    req.DataSpace,
			VersionTag:   req.VersionTag,
			IngestedAt:   time.Now().UnixMilli(),
		}

		hash := sha256.Sum256([]byte(chunk))
		docUUID, _ := uuid.FromBytes(hash[:16])

		objects[i] = &models.Object{
			Class:      datatypes.DocumentClassName,
			ID:         strfmt.UUID(docUUID.String()),
			Properties: props.ToMap(),
		}
	}

	batcher.WithObjects(objects...)

	resp, err := batcher.Do(ctx)
	if err != nil {
		slog.Error("Failed to perform batch import to Weaviate", "error", err)
		return 0, fmt.Errorf("failed to save objects to Weaviate: %w", err)
	}

	chunksCreated := 0
	hasErrors := false
	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			chunksCreated++
			continue
		}
		hasErrors = true
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			for _, errItem := range item.Result.Errors.Error {
				slog.Warn("Error in Weaviate batch item", "source", req.Source, "error", errItem.Message)
			}
		} else {
			status := "UNKNOWN"
			if item.Result != nil && item.Result.Status != nil {
				status = *item.Result.Status
			}
			slog.Warn("Failed Weaviate batch item, no error provided", "source", req.Source, "status", status)
		}
	}

	if hasErrors {
		slog.Warn("Errors encountered during Weaviate batch import", "source", req.Source, "successful_chunks", chunksCreated)
	}

	slog.Info("Successfully processed document", "source", req.Source, "chunks_processed",
		chunksCreated)

	return chunksCreated, nil
}

func getSplitterForFile(filename string) textsplitter.TextSplitter {
	ext := filepath.Ext(filename)
	switch ext {
	case ".md":
		return textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(CHUNK_SIZE),
			textsplitter.WithChunkOverlap(CHUNK_OVERLAP),
			textsplitter.WithSeparators(markdownSeparators),
		)

	case ".py":
		return textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(CHUNK_SIZE),
			textsplitter.WithChunkOverlap(CHUNK_OVERLAP),
			textsplitter.WithSeparators(pythonSeparators),
		)

	case ".js", ".ts", ".java", ".c", ".cpp", ".h", ".hpp", ".rs", ".go":
		return textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(CHUNK_SIZE),
			textsplitter.WithChunkOverlap(CHUNK_OVERLAP),
			textsplitter.WithSeparators(cStyleSeparators),
		)

	default:
		return textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(CHUNK_SIZE),
			textsplitter.WithChunkOverlap(CHUNK_OVERLAP),
			textsplitter.WithSeparators(defaultSeparators),
		)
	}
}
