// Copyright (C) 2025 Petrel AI (maintainers@petrelguard.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ingest watches a documents directory and feeds new or changed
// files into the Weaviate ingestion pipeline.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/petrelai/PetrelGuard/services/orchestrator/handlers"
)

// debounceDelay is how long to wait after the last write event before
// ingesting a file. Editors often emit several writes per save.
const debounceDelay = 500 * time.Millisecond

// ingestFunc matches handlers.RunIngestion, injectable for testing.
type ingestFunc func(ctx context.Context, client *weaviate.Client, req handlers.IngestDocumentRequest) (int, error)

// Watcher monitors a directory and ingests documents into Weaviate.
//
// # Description
//
// Watcher performs an initial sweep of the directory on Start, then
// reacts to filesystem create and write events. Each changed file is
// re-chunked and re-ingested; chunk IDs are content-derived so repeated
// ingestion of unchanged content is idempotent.
//
// # Thread Safety
//
// Safe for concurrent use. Start should only be called once.
type Watcher struct {
	client  *weaviate.Client
	dir     string
	watcher *fsnotify.Watcher
	ingest  ingestFunc

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher over the given documents directory.
//
// # Inputs
//
//   - client: Weaviate client used for ingestion. Must not be nil.
//   - dir: Directory to watch. Must exist.
//
// # Outputs
//
//   - *Watcher: Ready-to-start watcher.
//   - error: Non-nil if the directory is missing or watcher creation fails.
func NewWatcher(client *weaviate.Client, dir string) (*Watcher, error) {
	if client == nil {
		panic("ingest.NewWatcher: client must not be nil")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("docs directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docs path is not a directory: %s", dir)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		client:  client,
		dir:     dir,
		watcher: fsWatcher,
		ingest:  handlers.RunIngestion,
		pending: make(map[string]*time.Timer),
	}, nil
}

// Start begins watching the directory in a background goroutine.
//
// # Description
//
// Registers the directory with fsnotify, ingests all files already
// present, then processes events until the context is cancelled or the
// watcher is closed.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//
// # Outputs
//
//   - error: Non-nil if the directory cannot be watched.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.sweep(ctx)

	go w.run(ctx)
	return nil
}

// Close stops the watcher and releases resources. Safe to call multiple times.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	return w.watcher.Close()
}

// sweep ingests every eligible file already in the directory.
func (w *Watcher) sweep(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		slog.Warn("Failed to read docs directory for initial sweep",
			"dir", w.dir,
			"error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if !isIngestible(path) {
			continue
		}
		w.ingestFile(ctx, path)
	}
}

func (w *Watcher) run(ctx context.Context) {
	slog.Debug("Started watching docs directory", "dir", w.dir)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Docs watcher error", "error", err)

		case <-ctx.Done():
			slog.Debug("Docs watcher stopping")
			return
		}
	}
}

// handleEvent schedules ingestion for created or written files.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !isIngestible(event.Name) {
		return
	}

	// Debounce per file: restart the timer on every event so a burst of
	// writes triggers a single ingestion.
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[event.Name]; ok {
		timer.Stop()
	}
	path := event.Name
	w.pending[path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		w.ingestFile(ctx, path)
	})
}

// ingestFile reads a file and runs it through the ingestion pipeline.
func (w *Watcher) ingestFile(ctx context.Context, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Failed to read document for ingestion",
			"path", path,
			"error", err)
		return
	}
	if len(content) == 0 {
		return
	}

	chunks, err := w.ingest(ctx, w.client, handlers.IngestDocumentRequest{
		Content: string(content),
		Source:  filepath.Base(path),
	})
	if err != nil {
		slog.Error("Failed to ingest watched document",
			"path", path,
			"error", err)
		return
	}

	slog.Info("Ingested watched document",
		"path", path,
		"chunks_processed", chunks)
}

// isIngestible reports whether a file should be picked up by the watcher.
// Hidden files and editor temp files are skipped.
func isIngestible(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
		return false
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".txt", ".rst",
		".py", ".js", ".ts", ".java", ".c", ".cpp", ".h", ".hpp", ".rs", ".go",
		".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
