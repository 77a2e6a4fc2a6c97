package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/qazlegal/constitution-assistant/models"
)

// IngestionService turns files into indexed chunks: extract text, split
// into passages, embed and store. One failing file never aborts a batch.
type IngestionService struct {
	chunker    *ChunkerService
	index      VectorIndex
	corpusPath string
}

// NewIngestionService creates the ingestion pipeline front end.
func NewIngestionService(chunker *ChunkerService, index VectorIndex, corpusPath string) *IngestionService {
	return &IngestionService{
		chunker:    chunker,
		index:      index,
		corpusPath: corpusPath,
	}
}

// LoadConstitution ingests the fixed corpus document. A missing corpus
// file is a user-facing error, unlike a missing index.
func (s *IngestionService) LoadConstitution(ctx context.Context) (int, error) {
	if _, err := os.Stat(s.corpusPath); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrCorpusNotFound, s.corpusPath)
	}
	count, err := s.ingestFile(ctx, s.corpusPath)
	if err != nil {
		return 0, err
	}
	log.Printf("INGEST: Constitution loaded, %d chunks indexed.", count)
	return count, nil
}

// IngestFiles processes a batch of uploaded files, recording a per-file
// result so the caller can distinguish full, partial and total failure.
// Unsupported or corrupt files are skipped with a logged warning.
func (s *IngestionService) IngestFiles(ctx context.Context, paths []string) models.BatchReport {
	report := models.BatchReport{Files: make([]models.FileResult, 0, len(paths))}
	for _, path := range paths {
		result := models.FileResult{File: filepath.Base(path)}
		count, err := s.ingestFile(ctx, path)
		if err != nil {
			log.Printf("INGEST WARN: Skipping file %q: %v", path, err)
			result.Error = err.Error()
		} else {
			result.Chunks = count
			report.TotalChunks += count
		}
		report.Files = append(report.Files, result)
	}
	report.Classify()
	log.Printf("INGEST: Batch finished: %s, %d chunks from %d files.", report.Status, report.TotalChunks, len(report.Files))
	return report
}

// ingestFile runs extract -> chunk -> index for a single file.
func (s *IngestionService) ingestFile(ctx context.Context, path string) (int, error) {
	text, err := ExtractTextFromFile(path)
	if err != nil {
		if errors.Is(err, ErrUnsupportedFormat) {
			return 0, err
		}
		return 0, fmt.Errorf("could not extract text from %q: %w", filepath.Base(path), err)
	}

	doc := models.Document{Source: filepath.Base(path), Text: text}
	chunks, err := s.chunker.Split([]models.Document{doc})
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		log.Printf("INGEST: File %q produced no chunks.", path)
		return 0, nil
	}
	if err := s.index.Add(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// WatchUploads re-ingests supported files in dir as they are created or
// modified. Opt-in via config; writes still funnel through the index's
// single-writer lock. Blocks until ctx is cancelled.
func (s *IngestionService) WatchUploads(ctx context.Context, dir string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !IsSupportedFile(event.Name) {
					continue
				}
				// Editors often write via create-temp-and-rename, so
				// Create and Write are handled the same way.
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					log.Printf("WATCHER: File modified/created: %s. Ingesting...", event.Name)
					if _, err := s.ingestFile(ctx, event.Name); err != nil {
						log.Printf("WATCHER ERROR: Failed to ingest file %s: %v", event.Name, err)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)
			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching directory: %s", dir)
	if err := watcher.Add(dir); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
	}

	<-ctx.Done()
}
