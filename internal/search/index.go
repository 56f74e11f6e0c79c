// Package search maintains a full-text index over public recipes.
package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// Index wraps a Bleve index with recipe operations.
//
// All public methods are safe for concurrent use.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	// DataPath is the directory for index storage. Empty keeps the index in memory.
	DataPath string
	Logger   *slog.Logger
}

// mappingVersion is incremented whenever the index mapping changes; an
// on-disk index with another version is rebuilt.
const mappingVersion = "1"

// Open creates or opens the search index described by opts.
func Open(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &Index{index: index, logger: logger}, nil
	}

	if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	indexPath := filepath.Join(opts.DataPath, "recipes.bleve")
	versionPath := filepath.Join(opts.DataPath, "recipes.version")

	var index bleve.Index
	if _, statErr := os.Stat(indexPath); statErr == nil {
		existing, readErr := os.ReadFile(versionPath)
		if readErr == nil && string(existing) == mappingVersion {
			opened, err := bleve.Open(indexPath)
			if err == nil {
				index = opened
			} else {
				logger.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
			}
		} else {
			logger.Info("search index mapping version changed, will rebuild", "new_version", mappingVersion)
		}
		if index == nil {
			if err := os.RemoveAll(indexPath); err != nil {
				return nil, fmt.Errorf("remove old index: %w", err)
			}
		}
	}

	if index == nil {
		created, err := bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		index = created
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	}

	return &Index{index: index, path: indexPath, logger: logger}, nil
}

// Close closes the index and releases resources.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexDocument indexes or replaces a single document.
func (s *Index) IndexDocument(doc *Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(DocID(doc.ID), doc.ToMap())
}

// IndexDocuments indexes documents in batches.
func (s *Index) IndexDocuments(docs []*Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))
		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(DocID(doc.ID), doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %d: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DeleteDocument removes a recipe from the index. Deleting an absent id is not an error.
func (s *Index) DeleteDocument(id uint) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(DocID(id))
}

// DocumentCount returns the total number of indexed documents.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}
