package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTopK is the retrieval depth used when the caller passes topK <= 0.
const DefaultTopK = 4

// File is a named document supplied by the user for the session.
type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Service indexes session files and retrieves prompt context for them.
type Service struct {
	chunker  *Chunker
	embedder Embedder
	store    VectorStore
	logger   *zap.Logger
}

func NewService(chunker *Chunker, embedder Embedder, store VectorStore, logger *zap.Logger) *Service {
	if chunker == nil {
		chunker = NewChunker(DefaultChunkingConfig(), EstimatorCounter{}, logger)
	}
	if embedder == nil {
		embedder = NewHashingEmbedder(0)
	}
	if store == nil {
		store = NewInMemoryVectorStore(logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{chunker: chunker, embedder: embedder, store: store, logger: logger}
}

// AddFiles chunks, embeds, and indexes the given files. Empty files are
// skipped silently.
func (s *Service) AddFiles(ctx context.Context, files []File) error {
	var docs []Document
	for _, f := range files {
		for _, chunk := range s.chunker.Split(f.Name, f.Content) {
			emb, err := s.embedder.Embed(ctx, chunk.Content)
			if err != nil {
				return fmt.Errorf("embed chunk %d of %s: %w", chunk.Index, f.Name, err)
			}
			docs = append(docs, Document{
				ID:        uuid.NewString(),
				Content:   chunk.Content,
				Source:    chunk.Source,
				Embedding: emb,
			})
		}
	}
	if len(docs) == 0 {
		return nil
	}
	if err := s.store.AddDocuments(ctx, docs); err != nil {
		return fmt.Errorf("index documents: %w", err)
	}
	s.logger.Info("files indexed for retrieval",
		zap.Int("files", len(files)),
		zap.Int("chunks", len(docs)))
	return nil
}

// HasDocuments reports whether anything has been indexed.
func (s *Service) HasDocuments(ctx context.Context) bool {
	n, err := s.store.Count(ctx)
	return err == nil && n > 0
}

// RetrieveContext returns the topK chunks most similar to query, formatted
// for prompt injection, with each chunk labeled by its source file. The
// second return is false when nothing is indexed or nothing matches.
func (s *Service) RetrieveContext(ctx context.Context, query string, topK int) (string, bool) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("query embedding failed", zap.Error(err))
		return "", false
	}
	results, err := s.store.Search(ctx, emb, topK)
	if err != nil {
		s.logger.Warn("retrieval search failed", zap.Error(err))
		return "", false
	}
	if len(results) == 0 {
		return "", false
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Source: %s]\n%s", r.Document.Source, r.Document.Content)
	}
	return b.String(), true
}

// Reset drops all indexed documents, for reuse across sessions.
func (s *Service) Reset(ctx context.Context) error {
	return s.store.Clear(ctx)
}
