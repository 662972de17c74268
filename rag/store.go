package rag

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Embedder maps text to a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Document is one stored chunk plus its embedding.
type Document struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	Embedding []float64 `json:"embedding,omitempty"`
}

// SearchResult pairs a stored document with its cosine similarity to the
// query.
type SearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// VectorStore indexes embedded documents for similarity search.
type VectorStore interface {
	AddDocuments(ctx context.Context, docs []Document) error
	Search(ctx context.Context, queryEmbedding []float64, topK int) ([]SearchResult, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// InMemoryVectorStore keeps documents in a slice and scans it on search.
// Session document sets are small enough that a linear scan is fine.
type InMemoryVectorStore struct {
	mu        sync.RWMutex
	documents []Document
	logger    *zap.Logger
}

func NewInMemoryVectorStore(logger *zap.Logger) *InMemoryVectorStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryVectorStore{logger: logger}
}

func (s *InMemoryVectorStore) AddDocuments(_ context.Context, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		if doc.Embedding == nil {
			return fmt.Errorf("document %s has no embedding", doc.ID)
		}
		s.documents = append(s.documents, doc)
	}
	s.logger.Debug("documents indexed",
		zap.Int("added", len(docs)),
		zap.Int("total", len(s.documents)))
	return nil
}

func (s *InMemoryVectorStore) Search(_ context.Context, queryEmbedding []float64, topK int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.documents) == 0 || topK <= 0 {
		return nil, nil
	}

	results := make([]SearchResult, 0, len(s.documents))
	for _, doc := range s.documents {
		results = append(results, SearchResult{
			Document: doc,
			Score:    cosineSimilarity(queryEmbedding, doc.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

func (s *InMemoryVectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), nil
}

func (s *InMemoryVectorStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = nil
	return nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// HashingEmbedder is a deterministic, offline embedder: lowercased terms are
// hashed into a fixed number of buckets and the vector is L2-normalized. It
// captures term overlap, not semantics, and exists so retrieval works without
// an embedding API.
type HashingEmbedder struct {
	dimensions int
}

const defaultEmbeddingDimensions = 256

func NewHashingEmbedder(dimensions int) *HashingEmbedder {
	if dimensions <= 0 {
		dimensions = defaultEmbeddingDimensions
	}
	return &HashingEmbedder{dimensions: dimensions}
}

func (e *HashingEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dimensions)
	for _, term := range strings.Fields(strings.ToLower(text)) {
		term = strings.Trim(term, ".,;:!?\"'()[]{}")
		if term == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(term))
		vec[int(h.Sum32())%e.dimensions]++
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}
