package rag

import (
	"strings"

	"go.uber.org/zap"
)

// ChunkingConfig controls how documents are split before embedding.
type ChunkingConfig struct {
	ChunkSize    int `json:"chunk_size" yaml:"chunk_size"`       // target size in tokens
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"` // carried between neighbors, in tokens
	MinChunkSize int `json:"min_chunk_size" yaml:"min_chunk_size"`
}

// DefaultChunkingConfig returns sizes that work well for prompt-context
// retrieval: 512-token chunks with a 20% overlap.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		ChunkSize:    512,
		ChunkOverlap: 102,
		MinChunkSize: 16,
	}
}

// Chunk is one embeddable slice of a source file.
type Chunk struct {
	Content    string `json:"content"`
	Source     string `json:"source"`
	Index      int    `json:"index"`
	TokenCount int    `json:"token_count"`
}

// Chunker splits text into token-bounded chunks, preferring paragraph and
// sentence boundaries over hard cuts.
type Chunker struct {
	config    ChunkingConfig
	tokenizer Tokenizer
	logger    *zap.Logger
}

func NewChunker(config ChunkingConfig, tokenizer Tokenizer, logger *zap.Logger) *Chunker {
	if config.ChunkSize <= 0 {
		config = DefaultChunkingConfig()
	}
	if tokenizer == nil {
		tokenizer = EstimatorCounter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chunker{config: config, tokenizer: tokenizer, logger: logger}
}

// Split chunks content, tagging every chunk with the source name.
func (c *Chunker) Split(source, content string) []Chunk {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	segments := c.segment(content)
	chunks := c.assemble(source, segments)

	c.logger.Debug("document chunked",
		zap.String("source", source),
		zap.Int("chunks", len(chunks)),
		zap.Int("chunk_size", c.config.ChunkSize))
	return chunks
}

// segment breaks the text into pieces no larger than ChunkSize, splitting on
// paragraph, then sentence, then word boundaries.
func (c *Chunker) segment(text string) []string {
	separators := []string{"\n\n", "\n", ". ", "! ", "? ", " "}
	return c.split(text, separators)
}

func (c *Chunker) split(text string, separators []string) []string {
	if c.tokenizer.CountTokens(text) <= c.config.ChunkSize {
		return []string{text}
	}
	if len(separators) == 0 {
		return c.hardSplit(text)
	}

	sep := separators[0]
	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		return c.split(text, separators[1:])
	}

	var out []string
	for i, part := range parts {
		if i < len(parts)-1 {
			part += sep
		}
		if part == "" {
			continue
		}
		if c.tokenizer.CountTokens(part) > c.config.ChunkSize {
			out = append(out, c.split(part, separators[1:])...)
		} else {
			out = append(out, part)
		}
	}
	return out
}

// hardSplit cuts on rune boundaries when no separator fits. The 4x factor
// mirrors the token estimator.
func (c *Chunker) hardSplit(text string) []string {
	runes := []rune(text)
	step := c.config.ChunkSize * 4
	if step <= 0 {
		step = len(runes)
	}
	var out []string
	for i := 0; i < len(runes); i += step {
		end := i + step
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

// assemble packs segments into chunks up to ChunkSize tokens, carrying an
// overlap tail from each chunk into the next.
func (c *Chunker) assemble(source string, segments []string) []Chunk {
	var chunks []Chunk
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		text := strings.TrimSpace(current.String())
		if text == "" {
			return
		}
		tokens := c.tokenizer.CountTokens(text)
		if tokens < c.config.MinChunkSize && len(chunks) > 0 {
			// Fold a trailing sliver into the previous chunk.
			prev := &chunks[len(chunks)-1]
			prev.Content = prev.Content + " " + text
			prev.TokenCount = c.tokenizer.CountTokens(prev.Content)
		} else {
			chunks = append(chunks, Chunk{
				Content:    text,
				Source:     source,
				Index:      len(chunks),
				TokenCount: tokens,
			})
		}
		tail := overlapTail(text, c.config.ChunkOverlap*4)
		current.Reset()
		current.WriteString(tail)
		currentTokens = c.tokenizer.CountTokens(tail)
	}

	for _, seg := range segments {
		segTokens := c.tokenizer.CountTokens(seg)
		if currentTokens+segTokens > c.config.ChunkSize && currentTokens > 0 {
			flush()
		}
		current.WriteString(seg)
		currentTokens += segTokens
	}
	if strings.TrimSpace(current.String()) != "" {
		// Drop a final chunk that is pure overlap of the previous one.
		text := strings.TrimSpace(current.String())
		if len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1].Content, text) {
			chunks = append(chunks, Chunk{
				Content:    text,
				Source:     source,
				Index:      len(chunks),
				TokenCount: c.tokenizer.CountTokens(text),
			})
		}
	}
	return chunks
}

// overlapTail returns up to maxChars of trailing text, snapped forward to a
// word boundary so the overlap never starts mid-word.
func overlapTail(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		if maxChars <= 0 {
			return ""
		}
		return text
	}
	tail := text[len(text)-maxChars:]
	if i := strings.IndexAny(tail, " \n\t"); i >= 0 {
		tail = tail[i+1:]
	}
	return tail
}
