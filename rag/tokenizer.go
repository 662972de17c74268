package rag

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// Tokenizer counts tokens for chunk sizing.
type Tokenizer interface {
	CountTokens(text string) int
}

// TiktokenCounter counts tokens with a tiktoken encoding. The encoding data
// is downloaded lazily on first use; if that fails, every call falls back to
// the len/4 character estimate.
type TiktokenCounter struct {
	encoding string
	logger   *zap.Logger

	once    sync.Once
	enc     *tiktoken.Tiktoken
	initErr error
}

// NewTiktokenCounter builds a counter for the given encoding. Empty encoding
// selects cl100k_base.
func NewTiktokenCounter(encoding string, logger *zap.Logger) *TiktokenCounter {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TiktokenCounter{encoding: encoding, logger: logger}
}

func (t *TiktokenCounter) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

func (t *TiktokenCounter) CountTokens(text string) int {
	if err := t.init(); err != nil {
		t.logger.Warn("tiktoken unavailable, estimating token count", zap.Error(err))
		return estimateTokens(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// EstimatorCounter approximates one token per four characters. It needs no
// encoding data and is the default for offline use.
type EstimatorCounter struct{}

func (EstimatorCounter) CountTokens(text string) int { return estimateTokens(text) }

func estimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		n = 1
	}
	return n
}
