package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrUpstreamError, "request failed").
		WithCause(cause).
		WithProvider("gemini").
		WithRetryable(true)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "UPSTREAM_ERROR")
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, IsRetryable(err))
	assert.Equal(t, ErrUpstreamError, GetErrorCode(err))
}

func TestGetErrorCodePlainError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
	assert.False(t, IsRetryable(errors.New("plain")))
}
