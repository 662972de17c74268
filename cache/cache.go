// Package cache provides the key-value collaborator used for agent memory,
// lessons, and other small persisted values. Semantics are simple put/get
// with last-write-wins and optional TTL; there are no transactions.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// IsMiss reports whether err is a cache miss.
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}

// Store is the key-value contract. A ttl of 0 means no expiry.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// GetJSON fetches and unmarshals a JSON value.
func GetJSON(ctx context.Context, s Store, key string, dest any) error {
	val, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

// SetJSON marshals and stores a JSON value.
func SetJSON(ctx context.Context, s Store, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, string(data), ttl)
}
