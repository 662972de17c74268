// Package archive persists completed sessions, capped to the most recent N
// records with oldest-first eviction.
package archive

import (
	"context"

	"github.com/BaSui01/maestro/types"
)

// DefaultMaxSessions is the archive cap when none is configured.
const DefaultMaxSessions = 20

// Store persists completed sessions.
type Store interface {
	// Save appends a session, evicting the oldest records beyond the cap.
	Save(ctx context.Context, s types.ArchivedSession) error
	// List returns all retained sessions, oldest first.
	List(ctx context.Context) ([]types.ArchivedSession, error)
}
