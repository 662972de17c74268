package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/maestro/types"
)

// sessionRecord is the gorm row for an archived session. The log is stored as
// a JSON blob; nothing queries inside it.
type sessionRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"uniqueIndex;size:64"`
	Timestamp time.Time
	Goal      string
	FinalPlan string
	LogJSON   []byte
}

func (sessionRecord) TableName() string { return "archived_sessions" }

// SQLiteStore persists archived sessions in a SQLite database, retaining at
// most maxSessions rows.
type SQLiteStore struct {
	db          *gorm.DB
	maxSessions int
	logger      *zap.Logger
}

// NewSQLiteStore opens (or creates) the database at path and migrates the
// archive table. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string, maxSessions int, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}
	if err := db.AutoMigrate(&sessionRecord{}); err != nil {
		return nil, fmt.Errorf("migrate archive schema: %w", err)
	}
	return &SQLiteStore{db: db, maxSessions: maxSessions, logger: logger}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, sess types.ArchivedSession) error {
	raw, err := json.Marshal(sess.Log)
	if err != nil {
		return fmt.Errorf("encode session log: %w", err)
	}
	rec := sessionRecord{
		SessionID: sess.ID,
		Timestamp: sess.Timestamp,
		Goal:      sess.Goal,
		FinalPlan: sess.FinalPlan,
		LogJSON:   raw,
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("insert archived session: %w", err)
		}
		var count int64
		if err := tx.Model(&sessionRecord{}).Count(&count).Error; err != nil {
			return err
		}
		if excess := count - int64(s.maxSessions); excess > 0 {
			var stale []sessionRecord
			if err := tx.Order("id asc").Limit(int(excess)).Find(&stale).Error; err != nil {
				return err
			}
			for _, old := range stale {
				if err := tx.Delete(&sessionRecord{}, old.ID).Error; err != nil {
					return err
				}
				s.logger.Info("evicted archived session",
					zap.String("session_id", old.SessionID),
					zap.Time("archived_at", old.Timestamp))
			}
		}
		return nil
	})
}

func (s *SQLiteStore) List(ctx context.Context) ([]types.ArchivedSession, error) {
	var rows []sessionRecord
	if err := s.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list archived sessions: %w", err)
	}
	out := make([]types.ArchivedSession, 0, len(rows))
	for _, r := range rows {
		sess := types.ArchivedSession{
			ID:        r.SessionID,
			Timestamp: r.Timestamp,
			Goal:      r.Goal,
			FinalPlan: r.FinalPlan,
		}
		if len(r.LogJSON) > 0 {
			if err := json.Unmarshal(r.LogJSON, &sess.Log); err != nil {
				return nil, fmt.Errorf("decode session log for %s: %w", r.SessionID, err)
			}
		}
		out = append(out, sess)
	}
	return out, nil
}
