package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/finsight/internal/common"
)

// SaveSnapshot stores payload as the last known good data for kind,
// replacing any earlier snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, kind string, payload any) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(kind, "kind"); err != nil {
		return err
	}
	if payload == nil {
		return fmt.Errorf("%w: payload", ErrNilParameter)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", kind, err)
	}

	query := s.dialect.upsert("snapshots", "kind",
		[]string{"kind", "payload", "saved_at"},
		[]string{"payload", "saved_at"})
	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(query), kind, string(data), s.now().UTC()); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", kind, err)
	}
	return nil
}

// LoadSnapshot decodes the snapshot for kind into dest and returns when it
// was saved. It returns common.ErrNoSnapshot when none exists.
func (s *Store) LoadSnapshot(ctx context.Context, kind string, dest any) (time.Time, error) {
	if err := validateContext(ctx); err != nil {
		return time.Time{}, err
	}
	if err := validateString(kind, "kind"); err != nil {
		return time.Time{}, err
	}

	var (
		payload string
		savedAt time.Time
	)
	err := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT payload, saved_at FROM snapshots WHERE kind = ?`), kind,
	).Scan(&payload, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: %s", common.ErrNoSnapshot, kind)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load snapshot %s: %w", kind, err)
	}

	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode snapshot %s: %w", kind, err)
	}
	return savedAt, nil
}
