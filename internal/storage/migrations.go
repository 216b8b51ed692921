package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx, dialect) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "View snapshots",
		Up: func(tx *sql.Tx, d dialect) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS snapshots (
					kind ` + d.key + ` PRIMARY KEY,
					payload ` + d.payload + ` NOT NULL,
					saved_at ` + d.timestamp + ` NOT NULL
				)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Prediction history",
		Up: func(tx *sql.Tx, d dialect) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS predictions (
					id ` + d.autoID + `,
					customer_id VARCHAR(128) NOT NULL,
					churn_probability ` + d.float + ` NOT NULL,
					confidence ` + d.float + ` NOT NULL,
					risk_category VARCHAR(32) NOT NULL,
					source VARCHAR(16) NOT NULL,
					predicted_at ` + d.timestamp + ` NOT NULL
				)`,
				`CREATE INDEX idx_predictions_customer ON predictions(customer_id, predicted_at)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Imported transactions",
		Up: func(tx *sql.Tx, d dialect) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id ` + d.key + ` PRIMARY KEY,
					customer_id VARCHAR(128) NOT NULL,
					transaction_date ` + d.timestamp + ` NOT NULL,
					amount ` + d.float + ` NOT NULL,
					category VARCHAR(64),
					merchant VARCHAR(255),
					payment_method VARCHAR(32),
					location VARCHAR(255),
					description ` + d.payload + `,
					is_fraud ` + d.boolean + ` NOT NULL DEFAULT FALSE
				)`,
				`CREATE INDEX idx_transactions_customer_date ON transactions(customer_id, transaction_date)`,
				`CREATE INDEX idx_transactions_date ON transactions(transaction_date)`,
			})
		},
	},
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies all pending database migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description VARCHAR(255) NOT NULL,
		applied_at `+s.dialect.timestamp+` NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	currentVersion, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx, s.dialect); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.ExecContext(ctx,
			s.dialect.rebind(`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`),
			migration.Version, migration.Description, s.now().UTC(),
		); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"driver", s.dialect.name,
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.schemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return int(version.Int64), nil
}
