package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tokengate/tokengate/internal/database"
)

// slotID is the primary key of the single row used by the postgres backend.
// The token_slot table is created by cmd/migrate.
const slotID = 1

// PostgresSlot stores the payload in a single-row table.
type PostgresSlot struct {
	db *database.Postgres
}

// NewPostgres creates a PostgreSQL-backed slot.
func NewPostgres(db *database.Postgres) *PostgresSlot {
	return &PostgresSlot{db: db}
}

// Read returns the stored payload, or ErrEmpty if the row does not exist.
func (s *PostgresSlot) Read(ctx context.Context) (string, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM token_slot WHERE id = $1`, slotID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrEmpty
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token slot: %w", err)
	}
	return payload, nil
}

// Write upserts the single slot row.
func (s *PostgresSlot) Write(ctx context.Context, payload string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO token_slot (id, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`, slotID, payload)
	if err != nil {
		return fmt.Errorf("failed to write token slot: %w", err)
	}
	return nil
}
