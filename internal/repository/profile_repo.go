package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stylemail/internal/model"
)

// ErrNotFound is returned when no profile row exists for a connection.
var ErrNotFound = errors.New("style profile not found")

// ProfileRepository persists style profiles, one row per connection.
//
// Schema:
//
//	CREATE TABLE style_profiles (
//	    connection_id TEXT PRIMARY KEY,
//	    num_messages  BIGINT NOT NULL,
//	    style         JSONB NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByConnection returns the persisted profile for a connection, or
// ErrNotFound.
func (r *ProfileRepository) FindByConnection(ctx context.Context, connectionID string) (*model.StyleProfile, error) {
	query := `
        SELECT connection_id, num_messages, style, updated_at
        FROM style_profiles
        WHERE connection_id = $1
    `
	var (
		p         model.StyleProfile
		styleJSON []byte
	)
	err := r.db.QueryRow(ctx, query, connectionID).Scan(
		&p.ConnectionID,
		&p.NumMessages,
		&styleJSON,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(styleJSON, &p.Style); err != nil {
		return nil, fmt.Errorf("corrupt style matrix for %s: %w", connectionID, err)
	}
	return &p, nil
}

// UpdateWithLock runs one atomic read-merge-write unit: it opens a
// transaction, locks the connection's row with SELECT ... FOR UPDATE, hands
// the current profile (nil when no row exists) to apply, and inserts or
// updates with the result. Concurrent writers for the same connection are
// linearized by the row lock; different connections never contend.
//
// Conflict errors (serialization failure, deadlock, lock timeout, or the
// duplicate-key race of two concurrent bootstraps) are returned as-is so the
// caller can classify and retry.
func (r *ProfileRepository) UpdateWithLock(
	ctx context.Context,
	connectionID string,
	apply func(existing *model.StyleProfile) (*model.StyleProfile, error),
) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lockQuery := `
        SELECT num_messages, style, updated_at
        FROM style_profiles
        WHERE connection_id = $1
        FOR UPDATE
    `
	var existing *model.StyleProfile
	var (
		numMessages int64
		styleJSON   []byte
		updatedAt   time.Time
	)
	err = tx.QueryRow(ctx, lockQuery, connectionID).Scan(&numMessages, &styleJSON, &updatedAt)
	switch {
	case err == nil:
		existing = &model.StyleProfile{
			ConnectionID: connectionID,
			NumMessages:  numMessages,
			UpdatedAt:    updatedAt,
		}
		if err := json.Unmarshal(styleJSON, &existing.Style); err != nil {
			return fmt.Errorf("corrupt style matrix for %s: %w", connectionID, err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		existing = nil
	default:
		return err
	}

	next, err := apply(existing)
	if err != nil {
		return err
	}

	nextStyle, err := json.Marshal(next.Style)
	if err != nil {
		return fmt.Errorf("failed to marshal style matrix: %w", err)
	}

	if existing == nil {
		insertQuery := `
            INSERT INTO style_profiles (connection_id, num_messages, style, updated_at)
            VALUES ($1, $2, $3, NOW())
        `
		if _, err := tx.Exec(ctx, insertQuery, connectionID, next.NumMessages, nextStyle); err != nil {
			return err
		}
	} else {
		updateQuery := `
            UPDATE style_profiles
            SET num_messages = $2, style = $3, updated_at = NOW()
            WHERE connection_id = $1
        `
		if _, err := tx.Exec(ctx, updateQuery, connectionID, next.NumMessages, nextStyle); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
