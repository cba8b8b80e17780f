package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/spetersoncode/promptcraft"
)

// Schema creates the table used by PostgresRepository.
const Schema = `
	CREATE TABLE IF NOT EXISTS history_items (
		id           UUID PRIMARY KEY,
		prompt       TEXT NOT NULL,
		base_prompt  TEXT NOT NULL DEFAULT '',
		style        TEXT NOT NULL DEFAULT '',
		image_data   TEXT NOT NULL,
		mime_type    TEXT NOT NULL DEFAULT '',
		source_image JSONB,
		created_at   BIGINT NOT NULL
	)
`

// PostgresRepository stores the history in a PostgreSQL table.
// The caller opens the *sql.DB with the "postgres" driver (lib/pq).
type PostgresRepository struct {
	mu   sync.Mutex
	db   *sql.DB
	opts options
}

// NewPostgresRepository creates a PostgreSQL history repository.
func NewPostgresRepository(db *sql.DB, opts ...Option) *PostgresRepository {
	return &PostgresRepository{db: db, opts: applyOptions(opts)}
}

// EnsureSchema creates the history table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, Schema)
	return err
}

// Add inserts a new entry and deletes entries beyond the cap in the same transaction.
func (r *PostgresRepository) Add(ctx context.Context, in NewItem) (Item, error) {
	item, err := newItem(in, r.opts.now())
	if err != nil {
		return Item{}, err
	}
	source, err := encodeSource(item.SourceImage)
	if err != nil {
		return Item{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Item{}, err
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO history_items (id, prompt, base_prompt, style, image_data, mime_type, source_image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := tx.ExecContext(ctx, insert,
		item.ID, item.Prompt, item.BasePrompt, item.Style,
		item.ImageData, item.MimeType, source, item.Timestamp,
	); err != nil {
		return Item{}, fmt.Errorf("insert history item: %w", err)
	}

	trim := `
		DELETE FROM history_items
		WHERE id NOT IN (
			SELECT id FROM history_items
			ORDER BY created_at DESC
			LIMIT $1
		)
	`
	if _, err := tx.ExecContext(ctx, trim, r.opts.cap); err != nil {
		return Item{}, fmt.Errorf("trim history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Item{}, err
	}
	return item, nil
}

// List returns the entries, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]Item, error) {
	query := `
		SELECT id, prompt, base_prompt, style, image_data, mime_type, source_image, created_at
		FROM history_items
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, r.opts.cap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var source []byte
		if err := rows.Scan(&it.ID, &it.Prompt, &it.BasePrompt, &it.Style,
			&it.ImageData, &it.MimeType, &source, &it.Timestamp); err != nil {
			return nil, err
		}
		if len(source) > 0 {
			var img promptcraft.Image
			if err := json.Unmarshal(source, &img); err != nil {
				return nil, fmt.Errorf("decode source image for %s: %w", it.ID, err)
			}
			it.SourceImage = &img
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// AttachImage replaces the image of the most recent entry.
func (r *PostgresRepository) AttachImage(ctx context.Context, id string, img promptcraft.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM history_items ORDER BY created_at DESC LIMIT 1`).Scan(&latest)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if latest != id {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM history_items WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrNotLatest
		}
		return ErrNotFound
	}

	update := `
		UPDATE history_items
		SET image_data = $1, mime_type = $2
		WHERE id = $3
	`
	_, err = r.db.ExecContext(ctx, update, img.Data, img.MimeType, id)
	return err
}

// Clear removes every entry.
func (r *PostgresRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM history_items`)
	return err
}

// encodeSource renders the source image as a JSONB parameter, or NULL.
func encodeSource(img *promptcraft.Image) (any, error) {
	if img == nil || img.IsZero() {
		return nil, nil
	}
	b, err := json.Marshal(img)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

var _ Repository = (*PostgresRepository)(nil)
