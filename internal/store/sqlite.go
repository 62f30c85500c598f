package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Apply PRAGMAs and run migrations.
	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// UpsertChat inserts or updates a chat session. created_at is kept on update.
func (r *SQLiteRepo) UpsertChat(ctx context.Context, c *Chat) error {
	if c == nil {
		return errors.New("nil chat")
	}

	now := time.Now().UTC()
	created := c.CreatedAt
	if created.IsZero() {
		created = now
	}
	cfg := c.Config

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chats (
			chat_id, created_at, city, country, lat, lon, has_coords,
			report_time, alert_time, active, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			city        = excluded.city,
			country     = excluded.country,
			lat         = excluded.lat,
			lon         = excluded.lon,
			has_coords  = excluded.has_coords,
			report_time = excluded.report_time,
			alert_time  = excluded.alert_time,
			active      = excluded.active,
			updated_at  = excluded.updated_at`,
		c.ChatID, created.Unix(), cfg.City, cfg.Country, cfg.Lat, cfg.Lon, boolToInt(cfg.HasCoords),
		cfg.ReportTime.String(), cfg.AlertTime.String(), boolToInt(c.Active), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert chat %d: %w", c.ChatID, err)
	}
	return nil
}

const selectChat = `
	SELECT chat_id, created_at, city, country, lat, lon, has_coords,
	       report_time, alert_time, active, updated_at
	FROM chats`

type scanner interface {
	Scan(dest ...any) error
}

func scanChat(s scanner) (Chat, error) {
	var row chatRow
	if err := s.Scan(
		&row.chatID, &row.createdAt, &row.city, &row.country, &row.lat, &row.lon, &row.hasCoords,
		&row.reportTime, &row.alertTime, &row.active, &row.updatedAt,
	); err != nil {
		return Chat{}, err
	}
	return row.chat()
}

// GetChat returns a chat's session or ErrNotFound.
func (r *SQLiteRepo) GetChat(ctx context.Context, chatID int64) (*Chat, error) {
	row := r.db.QueryRowContext(ctx, selectChat+` WHERE chat_id = ?`, chatID)
	c, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListActive returns every active session ordered by chat_id.
func (r *SQLiteRepo) ListActive(ctx context.Context) ([]Chat, error) {
	rows, err := r.db.QueryContext(ctx, selectChat+` WHERE active = 1 ORDER BY chat_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// SetActive toggles the active flag of a stored chat.
func (r *SQLiteRepo) SetActive(ctx context.Context, chatID int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE chats
		SET active = ?, updated_at = ?
		WHERE chat_id = ?`,
		boolToInt(active), time.Now().UTC().Unix(), chatID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
