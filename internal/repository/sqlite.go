package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/xiaot623/agentdesk/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS relays (
			relay_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			file_id TEXT NOT NULL,
			file_name TEXT,
			mime_type TEXT,
			object_key TEXT NOT NULL,
			public_url TEXT NOT NULL,
			size_bytes INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_relays_user ON relays(user_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRelay records a completed relay.
func (s *SQLiteStore) CreateRelay(ctx context.Context, record *domain.RelayRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO relays (relay_id, user_id, file_id, file_name, mime_type, object_key, public_url, size_bytes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RelayID, record.UserID, record.FileID, record.FileName, record.MimeType,
		record.ObjectKey, record.PublicURL, record.SizeBytes, record.CreatedAt)
	return err
}

// GetRelay retrieves a relay record by ID. It returns nil, nil when absent.
func (s *SQLiteStore) GetRelay(ctx context.Context, relayID string) (*domain.RelayRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT relay_id, user_id, file_id, file_name, mime_type, object_key, public_url, size_bytes, created_at FROM relays WHERE relay_id = ?`,
		relayID)
	record, err := scanRelay(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListRelays returns the newest relays, optionally filtered by user.
func (s *SQLiteStore) ListRelays(ctx context.Context, userID string, limit int) ([]domain.RelayRecord, error) {
	query := `SELECT relay_id, user_id, file_id, file_name, mime_type, object_key, public_url, size_bytes, created_at FROM relays`
	var args []interface{}

	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}

	query += ` ORDER BY created_at DESC, relay_id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.RelayRecord{}
	for rows.Next() {
		record, err := scanRelay(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRelay(row rowScanner) (*domain.RelayRecord, error) {
	var record domain.RelayRecord
	var fileName, mimeType sql.NullString
	if err := row.Scan(&record.RelayID, &record.UserID, &record.FileID, &fileName, &mimeType,
		&record.ObjectKey, &record.PublicURL, &record.SizeBytes, &record.CreatedAt); err != nil {
		return nil, err
	}
	record.FileName = fileName.String
	record.MimeType = mimeType.String
	return &record, nil
}
