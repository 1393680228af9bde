// Package db provides the SQLite sent-mail archive for sheetmail.
//
// The archive is an audit copy of every follow-up that left the process.
// Reconciliation never reads it; the spreadsheet stays the only state.
package db

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/daviddao/sheetmail/internal/types"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (or creates) an archive database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec(Schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// GenID generates a random 16-character hex ID.
func GenID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// Now returns the current time as an ISO 8601 string.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// InsertSent stores a sent message. ID and SentAt are filled in when empty.
func (d *DB) InsertSent(ctx context.Context, m *types.SentMessage) error {
	if m.ID == "" {
		m.ID = GenID()
	}
	if m.SentAt == "" {
		m.SentAt = Now()
	}
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO sent_messages (id, sheet_row, recipient, subject, followup, raw, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Row, m.Recipient, m.Subject, m.Followup, m.Raw, m.SentAt,
	)
	if err != nil {
		return fmt.Errorf("insert sent message: %w", err)
	}
	return nil
}

// RecentSent returns the newest sent messages first, without raw bodies.
// A recipient filter of "" matches everything; limit <= 0 means no limit.
func (d *DB) RecentSent(ctx context.Context, recipient string, limit int) ([]*types.SentMessage, error) {
	query := `SELECT id, sheet_row, recipient, subject, followup, sent_at FROM sent_messages`
	var args []any
	if recipient != "" {
		query += ` WHERE recipient = ?`
		args = append(args, recipient)
	}
	query += ` ORDER BY sent_at DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*types.SentMessage
	for rows.Next() {
		m := &types.SentMessage{}
		if err := rows.Scan(&m.ID, &m.Row, &m.Recipient, &m.Subject, &m.Followup, &m.SentAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// GetSent returns one archived message including its raw bytes.
func (d *DB) GetSent(ctx context.Context, id string) (*types.SentMessage, error) {
	m := &types.SentMessage{}
	err := d.conn.QueryRowContext(ctx, `
		SELECT id, sheet_row, recipient, subject, followup, raw, sent_at
		FROM sent_messages WHERE id = ?`, id).Scan(
		&m.ID, &m.Row, &m.Recipient, &m.Subject, &m.Followup, &m.Raw, &m.SentAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sent message %q not found", id)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SentCount returns the number of archived messages.
func (d *DB) SentCount(ctx context.Context) (int, error) {
	var n int
	if err := d.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM sent_messages").Scan(&n); err != nil {
		return 0, fmt.Errorf("count sent: %w", err)
	}
	return n, nil
}
