// Package storage persists vendor-bill send traces so operators can audit
// what was emailed to Odoo and correlate drafts back to files by checksum.
package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store handles persistence for send history
type Store struct {
	db *sql.DB
}

// SendRecord represents one vendor-bill file sent to the ingestion alias
type SendRecord struct {
	ID          int64     `json:"id"`
	FileSHA1    string    `json:"file_sha1"`
	Filename    string    `json:"filename"`
	Recipient   string    `json:"recipient"`
	SizeBytes   int64     `json:"size_bytes"`
	Status      string    `json:"status"` // sent, failed
	ErrorMsg    string    `json:"error_message,omitempty"`
	MoveID      int64     `json:"move_id,omitempty"`
	SentAt      time.Time `json:"sent_at"`
	DelaySecond int       `json:"delay_seconds"`
}

// Stats represents send statistics
type Stats struct {
	TotalSends  int        `json:"total_sends"`
	SentCount   int        `json:"sent_count"`
	FailedCount int        `json:"failed_count"`
	LastSentAt  *time.Time `json:"last_sent_at"`
}

// New creates a new store backed by the sqlite file at dbPath
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// createTables creates the necessary database tables
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS send_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_sha1 TEXT NOT NULL,
		filename TEXT,
		recipient TEXT,
		size_bytes INTEGER DEFAULT 0,
		status TEXT DEFAULT 'sent',
		error_message TEXT,
		move_id INTEGER DEFAULT 0,
		sent_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		delay_seconds INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_send_sha1 ON send_records(file_sha1);
	CREATE INDEX IF NOT EXISTS idx_send_sent_at ON send_records(sent_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveSend records one send attempt
func (s *Store) SaveSend(record *SendRecord) error {
	if record.SentAt.IsZero() {
		record.SentAt = time.Now().UTC()
	}

	query := `
	INSERT INTO send_records
	(file_sha1, filename, recipient, size_bytes, status, error_message, move_id, sent_at, delay_seconds)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.Exec(query,
		record.FileSHA1,
		record.Filename,
		record.Recipient,
		record.SizeBytes,
		record.Status,
		record.ErrorMsg,
		record.MoveID,
		record.SentAt,
		record.DelaySecond,
	)
	if err != nil {
		return err
	}

	record.ID, _ = res.LastInsertId()
	return nil
}

// RecentSends returns the latest send records, newest first
func (s *Store) RecentSends(limit int) ([]*SendRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, file_sha1, filename, recipient, size_bytes, status,
		       COALESCE(error_message, ''), move_id, sent_at, delay_seconds
		FROM send_records
		ORDER BY sent_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSendRecords(rows)
}

// FindBySHA1 returns all send records for one checksum, newest first
func (s *Store) FindBySHA1(sha1 string) ([]*SendRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, file_sha1, filename, recipient, size_bytes, status,
		       COALESCE(error_message, ''), move_id, sent_at, delay_seconds
		FROM send_records
		WHERE file_sha1 = ?
		ORDER BY sent_at DESC, id DESC`, sha1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSendRecords(rows)
}

// LinkMove binds a previously sent checksum to the draft move Odoo created
func (s *Store) LinkMove(sha1 string, moveID int64) error {
	_, err := s.db.Exec(`UPDATE send_records SET move_id = ? WHERE file_sha1 = ? AND move_id = 0`, moveID, sha1)
	return err
}

// GetStats returns aggregate send statistics
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'sent' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM send_records`).Scan(&stats.TotalSends, &stats.SentCount, &stats.FailedCount)
	if err != nil {
		return nil, err
	}

	var last sql.NullTime
	if err := s.db.QueryRow(`SELECT MAX(sent_at) FROM send_records`).Scan(&last); err == nil && last.Valid {
		stats.LastSentAt = &last.Time
	}

	return stats, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func scanSendRecords(rows *sql.Rows) ([]*SendRecord, error) {
	var records []*SendRecord
	for rows.Next() {
		r := &SendRecord{}
		if err := rows.Scan(&r.ID, &r.FileSHA1, &r.Filename, &r.Recipient, &r.SizeBytes,
			&r.Status, &r.ErrorMsg, &r.MoveID, &r.SentAt, &r.DelaySecond); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
