// Package sqlite implements the storage interface on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/counselhq/triage/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS tickets (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	resolution  TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'open',
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS similarity_matches (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id    TEXT NOT NULL,
	candidate_id TEXT NOT NULL,
	score        INTEGER NOT NULL,
	match_type   TEXT NOT NULL,
	expires_at   TIMESTAMP NOT NULL,
	created_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_similarity_source
	ON similarity_matches(source_id, match_type);
CREATE INDEX IF NOT EXISTS idx_similarity_expiry
	ON similarity_matches(expires_at);
CREATE INDEX IF NOT EXISTS idx_tickets_status
	ON tickets(status);
`

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path. Use ":memory:" for
// tests.
func New(path string) (*SQLiteStorage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// WAL mode for better concurrency between the sweep and real-time reads
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the underlying database
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// CreateTicket inserts a new ticket
func (s *SQLiteStorage) CreateTicket(ctx context.Context, ticket *types.Ticket) error {
	if err := ticket.Validate(); err != nil {
		return fmt.Errorf("invalid ticket: %w", err)
	}

	now := time.Now().UTC()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tickets (id, title, description, resolution, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ticket.ID, ticket.Title, ticket.Description, ticket.Resolution,
		string(ticket.Status), ticket.CreatedAt, ticket.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ticket %s: %w", ticket.ID, err)
	}
	return nil
}

// GetTicket returns the ticket with the given ID, or (nil, nil) if absent
func (s *SQLiteStorage) GetTicket(ctx context.Context, id string) (*types.Ticket, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, resolution, status, created_at, updated_at
		 FROM tickets WHERE id = ?`, id)

	ticket, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket %s: %w", id, err)
	}
	return ticket, nil
}

// ListOpenTickets returns open tickets, newest first
func (s *SQLiteStorage) ListOpenTickets(ctx context.Context, limit int) ([]*types.Ticket, error) {
	return s.listTickets(ctx,
		`SELECT id, title, description, resolution, status, created_at, updated_at
		 FROM tickets WHERE status = 'open'
		 ORDER BY created_at DESC LIMIT ?`, limit)
}

// ListResolvedTickets returns resolved tickets carrying a resolution
func (s *SQLiteStorage) ListResolvedTickets(ctx context.Context, limit int) ([]*types.Ticket, error) {
	return s.listTickets(ctx,
		`SELECT id, title, description, resolution, status, created_at, updated_at
		 FROM tickets WHERE status = 'resolved' AND resolution != ''
		 ORDER BY updated_at DESC LIMIT ?`, limit)
}

// ResolveTicket marks a ticket resolved with the given resolution text
func (s *SQLiteStorage) ResolveTicket(ctx context.Context, id, resolution string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tickets SET status = 'resolved', resolution = ?, updated_at = ? WHERE id = ?`,
		resolution, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to resolve ticket %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check resolve of ticket %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("ticket %s not found", id)
	}
	return nil
}

// FindSimilarityRows returns live (unexpired) rows for the key
func (s *SQLiteStorage) FindSimilarityRows(ctx context.Context, sourceID string, matchType types.MatchType, now time.Time) ([]*types.SimilarityRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, candidate_id, score, match_type, expires_at, created_at
		 FROM similarity_matches
		 WHERE source_id = ? AND match_type = ? AND expires_at > ?
		 ORDER BY id`,
		sourceID, string(matchType), now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query similarity rows for %s/%s: %w", sourceID, matchType, err)
	}
	defer rows.Close()

	var out []*types.SimilarityRow
	for rows.Next() {
		var r types.SimilarityRow
		var mt string
		if err := rows.Scan(&r.SourceID, &r.CandidateID, &r.Score, &mt, &r.ExpiresAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan similarity row: %w", err)
		}
		r.MatchType = types.MatchType(mt)
		out = append(out, &r)
	}
	return out, rows.Err()
}

// ReplaceSimilarityRows swaps the full snapshot for (sourceID, matchType)
// in one transaction. An empty rows slice still clears the old snapshot.
func (s *SQLiteStorage) ReplaceSimilarityRows(ctx context.Context, sourceID string, matchType types.MatchType, rows []*types.SimilarityRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM similarity_matches WHERE source_id = ? AND match_type = ?`,
		sourceID, string(matchType)); err != nil {
		return fmt.Errorf("failed to delete similarity rows for %s/%s: %w", sourceID, matchType, err)
	}

	now := time.Now().UTC()
	for _, r := range rows {
		createdAt := r.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO similarity_matches (source_id, candidate_id, score, match_type, expires_at, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			sourceID, r.CandidateID, r.Score, string(matchType), r.ExpiresAt.UTC(), createdAt); err != nil {
			return fmt.Errorf("failed to insert similarity row %s->%s: %w", sourceID, r.CandidateID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit similarity replace: %w", err)
	}
	return nil
}

// PurgeExpired hard-deletes rows past their expiry
func (s *SQLiteStorage) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM similarity_matches WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired similarity rows: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged rows: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStorage) listTickets(ctx context.Context, query string, limit int) ([]*types.Ticket, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var out []*types.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		out = append(out, ticket)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTicket(row scanner) (*types.Ticket, error) {
	var t types.Ticket
	var status string
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Resolution,
		&status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = types.TicketStatus(status)
	return &t, nil
}
