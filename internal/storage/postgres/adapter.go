package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/gitsecureops/access-reconciler/internal/domain"
	"github.com/gitsecureops/access-reconciler/internal/storage"
)

// postgresStorage implements the Storage interface for PostgreSQL
type postgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage creates a new PostgreSQL storage instance
func NewPostgresStorage(connStr string) (storage.Storage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &postgresStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *postgresStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_entries (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		scope TEXT NOT NULL,
		actor TEXT NOT NULL,
		target_users JSONB NOT NULL,
		repo_count INTEGER NOT NULL,
		success_count INTEGER NOT NULL,
		failure_count INTEGER NOT NULL,
		details TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_audit_entries_action ON audit_entries(action);
	CREATE INDEX IF NOT EXISTS idx_audit_entries_created_at ON audit_entries(created_at);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// SaveAuditEntry persists one audit entry
func (s *postgresStorage) SaveAuditEntry(ctx context.Context, entry *domain.AuditEntry) error {
	targets, err := json.Marshal(entry.TargetUsers)
	if err != nil {
		return fmt.Errorf("failed to marshal target users: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (id, action, scope, actor, target_users, repo_count, success_count, failure_count, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, entry.ID, string(entry.Action), entry.Scope, entry.Actor, string(targets),
		entry.RepoCount, entry.SuccessCount, entry.FailureCount, entry.Details, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save audit entry: %w", err)
	}
	return nil
}

// ListAuditEntries retrieves the most recent audit entries, newest first.
// An empty action lists all actions; limit <= 0 defaults to 100.
func (s *postgresStorage) ListAuditEntries(ctx context.Context, action domain.AuditAction, limit int) ([]*domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, action, scope, actor, target_users, repo_count, success_count, failure_count, details, created_at
		FROM audit_entries
	`
	args := []interface{}{}
	if action != "" {
		query += " WHERE action = $1 ORDER BY created_at DESC LIMIT $2"
		args = append(args, string(action), limit)
	} else {
		query += " ORDER BY created_at DESC LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		var actionStr, targets string
		if err := rows.Scan(&entry.ID, &actionStr, &entry.Scope, &entry.Actor, &targets,
			&entry.RepoCount, &entry.SuccessCount, &entry.FailureCount, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.Action = domain.AuditAction(actionStr)
		if err := json.Unmarshal([]byte(targets), &entry.TargetUsers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal target users: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// CountAuditEntries returns the total number of stored audit entries
func (s *postgresStorage) CountAuditEntries(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (s *postgresStorage) Close() error {
	return s.db.Close()
}
