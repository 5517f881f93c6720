package storage

import (
	"context"

	"github.com/gitsecureops/access-reconciler/internal/domain"
)

// Storage is the abstract interface for the audit-log persistence layer
type Storage interface {
	// Audit entry operations
	SaveAuditEntry(ctx context.Context, entry *domain.AuditEntry) error
	ListAuditEntries(ctx context.Context, action domain.AuditAction, limit int) ([]*domain.AuditEntry, error)
	CountAuditEntries(ctx context.Context) (int64, error)

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}
