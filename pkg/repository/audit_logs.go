package repository

import (
	"context"

	"github.com/complyeasy/complyeasy/pkg/stores"
)

// AuditLogRepository manages the append-only audit trail.
type AuditLogRepository struct {
	store *stores.RecordStore
}

// GetAll returns every audit entry, newest first.
func (r *AuditLogRepository) GetAll(ctx context.Context) ([]stores.AuditLogEntry, error) {
	return stores.GetTable[stores.AuditLogEntry](ctx, r.store, stores.KeyAuditLogs)
}

// Add prepends an entry.
func (r *AuditLogRepository) Add(ctx context.Context, entry stores.AuditLogEntry) error {
	if err := validate(entry); err != nil {
		return err
	}
	return stores.Mutate(ctx, r.store, stores.KeyAuditLogs, func(logs []stores.AuditLogEntry) ([]stores.AuditLogEntry, error) {
		return append([]stores.AuditLogEntry{entry}, logs...), nil
	})
}
