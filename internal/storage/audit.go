package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/duapasal/remindersvc/pkg/audit"
)

// AuditStorage persists delivery audit records in the email_logs table.
// Separate from Storage so the audit logger cannot accidentally touch queue
// state.
type AuditStorage struct {
	storage *Storage
}

// NewAuditStorage creates an audit.Storage backed by the same pool.
func NewAuditStorage(storage *Storage) *AuditStorage {
	return &AuditStorage{storage: storage}
}

// Store implements audit.Storage.
func (a *AuditStorage) Store(ctx context.Context, rec audit.Record) error {
	var metadata []byte
	if rec.Metadata != nil {
		var err error
		metadata, err = json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("store audit record: %w", err)
		}
	}

	_, err := a.storage.pool.Exec(ctx, `
		INSERT INTO email_logs (id, email, type, status, error, metadata, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)`,
		rec.ID, rec.Email, rec.Category, string(rec.Outcome), rec.Error, metadata, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("store audit record: %w", err)
	}
	return nil
}
