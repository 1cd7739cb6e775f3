// Package audit records every email delivery attempt to an append-only log.
// The log is purely observational: the pipeline never reads it back, and a
// failed audit write must never alter the delivery outcome it was recording.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Outcome represents the result of a delivery attempt.
type Outcome string

const (
	OutcomeSending Outcome = "sending"
	OutcomeSent    Outcome = "sent"
	OutcomeError   Outcome = "error"
	OutcomeFailed  Outcome = "failed"
)

// Record is a single audit log entry.
type Record struct {
	ID        uuid.UUID      `json:"id"`
	Email     string         `json:"email"`
	Category  string         `json:"type"` // e.g. reading_reminder, birthday
	Outcome   Outcome        `json:"status"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Storage persists audit records.
type Storage interface {
	Store(ctx context.Context, rec Record) error
}

// Logger writes delivery audit records best-effort.
type Logger struct {
	storage Storage
	log     *slog.Logger
}

// Option configures the Logger.
type Option func(*Logger)

// WithLogger routes storage failures to the given slog.Logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Logger) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLogger creates an audit logger over the given storage.
func NewLogger(storage Storage, opts ...Option) (*Logger, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	l := &Logger{storage: storage, log: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Record persists the audit entry. Storage failures are logged and swallowed:
// the caller has already determined the delivery outcome and this record must
// not change it.
func (l *Logger) Record(ctx context.Context, rec Record) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	if err := l.storage.Store(ctx, rec); err != nil {
		l.log.WarnContext(ctx, "failed to write audit record",
			slog.String("email", rec.Email),
			slog.String("type", rec.Category),
			slog.String("status", string(rec.Outcome)),
			slog.String("error", err.Error()))
	}
}
