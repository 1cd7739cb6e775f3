package reminder

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// defaultQueueName is used when the profile has no usable full name on the
// queue row itself (the rendered body has its own fallback).
const defaultRecipientName = "Jemaat"

// EnqueuerRepository defines the interface for durable queue writes.
type EnqueuerRepository interface {
	// EnqueueBatch inserts the entries in one atomic write. Entries colliding
	// with an existing (user, reminder date, session) row are skipped, not
	// overwritten and not errors. It returns the number actually inserted.
	EnqueueBatch(ctx context.Context, entries []QueueEntry) (int64, error)
}

// EnqueueResult summarizes one enqueue run for the trigger response.
type EnqueueResult struct {
	Candidates   int   // eligible users before the completion filter
	Enqueued     int64 // rows actually inserted this run
	DelaySeconds int   // stagger applied between consecutive sends
}

// Enqueuer turns resolved candidates into deduplicated queue rows.
type Enqueuer struct {
	repo      EnqueuerRepository
	baseDelay time.Duration
	appURL    string
	now       func() time.Time
}

// EnqueuerOption is a functional option for configuring an Enqueuer.
type EnqueuerOption func(*Enqueuer)

// WithBaseDelay sets the stagger between consecutive candidates.
func WithBaseDelay(d time.Duration) EnqueuerOption {
	return func(e *Enqueuer) {
		if d > 0 {
			e.baseDelay = d
		}
	}
}

// WithAppURL sets the base URL for the dashboard link in rendered bodies.
func WithAppURL(url string) EnqueuerOption {
	return func(e *Enqueuer) {
		e.appURL = strings.TrimSpace(url)
	}
}

// WithEnqueuerClock overrides the time source, used by tests to pin
// scheduled_for values.
func WithEnqueuerClock(now func() time.Time) EnqueuerOption {
	return func(e *Enqueuer) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEnqueuer creates a new Enqueuer.
func NewEnqueuer(repo EnqueuerRepository, opts ...EnqueuerOption) (*Enqueuer, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	e := &Enqueuer{
		repo:      repo,
		baseDelay: 10 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Enqueue writes one queue row per candidate in the resolution.
//
// Candidate i is scheduled at now + i*baseDelay so the delivery channel is
// not hit with a burst. The message body is rendered here, once, and stored
// on the row. The write is a single batch with duplicate suppression on
// (user, reminder date, session); re-running for the same date and session
// reports Enqueued = 0 rather than creating duplicates.
func (e *Enqueuer) Enqueue(ctx context.Context, res Resolution) (EnqueueResult, error) {
	result := EnqueueResult{
		Candidates:   res.EligibleCount,
		DelaySeconds: int(e.baseDelay / time.Second),
	}
	if len(res.Candidates) == 0 {
		return result, nil
	}

	now := e.now()
	entries := make([]QueueEntry, len(res.Candidates))
	for i, p := range res.Candidates {
		name := strings.TrimSpace(p.FullName)
		if name == "" {
			name = defaultRecipientName
		}
		phone := strings.TrimSpace(p.Phone)
		if phone == "" {
			phone = "-"
		}

		entries[i] = QueueEntry{
			ID:             uuid.New(),
			UserID:         p.ID,
			RecipientName:  name,
			RecipientEmail: strings.ToLower(strings.TrimSpace(p.Email)),
			RecipientPhone: phone,
			MessageContent: RenderReminderHTML(p.FullName, e.appURL),
			SessionType:    res.Session,
			Status:         StatusPending,
			RetryCount:     0,
			ScheduledFor:   now.Add(time.Duration(i) * e.baseDelay),
			ReminderDate:   res.Date,
			CreatedAt:      now,
		}
	}

	inserted, err := e.repo.EnqueueBatch(ctx, entries)
	if err != nil {
		return EnqueueResult{}, errors.Join(ErrEnqueueFailed, err)
	}

	result.Enqueued = inserted
	return result, nil
}
