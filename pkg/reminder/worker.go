package reminder

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/duapasal/remindersvc/pkg/audit"
	"github.com/duapasal/remindersvc/pkg/email"
	"github.com/google/uuid"
)

// errMissingRecipientEmail is stored on queue rows with a blank recipient.
// The text is part of the row's ops-facing contract.
const errMissingRecipientEmail = "Missing recipient_email"

// auditCategory tags reading reminder deliveries in the audit log.
const auditCategory = "reading_reminder"

// WorkerRepository defines the queue operations the dispatch worker needs.
type WorkerRepository interface {
	// ClaimBatch atomically moves up to limit due entries from pending to
	// processing and returns them. Due means scheduled_for <= now. Entries
	// stuck in processing since before staleBefore are reclaimed too. Two
	// concurrent calls never return the same entry.
	ClaimBatch(ctx context.Context, limit int, now, staleBefore time.Time) ([]QueueEntry, error)

	// MarkSent transitions a claimed entry to sent and clears its error.
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error

	// MarkRetry returns a claimed entry to pending with the new retry count,
	// the delivery error, and the backed-off scheduled_for.
	MarkRetry(ctx context.Context, id uuid.UUID, retryCount int, errMsg string, scheduledFor time.Time) error

	// MarkFailed transitions a claimed entry to failed terminally, keeping
	// scheduled_for as is.
	MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, errMsg string) error
}

// ProcessResult summarizes one worker invocation.
type ProcessResult struct {
	Processed int  `json:"processed"` // entries claimed this run
	Sent      int  `json:"sent"`      // entries that reached the sent state
	Failed    int  `json:"failed"`    // entries that errored this run, retried or terminal
	DryRun    bool `json:"dryRun"`
}

// Worker claims batches of due reminders and dispatches them.
type Worker struct {
	repo          WorkerRepository
	sender        email.EmailSender
	auditor       *audit.Logger
	log           *slog.Logger
	batchSize     int
	perEmailDelay time.Duration
	maxRetry      int
	claimTimeout  time.Duration
	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration)
}

// WorkerOption configures a Worker at construction.
type WorkerOption func(*Worker)

// WithAuditLogger enables best-effort delivery audit records.
func WithAuditLogger(a *audit.Logger) WorkerOption {
	return func(w *Worker) { w.auditor = a }
}

// WithWorkerLogger routes worker diagnostics to the given slog.Logger.
func WithWorkerLogger(log *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if log != nil {
			w.log = log
		}
	}
}

// WithClaimTimeout sets how long a processing entry may stay unresolved
// before it becomes claimable again.
func WithClaimTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.claimTimeout = d
		}
	}
}

// WithWorkerDefaults applies the pipeline Config as the per-run defaults.
func WithWorkerDefaults(cfg Config) WorkerOption {
	return func(w *Worker) {
		if cfg.BatchSize > 0 {
			w.batchSize = cfg.BatchSize
		}
		if cfg.PerEmailDelay > 0 {
			w.perEmailDelay = cfg.PerEmailDelay
		}
		if cfg.MaxRetry > 0 {
			w.maxRetry = cfg.MaxRetry
		}
		if cfg.ClaimTimeout > 0 {
			w.claimTimeout = cfg.ClaimTimeout
		}
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) WorkerOption {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// WithSleep overrides the inter-send pause, used by tests to avoid real
// delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) WorkerOption {
	return func(w *Worker) {
		if sleep != nil {
			w.sleep = sleep
		}
	}
}

// NewWorker creates a dispatch worker over the queue repository and the
// delivery channel.
func NewWorker(repo WorkerRepository, sender email.EmailSender, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	if sender == nil {
		return nil, ErrSenderNil
	}

	w := &Worker{
		repo:          repo,
		sender:        sender,
		log:           slog.Default(),
		batchSize:     10,
		perEmailDelay: 250 * time.Millisecond,
		maxRetry:      3,
		claimTimeout:  10 * time.Minute,
		now:           time.Now,
		sleep:         sleepCtx,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// ProcessOption overrides worker defaults for a single invocation.
type ProcessOption func(*processParams)

type processParams struct {
	dryRun        bool
	batchSize     int
	perEmailDelay time.Duration
	maxRetry      int
}

// WithDryRun simulates delivery: entries are claimed and marked sent without
// calling the real channel.
func WithDryRun(v bool) ProcessOption {
	return func(p *processParams) { p.dryRun = v }
}

// WithBatchSize overrides the claim size for this run.
func WithBatchSize(n int) ProcessOption {
	return func(p *processParams) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithPerEmailDelay overrides the inter-send pause for this run.
func WithPerEmailDelay(d time.Duration) ProcessOption {
	return func(p *processParams) {
		if d >= 0 {
			p.perEmailDelay = d
		}
	}
}

// WithMaxRetry overrides the delivery attempt ceiling for this run.
func WithMaxRetry(n int) ProcessOption {
	return func(p *processParams) {
		if n > 0 {
			p.maxRetry = n
		}
	}
}

// RetryBackoff returns the delay before the next delivery attempt. The
// schedule is fixed: 5 minutes after the first failure, 15 after the second,
// 30 after the third and beyond.
func RetryBackoff(attempt int) time.Duration {
	switch {
	case attempt <= 1:
		return 5 * time.Minute
	case attempt == 2:
		return 15 * time.Minute
	default:
		return 30 * time.Minute
	}
}

// Process claims one batch of due entries and dispatches them in scheduled
// order.
//
// Per-entry delivery failures never abort the run; they are recorded on the
// row and counted in the result. Only a failure to claim the batch itself
// returns an error.
func (w *Worker) Process(ctx context.Context, opts ...ProcessOption) (ProcessResult, error) {
	params := processParams{
		batchSize:     w.batchSize,
		perEmailDelay: w.perEmailDelay,
		maxRetry:      w.maxRetry,
	}
	for _, opt := range opts {
		opt(&params)
	}

	now := w.now()
	entries, err := w.repo.ClaimBatch(ctx, params.batchSize, now, now.Add(-w.claimTimeout))
	if err != nil {
		return ProcessResult{}, errors.Join(ErrClaimFailed, err)
	}

	result := ProcessResult{Processed: len(entries), DryRun: params.dryRun}
	for i, entry := range entries {
		if i > 0 && params.perEmailDelay > 0 {
			w.sleep(ctx, params.perEmailDelay)
		}

		if w.dispatch(ctx, entry, params) {
			result.Sent++
		} else {
			result.Failed++
		}
	}

	return result, nil
}

// dispatch delivers a single claimed entry and records its outcome. It
// reports whether the entry reached the sent state.
func (w *Worker) dispatch(ctx context.Context, entry QueueEntry, params processParams) bool {
	log := w.log.With(
		slog.String("entry_id", entry.ID.String()),
		slog.String("email", entry.RecipientEmail),
		slog.String("session", string(entry.SessionType)),
		slog.String("reminder_date", entry.ReminderDate))

	if entry.RecipientEmail == "" {
		// No address to deliver to; retrying cannot fix this.
		if err := w.repo.MarkFailed(ctx, entry.ID, entry.RetryCount, errMissingRecipientEmail); err != nil {
			log.ErrorContext(ctx, "failed to mark entry failed", slog.String("error", err.Error()))
		}
		w.recordAudit(ctx, entry, audit.OutcomeFailed, errMissingRecipientEmail)
		return false
	}

	if params.dryRun {
		if err := w.repo.MarkSent(ctx, entry.ID, w.now()); err != nil {
			log.ErrorContext(ctx, "failed to mark entry sent", slog.String("error", err.Error()))
			return false
		}
		log.InfoContext(ctx, "dry run: reminder marked sent without delivery")
		return true
	}

	sendErr := w.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   entry.RecipientEmail,
		Subject:  Subject,
		BodyHTML: entry.MessageContent,
		Tag:      auditCategory,
	})
	if sendErr == nil {
		if err := w.repo.MarkSent(ctx, entry.ID, w.now()); err != nil {
			log.ErrorContext(ctx, "failed to mark entry sent", slog.String("error", err.Error()))
			return false
		}
		w.recordAudit(ctx, entry, audit.OutcomeSent, "")
		log.InfoContext(ctx, "reminder sent")
		return true
	}

	attempt := entry.RetryCount + 1
	if attempt > params.maxRetry {
		if err := w.repo.MarkFailed(ctx, entry.ID, attempt, sendErr.Error()); err != nil {
			log.ErrorContext(ctx, "failed to mark entry failed", slog.String("error", err.Error()))
		}
		w.recordAudit(ctx, entry, audit.OutcomeFailed, sendErr.Error())
		log.WarnContext(ctx, "reminder failed terminally",
			slog.Int("attempts", attempt),
			slog.String("error", sendErr.Error()))
		return false
	}

	nextAttempt := w.now().Add(RetryBackoff(attempt))
	if err := w.repo.MarkRetry(ctx, entry.ID, attempt, sendErr.Error(), nextAttempt); err != nil {
		log.ErrorContext(ctx, "failed to mark entry for retry", slog.String("error", err.Error()))
	}
	w.recordAudit(ctx, entry, audit.OutcomeError, sendErr.Error())
	log.WarnContext(ctx, "reminder delivery failed, retry scheduled",
		slog.Int("attempt", attempt),
		slog.Time("next_attempt", nextAttempt),
		slog.String("error", sendErr.Error()))
	return false
}

func (w *Worker) recordAudit(ctx context.Context, entry QueueEntry, outcome audit.Outcome, errMsg string) {
	if w.auditor == nil {
		return
	}
	w.auditor.Record(ctx, audit.Record{
		Email:    entry.RecipientEmail,
		Category: auditCategory,
		Outcome:  outcome,
		Error:    errMsg,
		Metadata: map[string]any{
			"queue_id":      entry.ID.String(),
			"user_id":       entry.UserID.String(),
			"session_type":  string(entry.SessionType),
			"reminder_date": entry.ReminderDate,
			"retry_count":   entry.RetryCount,
		},
	})
}

// sleepCtx pauses for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
