package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/duapasal/remindersvc/pkg/reminder"
)

const queueColumns = `id, user_id, recipient_name, recipient_email, recipient_phone,
	message_content, session_type, status, retry_count, error_message,
	scheduled_for, reminder_date, claimed_at, sent_at, created_at`

// EnqueueBatch inserts queue rows in one statement. Rows colliding with an
// existing (user_id, reminder_date, session_type) are skipped by the unique
// constraint; the returned count covers only rows actually inserted.
func (s *Storage) EnqueueBatch(ctx context.Context, entries []reminder.QueueEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO reminder_queue (id, user_id, recipient_name, recipient_email,
		recipient_phone, message_content, session_type, status, retry_count,
		scheduled_for, reminder_date, created_at) VALUES `)

	args := make([]any, 0, len(entries)*12)
	for i, e := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 12
		sb.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11, base+12))
		args = append(args,
			e.ID, e.UserID, e.RecipientName, e.RecipientEmail, e.RecipientPhone,
			e.MessageContent, string(e.SessionType), string(e.Status), e.RetryCount,
			e.ScheduledFor, e.ReminderDate, e.CreatedAt)
	}
	sb.WriteString(" ON CONFLICT (user_id, reminder_date, session_type) DO NOTHING")

	tag, err := s.pool.Exec(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("enqueue reminder batch: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ClaimBatch atomically claims up to limit due entries. The inner select
// locks candidate rows with SKIP LOCKED so concurrent workers partition the
// queue instead of blocking or double-claiming. Entries stuck in processing
// since before staleBefore are treated as abandoned and reclaimed.
func (s *Storage) ClaimBatch(ctx context.Context, limit int, now, staleBefore time.Time) ([]reminder.QueueEntry, error) {
	query := fmt.Sprintf(`
		UPDATE reminder_queue q
		SET status = 'processing', claimed_at = $2
		FROM (
			SELECT id FROM reminder_queue
			WHERE (status = 'pending' AND scheduled_for <= $2)
			   OR (status = 'processing' AND claimed_at < $3)
			ORDER BY scheduled_for
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		) due
		WHERE q.id = due.id
		RETURNING %s`, prefixColumns("q", queueColumns))

	rows, err := s.pool.Query(ctx, query, limit, now, staleBefore)
	if err != nil {
		return nil, fmt.Errorf("claim reminder batch: %w", err)
	}
	defer rows.Close()

	entries, err := scanQueueEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("claim reminder batch: %w", err)
	}
	return entries, nil
}

// MarkSent transitions a claimed entry to sent and clears its error.
func (s *Storage) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE reminder_queue
		SET status = 'sent', sent_at = $2, error_message = NULL
		WHERE id = $1`, id, sentAt)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}

// MarkRetry returns a claimed entry to pending with a backed-off schedule.
func (s *Storage) MarkRetry(ctx context.Context, id uuid.UUID, retryCount int, errMsg string, scheduledFor time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE reminder_queue
		SET status = 'pending', retry_count = $2, error_message = $3,
			scheduled_for = $4, claimed_at = NULL
		WHERE id = $1`, id, retryCount, errMsg, scheduledFor)
	if err != nil {
		return fmt.Errorf("mark reminder for retry: %w", err)
	}
	return nil
}

// MarkFailed transitions a claimed entry to failed terminally. scheduled_for
// is left untouched for inspection.
func (s *Storage) MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE reminder_queue
		SET status = 'failed', retry_count = $2, error_message = $3
		WHERE id = $1`, id, retryCount, errMsg)
	if err != nil {
		return fmt.Errorf("mark reminder failed: %w", err)
	}
	return nil
}

func scanQueueEntries(rows pgx.Rows) ([]reminder.QueueEntry, error) {
	var entries []reminder.QueueEntry
	for rows.Next() {
		var (
			e       reminder.QueueEntry
			session string
			status  string
			date    time.Time
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.RecipientName, &e.RecipientEmail,
			&e.RecipientPhone, &e.MessageContent, &session, &status, &e.RetryCount,
			&e.ErrorMessage, &e.ScheduledFor, &date, &e.ClaimedAt, &e.SentAt,
			&e.CreatedAt); err != nil {
			return nil, err
		}
		e.SessionType = reminder.Session(session)
		e.Status = reminder.Status(status)
		e.ReminderDate = date.Format(reminder.DateFormat)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// prefixColumns qualifies each column in a comma-separated list with a table
// alias, for RETURNING clauses on aliased updates.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
