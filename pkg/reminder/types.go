package reminder

import (
	"time"

	"github.com/google/uuid"
)

// DateFormat is the wire format for civil dates (reminder_date, plan dates).
const DateFormat = "2006-01-02"

// Session represents one of the two daily reminder windows.
type Session string

const (
	SessionMorning Session = "morning"
	SessionEvening Session = "evening"
)

// Valid checks if the session is one of the two known windows.
func (s Session) Valid() bool {
	return s == SessionMorning || s == SessionEvening
}

// Status represents the delivery state of a queue entry.
//
// pending entries with scheduled_for in the past are claimable; processing is
// the transient in-flight marker set by an atomic claim; sent and failed are
// terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// QueueEntry is one reminder owed to a user for a calendar day and session.
// The rendered message is stored on the row so later template changes cannot
// alter already-queued content.
type QueueEntry struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	RecipientName  string     `json:"recipient_name"`
	RecipientEmail string     `json:"recipient_email"`
	RecipientPhone string     `json:"recipient_phone"`
	MessageContent string     `json:"message_content"`
	SessionType    Session    `json:"session_type"`
	Status         Status     `json:"status"`
	RetryCount     int        `json:"retry_count"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	ScheduledFor   time.Time  `json:"scheduled_for"`
	ReminderDate   string     `json:"reminder_date"`
	ClaimedAt      *time.Time `json:"claimed_at,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Profile is the slice of a user profile the pipeline reads.
type Profile struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	Phone            string    `json:"phone"`
	DOB              string    `json:"dob,omitempty"` // YYYY-MM-DD, used by the birthday greeting job
	RemindersEnabled bool      `json:"email_reminder_enabled"`
}

// Resolution is the outcome of an eligibility pass for one date and session.
type Resolution struct {
	Date           string    // civil date the resolution is for
	Session        Session   // requested session window
	ScheduledItems int       // reading items scheduled for the date
	EligibleCount  int       // reminder-enabled users matching the session, before the completion filter
	Candidates     []Profile // users still owed a reminder
}

// CivilDate formats t as a calendar date in the given location. The pipeline
// always works in a fixed civil timezone, never server-local time.
func CivilDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateFormat)
}
