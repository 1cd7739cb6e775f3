package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/duapasal/remindersvc/pkg/reminder"
)

// ListReminderEnabled returns every profile with email reminders switched on.
// Email, full name and phone may be NULL in the source table; they come back
// as empty strings.
func (s *Storage) ListReminderEnabled(ctx context.Context) ([]reminder.Profile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, COALESCE(email, ''), COALESCE(full_name, ''), COALESCE(phone, ''), dob
		FROM profiles
		WHERE email_reminder_enabled = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("list reminder enabled profiles: %w", err)
	}
	defer rows.Close()

	var profiles []reminder.Profile
	for rows.Next() {
		var (
			p   reminder.Profile
			dob *time.Time
		)
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &p.Phone, &dob); err != nil {
			return nil, fmt.Errorf("list reminder enabled profiles: %w", err)
		}
		if dob != nil {
			p.DOB = dob.Format(reminder.DateFormat)
		}
		p.RemindersEnabled = true
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reminder enabled profiles: %w", err)
	}
	return profiles, nil
}

// ListBirthdays returns profiles with an email address whose date of birth
// falls on the given month and day ("MM-DD").
func (s *Storage) ListBirthdays(ctx context.Context, monthDay string) ([]reminder.Profile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, email, COALESCE(full_name, ''), COALESCE(phone, ''), dob
		FROM profiles
		WHERE dob IS NOT NULL
		  AND email IS NOT NULL AND email <> ''
		  AND to_char(dob, 'MM-DD') = $1`, monthDay)
	if err != nil {
		return nil, fmt.Errorf("list birthdays: %w", err)
	}
	defer rows.Close()

	var profiles []reminder.Profile
	for rows.Next() {
		var (
			p   reminder.Profile
			dob time.Time
		)
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &p.Phone, &dob); err != nil {
			return nil, fmt.Errorf("list birthdays: %w", err)
		}
		p.DOB = dob.Format(reminder.DateFormat)
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list birthdays: %w", err)
	}
	return profiles, nil
}
