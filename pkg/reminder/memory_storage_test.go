package reminder_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duapasal/remindersvc/pkg/reminder"
)

func TestMemoryStorageClaimOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := reminder.NewMemoryStorage()
	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

	// Seed out of order; claims must come back oldest scheduled_for first.
	late := seedEntry(t, store, reminder.QueueEntry{
		UserID: uuid.New(), RecipientEmail: "late@example.com", ScheduledFor: now.Add(-time.Minute),
	})
	early := seedEntry(t, store, reminder.QueueEntry{
		UserID: uuid.New(), RecipientEmail: "early@example.com", ScheduledFor: now.Add(-time.Hour),
	})

	batch, err := store.ClaimBatch(ctx, 1, now, now.Add(-10*time.Minute))
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, early.ID, batch[0].ID)
	assert.Equal(t, reminder.StatusProcessing, batch[0].Status)

	batch, err = store.ClaimBatch(ctx, 1, now, now.Add(-10*time.Minute))
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, late.ID, batch[0].ID)
}

func TestMemoryStorageListBirthdays(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := reminder.NewMemoryStorage()

	store.AddProfile(reminder.Profile{Email: "match@example.com", DOB: "1990-03-01"})
	store.AddProfile(reminder.Profile{Email: "other@example.com", DOB: "1990-03-02"})
	store.AddProfile(reminder.Profile{Email: "", DOB: "1990-03-01"})
	store.AddProfile(reminder.Profile{Email: "nodob@example.com"})

	got, err := store.ListBirthdays(ctx, "03-01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "match@example.com", got[0].Email)
}
