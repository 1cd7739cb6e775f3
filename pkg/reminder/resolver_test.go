package reminder_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duapasal/remindersvc/pkg/reminder"
)

func TestNewResolver(t *testing.T) {
	t.Parallel()

	store := reminder.NewMemoryStorage()

	t.Run("nil repositories", func(t *testing.T) {
		t.Parallel()

		_, err := reminder.NewResolver(nil, store, store)
		assert.ErrorIs(t, err, reminder.ErrRepositoryNil)

		_, err = reminder.NewResolver(store, nil, store)
		assert.ErrorIs(t, err, reminder.ErrRepositoryNil)

		_, err = reminder.NewResolver(store, store, nil)
		assert.ErrorIs(t, err, reminder.ErrRepositoryNil)
	})

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		r, err := reminder.NewResolver(store, store, store)
		require.NoError(t, err)
		assert.NotNil(t, r)
	})
}

func TestResolverResolve(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	const date = "2026-03-01"

	t.Run("invalid session", func(t *testing.T) {
		t.Parallel()

		store := reminder.NewMemoryStorage()
		r, err := reminder.NewResolver(store, store, store)
		require.NoError(t, err)

		_, err = r.Resolve(ctx, date, reminder.Session("noon"))
		assert.ErrorIs(t, err, reminder.ErrInvalidSession)
	})

	t.Run("nothing scheduled", func(t *testing.T) {
		t.Parallel()

		store := reminder.NewMemoryStorage()
		store.AddProfile(reminder.Profile{
			Email:            "a@example.com",
			Phone:            "0811111111",
			RemindersEnabled: true,
		})
		r, err := reminder.NewResolver(store, store, store)
		require.NoError(t, err)

		res, err := r.Resolve(ctx, date, reminder.SessionMorning)
		require.NoError(t, err)
		assert.Zero(t, res.ScheduledItems)
		assert.Empty(t, res.Candidates)
	})

	t.Run("filters disabled blank email and other session", func(t *testing.T) {
		t.Parallel()

		store := reminder.NewMemoryStorage()
		store.AddPlanItem(date)
		store.AddProfile(reminder.Profile{
			Email: "off@example.com", Phone: "0811111111", RemindersEnabled: false,
		})
		store.AddProfile(reminder.Profile{
			Email: "  ", Phone: "0811111111", RemindersEnabled: true,
		})
		store.AddProfile(reminder.Profile{
			Email: "evening@example.com", Phone: "0811111112", RemindersEnabled: true,
		})
		store.AddProfile(reminder.Profile{
			Email: "morning@example.com", Phone: "0811111111", RemindersEnabled: true,
		})
		r, err := reminder.NewResolver(store, store, store)
		require.NoError(t, err)

		res, err := r.Resolve(ctx, date, reminder.SessionMorning)
		require.NoError(t, err)
		assert.Equal(t, 1, res.EligibleCount)
		require.Len(t, res.Candidates, 1)
		assert.Equal(t, "morning@example.com", res.Candidates[0].Email)
	})

	t.Run("suppresses users who completed everything", func(t *testing.T) {
		t.Parallel()

		store := reminder.NewMemoryStorage()
		item1 := store.AddPlanItem(date)
		item2 := store.AddPlanItem(date)

		done := reminder.Profile{
			ID: uuid.New(), Email: "done@example.com", Phone: "0811111111", RemindersEnabled: true,
		}
		partial := reminder.Profile{
			ID: uuid.New(), Email: "partial@example.com", Phone: "0811111113", RemindersEnabled: true,
		}
		store.AddProfile(done)
		store.AddProfile(partial)
		store.MarkCompleted(done.ID, item1)
		store.MarkCompleted(done.ID, item2)
		store.MarkCompleted(partial.ID, item1)

		r, err := reminder.NewResolver(store, store, store)
		require.NoError(t, err)

		res, err := r.Resolve(ctx, date, reminder.SessionMorning)
		require.NoError(t, err)
		assert.Equal(t, 2, res.EligibleCount)
		require.Len(t, res.Candidates, 1)
		assert.Equal(t, partial.ID, res.Candidates[0].ID)
	})

	t.Run("read failure aborts resolution", func(t *testing.T) {
		t.Parallel()

		store := reminder.NewMemoryStorage()
		store.AddPlanItem(date)
		store.AddProfile(reminder.Profile{
			Email: "a@example.com", Phone: "0811111111", RemindersEnabled: true,
		})

		boom := errors.New("connection refused")
		r, err := reminder.NewResolver(store, store, failingCompletions{err: boom})
		require.NoError(t, err)

		_, err = r.Resolve(ctx, date, reminder.SessionMorning)
		assert.ErrorIs(t, err, reminder.ErrResolveEligibility)
		assert.ErrorIs(t, err, boom)
	})
}

type failingCompletions struct{ err error }

func (f failingCompletions) CountCompleted(context.Context, []uuid.UUID, []uuid.UUID) (map[uuid.UUID]int, error) {
	return nil, f.err
}
