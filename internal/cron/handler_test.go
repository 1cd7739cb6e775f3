package cron_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duapasal/remindersvc/internal/cron"
	"github.com/duapasal/remindersvc/pkg/email"
	"github.com/duapasal/remindersvc/pkg/reminder"
)

const testSecret = "test-secret"

type stubSender struct {
	err  error
	sent []email.SendEmailParams
}

func (s *stubSender) SendEmail(_ context.Context, params email.SendEmailParams) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, params)
	return nil
}

type fixture struct {
	store  *reminder.MemoryStorage
	sender *stubSender
	router chi.Router
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	store := reminder.NewMemoryStorage()
	sender := &stubSender{}

	resolver, err := reminder.NewResolver(store, store, store)
	require.NoError(t, err)

	enqueuer, err := reminder.NewEnqueuer(store,
		reminder.WithEnqueuerClock(func() time.Time { return now }))
	require.NoError(t, err)

	worker, err := reminder.NewWorker(store, sender,
		reminder.WithClock(func() time.Time { return now }),
		reminder.WithSleep(func(context.Context, time.Duration) {}))
	require.NoError(t, err)

	birthdays, err := cron.NewBirthdayGreeter(store, sender, nil, nil)
	require.NoError(t, err)

	handler := cron.NewHandler(cron.Config{Secret: testSecret},
		resolver, enqueuer, worker, birthdays, time.UTC,
		cron.WithClock(func() time.Time { return now }))

	r := chi.NewRouter()
	r.Mount("/api/cron", handler.Routes())

	return &fixture{store: store, sender: sender, router: r}
}

func (f *fixture) post(t *testing.T, path string, body map[string]any) (int, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec.Code, decoded
}

func TestEnqueueEndpoint(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	auth := map[string]any{"apiKey": testSecret}

	t.Run("invalid session", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, now)
		code, body := f.post(t, "/api/cron/enqueue-reading-reminders?session=noon", auth)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Invalid session. Use ?session=morning|evening", body["error"])
	})

	t.Run("missing session", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, now)
		code, _ := f.post(t, "/api/cron/enqueue-reading-reminders", auth)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("bad credential", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, now)
		code, body := f.post(t, "/api/cron/enqueue-reading-reminders?session=morning",
			map[string]any{"apiKey": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "Unauthorized", body["error"])
	})

	t.Run("nothing scheduled", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, now)
		code, body := f.post(t, "/api/cron/enqueue-reading-reminders?session=morning", auth)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "No reading items scheduled today", body["message"])
		assert.Equal(t, "2026-03-01", body["date"])
		assert.EqualValues(t, 0, body["enqueued"])
	})

	t.Run("no eligible profiles", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, now)
		f.store.AddPlanItem("2026-03-01")
		// Evening phone, so the morning session has nobody.
		f.store.AddProfile(reminder.Profile{
			Email: "user@example.com", Phone: "0811111112", RemindersEnabled: true,
		})

		code, body := f.post(t, "/api/cron/enqueue-reading-reminders?session=morning", auth)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "No eligible profiles for this session", body["message"])
	})

	t.Run("everyone already completed", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, now)
		item := f.store.AddPlanItem("2026-03-01")
		user := reminder.Profile{
			ID: uuid.New(), Email: "user@example.com", Phone: "0811111111", RemindersEnabled: true,
		}
		f.store.AddProfile(user)
		f.store.MarkCompleted(user.ID, item)

		code, body := f.post(t, "/api/cron/enqueue-reading-reminders?session=morning", auth)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "All eligible users already completed today", body["message"])
	})

	t.Run("enqueues and dedupes on repeat", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, now)
		f.store.AddPlanItem("2026-03-01")
		f.store.AddProfile(reminder.Profile{
			ID: uuid.New(), Email: "user@example.com", Phone: "0811111111", RemindersEnabled: true,
		})

		code, body := f.post(t, "/api/cron/enqueue-reading-reminders?session=morning", auth)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Enqueued", body["message"])
		assert.Equal(t, "2026-03-01", body["date"])
		assert.Equal(t, "morning", body["session"])
		assert.EqualValues(t, 1, body["candidates"])
		assert.EqualValues(t, 1, body["enqueued"])
		assert.EqualValues(t, 10, body["delaySeconds"])

		code, body = f.post(t, "/api/cron/enqueue-reading-reminders?session=morning", auth)
		assert.Equal(t, http.StatusOK, code)
		assert.EqualValues(t, 0, body["enqueued"])
		assert.Len(t, f.store.Entries(), 1)
	})
}

func TestWorkerEndpoint(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	auth := map[string]any{"apiKey": testSecret}

	seed := func(t *testing.T, f *fixture) {
		t.Helper()
		n, err := f.store.EnqueueBatch(context.Background(), []reminder.QueueEntry{{
			ID:             uuid.New(),
			UserID:         uuid.New(),
			RecipientEmail: "user@example.com",
			MessageContent: "<p>hi</p>",
			SessionType:    reminder.SessionMorning,
			Status:         reminder.StatusPending,
			ScheduledFor:   now.Add(-time.Minute),
			ReminderDate:   "2026-03-01",
		}})
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
	}

	t.Run("bad credential", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, now)
		code, _ := f.post(t, "/api/cron/send-reading-reminders-worker", map[string]any{"apiKey": "nope"})
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("no pending reminders", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, now)
		code, body := f.post(t, "/api/cron/send-reading-reminders-worker", auth)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "No pending reminders", body["message"])
	})

	t.Run("processes a batch", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, now)
		seed(t, f)

		code, body := f.post(t, "/api/cron/send-reading-reminders-worker", auth)
		assert.Equal(t, http.StatusOK, code)
		assert.EqualValues(t, 1, body["processed"])
		assert.EqualValues(t, 1, body["sent"])
		assert.EqualValues(t, 0, body["failed"])
		assert.Equal(t, false, body["dryRun"])
		assert.Len(t, f.sender.sent, 1)
	})

	t.Run("dry run skips delivery", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, now)
		seed(t, f)

		code, body := f.post(t, "/api/cron/send-reading-reminders-worker",
			map[string]any{"apiKey": testSecret, "dryRun": true})
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, body["dryRun"])
		assert.EqualValues(t, 1, body["sent"])
		assert.Empty(t, f.sender.sent)
	})
}

func TestBirthdayEndpoint(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	auth := map[string]any{"apiKey": testSecret}

	t.Run("bad credential", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, now)
		code, _ := f.post(t, "/api/cron/check-birthday", map[string]any{})
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("no birthdays", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, now)
		code, body := f.post(t, "/api/cron/check-birthday", auth)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "No birthdays today", body["message"])
	})

	t.Run("sends greetings", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, now)
		f.store.AddProfile(reminder.Profile{
			Email: "birthday@example.com", FullName: "Budi", DOB: "1990-03-01",
		})
		f.store.AddProfile(reminder.Profile{
			Email: "other@example.com", FullName: "Siti", DOB: "1990-07-12",
		})

		code, body := f.post(t, "/api/cron/check-birthday", auth)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, body["success"])
		assert.EqualValues(t, 1, body["sent"])
		assert.EqualValues(t, 1, body["total"])

		require.Len(t, f.sender.sent, 1)
		assert.Equal(t, "birthday@example.com", f.sender.sent[0].SendTo)
		assert.Contains(t, f.sender.sent[0].Subject, "Selamat Ulang Tahun, Budi!")
	})
}
