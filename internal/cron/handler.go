// Package cron exposes the HTTP trigger endpoints an external scheduler
// calls to drive the reminder pipeline. Every endpoint is a POST carrying a
// shared-secret apiKey in the body; responses are small JSON documents whose
// shapes are part of the ops contract.
package cron

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/duapasal/remindersvc/pkg/reminder"
	"github.com/duapasal/remindersvc/pkg/requestid"
)

// Handler serves the cron trigger endpoints.
type Handler struct {
	cfg       Config
	resolver  *reminder.Resolver
	enqueuer  *reminder.Enqueuer
	worker    *reminder.Worker
	birthdays *BirthdayGreeter
	loc       *time.Location
	log       *slog.Logger
	now       func() time.Time
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger routes handler diagnostics to the given slog.Logger.
func WithLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithClock overrides the time source, used by tests to pin the civil date.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler creates the trigger handler. loc is the civil timezone reminder
// dates are computed in.
func NewHandler(cfg Config, resolver *reminder.Resolver, enqueuer *reminder.Enqueuer, worker *reminder.Worker, birthdays *BirthdayGreeter, loc *time.Location, opts ...HandlerOption) *Handler {
	h := &Handler{
		cfg:       cfg,
		resolver:  resolver,
		enqueuer:  enqueuer,
		worker:    worker,
		birthdays: birthdays,
		loc:       loc,
		log:       slog.Default(),
		now:       time.Now,
	}
	if h.loc == nil {
		h.loc = time.UTC
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the router for mounting under /api/cron.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/enqueue-reading-reminders", h.handleEnqueue)
	r.Post("/send-reading-reminders-worker", h.handleWorker)
	r.Post("/check-birthday", h.handleBirthday)
	return r
}

type triggerRequest struct {
	APIKey          string `json:"apiKey"`
	DryRun          bool   `json:"dryRun"`
	BatchSize       int    `json:"batchSize"`
	PerEmailDelayMs int    `json:"perEmailDelayMs"`
	MaxRetry        int    `json:"maxRetry"`
}

// decodeTrigger reads the request body tolerantly: a missing or malformed
// body yields the zero request, which then fails authorization.
func decodeTrigger(r *http.Request) triggerRequest {
	var req triggerRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	return req
}

func (h *Handler) authorized(req triggerRequest) bool {
	return req.APIKey != "" &&
		subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.cfg.Secret)) == 1
}

func (h *Handler) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	session := reminder.Session(strings.TrimSpace(r.URL.Query().Get("session")))
	if !session.Valid() {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error": "Invalid session. Use ?session=morning|evening",
		})
		return
	}

	if !h.authorized(decodeTrigger(r)) {
		respondJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
		return
	}

	ctx := r.Context()
	date := reminder.CivilDate(h.now(), h.loc)

	res, err := h.resolver.Resolve(ctx, date, session)
	if err != nil {
		h.log.ErrorContext(ctx, "eligibility resolution failed",
			slog.String("date", date),
			slog.String("session", string(session)),
			slog.String("error", err.Error()))
		respondJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	switch {
	case res.ScheduledItems == 0:
		respondJSON(w, http.StatusOK, map[string]any{
			"message": "No reading items scheduled today", "date": date, "enqueued": 0,
		})
		return
	case res.EligibleCount == 0:
		respondJSON(w, http.StatusOK, map[string]any{
			"message": "No eligible profiles for this session", "date": date, "enqueued": 0,
		})
		return
	case len(res.Candidates) == 0:
		respondJSON(w, http.StatusOK, map[string]any{
			"message": "All eligible users already completed today", "date": date, "enqueued": 0,
		})
		return
	}

	result, err := h.enqueuer.Enqueue(ctx, res)
	if err != nil {
		h.log.ErrorContext(ctx, "enqueue failed",
			slog.String("date", date),
			slog.String("session", string(session)),
			slog.String("error", err.Error()))
		respondJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	h.log.InfoContext(ctx, "reminders enqueued",
		slog.String("request_id", requestid.FromContext(ctx)),
		slog.String("date", date),
		slog.String("session", string(session)),
		slog.Int("candidates", result.Candidates),
		slog.Int64("enqueued", result.Enqueued))

	respondJSON(w, http.StatusOK, map[string]any{
		"message":      "Enqueued",
		"date":         date,
		"session":      session,
		"candidates":   result.Candidates,
		"enqueued":     result.Enqueued,
		"delaySeconds": result.DelaySeconds,
	})
}

func (h *Handler) handleWorker(w http.ResponseWriter, r *http.Request) {
	req := decodeTrigger(r)
	if !h.authorized(req) {
		respondJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
		return
	}

	opts := []reminder.ProcessOption{reminder.WithDryRun(req.DryRun)}
	if req.BatchSize > 0 {
		opts = append(opts, reminder.WithBatchSize(req.BatchSize))
	}
	if req.PerEmailDelayMs > 0 {
		opts = append(opts, reminder.WithPerEmailDelay(time.Duration(req.PerEmailDelayMs)*time.Millisecond))
	}
	if req.MaxRetry > 0 {
		opts = append(opts, reminder.WithMaxRetry(req.MaxRetry))
	}

	ctx := r.Context()
	result, err := h.worker.Process(ctx, opts...)
	if err != nil {
		h.log.ErrorContext(ctx, "worker run failed", slog.String("error", err.Error()))
		respondJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	if result.Processed == 0 {
		respondJSON(w, http.StatusOK, map[string]any{"message": "No pending reminders"})
		return
	}

	h.log.InfoContext(ctx, "worker run finished",
		slog.String("request_id", requestid.FromContext(ctx)),
		slog.Int("processed", result.Processed),
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed),
		slog.Bool("dry_run", result.DryRun))

	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleBirthday(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(decodeTrigger(r)) {
		respondJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
		return
	}

	ctx := r.Context()
	monthDay := h.now().In(h.loc).Format("01-02")

	sent, total, err := h.birthdays.Send(ctx, monthDay)
	if err != nil {
		h.log.ErrorContext(ctx, "birthday run failed", slog.String("error", err.Error()))
		respondJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	if total == 0 {
		respondJSON(w, http.StatusOK, map[string]any{"message": "No birthdays today"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"sent":    sent,
		"total":   total,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
