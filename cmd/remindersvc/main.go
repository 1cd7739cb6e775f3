// Command remindersvc runs the Duapasal reminder notification service: the
// HTTP trigger endpoints an external scheduler calls to enqueue and dispatch
// daily reading reminders and birthday greetings.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/duapasal/remindersvc/internal/cron"
	"github.com/duapasal/remindersvc/internal/storage"
	"github.com/duapasal/remindersvc/pkg/audit"
	"github.com/duapasal/remindersvc/pkg/config"
	"github.com/duapasal/remindersvc/pkg/email"
	"github.com/duapasal/remindersvc/pkg/httpserver"
	"github.com/duapasal/remindersvc/pkg/logger"
	"github.com/duapasal/remindersvc/pkg/pg"
	"github.com/duapasal/remindersvc/pkg/ratelimit"
	"github.com/duapasal/remindersvc/pkg/redis"
	"github.com/duapasal/remindersvc/pkg/reminder"
	"github.com/duapasal/remindersvc/pkg/requestid"
)

func main() {
	ctx := context.Background()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg, logger.WithService("remindersvc"))
	logger.SetAsDefault(log)

	var (
		pgCfg    pg.Config
		redisCfg redis.Config
		rlCfg    ratelimit.Config
		emailCfg email.Config
		cronCfg  cron.Config
		remCfg   reminder.Config
		httpCfg  httpserver.Config
	)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&rlCfg)
	config.MustLoad(&emailCfg)
	config.MustLoad(&cronCfg)
	config.MustLoad(&remCfg)
	config.MustLoad(&httpCfg)

	loc, err := time.LoadLocation(remCfg.Timezone)
	if err != nil {
		log.ErrorContext(ctx, "invalid reminder timezone",
			slog.String("timezone", remCfg.Timezone),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		log.ErrorContext(ctx, "failed to connect to postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		log.ErrorContext(ctx, "failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store := storage.New(pool)

	auditor, err := audit.NewLogger(storage.NewAuditStorage(store), audit.WithLogger(log))
	if err != nil {
		log.ErrorContext(ctx, "failed to create audit logger", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sender := buildSender(emailCfg, logCfg.Env, log)

	resolver, err := reminder.NewResolver(store, store, store)
	if err != nil {
		log.ErrorContext(ctx, "failed to create resolver", slog.String("error", err.Error()))
		os.Exit(1)
	}

	enqueuer, err := reminder.NewEnqueuer(store,
		reminder.WithBaseDelay(remCfg.BaseDelay),
		reminder.WithAppURL(remCfg.AppURL))
	if err != nil {
		log.ErrorContext(ctx, "failed to create enqueuer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	worker, err := reminder.NewWorker(store, sender,
		reminder.WithWorkerDefaults(remCfg),
		reminder.WithAuditLogger(auditor),
		reminder.WithWorkerLogger(log))
	if err != nil {
		log.ErrorContext(ctx, "failed to create worker", slog.String("error", err.Error()))
		os.Exit(1)
	}

	birthdays, err := cron.NewBirthdayGreeter(store, sender, auditor, log)
	if err != nil {
		log.ErrorContext(ctx, "failed to create birthday greeter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handler := cron.NewHandler(cronCfg, resolver, enqueuer, worker, birthdays, loc,
		cron.WithLogger(log))

	limiter := buildLimiter(ctx, redisCfg, rlCfg, log)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", healthHandler(pg.Healthcheck(pool)))
	r.Route("/api/cron", func(r chi.Router) {
		if limiter != nil {
			r.Use(ratelimit.Middleware(limiter, ratelimit.ByClientIP))
		}
		r.Mount("/", handler.Routes())
	})

	srv := httpserver.New(httpCfg, httpserver.WithLogger(log))
	if err := srv.Run(ctx, r); err != nil {
		log.ErrorContext(ctx, "http server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// buildSender picks the delivery channel: Postmark when a server token is
// configured, the file-based dev sender otherwise.
func buildSender(cfg email.Config, env string, log *slog.Logger) email.EmailSender {
	if cfg.PostmarkServerToken != "" {
		return email.MustNewPostmarkClient(cfg)
	}

	if env == "production" {
		log.Warn("no postmark token configured in production, emails will be written to disk")
	}
	return email.NewDevSender("./tmp/emails")
}

// buildLimiter creates the fixed-window limiter guarding the cron endpoints.
// Redis keeps the limit consistent across replicas; if it is unreachable the
// limiter falls back to process memory rather than blocking startup.
func buildLimiter(ctx context.Context, redisCfg redis.Config, rlCfg ratelimit.Config, log *slog.Logger) *ratelimit.Limiter {
	var store ratelimit.Store
	if client, err := redis.Connect(ctx, redisCfg); err != nil {
		log.WarnContext(ctx, "redis unavailable, using in-memory rate limit store",
			slog.String("error", err.Error()))
		store = ratelimit.NewMemoryStore()
	} else {
		store = ratelimit.NewRedisStore(client, "cron")
	}

	limiter, err := ratelimit.NewLimiter(store, rlCfg)
	if err != nil {
		log.WarnContext(ctx, "invalid rate limit configuration, limiter disabled",
			slog.String("error", err.Error()))
		return nil
	}
	return limiter
}

func healthHandler(check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := check(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
