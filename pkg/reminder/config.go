package reminder

import "time"

// Config holds the pipeline defaults. The worker trigger endpoint may
// override BatchSize, PerEmailDelay and MaxRetry per invocation.
type Config struct {
	Timezone      string        `env:"REMINDER_TIMEZONE" envDefault:"Asia/Jakarta"`  // Timezone is the fixed civil timezone reminder dates are computed in.
	AppURL        string        `env:"APP_URL"`                                      // AppURL is the base URL used for the dashboard link in reminder emails.
	BaseDelay     time.Duration `env:"REMINDER_BASE_DELAY" envDefault:"10s"`         // BaseDelay staggers scheduled_for between consecutive candidates.
	BatchSize     int           `env:"REMINDER_BATCH_SIZE" envDefault:"10"`          // BatchSize is how many entries one worker run claims.
	PerEmailDelay time.Duration `env:"REMINDER_PER_EMAIL_DELAY" envDefault:"250ms"`  // PerEmailDelay is the pause between successive sends within a batch.
	MaxRetry      int           `env:"REMINDER_MAX_RETRY" envDefault:"3"`            // MaxRetry is the delivery attempt ceiling before an entry fails terminally.
	ClaimTimeout  time.Duration `env:"REMINDER_CLAIM_TIMEOUT" envDefault:"10m"`      // ClaimTimeout is how long a claimed entry may stay unresolved before re-claim.
}
