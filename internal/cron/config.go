package cron

// Config holds the shared-secret credential the trigger endpoints require.
type Config struct {
	Secret string `env:"CRON_SECRET,required"` // Secret must match the apiKey field in trigger request bodies.
}
