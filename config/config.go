package config

import (
	"github.com/go-pg/pg/v10"
)

type Config struct {
	Database pg.Options
	App      struct {
		Host string
		Port int
	}
	Site struct {
		// URL is the public base URL; relative asset paths are rewritten
		// against it.
		URL           string
		PreviewSecret string
	}
	Images struct {
		TimeoutSeconds int
		MaxAttempts    int
		BackoffMillis  int
	}
	Sentry struct {
		DSN string
	}
}
