package config

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/types"
	sentryreporter "github.com/m-mizutani/drover/pkg/infra/sentry"
)

// Sentry holds Sentry configuration
type Sentry struct {
	DSN         string
	Environment string
}

// Flags returns CLI flags for Sentry configuration
func (c *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN. Failed jobs are captured when set",
			Destination: &c.DSN,
			Sources:     cli.EnvVars("DROVER_SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Value:       "production",
			Destination: &c.Environment,
			Sources:     cli.EnvVars("DROVER_SENTRY_ENV"),
		},
	}
}

// Configure initializes the Sentry SDK and returns a flush function. The
// returned function is never nil, even on error.
func (c *Sentry) Configure() (func(), error) {
	if c.DSN == "" {
		return func() {}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         c.DSN,
		Environment: c.Environment,
		Release:     types.ServiceName + "@" + types.Version,
	}); err != nil {
		return func() {}, goerr.Wrap(err, "failed to initialize Sentry", goerr.T(types.ErrTagConfig))
	}

	return func() {
		sentry.Flush(2 * time.Second)
	}, nil
}

// Reporter returns the Sentry reporter, or nil when disabled
func (c *Sentry) Reporter() interfaces.Reporter {
	if c.DSN == "" {
		return nil
	}
	return sentryreporter.New()
}
