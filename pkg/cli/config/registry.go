package config

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/drover/pkg/infra/credential"
	"github.com/m-mizutani/drover/pkg/infra/registry"
	"github.com/m-mizutani/drover/pkg/usecase"
)

// Registry holds artifact registry and publisher configuration
type Registry struct {
	URL                string
	Token              string `masq:"secret"`
	PlatformToken      string `masq:"secret"`
	MaxAttempts        int
	CallTimeout        time.Duration
	BackoffBase        time.Duration
	BackoffMax         time.Duration
	MaxParallel        int
	NoSchemaValidation bool
}

// Flags returns CLI flags for registry configuration
func (c *Registry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "registry-url",
			Usage:       "Base URL of the artifact registry API",
			Destination: &c.URL,
			Sources:     cli.EnvVars("DROVER_REGISTRY_URL"),
		},
		&cli.StringFlag{
			Name:        "registry-token",
			Usage:       "Fallback registry credential when credentials_ref is unset or not found",
			Destination: &c.Token,
			Sources:     cli.EnvVars("DROVER_REGISTRY_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "platform-token",
			Usage:       "Platform access token sent with every registry request",
			Destination: &c.PlatformToken,
			Sources:     cli.EnvVars("DROVER_PLATFORM_TOKEN"),
		},
		&cli.IntFlag{
			Name:        "max-attempts",
			Usage:       "Maximum registry call attempts per job",
			Value:       usecase.DefaultMaxAttempts,
			Destination: &c.MaxAttempts,
			Sources:     cli.EnvVars("DROVER_MAX_ATTEMPTS"),
		},
		&cli.DurationFlag{
			Name:        "call-timeout",
			Usage:       "Timeout of a single registry call",
			Value:       usecase.DefaultCallTimeout,
			Destination: &c.CallTimeout,
			Sources:     cli.EnvVars("DROVER_CALL_TIMEOUT"),
		},
		&cli.DurationFlag{
			Name:        "backoff-base",
			Usage:       "Wait before the first retry, doubled on every further retry",
			Value:       usecase.DefaultBaseBackoff,
			Destination: &c.BackoffBase,
			Sources:     cli.EnvVars("DROVER_BACKOFF_BASE"),
		},
		&cli.DurationFlag{
			Name:        "backoff-max",
			Usage:       "Upper bound of the wait between retries",
			Value:       usecase.DefaultMaxBackoff,
			Destination: &c.BackoffMax,
			Sources:     cli.EnvVars("DROVER_BACKOFF_MAX"),
		},
		&cli.IntFlag{
			Name:        "max-parallel",
			Usage:       "Maximum number of jobs published at once (0 = unlimited)",
			Destination: &c.MaxParallel,
			Sources:     cli.EnvVars("DROVER_MAX_PARALLEL"),
		},
		&cli.BoolFlag{
			Name:        "no-schema-validation",
			Usage:       "Skip local validation of registry request bodies",
			Destination: &c.NoSchemaValidation,
			Sources:     cli.EnvVars("DROVER_NO_SCHEMA_VALIDATION"),
		},
	}
}

// Client builds the registry HTTP client
func (c *Registry) Client(ctx context.Context) (*registry.Client, error) {
	if c.URL == "" {
		return nil, goerr.New("--registry-url is required", goerr.T(types.ErrTagConfig))
	}

	var opts []registry.Option
	if c.NoSchemaValidation {
		opts = append(opts, registry.WithoutSchemaValidation())
	}
	return registry.NewClient(ctx, c.URL, opts...)
}

// Credentials builds the credential provider
func (c *Registry) Credentials() *credential.Provider {
	return credential.New(
		credential.WithFallbackToken(c.Token),
		credential.WithPlatformToken(c.PlatformToken),
	)
}

// PublisherOptions returns retry options of the publisher
func (c *Registry) PublisherOptions() []usecase.PublisherOption {
	return []usecase.PublisherOption{
		usecase.WithMaxAttempts(c.MaxAttempts),
		usecase.WithCallTimeout(c.CallTimeout),
		usecase.WithBackoff(c.BackoffBase, c.BackoffMax),
	}
}
