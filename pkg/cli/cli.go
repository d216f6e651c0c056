package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/drover/pkg/cli/config"
	"github.com/m-mizutani/drover/pkg/domain/types"
)

type runOptions struct {
	writer io.Writer
}

// Option configures Run
type Option func(*runOptions)

// WithWriter sets the destination of command output. Defaults to stdout.
func WithWriter(w io.Writer) Option {
	return func(o *runOptions) {
		o.writer = w
	}
}

// Run runs the CLI application
func Run(ctx context.Context, args []string, opts ...Option) error {
	var runOpts runOptions
	for _, opt := range opts {
		opt(&runOpts)
	}

	var (
		envCfg    config.Env
		loggerCfg config.Logger
		sentryCfg config.Sentry
		logger    *slog.Logger
		flush     = func() {}
	)

	app := &cli.Command{
		Name:    types.ServiceName,
		Usage:   "Publish and promote charms to the artifact registry from CI events",
		Version: types.Version,
		Writer:  runOpts.writer,
		Flags:   append(append(envCfg.Flags(), loggerCfg.Flags()...), sentryCfg.Flags()...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := envCfg.Load(); err != nil {
				return nil, err
			}

			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)

			sentryFlush, err := sentryCfg.Configure()
			if err != nil {
				return nil, err
			}
			flush = sentryFlush
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			// After runs even when Before fails
			flush()
			return nil
		},
		Commands: []*cli.Command{
			cmdPublish(&sentryCfg),
			cmdResolve(),
			cmdServe(&sentryCfg),
			cmdHistory(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		return err
	}

	return nil
}
