package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/drover/pkg/cli/config"
	controller "github.com/m-mizutani/drover/pkg/controller/http"
	"github.com/m-mizutani/drover/pkg/usecase"
	"github.com/m-mizutani/drover/pkg/utils/async"
)

func cmdServe(sentryCfg *config.Sentry) *cli.Command {
	var (
		serverCfg   config.Server
		githubCfg   config.GitHub
		pipelineCfg = pipelineConfig{sentry: sentryCfg}
	)

	flags := append(serverCfg.Flags(), githubCfg.WebhookFlags()...)
	flags = append(flags, pipelineCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server receiving GitHub webhooks",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting drover server",
				slog.String("addr", serverCfg.Addr),
			)

			pipeline, closeFn, err := pipelineCfg.Build(ctx)
			if err != nil {
				return err
			}
			defer func() {
				closeFn()
			}()

			// Create use cases
			webhookUC := usecase.NewWebhook(pipeline)

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				webhookUC,
				append(serverCfg.Options(), controller.WithWebhookSecret(githubCfg.WebhookSecret))...,
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()

			shutdownErr := server.Shutdown(shutdownCtx)

			// Publish runs started by webhooks outlive their requests
			runsCtx, cancelRuns := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Minute)
			defer cancelRuns()
			if !drainRuns(runsCtx, async.Wait) {
				// Runs still in flight may report into history clients
				closeFn = func() {}
			}

			if shutdownErr != nil {
				return goerr.Wrap(shutdownErr, "failed to shutdown server gracefully")
			}
			logger.Info("Server shutdown complete")
			return nil
		},
	}
}

// drainRuns waits for background publish runs. It returns false when some
// runs are still in flight after ctx is done; reporters must then stay open.
func drainRuns(ctx context.Context, wait func(context.Context) error) bool {
	if err := wait(ctx); err != nil {
		ctxlog.From(ctx).Warn("Background runs did not finish before shutdown, leaving reporters open",
			slog.Any("error", err))
		return false
	}
	return true
}
