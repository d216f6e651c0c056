package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/drover/pkg/cli/config"
)

func cmdPublish(sentryCfg *config.Sentry) *cli.Command {
	var (
		eventCfg    eventConfig
		pipelineCfg = pipelineConfig{sentry: sentryCfg}
	)

	return &cli.Command{
		Name:    "publish",
		Aliases: []string{"p"},
		Usage:   "Resolve the CI event and publish every eligible artifact",
		Flags:   append(eventCfg.Flags(), pipelineCfg.Flags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			event, err := eventCfg.Event()
			if err != nil {
				return err
			}

			pipeline, closeFn, err := pipelineCfg.Build(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			logger.Info("Starting publish run",
				slog.String("event_kind", string(event.Kind)),
				slog.String("branch", event.Branch),
				slog.String("head_ref", event.HeadRef),
			)

			report, err := pipeline.Run(ctx, event)
			if err != nil {
				return err
			}

			printReport(c.Root().Writer, report)

			if failed := report.Failed(); len(failed) > 0 {
				return goerr.New("some artifacts failed to publish",
					goerr.V("failed", len(failed)),
					goerr.V("total", len(report.Results)))
			}
			return nil
		},
	}
}
