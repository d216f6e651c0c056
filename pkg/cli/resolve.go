package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/drover/pkg/cli/config"
	"github.com/m-mizutani/drover/pkg/usecase"
)

func cmdResolve() *cli.Command {
	var (
		eventCfg  eventConfig
		matrixCfg config.Matrix
	)

	return &cli.Command{
		Name:  "resolve",
		Usage: "Print the jobs an event would run, without publishing",
		Flags: append(eventCfg.Flags(), matrixCfg.Flags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			event, err := eventCfg.Event()
			if err != nil {
				return err
			}

			matrix, err := matrixCfg.Load()
			if err != nil {
				return err
			}

			jobs, err := usecase.Resolve(event, matrix)
			if err != nil {
				return err
			}

			printJobs(c.Root().Writer, jobs)
			return nil
		},
	}
}
