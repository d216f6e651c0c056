package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/drover/pkg/cli/config"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/usecase"
)

// pipelineConfig gathers every configuration needed to run the publish pipeline
type pipelineConfig struct {
	matrix   config.Matrix
	registry config.Registry
	github   config.GitHub
	slack    config.Slack
	history  config.History
	sentry   *config.Sentry
}

func (c *pipelineConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, c.matrix.Flags()...)
	flags = append(flags, c.registry.Flags()...)
	flags = append(flags, c.github.Flags()...)
	flags = append(flags, c.slack.Flags()...)
	flags = append(flags, c.history.Flags()...)
	return flags
}

// Build creates the pipeline use case. The returned function releases
// clients held by reporters.
func (c *pipelineConfig) Build(ctx context.Context) (interfaces.PipelineUseCase, func(), error) {
	matrix, err := c.matrix.Load()
	if err != nil {
		return nil, nil, err
	}

	client, err := c.registry.Client(ctx)
	if err != nil {
		return nil, nil, err
	}
	publisher := usecase.NewPublisher(client, c.registry.Credentials(), c.registry.PublisherOptions()...)

	reporters, closeReporters, err := c.reporters(ctx)
	if err != nil {
		return nil, nil, err
	}

	pipeline := usecase.NewPipeline(matrix, publisher,
		usecase.WithReporters(reporters...),
		usecase.WithMaxParallel(c.registry.MaxParallel),
	)
	return pipeline, closeReporters, nil
}

func (c *pipelineConfig) reporters(ctx context.Context) ([]interfaces.Reporter, func(), error) {
	var reporters []interfaces.Reporter

	status, err := c.github.Reporter()
	if err != nil {
		return nil, nil, err
	}
	if status != nil {
		reporters = append(reporters, status)
	}
	if r := c.slack.Reporter(); r != nil {
		reporters = append(reporters, r)
	}
	if c.sentry != nil {
		if r := c.sentry.Reporter(); r != nil {
			reporters = append(reporters, r)
		}
	}

	history, closeHistory, err := c.history.Reporters(ctx)
	if err != nil {
		return nil, nil, err
	}
	reporters = append(reporters, history...)

	return reporters, closeHistory, nil
}
