package config

import (
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/infra/slack"
)

// Slack holds Slack notification configuration
type Slack struct {
	WebhookURL   string `masq:"secret"`
	Channel      string
	OnlyFailures bool
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL for run summaries",
			Destination: &c.WebhookURL,
			Sources:     cli.EnvVars("DROVER_SLACK_WEBHOOK_URL"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel overriding the webhook default",
			Destination: &c.Channel,
			Sources:     cli.EnvVars("DROVER_SLACK_CHANNEL"),
		},
		&cli.BoolFlag{
			Name:        "slack-only-failures",
			Usage:       "Notify only runs with failed jobs",
			Destination: &c.OnlyFailures,
			Sources:     cli.EnvVars("DROVER_SLACK_ONLY_FAILURES"),
		},
	}
}

// Reporter returns the Slack notifier, or nil when disabled
func (c *Slack) Reporter() interfaces.Reporter {
	if c.WebhookURL == "" {
		return nil
	}

	var opts []slack.Option
	if c.Channel != "" {
		opts = append(opts, slack.WithChannel(c.Channel))
	}
	if c.OnlyFailures {
		opts = append(opts, slack.WithOnlyFailures())
	}
	return slack.New(c.WebhookURL, opts...)
}
