package slack

import (
	"context"
	"fmt"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
)

const (
	colorSuccess = "good"
	colorFailure = "danger"
)

// Option is a functional option for Notifier
type Option func(*Notifier)

// WithChannel overrides the channel configured in the incoming webhook
func WithChannel(channel string) Option {
	return func(n *Notifier) {
		n.channel = channel
	}
}

// WithOnlyFailures sends notifications only for runs with failed jobs
func WithOnlyFailures() Option {
	return func(n *Notifier) {
		n.onlyFailures = true
	}
}

// Notifier posts a run summary to a Slack incoming webhook
type Notifier struct {
	webhookURL   string
	channel      string
	onlyFailures bool
}

var _ interfaces.Reporter = (*Notifier)(nil)

// New creates a Slack notifier
func New(webhookURL string, opts ...Option) *Notifier {
	n := &Notifier{webhookURL: webhookURL}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Report posts the summary of report
func (n *Notifier) Report(ctx context.Context, report *model.RunReport) error {
	if n.onlyFailures && report.Succeeded() {
		ctxlog.From(ctx).Debug("Skip Slack notification for successful run", "run_id", report.RunID)
		return nil
	}

	msg := buildMessage(report)
	msg.Channel = n.channel

	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post Slack message", goerr.V("run_id", report.RunID))
	}
	return nil
}

func buildMessage(report *model.RunReport) *slack.WebhookMessage {
	failed := len(report.Failed())
	total := len(report.Results)

	var target string
	if report.Event != nil {
		target = report.Event.Repository
		switch {
		case report.Event.Branch != "":
			target += "@" + report.Event.Branch
		case report.Event.HeadRef != "":
			target += "@" + report.Event.HeadRef
		}
	}

	text := fmt.Sprintf("Published %d/%d artifacts for %s", total-failed, total, target)

	attachments := make([]slack.Attachment, 0, total)
	for _, res := range report.Results {
		color := colorSuccess
		if !res.Succeeded() {
			color = colorFailure
		}
		attachments = append(attachments, slack.Attachment{
			Color: color,
			Text:  res.Line(),
			Fields: []slack.AttachmentField{
				{Title: "Attempts", Value: fmt.Sprintf("%d", res.Attempts), Short: true},
				{Title: "Job", Value: res.JobID, Short: true},
			},
		})
	}

	return &slack.WebhookMessage{
		Text:        text,
		Attachments: attachments,
	}
}
