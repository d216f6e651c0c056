package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/utils/async"
)

type webhookUseCase struct {
	pipeline interfaces.PipelineUseCase
}

// NewWebhook creates a new instance of WebhookUseCase
func NewWebhook(pipeline interfaces.PipelineUseCase) *webhookUseCase {
	return &webhookUseCase{
		pipeline: pipeline,
	}
}

// ProcessEvent validates routing synchronously and runs publishing in
// background, detached from the request context.
func (uc *webhookUseCase) ProcessEvent(ctx context.Context, event *model.Event) error {
	logger := ctxlog.From(ctx)

	logger.Info("Processing webhook event",
		"id", event.ID,
		"kind", event.Kind,
		"branch", event.Branch,
		"head_ref", event.HeadRef,
		"repository", event.Repository,
		"sender", event.Sender,
		"supported", event.IsSupportedEvent(),
	)

	if !event.IsSupportedEvent() {
		logger.Warn("Unsupported event received", "kind", event.Kind)
		return nil
	}

	jobs, err := uc.pipeline.Resolve(event)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		logger.Info("Event is not eligible for publishing", "id", event.ID)
		return nil
	}

	async.Dispatch(ctx, func(ctx context.Context) error {
		_, err := uc.pipeline.Run(ctx, event)
		return err
	})

	return nil
}
