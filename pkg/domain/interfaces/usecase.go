package interfaces

import (
	"context"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// WebhookUseCase defines the interface for webhook event processing
type WebhookUseCase interface {
	// ProcessEvent accepts an event and starts publishing in background
	ProcessEvent(ctx context.Context, event *model.Event) error
}

// PipelineUseCase resolves an event into jobs and runs them
type PipelineUseCase interface {
	// Run publishes every job resolved from event and returns all results
	Run(ctx context.Context, event *model.Event) (*model.RunReport, error)

	// Resolve returns jobs for event without running them
	Resolve(event *model.Event) ([]*model.PublishJob, error)
}

// PublisherUseCase publishes a single job
type PublisherUseCase interface {
	// Publish never returns an error; failures are reported in the result
	Publish(ctx context.Context, job *model.PublishJob) *model.PublishResult
}
