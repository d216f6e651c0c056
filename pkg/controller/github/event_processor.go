package github

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
)

// EventProcessor converts GitHub webhook payloads into events and hands
// them to the webhook use case
type EventProcessor struct {
	webhookUC interfaces.WebhookUseCase
}

// NewEventProcessor creates a new GitHub event processor
func NewEventProcessor(webhookUC interfaces.WebhookUseCase) *EventProcessor {
	return &EventProcessor{
		webhookUC: webhookUC,
	}
}

// ProcessEvent processes a raw GitHub webhook delivery
func (p *EventProcessor) ProcessEvent(ctx context.Context, eventType, deliveryID string, body []byte) error {
	logger := ctxlog.From(ctx)

	event, err := ParseEvent(eventType, deliveryID, body)
	if err != nil {
		logger.Warn("Failed to parse GitHub event", "event_type", eventType, "error", err)
		return err
	}

	if err := p.webhookUC.ProcessEvent(ctx, event); err != nil {
		return goerr.Wrap(err, "failed to process GitHub event",
			goerr.V("event_type", eventType),
			goerr.V("delivery_id", deliveryID))
	}
	return nil
}
