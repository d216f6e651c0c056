package sentry_test

import (
	"context"
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	sentryinfra "github.com/m-mizutani/drover/pkg/infra/sentry"
)

func newCapturingHub(t *testing.T) (*sentry.Hub, func() []*sentry.Event) {
	t.Helper()
	var mu sync.Mutex
	var events []*sentry.Event

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn: "https://public@o0.ingest.sentry.io/0",
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, event)
			return nil
		},
	})
	gt.NoError(t, err)

	return sentry.NewHub(client, sentry.NewScope()), func() []*sentry.Event {
		mu.Lock()
		defer mu.Unlock()
		return events
	}
}

func TestReporter_Report(t *testing.T) {
	hub, captured := newCapturingHub(t)
	ctx := sentry.SetHubOnContext(context.Background(), hub)

	a := &model.PublishJob{ID: "1", ArtifactID: "istio-pilot"}
	b := &model.PublishJob{ID: "2", ArtifactID: "istio-gateway"}
	report := &model.RunReport{
		RunID: "run-1",
		Event: &model.Event{Kind: model.EventKindPush, Repository: "o/r"},
		Results: []*model.PublishResult{
			model.NewSuccess(a, 1),
			model.NewFailure(b, 3, goerr.New("registry returned 503", goerr.T(types.ErrTagTransient))),
		},
	}

	gt.NoError(t, sentryinfra.New().Report(ctx, report))

	events := captured()
	gt.A(t, events).Length(1)
	gt.Value(t, events[0].Tags["artifact"]).Equal("istio-gateway")
	gt.Value(t, events[0].Tags["error_kind"]).Equal("TransientError")
	gt.Value(t, events[0].Tags["run_id"]).Equal("run-1")
	gt.Value(t, events[0].Tags["event_kind"]).Equal("push")
}

func TestReporter_NoFailures(t *testing.T) {
	hub, captured := newCapturingHub(t)
	ctx := sentry.SetHubOnContext(context.Background(), hub)

	a := &model.PublishJob{ID: "1", ArtifactID: "istio-pilot"}
	report := &model.RunReport{RunID: "run-1", Results: []*model.PublishResult{model.NewSuccess(a, 1)}}

	gt.NoError(t, sentryinfra.New().Report(ctx, report))
	gt.A(t, captured()).Length(0)
}
