package sentry

import (
	"context"

	"github.com/getsentry/sentry-go"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
)

// Reporter captures one Sentry event per failed job
type Reporter struct{}

var _ interfaces.Reporter = (*Reporter)(nil)

// New creates a Sentry reporter. sentry.Init must be called beforehand.
func New() *Reporter {
	return &Reporter{}
}

// Report sends failed results to Sentry, using the hub attached to ctx when present
func (r *Reporter) Report(ctx context.Context, report *model.RunReport) error {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	// Runs from concurrent webhook deliveries share the hub
	hub = hub.Clone()

	for _, res := range report.Failed() {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("run_id", report.RunID)
			scope.SetTag("artifact", res.ArtifactID)
			scope.SetTag("error_kind", res.ErrorKind())
			scope.SetContext("job", sentry.Context{
				"job_id":   res.JobID,
				"attempts": res.Attempts,
			})
			if report.Event != nil {
				scope.SetTag("event_kind", string(report.Event.Kind))
				scope.SetTag("repository", report.Event.Repository)
			}
			hub.CaptureException(res.Err)
		})
	}

	return nil
}
