package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
)

// PipelineOption is a functional option for the pipeline
type PipelineOption func(*pipeline)

// WithReporters adds reporters invoked after every run
func WithReporters(reporters ...interfaces.Reporter) PipelineOption {
	return func(p *pipeline) {
		p.reporters = append(p.reporters, reporters...)
	}
}

// WithMaxParallel limits the number of concurrently running jobs. 0 means unlimited.
func WithMaxParallel(n int) PipelineOption {
	return func(p *pipeline) {
		p.maxParallel = n
	}
}

type pipeline struct {
	matrix      *model.Matrix
	publisher   interfaces.PublisherUseCase
	reporters   []interfaces.Reporter
	maxParallel int
}

// NewPipeline creates a new instance of PipelineUseCase
func NewPipeline(matrix *model.Matrix, publisher interfaces.PublisherUseCase, opts ...PipelineOption) interfaces.PipelineUseCase {
	p := &pipeline{
		matrix:    matrix,
		publisher: publisher,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve returns jobs for event without running them
func (uc *pipeline) Resolve(event *model.Event) ([]*model.PublishJob, error) {
	return Resolve(event, uc.matrix)
}

// Run publishes every job resolved from event. A ConfigError from routing is
// returned before any network call; job failures are only reported in the result.
func (uc *pipeline) Run(ctx context.Context, event *model.Event) (*model.RunReport, error) {
	if event.ID == "" {
		// Job IDs derive from the event ID, so an ID-less event must not
		// share them with other runs
		withID := *event
		withID.ID = uuid.NewString()
		event = &withID
	}
	runID := event.ID
	logger := ctxlog.From(ctx).With("run_id", runID)
	ctx = ctxlog.With(ctx, logger)

	jobs, err := uc.Resolve(event)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve publish jobs",
			goerr.V("event_kind", event.Kind),
			goerr.V("branch", event.Branch))
	}

	report := &model.RunReport{
		RunID:     runID,
		Event:     event,
		Jobs:      jobs,
		Results:   make([]*model.PublishResult, len(jobs)),
		StartedAt: time.Now(),
	}

	if len(jobs) == 0 {
		logger.Info("Event is not eligible for publishing",
			"kind", event.Kind,
			"branch", event.Branch,
			"head_ref", event.HeadRef,
		)
		report.FinishedAt = time.Now()
		return report, nil
	}

	logger.Info("Publishing artifacts", "kind", event.Kind, "jobs", len(jobs))

	var eg errgroup.Group
	if uc.maxParallel > 0 {
		eg.SetLimit(uc.maxParallel)
	}
	for i, job := range jobs {
		eg.Go(func() error {
			report.Results[i] = uc.publisher.Publish(ctx, job)
			return nil
		})
	}
	_ = eg.Wait() // Jobs never return an error, failures live in the results

	report.FinishedAt = time.Now()

	for _, res := range report.Results {
		if res.Succeeded() {
			logger.Info(res.Line(), "job_id", res.JobID, "attempts", res.Attempts)
		} else {
			logger.Error(res.Line(), "job_id", res.JobID, "attempts", res.Attempts, "kind", res.ErrorKind())
		}
	}

	for _, r := range uc.reporters {
		if err := r.Report(ctx, report); err != nil {
			logger.Warn("Failed to report run result", "error", err)
		}
	}

	return report, nil
}
