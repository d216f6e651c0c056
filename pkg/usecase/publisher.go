package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
)

const (
	DefaultMaxAttempts = 3
	DefaultCallTimeout = 60 * time.Second
	DefaultBaseBackoff = time.Second
	DefaultMaxBackoff  = 30 * time.Second
)

// publisherConfig holds retry configuration of the publisher
type publisherConfig struct {
	maxAttempts int
	callTimeout time.Duration
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// PublisherOption is a functional option for the publisher
type PublisherOption func(*publisherConfig)

// WithMaxAttempts sets the number of registry calls per job, including the first one
func WithMaxAttempts(n int) PublisherOption {
	return func(c *publisherConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithCallTimeout sets the timeout of a single registry call
func WithCallTimeout(d time.Duration) PublisherOption {
	return func(c *publisherConfig) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithBackoff sets the initial and the maximum wait between attempts
func WithBackoff(base, max time.Duration) PublisherOption {
	return func(c *publisherConfig) {
		c.baseBackoff = base
		c.maxBackoff = max
	}
}

type publisher struct {
	registry    interfaces.Registry
	credentials interfaces.CredentialProvider
	cfg         publisherConfig
}

// NewPublisher creates a new instance of PublisherUseCase
func NewPublisher(registry interfaces.Registry, credentials interfaces.CredentialProvider, opts ...PublisherOption) interfaces.PublisherUseCase {
	cfg := publisherConfig{
		maxAttempts: DefaultMaxAttempts,
		callTimeout: DefaultCallTimeout,
		baseBackoff: DefaultBaseBackoff,
		maxBackoff:  DefaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &publisher{
		registry:    registry,
		credentials: credentials,
		cfg:         cfg,
	}
}

// Publish runs one job to completion. It never returns an error: every
// outcome, including cancellation, is reported in the result.
func (uc *publisher) Publish(ctx context.Context, job *model.PublishJob) *model.PublishResult {
	logger := ctxlog.From(ctx).With("job_id", job.ID, "artifact", job.ArtifactID)

	cred, release, err := uc.credentials.Acquire(ctx, job.CredentialsRef)
	if err != nil {
		if !goerr.HasTag(err, types.ErrTagAuth) {
			err = goerr.Wrap(err, "failed to acquire credential",
				goerr.V("ref", job.CredentialsRef),
				goerr.T(types.ErrTagAuth))
		}
		logger.Error("Credential acquisition failed", "error", err)
		return model.NewFailure(job, 0, err)
	}
	defer release()

	var lastErr error
	for attempt := 1; attempt <= uc.cfg.maxAttempts; attempt++ {
		lastErr = uc.call(ctx, cred, job)
		if lastErr == nil {
			logger.Info("Published artifact",
				"channel", job.Channel,
				"origin_channel", job.OriginChannel,
				"revision", job.Revision,
				"attempts", attempt,
			)
			return model.NewSuccess(job, attempt)
		}

		// Cancelled runs are abandoned without further attempts.
		if !types.IsTransient(lastErr) || ctx.Err() != nil {
			logger.Error("Registry call failed", "error", lastErr, "attempt", attempt)
			return model.NewFailure(job, attempt, lastErr)
		}

		if attempt == uc.cfg.maxAttempts {
			break
		}

		wait := uc.backoff(attempt)
		logger.Warn("Transient registry failure, retrying",
			"error", lastErr,
			"attempt", attempt,
			"wait", wait,
		)

		if err := sleep(ctx, wait); err != nil {
			return model.NewFailure(job, attempt, goerr.Wrap(err, "publish cancelled during retry",
				goerr.V("last_error", lastErr.Error()),
				goerr.T(types.ErrTagTransient)))
		}
	}

	err = goerr.Wrap(lastErr, "retry budget exhausted",
		goerr.V("attempts", uc.cfg.maxAttempts),
		goerr.T(types.ErrTagTransient))
	logger.Error("Registry call failed", "error", err)
	return model.NewFailure(job, uc.cfg.maxAttempts, err)
}

func (uc *publisher) call(ctx context.Context, cred *model.Credential, job *model.PublishJob) error {
	callCtx, cancel := context.WithTimeout(ctx, uc.cfg.callTimeout)
	defer cancel()

	var err error
	if job.IsPromotion() {
		err = uc.registry.Promote(callCtx, cred, job.PromoteRequest())
	} else {
		err = uc.registry.Publish(callCtx, cred, job.PublishRequest())
	}
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return goerr.Wrap(ctx.Err(), "publish cancelled", goerr.V("cause", err.Error()), goerr.T(types.ErrTagTransient))
	}
	if callCtx.Err() != nil && !goerr.HasTag(err, types.ErrTagTransient) {
		return goerr.Wrap(err, "registry call timed out",
			goerr.V("timeout", uc.cfg.callTimeout),
			goerr.T(types.ErrTagTransient))
	}
	if types.ErrorKind(err) == "unknown" {
		return goerr.Wrap(err, "registry call failed", goerr.T(types.ErrTagTransient))
	}
	return err
}

func (uc *publisher) backoff(attempt int) time.Duration {
	d := uc.cfg.baseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if uc.cfg.maxBackoff > 0 && d >= uc.cfg.maxBackoff {
			return uc.cfg.maxBackoff
		}
	}
	if uc.cfg.maxBackoff > 0 && d > uc.cfg.maxBackoff {
		return uc.cfg.maxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
