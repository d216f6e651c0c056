package async

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Group tracks handlers started by Dispatch so that shutdown can wait for them
type Group struct {
	wg sync.WaitGroup
}

var defaultGroup Group

// Dispatch executes handler asynchronously on the default group
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	defaultGroup.Dispatch(ctx, handler)
}

// Wait blocks until all handlers of the default group finish or ctx is done
func Wait(ctx context.Context) error {
	return defaultGroup.Wait(ctx)
}

// Dispatch executes a handler function asynchronously with proper context and panic recovery
//
// Parameters:
//   - ctx: Original context (values will be preserved, but cancellation won't affect the async handler)
//   - handler: Function to execute asynchronously
//
// Behavior:
//   - Creates a new background context with preserved logger and Sentry hub
//   - Executes handler in a new goroutine tracked by the group
//   - Recovers from panics and logs them
//   - Logs errors returned by handler
func (g *Group) Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	newCtx := newBackgroundContext(ctx)

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger := ctxlog.From(newCtx)
				logger.Error("panic in async handler",
					"recover", r,
					"stack", string(stack))
			}
		}()

		if err := handler(newCtx); err != nil {
			logger := ctxlog.From(newCtx)
			logger.Error("error in async handler", "error", err)
		}
	}()
}

// Wait blocks until all dispatched handlers finish or ctx is done
func (g *Group) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "async handlers did not finish in time")
	}
}

// newBackgroundContext creates a new background context preserving important values
//
// Preserved values:
//   - ctxlog logger
//   - Sentry hub, when one is attached
//
// Returns: New context.Background() with preserved values
func newBackgroundContext(ctx context.Context) context.Context {
	newCtx := context.Background()
	newCtx = ctxlog.With(newCtx, ctxlog.From(ctx))
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		newCtx = sentry.SetHubOnContext(newCtx, hub)
	}
	return newCtx
}
