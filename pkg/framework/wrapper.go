package framework

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fitglue/strava-ingest/pkg/infrastructure/metrics"
	"github.com/fitglue/strava-ingest/pkg/infrastructure/sentry"
	"github.com/fitglue/strava-ingest/pkg/tasks"
)

// BackgroundFunc is the body of a fire-and-forget task. It receives a logger
// already tagged with the task name and execution id.
type BackgroundFunc func(ctx context.Context, logger *slog.Logger) error

// RunBackground wraps fn with execution logging, panic recovery and Sentry capture.
// There is no caller left to report failure to, so the error is logged and
// captured here, then handed to the registry only for bookkeeping.
func RunBackground(logger *slog.Logger, rec metrics.Recorder, name string, fn BackgroundFunc) tasks.Func {
	return func(ctx context.Context) (err error) {
		execID := uuid.NewString()
		taskLogger := logger.With("task", name, "execution_id", execID)
		start := time.Now()

		defer func() {
			if r := recover(); r != nil {
				err = &sentry.PanicError{Value: r}
			}

			duration := time.Since(start)
			if err != nil {
				taskLogger.Error("Background task failed", "error", err, "duration_ms", duration.Milliseconds())
				tags := map[string]string{
					"task":         name,
					"execution_id": execID,
				}
				if sentry.IsPanic(err) {
					tags["panic"] = "true"
				}
				sentry.CaptureException(err, tags, taskLogger)
				rec.ObserveTaskDuration("failed", duration)
				return
			}

			taskLogger.Info("Background task completed", "duration_ms", duration.Milliseconds())
			rec.ObserveTaskDuration("ok", duration)
		}()

		taskLogger.Info("Background task started")
		return fn(ctx, taskLogger)
	}
}
