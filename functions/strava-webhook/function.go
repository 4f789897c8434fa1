package stravawebhook

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/fitglue/strava-ingest/pkg/bootstrap"
)

const serviceName = "strava-webhook"

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.HTTP("StravaWebhook", StravaWebhook)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	if svc != nil {
		return svc, nil
	}
	svcOnce.Do(func() {
		cfg, err := bootstrap.LoadConfig()
		if err != nil {
			slog.Error("Failed to load config", "error", err)
			svcErr = err
			return
		}
		logger := bootstrap.NewLogger(serviceName, cfg.LogLevel)
		// The service outlives the first request.
		baseSvc, err := bootstrap.NewService(context.WithoutCancel(ctx), cfg, logger)
		if err != nil {
			logger.Error("Failed to initialize service", "error", err)
			svcErr = err
			return
		}
		svc = baseSvc
	})
	return svc, svcErr
}

// StravaWebhook is the HTTP entry point for Strava push subscriptions and
// credential registration.
func StravaWebhook(w http.ResponseWriter, r *http.Request) {
	svc, err := initService(r.Context())
	if err != nil {
		slog.Error("Service init failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	svc.Handler.ServeHTTP(w, r)
}
