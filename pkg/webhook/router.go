// Package webhook is the HTTP boundary of the ingestion pipeline.
package webhook

import (
	"context"
	"log/slog"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	shared "github.com/fitglue/strava-ingest/pkg"
	"github.com/fitglue/strava-ingest/pkg/infrastructure/metrics"
	"github.com/fitglue/strava-ingest/pkg/tasks"
	"github.com/fitglue/strava-ingest/pkg/types"
)

// Processor handles one validated activity event in the background.
type Processor interface {
	Process(ctx context.Context, logger *slog.Logger, event *types.WebhookEvent) error
}

// Scheduler runs fire-and-forget tasks. tasks.Registry implements it.
type Scheduler interface {
	Go(ctx context.Context, name string, fn tasks.Func) string
	Len() int
}

// TokenVerifier verifies Firebase ID tokens. *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// IdentityCache is primed when a new athlete mapping is written.
type IdentityCache interface {
	Remember(athleteID int64, userID string)
}

// Handler serves the webhook, credential sync and operational endpoints.
type Handler struct {
	VerifyToken string
	Processor   Processor
	Scheduler   Scheduler
	DB          shared.Database
	Auth        TokenVerifier
	Identity    IdentityCache
	Metrics     metrics.Recorder
	Logger      *slog.Logger
}

// NewRouter mounts the webhook, credential sync, health and metrics routes.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware(h.Metrics))

	r.Get("/webhook", h.Handshake)
	r.Post("/webhook", h.ReceiveEvent)
	r.Post("/integrations/strava/credentials", h.SyncCredentials)

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"in_flight": h.Scheduler.Len(),
	})
}
