package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	shared "github.com/fitglue/strava-ingest/pkg"
	"github.com/fitglue/strava-ingest/pkg/identity"
	"github.com/fitglue/strava-ingest/pkg/infrastructure/database"
	"github.com/fitglue/strava-ingest/pkg/infrastructure/metrics"
	"github.com/fitglue/strava-ingest/pkg/infrastructure/oauth"
	infrapubsub "github.com/fitglue/strava-ingest/pkg/infrastructure/pubsub"
	"github.com/fitglue/strava-ingest/pkg/infrastructure/sentry"
	infrastorage "github.com/fitglue/strava-ingest/pkg/infrastructure/storage"
	"github.com/fitglue/strava-ingest/pkg/ingest"
	"github.com/fitglue/strava-ingest/pkg/integrations/strava"
	"github.com/fitglue/strava-ingest/pkg/tasks"
	"github.com/fitglue/strava-ingest/pkg/webhook"
)

const userAgent = "fitglue-strava-ingest"

// Clients are the external collaborators the pipeline is wired onto.
type Clients struct {
	DB    shared.Database
	Store shared.BlobStore
	Pub   shared.Publisher
	Auth  webhook.TokenVerifier
	// Upstream defaults to a Strava client built from Config.
	Upstream *strava.Client
}

// Service holds initialized dependencies
type Service struct {
	Config       *Config
	Logger       *slog.Logger
	Clients      Clients
	Metrics      metrics.Recorder
	Tasks        *tasks.Registry
	Identity     *identity.Resolver
	Orchestrator *ingest.Orchestrator
	Handler      http.Handler

	closers []func() error
}

// NewService connects to Firebase, Firestore, Pub/Sub and GCS and wires the pipeline.
func NewService(ctx context.Context, cfg *Config, logger *slog.Logger) (*Service, error) {
	logger.Info("Initializing service", "project_id", cfg.ProjectID)

	if err := sentry.Init(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		ServerName:  userAgent,
	}, logger); err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithUserAgent(userAgent)}
	var closers []func() error

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase init: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		logger.Error("Firestore init failed", "error", err)
		return nil, fmt.Errorf("firestore init: %w", err)
	}
	closers = append(closers, fsClient.Close)

	authClient, err := app.Auth(ctx)
	if err != nil {
		logger.Error("Firebase Auth init failed", "error", err)
		return nil, fmt.Errorf("auth init: %w", err)
	}

	var pub shared.Publisher
	if cfg.EnablePublish {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
		if err != nil {
			logger.Error("PubSub init failed", "error", err)
			return nil, fmt.Errorf("pubsub init: %w", err)
		}
		closers = append(closers, psClient.Close)
		pub = &infrapubsub.PubSubAdapter{Client: psClient}
		logger.Info("Pub/Sub: REAL (ENABLE_PUBLISH=true)")
	} else {
		pub = &infrapubsub.LogPublisher{Logger: logger.With("component", "pubsub")}
		logger.Info("Pub/Sub: MOCK (LogPublisher)")
	}

	var store shared.BlobStore
	if cfg.GCSArtifactBucket != "" {
		gcsClient, err := storage.NewClient(ctx, opts...)
		if err != nil {
			logger.Error("Storage init failed", "error", err)
			return nil, fmt.Errorf("storage init: %w", err)
		}
		closers = append(closers, gcsClient.Close)
		store = &infrastorage.StorageAdapter{Client: gcsClient}
	} else {
		logger.Info("Stream archive disabled (GCS_ARTIFACT_BUCKET not set)")
	}

	svc := Wire(cfg, logger, Clients{
		DB:    database.NewFirestoreAdapter(fsClient),
		Store: store,
		Pub:   pub,
		Auth:  authClient,
	})
	svc.closers = closers
	return svc, nil
}

// Wire builds the pipeline on top of already-constructed clients.
func Wire(cfg *Config, logger *slog.Logger, c Clients) *Service {
	if c.Upstream == nil {
		c.Upstream = strava.NewClient(
			strava.WithBaseURL(cfg.StravaAPIBaseURL),
			strava.WithRateLimit(cfg.StravaRateLimitRequests, cfg.RateLimitWindow()),
		)
	}
	if cfg.StravaVerifyToken == "" {
		logger.Warn("STRAVA_VERIFY_TOKEN not set - webhook handshakes will be rejected")
	}

	rec := metrics.New(cfg.EnableMetrics)
	registry := tasks.NewRegistry()
	rec.TrackInFlight(registry.Len)

	resolver := identity.NewResolver(c.DB, cfg.IdentityCacheMB, cfg.IdentityCacheTTLSeconds, rec, logger.With("component", "identity"))
	tokens := oauth.NewStoreTokenSource(c.DB, c.Upstream, cfg.StravaClientID, cfg.StravaClientSecret, logger.With("component", "oauth"))
	enricher := ingest.NewEnricher(c.DB, c.Upstream, c.Store, cfg.GCSArtifactBucket, rec)

	orch := ingest.NewOrchestrator(ingest.Deps{
		DB:         c.DB,
		Identity:   resolver,
		Tokens:     tokens,
		Upstream:   c.Upstream,
		Enricher:   enricher,
		Publisher:  c.Pub,
		Metrics:    rec,
		DefaultFTP: cfg.DefaultFTP,
	})

	handler := webhook.NewRouter(&webhook.Handler{
		VerifyToken: cfg.StravaVerifyToken,
		Processor:   orch,
		Scheduler:   registry,
		DB:          c.DB,
		Auth:        c.Auth,
		Identity:    resolver,
		Metrics:     rec,
		Logger:      logger.With("component", "webhook"),
	})

	return &Service{
		Config:       cfg,
		Logger:       logger,
		Clients:      c,
		Metrics:      rec,
		Tasks:        registry,
		Identity:     resolver,
		Orchestrator: orch,
		Handler:      handler,
	}
}

// Shutdown drains in-flight background tasks, flushes Sentry and closes clients.
func (s *Service) Shutdown(ctx context.Context) error {
	s.Logger.Info("Draining background tasks", "in_flight", s.Tasks.Len())
	drainErr := s.Tasks.Drain(ctx)
	if drainErr != nil {
		s.Logger.Warn("Drain interrupted", "error", drainErr, "abandoned", s.Tasks.Names())
	}

	sentry.Flush(2 * time.Second)

	errs := []error{drainErr}
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
