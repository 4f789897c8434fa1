// Package ingest turns Strava webhook events into deduplicated, enriched activity records.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	shared "github.com/fitglue/strava-ingest/pkg"
	"github.com/fitglue/strava-ingest/pkg/domain/activity"
	"github.com/fitglue/strava-ingest/pkg/domain/metrics"
	httputil "github.com/fitglue/strava-ingest/pkg/infrastructure/http"
	inframetrics "github.com/fitglue/strava-ingest/pkg/infrastructure/metrics"
	"github.com/fitglue/strava-ingest/pkg/infrastructure/oauth"
	"github.com/fitglue/strava-ingest/pkg/infrastructure/pubsub"
	"github.com/fitglue/strava-ingest/pkg/integrations/strava"
	"github.com/fitglue/strava-ingest/pkg/types"
)

// Upstream is the Strava API surface the pipeline reads from.
type Upstream interface {
	GetActivity(ctx context.Context, accessToken string, activityID int64) (*strava.Activity, error)
	GetStreams(ctx context.Context, accessToken string, activityID int64) (*strava.Streams, error)
}

// TokenSource yields a usable credential set for a user, refreshing it when expired.
type TokenSource interface {
	Token(ctx context.Context, userID string) (*types.Credentials, error)
}

// IdentityResolver maps a Strava athlete id to an internal user id.
type IdentityResolver interface {
	Resolve(ctx context.Context, athleteID int64) (string, bool, error)
}

// Outcomes reported to metrics.
const (
	OutcomeCreated             = "created"
	OutcomeDuplicate           = "duplicate"
	OutcomeFiltered            = "filtered"
	OutcomeUpstreamGone        = "upstream_not_found"
	OutcomeDeleted             = "deleted"
	OutcomeDeleteNoop          = "delete_noop"
	OutcomeUnresolved          = "unresolved"
	OutcomeNotConnected        = "not_connected"
	OutcomeClientNotConfigured = "client_not_configured"
	OutcomeFailed              = "failed"
)

// Deps are the collaborators an Orchestrator is built from. Enricher and Publisher may be nil.
type Deps struct {
	DB         shared.Database
	Identity   IdentityResolver
	Tokens     TokenSource
	Upstream   Upstream
	Enricher   *Enricher
	Publisher  shared.Publisher
	Metrics    inframetrics.Recorder
	DefaultFTP int
}

// Orchestrator runs the per-event ingestion state machine.
type Orchestrator struct {
	db         shared.Database
	identity   IdentityResolver
	tokens     TokenSource
	upstream   Upstream
	enricher   *Enricher
	publisher  shared.Publisher
	metrics    inframetrics.Recorder
	defaultFTP int

	locks *keyLock
}

// NewOrchestrator builds an Orchestrator, using metrics.DefaultFTP when d.DefaultFTP is unset.
func NewOrchestrator(d Deps) *Orchestrator {
	ftp := d.DefaultFTP
	if ftp <= 0 {
		ftp = metrics.DefaultFTP
	}
	return &Orchestrator{
		db:         d.DB,
		identity:   d.Identity,
		tokens:     d.Tokens,
		upstream:   d.Upstream,
		enricher:   d.Enricher,
		publisher:  d.Publisher,
		metrics:    d.Metrics,
		defaultFTP: ftp,
		locks:      newKeyLock(),
	}
}

// Process handles one activity event. Events for the same (user, activity) are
// serialized in-process so an update's delete and create cannot interleave with
// another event for that activity. The returned error is terminal: the sender
// has already been acknowledged.
func (o *Orchestrator) Process(ctx context.Context, logger *slog.Logger, event *types.WebhookEvent) error {
	logger = logger.With(
		"aspect_type", event.AspectType,
		"athlete_id", event.OwnerID,
		"source_activity_id", event.ObjectID,
	)

	userID, ok, err := o.identity.Resolve(ctx, event.OwnerID)
	if err != nil {
		o.metrics.IncIngestOutcome(event.AspectType, OutcomeFailed)
		return fmt.Errorf("resolve identity: %w", err)
	}
	if !ok {
		logger.Info("No user connected for athlete, ignoring event")
		o.metrics.IncIngestOutcome(event.AspectType, OutcomeUnresolved)
		return nil
	}
	logger = logger.With("user_id", userID)

	unlock := o.locks.Lock(dedupKey(userID, event.ObjectID))
	defer unlock()

	var outcome string
	switch event.AspectType {
	case types.AspectCreate:
		outcome, err = o.create(ctx, logger, userID, event.ObjectID)
	case types.AspectUpdate:
		// Replace, don't patch: drop whatever exists, then ingest fresh.
		if _, err = o.delete(ctx, logger, userID, event.ObjectID); err == nil {
			outcome, err = o.create(ctx, logger, userID, event.ObjectID)
		}
	case types.AspectDelete:
		outcome, err = o.delete(ctx, logger, userID, event.ObjectID)
	default:
		err = fmt.Errorf("unknown aspect type %q", event.AspectType)
	}

	if err != nil {
		logger.Error("Activity processing failed", "error", err)
		o.metrics.IncIngestOutcome(event.AspectType, OutcomeFailed)
		return err
	}

	o.metrics.IncIngestOutcome(event.AspectType, outcome)
	return nil
}

func (o *Orchestrator) create(ctx context.Context, logger *slog.Logger, userID string, sourceActivityID int64) (string, error) {
	existing, err := o.db.FindActivityBySource(ctx, userID, sourceActivityID)
	if err != nil {
		return "", fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		logger.Info("Activity already ingested", "activity_id", existing.ID)
		return OutcomeDuplicate, nil
	}

	creds, err := o.tokens.Token(ctx, userID)
	switch {
	case errors.Is(err, oauth.ErrNotConnected):
		logger.Warn("No Strava credentials for user, skipping")
		return OutcomeNotConnected, nil
	case errors.Is(err, oauth.ErrClientNotConfigured):
		logger.Error("Strava token expired but client id/secret are not configured")
		return OutcomeClientNotConfigured, nil
	case err != nil:
		return "", fmt.Errorf("get token: %w", err)
	}

	raw, err := o.upstream.GetActivity(ctx, creds.AccessToken, sourceActivityID)
	if httputil.IsNotFound(err) {
		// Deleted or made private between the event and the fetch.
		logger.Info("Activity no longer available upstream, skipping")
		return OutcomeUpstreamGone, nil
	}
	if err != nil {
		return "", fmt.Errorf("fetch activity: %w", err)
	}

	activityType := activity.ResolveType(raw.SportType, raw.Type)
	if !activity.IsRide(activityType) {
		logger.Info("Skipping non-ride activity", "type", activityType)
		return OutcomeFiltered, nil
	}

	ftp, err := o.ftp(ctx, userID)
	if err != nil {
		return "", err
	}

	record, err := metrics.Transform(raw, ftp, userID)
	if err != nil {
		return "", fmt.Errorf("transform: %w", err)
	}

	id, err := o.db.CreateActivity(ctx, record)
	if err != nil {
		return "", fmt.Errorf("create activity: %w", err)
	}
	record.ID = id
	logger = logger.With("activity_id", id)
	logger.Info("Activity ingested", "type", record.Type, "tss", record.TSS, "ftp", ftp)

	o.publishIngested(ctx, logger, record)

	if o.enricher != nil {
		result := o.enricher.Enrich(ctx, logger, userID, id, sourceActivityID, creds.AccessToken)
		if len(result.Failures) > 0 {
			logger.Warn("Enrichment incomplete", "failed_steps", result.Failures)
		}
	}

	return OutcomeCreated, nil
}

func (o *Orchestrator) delete(ctx context.Context, logger *slog.Logger, userID string, sourceActivityID int64) (string, error) {
	existing, err := o.db.FindActivityBySource(ctx, userID, sourceActivityID)
	if err != nil {
		return "", fmt.Errorf("delete lookup: %w", err)
	}
	if existing == nil {
		logger.Debug("Nothing to delete")
		return OutcomeDeleteNoop, nil
	}

	if err := o.db.DeleteActivity(ctx, userID, existing.ID); err != nil {
		return "", fmt.Errorf("delete activity %s: %w", existing.ID, err)
	}
	logger.Info("Activity deleted", "activity_id", existing.ID)
	return OutcomeDeleted, nil
}

// ftp returns the user's FTP, or the default for users who have not set one.
func (o *Orchestrator) ftp(ctx context.Context, userID string) (int, error) {
	profile, err := o.db.GetUserProfile(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil || profile.FTP <= 0 {
		return o.defaultFTP, nil
	}
	return profile.FTP, nil
}

func (o *Orchestrator) publishIngested(ctx context.Context, logger *slog.Logger, record *types.Activity) {
	if o.publisher == nil {
		return
	}
	e, err := pubsub.NewActivityIngestedEvent(pubsub.ActivityIngested{
		UserID:           record.UserID,
		ActivityID:       record.ID,
		SourceActivityID: record.SourceActivityID,
		Source:           record.Source,
		Type:             record.Type,
		TSS:              record.TSS,
		Date:             record.Date,
	})
	if err != nil {
		logger.Warn("Failed to build ingested event", "error", err)
		return
	}
	if _, err := o.publisher.PublishCloudEvent(ctx, shared.TopicActivityIngested, e); err != nil {
		logger.Warn("Failed to publish ingested event", "error", err)
	}
}

func dedupKey(userID string, sourceActivityID int64) string {
	return fmt.Sprintf("%s/%d", userID, sourceActivityID)
}
