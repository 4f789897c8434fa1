package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"

	shared "github.com/fitglue/strava-ingest/pkg"
	"github.com/fitglue/strava-ingest/pkg/domain/metrics"
	inframetrics "github.com/fitglue/strava-ingest/pkg/infrastructure/metrics"
	"github.com/fitglue/strava-ingest/pkg/infrastructure/storage"
	"github.com/fitglue/strava-ingest/pkg/types"
)

// Enrichment sub-steps, as recorded in EnrichmentResult.Failures and metrics.
const (
	StepStreams  = "streams"
	StepPersist  = "persist_streams"
	StepArchive  = "archive_streams"
	StepPatch    = "patch_activity"
	StepEstimate = "fitness_estimate"
)

// EnrichmentResult is what a best-effort enrichment pass managed to do.
type EnrichmentResult struct {
	SampleCount      int
	StreamsPersisted bool
	Archived         bool
	Patch            types.ActivityPatch
	Patched          bool
	EstimateID       string
	Failures         []string
}

func (r *EnrichmentResult) fail(step string) {
	r.Failures = append(r.Failures, step)
}

// Enricher attaches stream-derived metrics to an activity. It never fails the caller.
type Enricher struct {
	db       shared.Database
	upstream Upstream
	blobs    shared.BlobStore
	bucket   string
	metrics  inframetrics.Recorder
}

// NewEnricher builds an Enricher. Stream archiving is skipped when blobs is nil or bucket is empty.
func NewEnricher(db shared.Database, upstream Upstream, blobs shared.BlobStore, bucket string, rec inframetrics.Recorder) *Enricher {
	return &Enricher{
		db:       db,
		upstream: upstream,
		blobs:    blobs,
		bucket:   bucket,
		metrics:  rec,
	}
}

// Enrich fetches streams for the upstream activity and patches the record with
// derived metrics. Every failure is logged as a warning and recorded in the result.
func (e *Enricher) Enrich(ctx context.Context, logger *slog.Logger, userID, activityID string, sourceActivityID int64, accessToken string) (result EnrichmentResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Enrichment panicked", "panic", fmt.Sprint(r))
			result.fail("panic")
		}
	}()

	streams, err := e.upstream.GetStreams(ctx, accessToken, sourceActivityID)
	if err != nil {
		logger.Warn("Failed to fetch streams", "error", err)
		e.record(&result, StepStreams, false)
		return result
	}
	e.record(&result, StepStreams, true)

	set := &types.StreamSet{
		Watts:     streams.Watts.Values(),
		HeartRate: streams.Heartrate.Values(),
		Time:      streams.Time.Values(),
		Cadence:   streams.Cadence.Values(),
	}
	set.SampleCount = sampleCount(set)
	result.SampleCount = set.SampleCount

	if set.SampleCount > 0 {
		if err := e.db.SetStreams(ctx, userID, activityID, set); err != nil {
			logger.Warn("Failed to persist streams", "error", err)
			e.record(&result, StepPersist, false)
		} else {
			result.StreamsPersisted = true
			e.record(&result, StepPersist, true)
		}
		e.archive(ctx, logger, &result, userID, activityID, set)
	}

	if len(set.Watts) > 0 && len(set.Time) > 0 {
		if p := metrics.PeakPower(set.Watts, set.Time, metrics.Peak5MinWindow); p > 0 {
			result.Patch.Peak5MinPower = &p
		}
		if p := metrics.PeakPower(set.Watts, set.Time, metrics.Peak20MinWindow); p > 0 {
			result.Patch.Peak20MinPower = &p
		}
	}
	if len(set.HeartRate) > 0 {
		c := metrics.HRCompleteness(set.HeartRate, set.SampleCount)
		result.Patch.HRCompleteness = &c
	}

	if !result.Patch.Empty() {
		err := e.db.UpdateActivity(ctx, userID, activityID, result.Patch)
		switch {
		case errors.Is(err, shared.ErrActivityNotFound):
			// Deleted by a concurrent event; nothing left to attach metrics to.
			logger.Warn("Activity deleted before enrichment could patch it")
			e.record(&result, StepPatch, false)
			return result
		case err != nil:
			logger.Warn("Failed to patch activity with derived metrics", "error", err)
			e.record(&result, StepPatch, false)
		default:
			result.Patched = true
			e.record(&result, StepPatch, true)
		}
	}

	if result.Patch.Peak5MinPower != nil {
		e.estimate(ctx, logger, &result, userID, activityID, *result.Patch.Peak5MinPower)
	}

	logger.Info("Enrichment finished",
		"sample_count", result.SampleCount,
		"streams_persisted", result.StreamsPersisted,
		"patched", result.Patched,
	)
	return result
}

func (e *Enricher) archive(ctx context.Context, logger *slog.Logger, result *EnrichmentResult, userID, activityID string, set *types.StreamSet) {
	if e.blobs == nil || e.bucket == "" {
		return
	}
	data, err := json.Marshal(set)
	if err == nil {
		data, err = storage.Gzip(data)
	}
	if err == nil {
		err = e.blobs.Write(ctx, e.bucket, storage.StreamArchivePath(userID, activityID), data)
	}
	if err != nil {
		logger.Warn("Failed to archive streams", "error", err)
		e.record(result, StepArchive, false)
		return
	}
	result.Archived = true
	e.record(result, StepArchive, true)
}

// estimate stores a VO2max estimate when the user has a body weight on file.
func (e *Enricher) estimate(ctx context.Context, logger *slog.Logger, result *EnrichmentResult, userID, activityID string, peak5 float64) {
	profile, err := e.db.GetUserProfile(ctx, userID)
	if err != nil {
		logger.Warn("Failed to load profile for fitness estimate", "error", err)
		e.record(result, StepEstimate, false)
		return
	}
	if profile == nil || profile.WeightKg <= 0 {
		return
	}

	id, err := e.db.CreateFitnessEstimate(ctx, &types.FitnessEstimate{
		UserID:        userID,
		ActivityID:    activityID,
		VO2Max:        metrics.EstimateVO2Max(peak5, profile.WeightKg),
		Peak5MinPower: peak5,
		WeightKg:      profile.WeightKg,
		Source:        types.SourceStrava,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		logger.Warn("Failed to save fitness estimate", "error", err)
		e.record(result, StepEstimate, false)
		return
	}
	result.EstimateID = id
	e.record(result, StepEstimate, true)
}

func (e *Enricher) record(result *EnrichmentResult, step string, ok bool) {
	if ok {
		e.metrics.IncEnrichmentStep(step, "ok")
		return
	}
	e.metrics.IncEnrichmentStep(step, "failed")
	result.fail(step)
}

// sampleCount is the time series length, or the longest series when time is absent.
func sampleCount(s *types.StreamSet) int {
	if len(s.Time) > 0 {
		return len(s.Time)
	}
	n := 0
	for _, series := range [][]float64{s.Watts, s.HeartRate, s.Cadence} {
		if len(series) > n {
			n = len(series)
		}
	}
	return n
}
