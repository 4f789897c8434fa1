package shared

import (
	"context"
	"errors"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/fitglue/strava-ingest/pkg/types"
)

// --- Persistence Interfaces ---

// ErrActivityNotFound is returned by UpdateActivity when the activity no longer exists.
var ErrActivityNotFound = errors.New("activity not found")

// Database is the persisted-state surface used by the ingestion pipeline.
// Getters return a nil value and a nil error when the document does not exist.
type Database interface {
	// Credentials & identity
	GetCredentials(ctx context.Context, userID string) (*types.Credentials, error)
	SetCredentials(ctx context.Context, userID string, creds *types.Credentials) error
	GetAthleteUser(ctx context.Context, athleteID int64) (string, error)
	SetAthleteUser(ctx context.Context, athleteID int64, userID string) error

	// Profile
	GetUserProfile(ctx context.Context, userID string) (*types.UserProfile, error)

	// Activities
	FindActivityBySource(ctx context.Context, userID string, sourceActivityID int64) (*types.Activity, error)
	CreateActivity(ctx context.Context, activity *types.Activity) (string, error)
	UpdateActivity(ctx context.Context, userID string, activityID string, patch types.ActivityPatch) error
	// DeleteActivity removes the activity and its streams sub-collection.
	DeleteActivity(ctx context.Context, userID string, activityID string) error

	// Streams (sub-collection of activities)
	SetStreams(ctx context.Context, userID string, activityID string, streams *types.StreamSet) error

	// Fitness estimates
	CreateFitnessEstimate(ctx context.Context, estimate *types.FitnessEstimate) (string, error)
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Write(ctx context.Context, bucket, object string, data []byte) error
}
