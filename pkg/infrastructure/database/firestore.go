package database

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	shared "github.com/fitglue/strava-ingest/pkg"
	storage "github.com/fitglue/strava-ingest/pkg/storage/firestore"
	"github.com/fitglue/strava-ingest/pkg/types"
)

// FirestoreAdapter provides database operations using Firestore
// It wraps our typed storage client
type FirestoreAdapter struct {
	storage *storage.Client
}

var _ shared.Database = (*FirestoreAdapter)(nil)

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{
		storage: storage.NewClient(client),
	}
}

// getOrNil maps Firestore NotFound to a nil result.
func getOrNil[T any](ctx context.Context, doc *storage.DocumentRef[T]) (*T, error) {
	v, err := doc.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

func (a *FirestoreAdapter) GetCredentials(ctx context.Context, userID string) (*types.Credentials, error) {
	return getOrNil(ctx, a.storage.Integrations(userID).Doc(shared.IntegrationStrava))
}

func (a *FirestoreAdapter) SetCredentials(ctx context.Context, userID string, creds *types.Credentials) error {
	return a.storage.Integrations(userID).Doc(shared.IntegrationStrava).Set(ctx, creds)
}

func (a *FirestoreAdapter) GetAthleteUser(ctx context.Context, athleteID int64) (string, error) {
	mapping, err := getOrNil(ctx, a.storage.StravaAthletes().Doc(storage.AthleteDocID(athleteID)))
	if err != nil || mapping == nil {
		return "", err
	}
	return mapping.UserID, nil
}

func (a *FirestoreAdapter) SetAthleteUser(ctx context.Context, athleteID int64, userID string) error {
	return a.storage.StravaAthletes().Doc(storage.AthleteDocID(athleteID)).Set(ctx, &storage.AthleteMapping{
		AthleteID: athleteID,
		UserID:    userID,
		UpdatedAt: time.Now(),
	})
}

func (a *FirestoreAdapter) GetUserProfile(ctx context.Context, userID string) (*types.UserProfile, error) {
	return getOrNil(ctx, a.storage.UserProfiles().Doc(userID))
}

func (a *FirestoreAdapter) FindActivityBySource(ctx context.Context, userID string, sourceActivityID int64) (*types.Activity, error) {
	ref, activity, err := a.storage.Activities(userID).FindOne(ctx, "source_activity_id", sourceActivityID)
	if err != nil {
		return nil, fmt.Errorf("query activity by source id: %w", err)
	}
	if activity == nil {
		return nil, nil
	}
	activity.ID = ref.ID()
	return activity, nil
}

func (a *FirestoreAdapter) CreateActivity(ctx context.Context, activity *types.Activity) (string, error) {
	doc := a.storage.Activities(activity.UserID).NewDoc()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}
	if err := doc.Create(ctx, activity); err != nil {
		return "", err
	}
	activity.ID = doc.ID()
	return doc.ID(), nil
}

func (a *FirestoreAdapter) UpdateActivity(ctx context.Context, userID string, activityID string, patch types.ActivityPatch) error {
	if patch.Empty() {
		return nil
	}
	err := a.storage.Activities(userID).Doc(activityID).Update(ctx, storage.ActivityPatchToFirestore(patch))
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("update activity %s: %w", activityID, shared.ErrActivityNotFound)
	}
	return err
}

func (a *FirestoreAdapter) DeleteActivity(ctx context.Context, userID string, activityID string) error {
	// Firestore does not cascade deletes to sub-collections.
	if _, err := a.storage.ActivityStreams(userID, activityID).DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete streams: %w", err)
	}
	return a.storage.Activities(userID).Doc(activityID).Delete(ctx)
}

func (a *FirestoreAdapter) SetStreams(ctx context.Context, userID string, activityID string, streams *types.StreamSet) error {
	return a.storage.ActivityStreams(userID, activityID).Doc(shared.StreamsDocRaw).Set(ctx, streams)
}

func (a *FirestoreAdapter) CreateFitnessEstimate(ctx context.Context, estimate *types.FitnessEstimate) (string, error) {
	doc := a.storage.FitnessEstimates(estimate.UserID).NewDoc()
	if estimate.CreatedAt.IsZero() {
		estimate.CreatedAt = time.Now()
	}
	if err := doc.Create(ctx, estimate); err != nil {
		return "", err
	}
	estimate.ID = doc.ID()
	return doc.ID(), nil
}
