package mocks

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/fitglue/strava-ingest/pkg/integrations/strava"
	"github.com/fitglue/strava-ingest/pkg/types"
)

// --- Mock Database ---
// Unset getters behave like an empty store: nil value, nil error.
type MockDatabase struct {
	GetCredentialsFunc        func(ctx context.Context, userID string) (*types.Credentials, error)
	SetCredentialsFunc        func(ctx context.Context, userID string, creds *types.Credentials) error
	GetAthleteUserFunc        func(ctx context.Context, athleteID int64) (string, error)
	SetAthleteUserFunc        func(ctx context.Context, athleteID int64, userID string) error
	GetUserProfileFunc        func(ctx context.Context, userID string) (*types.UserProfile, error)
	FindActivityBySourceFunc  func(ctx context.Context, userID string, sourceActivityID int64) (*types.Activity, error)
	CreateActivityFunc        func(ctx context.Context, activity *types.Activity) (string, error)
	UpdateActivityFunc        func(ctx context.Context, userID, activityID string, patch types.ActivityPatch) error
	DeleteActivityFunc        func(ctx context.Context, userID, activityID string) error
	SetStreamsFunc            func(ctx context.Context, userID, activityID string, streams *types.StreamSet) error
	CreateFitnessEstimateFunc func(ctx context.Context, estimate *types.FitnessEstimate) (string, error)
}

func (m *MockDatabase) GetCredentials(ctx context.Context, userID string) (*types.Credentials, error) {
	if m.GetCredentialsFunc != nil {
		return m.GetCredentialsFunc(ctx, userID)
	}
	return nil, nil
}
func (m *MockDatabase) SetCredentials(ctx context.Context, userID string, creds *types.Credentials) error {
	if m.SetCredentialsFunc != nil {
		return m.SetCredentialsFunc(ctx, userID, creds)
	}
	return nil
}
func (m *MockDatabase) GetAthleteUser(ctx context.Context, athleteID int64) (string, error) {
	if m.GetAthleteUserFunc != nil {
		return m.GetAthleteUserFunc(ctx, athleteID)
	}
	return "", nil
}
func (m *MockDatabase) SetAthleteUser(ctx context.Context, athleteID int64, userID string) error {
	if m.SetAthleteUserFunc != nil {
		return m.SetAthleteUserFunc(ctx, athleteID, userID)
	}
	return nil
}
func (m *MockDatabase) GetUserProfile(ctx context.Context, userID string) (*types.UserProfile, error) {
	if m.GetUserProfileFunc != nil {
		return m.GetUserProfileFunc(ctx, userID)
	}
	return nil, nil
}
func (m *MockDatabase) FindActivityBySource(ctx context.Context, userID string, sourceActivityID int64) (*types.Activity, error) {
	if m.FindActivityBySourceFunc != nil {
		return m.FindActivityBySourceFunc(ctx, userID, sourceActivityID)
	}
	return nil, nil
}
func (m *MockDatabase) CreateActivity(ctx context.Context, activity *types.Activity) (string, error) {
	if m.CreateActivityFunc != nil {
		return m.CreateActivityFunc(ctx, activity)
	}
	return "mock-activity-id", nil
}
func (m *MockDatabase) UpdateActivity(ctx context.Context, userID, activityID string, patch types.ActivityPatch) error {
	if m.UpdateActivityFunc != nil {
		return m.UpdateActivityFunc(ctx, userID, activityID, patch)
	}
	return nil
}
func (m *MockDatabase) DeleteActivity(ctx context.Context, userID, activityID string) error {
	if m.DeleteActivityFunc != nil {
		return m.DeleteActivityFunc(ctx, userID, activityID)
	}
	return nil
}
func (m *MockDatabase) SetStreams(ctx context.Context, userID, activityID string, streams *types.StreamSet) error {
	if m.SetStreamsFunc != nil {
		return m.SetStreamsFunc(ctx, userID, activityID, streams)
	}
	return nil
}
func (m *MockDatabase) CreateFitnessEstimate(ctx context.Context, estimate *types.FitnessEstimate) (string, error) {
	if m.CreateFitnessEstimateFunc != nil {
		return m.CreateFitnessEstimateFunc(ctx, estimate)
	}
	return "mock-estimate-id", nil
}

// --- Mock Strava ---
type MockStrava struct {
	GetActivityFunc  func(ctx context.Context, accessToken string, activityID int64) (*strava.Activity, error)
	GetStreamsFunc   func(ctx context.Context, accessToken string, activityID int64) (*strava.Streams, error)
	RefreshTokenFunc func(ctx context.Context, clientID, clientSecret, refreshToken string) (*types.Credentials, error)
}

func (m *MockStrava) GetActivity(ctx context.Context, accessToken string, activityID int64) (*strava.Activity, error) {
	if m.GetActivityFunc != nil {
		return m.GetActivityFunc(ctx, accessToken, activityID)
	}
	return nil, fmt.Errorf("activity %d not found", activityID)
}
func (m *MockStrava) GetStreams(ctx context.Context, accessToken string, activityID int64) (*strava.Streams, error) {
	if m.GetStreamsFunc != nil {
		return m.GetStreamsFunc(ctx, accessToken, activityID)
	}
	return &strava.Streams{}, nil
}
func (m *MockStrava) RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*types.Credentials, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, clientID, clientSecret, refreshToken)
	}
	return nil, fmt.Errorf("refresh not mocked")
}

// --- Mock Publisher ---
type MockPublisher struct {
	PublishCloudEventFunc func(ctx context.Context, topic string, e event.Event) (string, error)
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	if m.PublishCloudEventFunc != nil {
		return m.PublishCloudEventFunc(ctx, topic, e)
	}
	return "msg-id", nil
}

// --- Mock Storage ---
type MockBlobStore struct {
	WriteFunc func(ctx context.Context, bucket, object string, data []byte) error
}

func (m *MockBlobStore) Write(ctx context.Context, bucket, object string, data []byte) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, bucket, object, data)
	}
	return nil
}

// --- Mock Auth ---
type MockTokenVerifier struct {
	VerifyIDTokenFunc func(ctx context.Context, idToken string) (*auth.Token, error)
}

func (m *MockTokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if m.VerifyIDTokenFunc != nil {
		return m.VerifyIDTokenFunc(ctx, idToken)
	}
	return nil, fmt.Errorf("invalid id token")
}
