package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shared "github.com/fitglue/strava-ingest/pkg"
	"github.com/fitglue/strava-ingest/pkg/identity"
	httputil "github.com/fitglue/strava-ingest/pkg/infrastructure/http"
	"github.com/fitglue/strava-ingest/pkg/infrastructure/metrics"
	"github.com/fitglue/strava-ingest/pkg/infrastructure/oauth"
	"github.com/fitglue/strava-ingest/pkg/infrastructure/pubsub"
	"github.com/fitglue/strava-ingest/pkg/integrations/strava"
	"github.com/fitglue/strava-ingest/pkg/testing/mocks"
	"github.com/fitglue/strava-ingest/pkg/types"
)

const (
	testAthlete  = int64(5001)
	testUser     = "user-1"
	testActivity = int64(90001)
)

type harness struct {
	journal   *journal
	store     *fakeStore
	upstream  *mocks.MockStrava
	published []event.Event
	orch      *Orchestrator
}

func rideActivity(id int64) *strava.Activity {
	return &strava.Activity{
		ID:                   id,
		Name:                 "Lunch Ride",
		Type:                 "Ride",
		SportType:            "Ride",
		StartDate:            time.Date(2024, 4, 10, 11, 0, 0, 0, time.UTC),
		StartDateLocal:       time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC),
		MovingTime:           3600,
		ElapsedTime:          3800,
		AverageWatts:         180,
		WeightedAverageWatts: 200,
		MaxWatts:             600,
		AverageHeartrate:     140,
		MaxHeartrate:         170,
	}
}

func newHarness(t *testing.T, clientID, clientSecret string) *harness {
	t.Helper()
	h := &harness{journal: &journal{}}
	h.store = newFakeStore(h.journal)
	h.store.athletes[testAthlete] = testUser
	h.store.creds[testUser] = &types.Credentials{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		AthleteID:    testAthlete,
	}

	h.upstream = &mocks.MockStrava{
		GetActivityFunc: func(ctx context.Context, accessToken string, activityID int64) (*strava.Activity, error) {
			h.journal.add("GetActivity")
			return rideActivity(activityID), nil
		},
		GetStreamsFunc: func(ctx context.Context, accessToken string, activityID int64) (*strava.Streams, error) {
			h.journal.add("GetStreams")
			return &strava.Streams{}, nil
		},
		RefreshTokenFunc: func(ctx context.Context, id, secret, refreshToken string) (*types.Credentials, error) {
			h.journal.add("RefreshToken")
			return &types.Credentials{
				AccessToken:  "access-2",
				RefreshToken: "refresh-2",
				ExpiresAt:    time.Now().Add(6 * time.Hour).Unix(),
			}, nil
		},
	}

	var pubMu sync.Mutex
	publisher := &mocks.MockPublisher{
		PublishCloudEventFunc: func(ctx context.Context, topic string, e event.Event) (string, error) {
			assert.Equal(t, shared.TopicActivityIngested, topic)
			pubMu.Lock()
			defer pubMu.Unlock()
			h.published = append(h.published, e)
			return "msg-1", nil
		},
	}

	db := h.store.mock()
	rec := metrics.New(false)
	logger := slog.Default()

	h.orch = NewOrchestrator(Deps{
		DB:        db,
		Identity:  identity.NewResolver(db, 0, 0, rec, logger),
		Tokens:    oauth.NewStoreTokenSource(db, h.upstream, clientID, clientSecret, logger),
		Upstream:  h.upstream,
		Enricher:  NewEnricher(db, h.upstream, nil, "", rec),
		Publisher: publisher,
		Metrics:   rec,
	})
	return h
}

func activityEvent(aspect string) *types.WebhookEvent {
	return &types.WebhookEvent{
		AspectType: aspect,
		ObjectType: types.ObjectActivity,
		ObjectID:   testActivity,
		OwnerID:    testAthlete,
		EventTime:  time.Now().Unix(),
	}
}

func (h *harness) process(t *testing.T, aspect string) error {
	t.Helper()
	return h.orch.Process(context.Background(), slog.Default(), activityEvent(aspect))
}

func TestProcess_Create(t *testing.T) {
	h := newHarness(t, "id", "secret")

	require.NoError(t, h.process(t, types.AspectCreate))

	got := h.store.activitiesFor(testUser, testActivity)
	require.Len(t, got, 1)
	a := got[0]
	assert.Equal(t, "Ride", a.Type)
	assert.Equal(t, types.SourceStrava, a.Source)
	assert.Equal(t, 60, a.DurationMinutes)
	// No profile: default FTP of 200 gives IF 1.0 and TSS 100.
	assert.Equal(t, 1.0, a.IntensityFactor)
	assert.Equal(t, 100.0, a.TSS)

	require.Len(t, h.published, 1)
	var payload pubsub.ActivityIngested
	require.NoError(t, h.published[0].DataAs(&payload))
	assert.Equal(t, a.ID, payload.ActivityID)
	assert.Equal(t, testActivity, payload.SourceActivityID)
}

func TestProcess_CreateUsesProfileFTP(t *testing.T) {
	h := newHarness(t, "id", "secret")
	h.store.profiles[testUser] = &types.UserProfile{FTP: 250}

	require.NoError(t, h.process(t, types.AspectCreate))

	got := h.store.activitiesFor(testUser, testActivity)
	require.Len(t, got, 1)
	assert.Equal(t, 0.8, got[0].IntensityFactor)
	assert.Equal(t, 64.0, got[0].TSS)
}

func TestProcess_IdempotentCreate(t *testing.T) {
	h := newHarness(t, "id", "secret")

	require.NoError(t, h.process(t, types.AspectCreate))
	require.NoError(t, h.process(t, types.AspectCreate))

	assert.Len(t, h.store.activitiesFor(testUser, testActivity), 1)
	assert.Equal(t, 1, h.journal.count("CreateActivity"))
	assert.Equal(t, 1, h.journal.count("GetActivity"))
}

func TestProcess_TypeFilter(t *testing.T) {
	h := newHarness(t, "id", "secret")
	h.upstream.GetActivityFunc = func(ctx context.Context, accessToken string, activityID int64) (*strava.Activity, error) {
		a := rideActivity(activityID)
		a.Type = "Run"
		a.SportType = "TrailRun"
		return a, nil
	}

	require.NoError(t, h.process(t, types.AspectCreate))

	assert.Empty(t, h.store.activitiesFor(testUser, testActivity))
	assert.Zero(t, h.journal.count("CreateActivity"))
	assert.Empty(t, h.published)
}

func TestProcess_UpstreamNotFound(t *testing.T) {
	h := newHarness(t, "id", "secret")
	h.upstream.GetActivityFunc = func(ctx context.Context, accessToken string, activityID int64) (*strava.Activity, error) {
		return nil, fmt.Errorf("get activity %d: %w", activityID, &httputil.HTTPError{StatusCode: http.StatusNotFound})
	}

	require.NoError(t, h.process(t, types.AspectCreate))
	assert.Zero(t, h.journal.count("CreateActivity"))
	assert.Empty(t, h.published)

	h.upstream.GetActivityFunc = func(ctx context.Context, accessToken string, activityID int64) (*strava.Activity, error) {
		return nil, &httputil.HTTPError{StatusCode: http.StatusInternalServerError}
	}
	assert.Error(t, h.process(t, types.AspectCreate))
}

func TestProcess_TokenRefreshGate(t *testing.T) {
	t.Run("expired token is refreshed once before fetch", func(t *testing.T) {
		h := newHarness(t, "id", "secret")
		h.store.creds[testUser].ExpiresAt = time.Now().Add(-time.Minute).Unix()

		var usedToken string
		h.upstream.GetActivityFunc = func(ctx context.Context, accessToken string, activityID int64) (*strava.Activity, error) {
			h.journal.add("GetActivity")
			usedToken = accessToken
			return rideActivity(activityID), nil
		}

		require.NoError(t, h.process(t, types.AspectCreate))

		assert.Equal(t, 1, h.journal.count("RefreshToken"))
		assert.Equal(t, "access-2", usedToken)

		seq := h.journal.sequence()
		assert.Less(t, indexOf(seq, "RefreshToken"), indexOf(seq, "GetActivity"))
		assert.Less(t, indexOf(seq, "SetCredentials"), indexOf(seq, "GetActivity"))

		stored := h.store.creds[testUser]
		assert.Equal(t, "refresh-2", stored.RefreshToken)
		assert.Equal(t, testAthlete, stored.AthleteID)
	})

	t.Run("fresh token is never refreshed", func(t *testing.T) {
		h := newHarness(t, "id", "secret")

		require.NoError(t, h.process(t, types.AspectCreate))

		assert.Zero(t, h.journal.count("RefreshToken"))
		assert.Zero(t, h.journal.count("SetCredentials"))
	})
}

func TestProcess_ClientNotConfigured(t *testing.T) {
	h := newHarness(t, "", "")
	h.store.creds[testUser].ExpiresAt = time.Now().Add(-time.Minute).Unix()

	require.NoError(t, h.process(t, types.AspectCreate))

	assert.Zero(t, h.journal.count("RefreshToken"))
	assert.Zero(t, h.journal.count("GetActivity"))
	assert.Zero(t, h.journal.count("CreateActivity"))
}

func TestProcess_MissingCredentials(t *testing.T) {
	h := newHarness(t, "id", "secret")
	delete(h.store.creds, testUser)

	require.NoError(t, h.process(t, types.AspectCreate))

	assert.Zero(t, h.journal.count("GetActivity"))
	assert.Zero(t, h.journal.count("CreateActivity"))
}

func TestProcess_DeleteTolerance(t *testing.T) {
	h := newHarness(t, "id", "secret")

	require.NoError(t, h.process(t, types.AspectDelete))

	assert.Equal(t, []string{"GetAthleteUser", "FindActivityBySource"}, h.journal.sequence())
}

func TestProcess_Delete(t *testing.T) {
	h := newHarness(t, "id", "secret")
	require.NoError(t, h.process(t, types.AspectCreate))
	require.Len(t, h.store.activitiesFor(testUser, testActivity), 1)

	require.NoError(t, h.process(t, types.AspectDelete))

	assert.Empty(t, h.store.activitiesFor(testUser, testActivity))
	assert.Equal(t, 1, h.journal.count("DeleteActivity"))
}

func TestProcess_UpdateReplaces(t *testing.T) {
	h := newHarness(t, "id", "secret")
	require.NoError(t, h.process(t, types.AspectCreate))
	original := h.store.activitiesFor(testUser, testActivity)[0].ID

	h.journal.calls = nil
	require.NoError(t, h.process(t, types.AspectUpdate))

	assert.Equal(t, 1, h.journal.count("DeleteActivity"))
	assert.Equal(t, 1, h.journal.count("CreateActivity"))
	seq := h.journal.sequence()
	assert.Less(t, indexOf(seq, "DeleteActivity"), indexOf(seq, "CreateActivity"))

	got := h.store.activitiesFor(testUser, testActivity)
	require.Len(t, got, 1)
	assert.NotEqual(t, original, got[0].ID)
}

func TestProcess_UpdateWithoutExisting(t *testing.T) {
	h := newHarness(t, "id", "secret")

	require.NoError(t, h.process(t, types.AspectUpdate))

	assert.Zero(t, h.journal.count("DeleteActivity"))
	assert.Len(t, h.store.activitiesFor(testUser, testActivity), 1)
}

func TestProcess_ConcurrentUpdatesSerialized(t *testing.T) {
	h := newHarness(t, "id", "secret")
	require.NoError(t, h.process(t, types.AspectCreate))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.process(t, types.AspectUpdate))
		}()
	}
	wg.Wait()

	assert.Len(t, h.store.activitiesFor(testUser, testActivity), 1)
	assert.Zero(t, h.orch.locks.size())
}

func TestProcess_EnrichmentIsolation(t *testing.T) {
	h := newHarness(t, "id", "secret")
	h.upstream.GetStreamsFunc = func(ctx context.Context, accessToken string, activityID int64) (*strava.Streams, error) {
		return nil, errors.New("streams unavailable")
	}

	require.NoError(t, h.process(t, types.AspectCreate))

	got := h.store.activitiesFor(testUser, testActivity)
	require.Len(t, got, 1)
	assert.Equal(t, 100.0, got[0].TSS)
	assert.Nil(t, got[0].Peak5MinPower)
	assert.Zero(t, h.journal.count("UpdateActivity"))
}

func TestProcess_UnresolvableIdentity(t *testing.T) {
	h := newHarness(t, "id", "secret")
	delete(h.store.athletes, testAthlete)

	require.NoError(t, h.process(t, types.AspectCreate))
	require.NoError(t, h.process(t, types.AspectUpdate))
	require.NoError(t, h.process(t, types.AspectDelete))

	assert.Equal(t, []string{"GetAthleteUser", "GetAthleteUser", "GetAthleteUser"}, h.journal.sequence())
}

func TestProcess_UpstreamFailurePropagates(t *testing.T) {
	h := newHarness(t, "id", "secret")
	h.upstream.GetActivityFunc = func(ctx context.Context, accessToken string, activityID int64) (*strava.Activity, error) {
		return nil, errors.New("502 bad gateway")
	}

	err := h.process(t, types.AspectCreate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch activity")
	assert.Empty(t, h.store.activitiesFor(testUser, testActivity))
}

func TestProcess_PublishFailureIgnored(t *testing.T) {
	h := newHarness(t, "id", "secret")
	h.orch.publisher = &mocks.MockPublisher{
		PublishCloudEventFunc: func(ctx context.Context, topic string, e event.Event) (string, error) {
			return "", errors.New("pubsub down")
		},
	}

	require.NoError(t, h.process(t, types.AspectCreate))
	assert.Len(t, h.store.activitiesFor(testUser, testActivity), 1)
}

func TestKeyLock(t *testing.T) {
	k := newKeyLock()
	unlockA := k.Lock("a")

	acquired := make(chan struct{})
	go func() {
		unlock := k.Lock("a")
		close(acquired)
		unlock()
	}()

	// Other keys are independent.
	unlockB := k.Lock("b")
	unlockB()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a locked key")
	case <-time.After(20 * time.Millisecond):
	}

	unlockA()
	<-acquired

	assert.Eventually(t, func() bool { return k.size() == 0 }, time.Second, time.Millisecond)
}

func indexOf(seq []string, call string) int {
	for i, c := range seq {
		if c == call {
			return i
		}
	}
	return -1
}
