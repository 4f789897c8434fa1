package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitglue/strava-ingest/pkg/integrations/strava"
	"github.com/fitglue/strava-ingest/pkg/testing/mocks"
	"github.com/fitglue/strava-ingest/pkg/types"
)

// TestWire_EndToEnd drives a webhook delivery through the wired pipeline
// against a fake Strava API and an in-memory store.
func TestWire_EndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/activities/4242", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer live-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":4242,"name":"Evening Ride","type":"Ride","sport_type":"Ride",
			"start_date_local":"2024-05-01T18:00:00Z","moving_time":1800,
			"average_watts":190,"weighted_average_watts":200}`))
	})
	mux.HandleFunc("/api/v3/activities/4242/streams", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"heartrate":{"data":[120,0,130,140]},"time":{"data":[0,1,2,3]}}`))
	})
	upstream := httptest.NewServer(mux)
	defer upstream.Close()

	var mu sync.Mutex
	var created []*types.Activity
	var patches []types.ActivityPatch
	db := &mocks.MockDatabase{
		GetAthleteUserFunc: func(ctx context.Context, athleteID int64) (string, error) {
			if athleteID == 99 {
				return "user-99", nil
			}
			return "", nil
		},
		GetCredentialsFunc: func(ctx context.Context, userID string) (*types.Credentials, error) {
			return &types.Credentials{
				AccessToken:  "live-token",
				RefreshToken: "r",
				ExpiresAt:    time.Now().Add(time.Hour).Unix(),
				AthleteID:    99,
			}, nil
		},
		CreateActivityFunc: func(ctx context.Context, activity *types.Activity) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			created = append(created, activity)
			return "act-1", nil
		},
		UpdateActivityFunc: func(ctx context.Context, userID, activityID string, patch types.ActivityPatch) error {
			mu.Lock()
			defer mu.Unlock()
			patches = append(patches, patch)
			return nil
		},
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	cfg.StravaVerifyToken = "verify"
	cfg.EnableMetrics = false

	svc := Wire(cfg, slog.Default(), Clients{
		DB:       db,
		Pub:      &mocks.MockPublisher{},
		Auth:     &mocks.MockTokenVerifier{},
		Upstream: strava.NewClient(strava.WithBaseURL(upstream.URL)),
	})

	rec := httptest.NewRecorder()
	svc.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(
		`{"aspect_type":"create","object_type":"activity","object_id":4242,"owner_id":99,"event_time":1714586400}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "EVENT_RECEIVED", rec.Body.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))

	require.Len(t, created, 1)
	assert.Equal(t, int64(4242), created[0].SourceActivityID)
	assert.Equal(t, "user-99", created[0].UserID)
	assert.Equal(t, 30, created[0].DurationMinutes)
	assert.Equal(t, 50.0, created[0].TSS)

	require.Len(t, patches, 1)
	require.NotNil(t, patches[0].HRCompleteness)
	assert.Equal(t, 0.75, *patches[0].HRCompleteness)
}

func TestWire_Handshake(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	cfg.StravaVerifyToken = "verify"
	cfg.EnableMetrics = false

	svc := Wire(cfg, slog.Default(), Clients{DB: &mocks.MockDatabase{}, Pub: &mocks.MockPublisher{}, Auth: &mocks.MockTokenVerifier{}})

	rec := httptest.NewRecorder()
	svc.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify&hub.challenge=xyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"hub.challenge":"xyz"}`, rec.Body.String())
}
