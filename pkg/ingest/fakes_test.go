package ingest

import (
	"context"
	"fmt"
	"sync"

	shared "github.com/fitglue/strava-ingest/pkg"
	"github.com/fitglue/strava-ingest/pkg/testing/mocks"
	"github.com/fitglue/strava-ingest/pkg/types"
)

// fakeStore is an in-memory database behind the function-field mock. It
// records every call in order so tests can assert on call sequences.
type fakeStore struct {
	mu         sync.Mutex
	athletes   map[int64]string
	creds      map[string]*types.Credentials
	profiles   map[string]*types.UserProfile
	activities map[string]*types.Activity
	streams    map[string]*types.StreamSet
	estimates  []*types.FitnessEstimate
	nextID     int

	journal *journal
}

type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(call string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, call)
}

func (j *journal) count(call string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, c := range j.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (j *journal) sequence() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

func newFakeStore(j *journal) *fakeStore {
	return &fakeStore{
		athletes:   map[int64]string{},
		creds:      map[string]*types.Credentials{},
		profiles:   map[string]*types.UserProfile{},
		activities: map[string]*types.Activity{},
		streams:    map[string]*types.StreamSet{},
		journal:    j,
	}
}

func (f *fakeStore) activitiesFor(userID string, sourceID int64) []*types.Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Activity
	for _, a := range f.activities {
		if a.UserID == userID && a.SourceActivityID == sourceID {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeStore) mock() *mocks.MockDatabase {
	return &mocks.MockDatabase{
		GetAthleteUserFunc: func(ctx context.Context, athleteID int64) (string, error) {
			f.journal.add("GetAthleteUser")
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.athletes[athleteID], nil
		},
		GetCredentialsFunc: func(ctx context.Context, userID string) (*types.Credentials, error) {
			f.journal.add("GetCredentials")
			f.mu.Lock()
			defer f.mu.Unlock()
			c, ok := f.creds[userID]
			if !ok {
				return nil, nil
			}
			cp := *c
			return &cp, nil
		},
		SetCredentialsFunc: func(ctx context.Context, userID string, creds *types.Credentials) error {
			f.journal.add("SetCredentials")
			f.mu.Lock()
			defer f.mu.Unlock()
			f.creds[userID] = creds
			return nil
		},
		GetUserProfileFunc: func(ctx context.Context, userID string) (*types.UserProfile, error) {
			f.journal.add("GetUserProfile")
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.profiles[userID], nil
		},
		FindActivityBySourceFunc: func(ctx context.Context, userID string, sourceActivityID int64) (*types.Activity, error) {
			f.journal.add("FindActivityBySource")
			f.mu.Lock()
			defer f.mu.Unlock()
			for _, a := range f.activities {
				if a.UserID == userID && a.SourceActivityID == sourceActivityID {
					return a, nil
				}
			}
			return nil, nil
		},
		CreateActivityFunc: func(ctx context.Context, activity *types.Activity) (string, error) {
			f.journal.add("CreateActivity")
			f.mu.Lock()
			defer f.mu.Unlock()
			f.nextID++
			id := fmt.Sprintf("act-%d", f.nextID)
			cp := *activity
			cp.ID = id
			f.activities[id] = &cp
			return id, nil
		},
		UpdateActivityFunc: func(ctx context.Context, userID, activityID string, patch types.ActivityPatch) error {
			f.journal.add("UpdateActivity")
			f.mu.Lock()
			defer f.mu.Unlock()
			a, ok := f.activities[activityID]
			if !ok {
				return fmt.Errorf("update activity %s: %w", activityID, shared.ErrActivityNotFound)
			}
			if patch.Peak5MinPower != nil {
				a.Peak5MinPower = patch.Peak5MinPower
			}
			if patch.Peak20MinPower != nil {
				a.Peak20MinPower = patch.Peak20MinPower
			}
			if patch.HRCompleteness != nil {
				a.HRCompleteness = patch.HRCompleteness
			}
			return nil
		},
		DeleteActivityFunc: func(ctx context.Context, userID, activityID string) error {
			f.journal.add("DeleteActivity")
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.activities, activityID)
			delete(f.streams, activityID)
			return nil
		},
		SetStreamsFunc: func(ctx context.Context, userID, activityID string, streams *types.StreamSet) error {
			f.journal.add("SetStreams")
			f.mu.Lock()
			defer f.mu.Unlock()
			f.streams[activityID] = streams
			return nil
		},
		CreateFitnessEstimateFunc: func(ctx context.Context, estimate *types.FitnessEstimate) (string, error) {
			f.journal.add("CreateFitnessEstimate")
			f.mu.Lock()
			defer f.mu.Unlock()
			f.estimates = append(f.estimates, estimate)
			return fmt.Sprintf("est-%d", len(f.estimates)), nil
		},
	}
}
