package firestore

import (
	"strconv"

	"cloud.google.com/go/firestore"

	shared "github.com/fitglue/strava-ingest/pkg"
	"github.com/fitglue/strava-ingest/pkg/types"
)

type Client struct {
	fs *firestore.Client
}

func NewClient(client *firestore.Client) *Client {
	return &Client{fs: client}
}

// UserProfiles reads the profile fields stored on the root user document: users/{uid}
func (c *Client) UserProfiles() *Collection[types.UserProfile] {
	return &Collection[types.UserProfile]{
		Ref:           c.fs.Collection(shared.CollectionUsers),
		ToFirestore:   UserProfileToFirestore,
		FromFirestore: FirestoreToUserProfile,
	}
}

// Integrations are sub-collections of Users: users/{uid}/integrations/{provider}
func (c *Client) Integrations(userID string) *Collection[types.Credentials] {
	return &Collection[types.Credentials]{
		Ref:           c.fs.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionIntegrations),
		ToFirestore:   CredentialsToFirestore,
		FromFirestore: FirestoreToCredentials,
	}
}

// StravaAthletes is a top-level collection: strava_athletes/{athleteId}
func (c *Client) StravaAthletes() *Collection[AthleteMapping] {
	return &Collection[AthleteMapping]{
		Ref:           c.fs.Collection(shared.CollectionStravaAthletes),
		ToFirestore:   AthleteMappingToFirestore,
		FromFirestore: FirestoreToAthleteMapping,
	}
}

// AthleteDocID formats an upstream athlete id as a document id.
func AthleteDocID(athleteID int64) string {
	return strconv.FormatInt(athleteID, 10)
}

// Activities are sub-collections of Users: users/{uid}/activities/{id}
func (c *Client) Activities(userID string) *Collection[types.Activity] {
	return &Collection[types.Activity]{
		Ref:           c.fs.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionActivities),
		ToFirestore:   ActivityToFirestore,
		FromFirestore: FirestoreToActivity,
	}
}

// ActivityStreams are sub-collections of Activities: users/{uid}/activities/{id}/streams/{doc}
func (c *Client) ActivityStreams(userID, activityID string) *Collection[types.StreamSet] {
	return &Collection[types.StreamSet]{
		Ref: c.fs.Collection(shared.CollectionUsers).Doc(userID).
			Collection(shared.CollectionActivities).Doc(activityID).
			Collection(shared.CollectionStreams),
		ToFirestore:   StreamSetToFirestore,
		FromFirestore: FirestoreToStreamSet,
	}
}

// FitnessEstimates are sub-collections of Users: users/{uid}/fitness_estimates/{id}
func (c *Client) FitnessEstimates(userID string) *Collection[types.FitnessEstimate] {
	return &Collection[types.FitnessEstimate]{
		Ref:           c.fs.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionFitnessEstimates),
		ToFirestore:   FitnessEstimateToFirestore,
		FromFirestore: FirestoreToFitnessEstimate,
	}
}
