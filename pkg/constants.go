package shared

const (
	ProjectID = "fitglue-project" // Can be overridden by env var in main if needed

	TopicActivityIngested = "topic-activity-ingested"

	CloudEventSourceWebhook        = "/strava/webhook"
	CloudEventTypeActivityIngested = "com.fitglue.activity.ingested"

	CollectionUsers            = "users"
	CollectionStravaAthletes   = "strava_athletes"
	CollectionIntegrations     = "integrations"
	CollectionActivities       = "activities"
	CollectionStreams          = "streams"
	CollectionFitnessEstimates = "fitness_estimates"

	// IntegrationStrava is the document id under users/{uid}/integrations.
	IntegrationStrava = "strava"
	// StreamsDocRaw is the document id under users/{uid}/activities/{id}/streams.
	StreamsDocRaw = "raw"
)
