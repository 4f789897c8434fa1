package types

// Webhook aspect and object types as sent by Strava.
const (
	AspectCreate = "create"
	AspectUpdate = "update"
	AspectDelete = "delete"

	ObjectActivity = "activity"
	ObjectAthlete  = "athlete"
)

// WebhookEvent is a single Strava push subscription event.
// It is request-scoped and never persisted.
type WebhookEvent struct {
	AspectType     string `json:"aspect_type" validate:"required|in:create,update,delete"`
	ObjectType     string `json:"object_type" validate:"required|in:activity,athlete"`
	ObjectID       int64  `json:"object_id" validate:"required|min:1"`
	OwnerID        int64  `json:"owner_id" validate:"required|min:1"`
	EventTime      int64  `json:"event_time" validate:"required|min:1"`
	SubscriptionID int64  `json:"subscription_id,omitempty"`

	// Updates values are mostly strings but not always ("private": true).
	Updates map[string]interface{} `json:"updates,omitempty"`
}

// IsActivity reports whether the event concerns an activity object.
func (e *WebhookEvent) IsActivity() bool {
	return e.ObjectType == ObjectActivity
}
