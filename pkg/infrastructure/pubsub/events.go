package pubsub

import (
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	shared "github.com/fitglue/strava-ingest/pkg"
)

// ActivityIngested is the payload announced after an activity record is created.
type ActivityIngested struct {
	UserID           string    `json:"user_id"`
	ActivityID       string    `json:"activity_id"`
	SourceActivityID int64     `json:"source_activity_id"`
	Source           string    `json:"source"`
	Type             string    `json:"type"`
	TSS              float64   `json:"tss"`
	Date             time.Time `json:"date"`
}

// NewCloudEvent creates a standardized CloudEvent v1.0
func NewCloudEvent(source, eventType string, data interface{}) (cloudevents.Event, error) {
	e := cloudevents.NewEvent()
	e.SetSpecVersion("1.0")
	e.SetID(uuid.NewString())
	e.SetTime(time.Now().UTC())
	e.SetType(eventType)
	e.SetSource(source)

	if err := e.SetData(cloudevents.ApplicationJSON, data); err != nil {
		return e, err
	}

	return e, nil
}

func NewActivityIngestedEvent(payload ActivityIngested) (cloudevents.Event, error) {
	e, err := NewCloudEvent(shared.CloudEventSourceWebhook, shared.CloudEventTypeActivityIngested, payload)
	if err != nil {
		return e, err
	}
	e.SetSubject(payload.UserID + "/" + payload.ActivityID)
	e.SetExtension(ExtUserID, payload.UserID)
	return e, nil
}
