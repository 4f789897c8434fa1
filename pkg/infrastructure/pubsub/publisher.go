package pubsub

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/cloudevents/sdk-go/v2/event"
)

// PubSubAdapter publishes structured-mode CloudEvents to Google Cloud Pub/Sub.
type PubSubAdapter struct {
	Client *pubsub.Client
}

func (a *PubSubAdapter) PublishCloudEvent(ctx context.Context, topicID string, e event.Event) (string, error) {
	data, err := e.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal cloudevent: %w", err)
	}

	msg := &pubsub.Message{
		Data:       data,
		Attributes: attributes(e),
	}

	topic := a.Client.Topic(topicID)
	res := topic.Publish(ctx, msg)
	return res.Get(ctx)
}

// LogPublisher logs events instead of publishing them, for local development.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p *LogPublisher) PublishCloudEvent(ctx context.Context, topicID string, e event.Event) (string, error) {
	p.Logger.Info("Publish skipped (publishing disabled)",
		"topic", topicID,
		"ce_type", e.Type(),
		"ce_id", e.ID(),
		"data", string(e.Data()),
	)
	return "log-" + e.ID(), nil
}

func attributes(e event.Event) map[string]string {
	attrs := map[string]string{
		AttrCEType:   e.Type(),
		AttrCESource: e.Source(),
		AttrCEID:     e.ID(),
	}
	if uid, ok := e.Extensions()[ExtUserID].(string); ok && uid != "" {
		attrs[AttrUserID] = uid
	}
	return attrs
}
