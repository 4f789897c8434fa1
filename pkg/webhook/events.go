package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/gookit/validate"

	"github.com/fitglue/strava-ingest/pkg/framework"
	"github.com/fitglue/strava-ingest/pkg/types"
)

const (
	maxEventBytes = 1 << 20
	ackBody       = "EVENT_RECEIVED"
	taskName      = "strava-activity-event"
)

// ReceiveEvent acknowledges every delivery with 200 EVENT_RECEIVED. Payloads
// that fail to parse or validate are dropped with a warning: an error status
// would only make Strava retry them. Valid activity events are scheduled for
// background processing after the response is written.
func (h *Handler) ReceiveEvent(w http.ResponseWriter, r *http.Request) {
	event, reason := decodeEvent(r)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, ackBody)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	if event == nil {
		h.Logger.Warn("Dropping invalid webhook payload", "reason", reason)
		h.Metrics.IncWebhookEvents("unknown", "unknown", "invalid")
		return
	}

	if !event.IsActivity() {
		h.Logger.Info("Ignoring non-activity event", "object_type", event.ObjectType, "aspect_type", event.AspectType, "owner_id", event.OwnerID)
		h.Metrics.IncWebhookEvents(event.ObjectType, event.AspectType, "ignored")
		return
	}

	h.Metrics.IncWebhookEvents(event.ObjectType, event.AspectType, "accepted")

	// The request context ends with the response; the task must outlive it.
	ctx := context.WithoutCancel(r.Context())
	logger := h.Logger.With("subscription_id", event.SubscriptionID, "event_time", event.EventTime)
	h.Scheduler.Go(ctx, taskName, framework.RunBackground(logger, h.Metrics, taskName,
		func(ctx context.Context, l *slog.Logger) error {
			return h.Processor.Process(ctx, l, event)
		}))
}

// decodeEvent returns nil and a reason when the body is not a valid WebhookEvent.
func decodeEvent(r *http.Request) (*types.WebhookEvent, string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes))
	if err != nil {
		return nil, "read body: " + err.Error()
	}

	var event types.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, "decode: " + err.Error()
	}

	v := validate.Struct(&event)
	if !v.Validate() {
		return nil, "validate: " + v.Errors.One()
	}
	return &event, ""
}
