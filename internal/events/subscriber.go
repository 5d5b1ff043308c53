package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// LogEvents subscribes to the given event types and writes one log line per
// event. It is used with the in-memory driver so that events are visible
// without a broker. Payloads are not logged.
func LogEvents(ctx context.Context, sub message.Subscriber, topicPrefix string, logger *slog.Logger, types ...EventType) error {
	for _, t := range types {
		messages, err := sub.Subscribe(ctx, topicPrefix+string(t))
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", t, err)
		}
		go func() {
			for msg := range messages {
				event, _, err := DecodeEvent(msg)
				if err != nil {
					logger.Warn("Dropping undecodable event", "uuid", msg.UUID, "error", err)
					msg.Ack()
					continue
				}
				logger.Info("Event published",
					"event_id", event.ID,
					"event_type", event.Type,
					"timestamp", event.Timestamp,
				)
				msg.Ack()
			}
		}()
	}
	return nil
}
