package changefeed

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"
)

// EventHandler receives decoded change events.
type EventHandler func(ctx context.Context, ev Event)

// Consumer tails the change-feed topic and hands decoded events to a handler.
// It starts at the latest offset: the feed signals staleness, so changes from
// before this process started are already covered by the startup cache check.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})
	return &Consumer{reader: reader}
}

// Consume blocks delivering events until ctx is cancelled. Undecodable
// messages are logged and skipped.
func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("[Feed] Error reading message: %v", err)
				continue
			}

			var ev Event
			if err := json.Unmarshal(msg.Value, &ev); err != nil {
				log.Printf("[Feed] Skipping undecodable message: %v", err)
				continue
			}
			handler(ctx, ev)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
