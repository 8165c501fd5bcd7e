package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"auction-engine/utils"
)

// Message is the JSON payload published on the notifications topic. The
// downstream delivery channel (mail, push) consumes it.
type Message struct {
	UserID   string         `json:"user_id"`
	Kind     Kind           `json:"kind"`
	Fields   map[string]any `json:"fields,omitempty"`
	TsUnixMs int64          `json:"ts_unix_ms"`
}

// KafkaNotifier publishes notifications to a Kafka topic. Publish errors
// are logged and swallowed; the caller never sees them.
type KafkaNotifier struct {
	writer *kafka.Writer
}

// NewKafkaNotifier creates a notifier publishing to the given brokers/topic
func NewKafkaNotifier(brokers, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(brokers, ",")...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Notify publishes the notification message
func (n *KafkaNotifier) Notify(ctx context.Context, userID string, kind Kind, fields map[string]any) {
	msg := Message{
		UserID:   userID,
		Kind:     kind,
		Fields:   fields,
		TsUnixMs: time.Now().UnixMilli(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		utils.Error("notification marshal failed", map[string]any{"user_id": userID, "kind": string(kind), "error": err.Error()})
		return
	}

	if err := n.writer.WriteMessages(ctx, kafka.Message{Key: []byte(userID), Value: payload}); err != nil {
		utils.Error("notification publish failed", map[string]any{"user_id": userID, "kind": string(kind), "error": err.Error()})
	}
}

// Close flushes and closes the underlying writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
