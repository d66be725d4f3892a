package events

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaNotifier.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier forwards events to Kafka, one broker topic per event topic.
// Messages are keyed by aggregate id so events of one order stay ordered.
type KafkaNotifier struct {
	Writer      MessageWriter
	TopicPrefix string
}

// NewKafkaNotifier builds a notifier writing to brokers. Writes happen inside
// checkout, so each message gets a single attempt and is sent without waiting
// for a batch to fill; a failure surfaces as a notifier error.
func NewKafkaNotifier(brokers []string, topicPrefix string) *KafkaNotifier {
	return &KafkaNotifier{
		Writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			MaxAttempts:            1,
			BatchTimeout:           10 * time.Millisecond,
			WriteTimeout:           5 * time.Second,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		TopicPrefix: topicPrefix,
	}
}

// Notify implements Notifier.
func (n *KafkaNotifier) Notify(ctx context.Context, event Event) error {
	return n.Writer.WriteMessages(ctx, kafka.Message{
		Topic: n.TopicPrefix + event.Topic,
		Key:   []byte(event.AggregateID.String()),
		Value: event.Payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID.String())},
			{Key: "event_topic", Value: []byte(event.Topic)},
		},
	})
}

// Close flushes and closes the writer.
func (n *KafkaNotifier) Close() error {
	return n.Writer.Close()
}
