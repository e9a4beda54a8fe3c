package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the sender uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSender publishes messages as JSON to a topic consumed by an external
// mail relay. Messages are keyed by the first recipient so one inbox's mail
// stays ordered.
type KafkaSender struct {
	w messageWriter
}

// NewKafkaSender builds a synchronous writer for topic.
func NewKafkaSender(brokers []string, topic string) *KafkaSender {
	return &KafkaSender{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            5,
		AllowAutoTopicCreation: false,
	}}
}

// Send encodes and writes one message.
func (s *KafkaSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("mail.KafkaSender.Send: encode: %w", err)
	}

	var key string
	if len(msg.To) > 0 {
		key = strings.ToLower(msg.To[0].Email)
	}
	err = s.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	})
	if err != nil {
		return fmt.Errorf("mail.KafkaSender.Send: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (s *KafkaSender) Close() error {
	return s.w.Close()
}
