package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// dispatchTimeout bounds one queued write. ShutdownDrainDuration must not be shorter.
const dispatchTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait before closing the dispatcher so in-flight writes can finish.
const ShutdownDrainDuration = dispatchTimeout

// KafkaDispatcher queues notifications on a Kafka topic for the notification worker.
type KafkaDispatcher struct {
	writer *kafka.Writer
}

// NewKafkaDispatcher returns a dispatcher writing to topic, or nil when brokers or topic are empty.
// Call Close when shutting down.
func NewKafkaDispatcher(brokers []string, topic string) *KafkaDispatcher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &KafkaDispatcher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}}
}

// Dispatch writes n in a goroutine with its own timeout, so request cancellation does not abort the write.
// Failures are logged.
func (d *KafkaDispatcher) Dispatch(_ context.Context, n Notification) {
	if d == nil || d.writer == nil {
		return
	}
	msg, err := EncodeMessage(n)
	if err != nil {
		log.Printf("notify: encode %s notification failed: %v", n.Kind, err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if err := d.writer.WriteMessages(ctx, msg); err != nil {
			log.Printf("notify: kafka dispatch failed: %v", err)
		}
	}()
}

// Close closes the Kafka writer. Safe to call on nil.
func (d *KafkaDispatcher) Close() error {
	if d == nil || d.writer == nil {
		return nil
	}
	return d.writer.Close()
}

// EncodeMessage builds the Kafka message for n, keyed by account so one account's messages stay ordered.
func EncodeMessage(n Notification) (kafka.Message, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{Key: []byte(n.AccountID), Value: payload}, nil
}

// DecodeMessage is the inverse of EncodeMessage.
func DecodeMessage(msg kafka.Message) (Notification, error) {
	var n Notification
	err := json.Unmarshal(msg.Value, &n)
	return n, err
}
