package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/roach88/heaplab/internal/ir"
)

// DefaultKafkaTopic is the topic transitions are published to.
const DefaultKafkaTopic = "heaplab.transitions"

// messageWriter is the subset of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes every delivery as a JSON message keyed by run id, so
// one run's messages stay on one partition in order.
type KafkaSink struct {
	writer messageWriter
}

// NewKafkaSink creates a sink that writes to topic on brokers.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{writer: newKafkaWriter(brokers, topic)}
}

// newKafkaWriter sends each message as its own batch. The async queue
// delivers one message per call, so kafka-go's default batching would hold
// every write for BatchTimeout.
func newKafkaWriter(brokers []string, topic string) *kafka.Writer {
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
	}
}

// kafkaEnvelope tags each message with its kind.
type kafkaEnvelope struct {
	Kind       string         `json:"kind"`
	Run        *ir.Run        `json:"run,omitempty"`
	Transition *ir.Transition `json:"transition,omitempty"`
	Completion *ir.Completion `json:"completion,omitempty"`
}

func (k *KafkaSink) StartRun(ctx context.Context, run ir.Run) error {
	return k.publish(ctx, run.ID, kafkaEnvelope{Kind: "run", Run: &run})
}

func (k *KafkaSink) Record(ctx context.Context, t ir.Transition) error {
	return k.publish(ctx, t.RunID, kafkaEnvelope{Kind: "transition", Transition: &t})
}

func (k *KafkaSink) Complete(ctx context.Context, c ir.Completion) error {
	return k.publish(ctx, c.RunID, kafkaEnvelope{Kind: "completion", Completion: &c})
}

func (k *KafkaSink) publish(ctx context.Context, key string, env kafkaEnvelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("kafka sink: encode %s: %w", env.Kind, err)
	}
	msg := kafka.Message{Key: []byte(key), Value: value}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka sink: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
