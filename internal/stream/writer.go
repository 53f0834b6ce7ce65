// Package stream publishes decoded products to Kafka as JSON records keyed
// by product id.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"nws_parser/internal/registry"
)

// MessageWriter is the subset of *kafka.Writer used here.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces decoded records to a Kafka topic.
type Writer struct {
	writer MessageWriter
}

// NewWriter creates a Kafka producer for topic.
func NewWriter(brokers []string, topic string) *Writer {
	return &Writer{writer: &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}}
}

// NewWriterFrom wraps an existing message writer.
func NewWriterFrom(w MessageWriter) *Writer {
	return &Writer{writer: w}
}

// Write serializes and publishes results in a single WriteMessages call.
func (w *Writer) Write(ctx context.Context, results ...registry.Result) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(results))
	for _, res := range results {
		msg, err := toMessage(res)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

// Close flushes and closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

func toMessage(res registry.Result) (kafkago.Message, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s result: %w", res.Type(), err)
	}
	p := res.Base()
	return kafkago.Message{
		Key:   []byte(p.ProductID()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "family", Value: []byte(res.Type())},
			{Key: "afos", Value: []byte(p.AFOS)},
			{Key: "valid", Value: []byte(p.Valid.Format(time.RFC3339))},
		},
	}, nil
}
