// Package publish emits fired city alerts to Kafka for downstream consumers
// (the push-notification dispatcher lives outside this service and subscribes
// to the alert topic).
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/lmackenzie/smokewatch/internal/models"
)

// AlertWriter publishes CityAlertDecision messages keyed by city.
type AlertWriter struct {
	writer *kafkago.Writer
}

// NewAlertWriter creates a Kafka producer for the alert topic.
func NewAlertWriter(brokers []string, topic string) *AlertWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &AlertWriter{writer: w}
}

// PublishAlerts serializes and publishes the fired decisions from one
// evaluation cycle in a single WriteMessages call. Unfired decisions are
// skipped; downstream consumers only care about alerts.
func (w *AlertWriter) PublishAlerts(ctx context.Context, decisions map[string]models.CityAlertDecision, evaluatedAt time.Time) error {
	var msgs []kafkago.Message
	for _, d := range decisions {
		if !d.AlertFired {
			continue
		}
		msg, err := serializeDecision(d, evaluatedAt)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return nil
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *AlertWriter) Close() error {
	return w.writer.Close()
}

func serializeDecision(d models.CityAlertDecision, evaluatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize decision for %s: %w", d.City, err)
	}
	return kafkago.Message{
		Key:   []byte(d.City),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "rule", Value: []byte(d.TriggeringRule)},
			{Key: "level", Value: []byte(d.LevelName)},
			{Key: "evaluated_at", Value: []byte(evaluatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
