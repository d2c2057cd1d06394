// Package kafka publishes aggregated weather alert results to a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/work-order-weather-service/internal/config"
	"github.com/couchcryptid/work-order-weather-service/internal/domain"
)

// batchTimeout is short because each batch result is written in one call
// from the request path.
const batchTimeout = 10 * time.Millisecond

// ZipAlerts is the message value published for each zip code in a batch.
type ZipAlerts struct {
	Zip         string                `json:"zip"`
	Alerts      []domain.AlertSummary `json:"alerts"`
	ProcessedAt time.Time             `json:"processed_at"`
}

// Writer produces batch results to a Kafka topic.
// It implements pipeline.ResultPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured alerts topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAlertsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: batchTimeout,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishResults writes one message per zip in result, keyed by zip, in a
// single WriteMessages call.
func (w *Writer) PublishResults(ctx context.Context, result domain.BatchResult) error {
	if len(result) == 0 {
		return nil
	}
	msgs, err := buildMessages(result, domain.Now())
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d zip results: %w", len(msgs), err)
	}
	w.logger.Debug("batch result published", "topic", w.writer.Topic, "zips", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// buildMessages orders messages by zip so output is stable across runs.
func buildMessages(result domain.BatchResult, processedAt time.Time) ([]kafkago.Message, error) {
	zips := make([]string, 0, len(result))
	for zip := range result {
		zips = append(zips, zip)
	}
	slices.Sort(zips)

	msgs := make([]kafkago.Message, 0, len(zips))
	for _, zip := range zips {
		msg, err := serializeToMessage(ZipAlerts{Zip: zip, Alerts: result[zip], ProcessedAt: processedAt})
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// serializeToMessage marshals one zip's alerts into a Kafka message.
func serializeToMessage(z ZipAlerts) (kafkago.Message, error) {
	data, err := json.Marshal(z)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alerts for zip %s: %w", z.Zip, err)
	}
	return kafkago.Message{
		Key:   []byte(z.Zip),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "alert_count", Value: []byte(strconv.Itoa(len(z.Alerts)))},
			{Key: "processed_at", Value: []byte(z.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
