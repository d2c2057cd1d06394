//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/work-order-weather-service/internal/adapter/docstore"
	"github.com/couchcryptid/work-order-weather-service/internal/adapter/kafka"
	"github.com/couchcryptid/work-order-weather-service/internal/config"
	"github.com/couchcryptid/work-order-weather-service/internal/domain"
	"github.com/couchcryptid/work-order-weather-service/internal/observability"
	"github.com/couchcryptid/work-order-weather-service/internal/pipeline"
)

const testAlertsTopic = "test-zip-alerts"

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("weather-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func readAll(ctx context.Context, t *testing.T, broker string, n int) map[string]kafka.ZipAlerts {
	t.Helper()
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testAlertsTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	defer reader.Close()

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out := make(map[string]kafka.ZipAlerts, n)
	for range n {
		msg, err := reader.ReadMessage(readCtx)
		require.NoError(t, err, "read alerts topic")

		var z kafka.ZipAlerts
		require.NoError(t, json.Unmarshal(msg.Value, &z))
		assert.Equal(t, z.Zip, string(msg.Key))
		out[z.Zip] = z
	}
	return out
}

type fixedGeocoder map[string]domain.Coordinate

func (g fixedGeocoder) Resolve(_ context.Context, zip string) (domain.Coordinate, error) {
	c, ok := g[zip]
	if !ok {
		return domain.Coordinate{}, domain.ErrExternalService
	}
	return c, nil
}

type fixedAlerts map[string]domain.AlertResponse

func (a fixedAlerts) FetchAlerts(_ context.Context, lat, _ string) (domain.AlertResponse, error) {
	if r, ok := a[lat]; ok {
		return r, nil
	}
	return domain.AlertResponse{StatusCode: 200}, nil
}

// TestAggregatorPublishesToKafka runs a batch through the aggregator backed by
// a real document store and checks every resolved zip lands on the topic.
func TestAggregatorPublishesToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAlertsTopic)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := docstore.Open(docstore.Options{InMemory: true}, logger)
	require.NoError(t, err)
	defer store.Close()

	writer := kafka.NewWriter(&config.Config{
		KafkaBrokers:     []string{broker},
		KafkaAlertsTopic: testAlertsTopic,
	}, logger)
	defer writer.Close()

	agg := pipeline.New(
		docstore.NewCoordinateCache(store),
		fixedGeocoder{
			"10001": {Latitude: "40.75", Longitude: "-73.99"},
			"60601": {Latitude: "41.88", Longitude: "-87.62"},
		},
		fixedAlerts{
			"40.75": {StatusCode: 200, Alerts: []domain.Alert{{Severity: "Moderate", HeadlineText: "Flood Watch"}}},
			"41.88": {StatusCode: 404},
		},
		logger,
		observability.NewMetricsForTesting(),
		pipeline.WithPublisher(writer),
	)

	result := agg.Aggregate(ctx, []string{"10001", "60601", "99999"})
	require.Len(t, result, 2)

	published := readAll(ctx, t, broker, 2)
	require.Contains(t, published, "10001")
	require.Contains(t, published, "60601")
	assert.Equal(t, []domain.AlertSummary{{Severity: "Moderate", Headline: "Flood Watch"}}, published["10001"].Alerts)
	assert.Nil(t, published["60601"].Alerts)
	assert.False(t, published["10001"].ProcessedAt.IsZero())
}
