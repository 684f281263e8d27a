//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/hazard-impact-service/internal/domain"
)

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("hazard-impact-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func inlineGrid(values ...float64) *domain.GridPayload {
	return &domain.GridPayload{
		Width:  3,
		Height: 2,
		Extent: domain.Extent{XMin: 0, YMin: 0, XMax: 3, YMax: 2},
		Values: values,
	}
}

// floodRequest is impacted: 1,400 people stand in water at least 1 m deep.
func floodRequest(id string) domain.AssessmentRequest {
	return domain.AssessmentRequest{
		ID:        id,
		Hazard:    domain.GridRef{Inline: inlineGrid(0.1, 0.4, 1.2, 0.7, 1.5, 2.0)},
		Exposure:  domain.GridRef{Inline: inlineGrid(100, 200, 300, 400, 500, 600)},
		FloodArea: &domain.FloodAreaRequest{ThresholdMin: 1.0},
	}
}

// dryRequest never reaches the top threshold.
func dryRequest(id string) domain.AssessmentRequest {
	return domain.AssessmentRequest{
		ID:       id,
		Hazard:   domain.GridRef{Inline: inlineGrid(0, 0.1, 0.2, 0.3, 0.4, 0.5)},
		Exposure: domain.GridRef{Inline: inlineGrid(1, 2, 3, 4, 5, 6)},
	}
}
