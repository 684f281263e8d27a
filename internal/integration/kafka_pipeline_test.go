//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-impact-service/internal/adapter/kafka"
	"github.com/couchcryptid/hazard-impact-service/internal/config"
	"github.com/couchcryptid/hazard-impact-service/internal/domain"
	"github.com/couchcryptid/hazard-impact-service/internal/geometry"
	"github.com/couchcryptid/hazard-impact-service/internal/observability"
	"github.com/couchcryptid/hazard-impact-service/internal/pipeline"
)

const (
	testSourceTopic = "test-requests"
	testSinkTopic   = "test-assessments"
)

// assessedMessage holds a deserialized message read from the sink topic.
type assessedMessage struct {
	Result  domain.AssessmentResult
	Key     string
	Headers map[string]string
}

func readAssessed(ctx context.Context, t *testing.T, consumer *kafkago.Reader) assessedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var result domain.AssessmentResult
	require.NoError(t, json.Unmarshal(msg.Value, &result), "unmarshal sink message")

	return assessedMessage{Result: result, Key: string(msg.Key), Headers: headers}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func newTransformer() *pipeline.AssessmentTransformer {
	return pipeline.NewTransformer(nil, geometry.NewRectEngine(), nil, pipeline.Defaults{
		MinimumNeeds: domain.DefaultMinimumNeeds(),
		Classes:      domain.DefaultClasses,
	}, discardLogger(), observability.NewMetricsForTesting())
}

func publish(ctx context.Context, t *testing.T, broker string, msgs ...kafkago.Message) {
	t.Helper()
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, msgs...))
}

func requestMessage(t *testing.T, key string, req domain.AssessmentRequest) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	return kafkago.Message{Key: []byte(key), Value: payload}
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaReaderWriter round-trips one assessment through the Kafka adapters.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	msg := requestMessage(t, "flood-1", floodRequest(""))
	publish(ctx, t, broker, msg)

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("flood-1"), raw.Key)
	assert.Equal(t, msg.Value, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	out, err := newTransformer().Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.OutputEvent{out}))

	am := readAssessed(ctx, t, sinkConsumer(t, broker))
	assert.Equal(t, "flood-1", am.Key, "id falls back to the message key")
	assert.Equal(t, "impact", am.Headers[domain.HeaderStatus])
	_, err = time.Parse(time.RFC3339, am.Headers[domain.HeaderAssessedAt])
	assert.NoError(t, err, "assessed_at should be valid RFC3339")

	assert.Equal(t, domain.BandCounts{200, 400, 1400}, am.Result.Counts)
	assert.Equal(t, int64(1400), am.Result.Evacuated)
	assert.Equal(t, 1, am.Result.FloodAreaPolygons)
}

// TestPipelineEndToEnd runs the full pipeline against real Kafka.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	const n = 20
	msgs := make([]kafkago.Message, 0, n)
	for i := range n {
		id := fmt.Sprintf("request-%d", i)
		req := floodRequest(id)
		if i%2 == 1 {
			req = dryRequest(id)
		}
		msgs = append(msgs, requestMessage(t, id, req))
	}
	publish(ctx, t, broker, msgs...)

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, newTransformer(), writer, discardLogger(), metrics, 8)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	statuses := map[string]int{}
	for range n {
		am := readAssessed(ctx, t, consumer)
		statuses[am.Headers[domain.HeaderStatus]]++
		assert.Equal(t, am.Key, am.Result.ID)
		assert.NotEmpty(t, am.Result.ReportText)
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	assert.Equal(t, n/2, statuses["impact"])
	assert.Equal(t, n/2, statuses["zero_impact"])
	assert.NoError(t, p.CheckReadiness(ctx))
}

// TestPipelineTransformError verifies that a request that cannot be assessed
// is skipped and later requests are still processed.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-poison")

	misaligned := floodRequest("misaligned")
	misaligned.Exposure.Inline.Width = 2
	misaligned.Exposure.Inline.Values = []float64{1, 2, 3, 4}

	publish(ctx, t, broker,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		requestMessage(t, "misaligned", misaligned),
		requestMessage(t, "good", floodRequest("good")),
	)

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, newTransformer(), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	am := readAssessed(ctx, t, consumer)
	assert.Equal(t, "good", am.Result.ID)

	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
