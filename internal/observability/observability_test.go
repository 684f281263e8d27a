package observability

import (
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-impact-service/internal/config"
)

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	for _, format := range []string{"json", "text"} {
		logger := NewLogger(&config.Config{LogLevel: "debug", LogFormat: format})
		require.NotNil(t, logger)
		assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))
		assert.Same(t, logger, slog.Default())
	}

	logger := NewLogger(&config.Config{LogLevel: "verbose"})
	assert.False(t, logger.Enabled(t.Context(), slog.LevelDebug))
	assert.True(t, logger.Enabled(t.Context(), slog.LevelInfo))
}

func TestMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()
	m.Assessments.WithLabelValues("impact").Inc()
	m.GridCache.WithLabelValues("hit").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Assessments.WithLabelValues("impact")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GridCache.WithLabelValues("hit")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Notifications.WithLabelValues("sent")))
}
