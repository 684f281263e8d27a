package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/hazard-impact-service/internal/adapter/geojson"
	"github.com/couchcryptid/hazard-impact-service/internal/domain"
	"github.com/couchcryptid/hazard-impact-service/internal/observability"
)

// FloodAreaField is the GeoJSON property holding each flood polygon's area.
const FloodAreaField = "area"

// Defaults are applied to requests that leave the corresponding option unset.
type Defaults struct {
	MinimumNeeds []domain.MinimumNeed
	Classes      int
}

// AssessmentTransformer implements Transformer by resolving the request's
// grids, running the assessment and optionally polygonizing the flood area.
type AssessmentTransformer struct {
	loader   domain.GridLoader
	engine   domain.GeometryEngine
	notifier domain.Notifier
	defaults Defaults
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewTransformer creates an AssessmentTransformer. Pass a nil notifier to
// disable evacuation alerts.
func NewTransformer(loader domain.GridLoader, engine domain.GeometryEngine, notifier domain.Notifier, defaults Defaults, logger *slog.Logger, metrics *observability.Metrics) *AssessmentTransformer {
	return &AssessmentTransformer{
		loader:   loader,
		engine:   engine,
		notifier: notifier,
		defaults: defaults,
		logger:   logger,
		metrics:  metrics,
	}
}

func (t *AssessmentTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	start := time.Now()
	result, err := t.assess(ctx, req)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("assessment %s: %w", req.ID, err)
	}
	t.metrics.AssessmentDuration.Observe(time.Since(start).Seconds())
	t.metrics.Assessments.WithLabelValues(string(result.Status)).Inc()

	t.logger.Debug("assessment complete",
		"id", result.ID,
		"status", result.Status,
		"evacuated", result.Evacuated,
		"flood_area_polygons", result.FloodAreaPolygons,
	)

	if t.notifier != nil {
		if err := t.notifier.NotifyEvacuation(ctx, result); err != nil {
			t.logger.Warn("evacuation alert failed", "id", result.ID, "error", err)
		}
	}

	return domain.SerializeResult(result)
}

func (t *AssessmentTransformer) assess(ctx context.Context, req domain.AssessmentRequest) (domain.AssessmentResult, error) {
	hazard, err := req.Hazard.Resolve(ctx, t.loader)
	if err != nil {
		return domain.AssessmentResult{}, fmt.Errorf("hazard grid: %w", err)
	}
	exposure, err := req.Exposure.Resolve(ctx, t.loader)
	if err != nil {
		return domain.AssessmentResult{}, fmt.Errorf("exposure grid: %w", err)
	}

	a, err := domain.Assess(hazard, exposure, req.Parameters(t.defaults.MinimumNeeds, t.defaults.Classes))
	if err != nil {
		return domain.AssessmentResult{}, err
	}
	result := a.Result(req.ID)

	if req.FloodArea != nil {
		lo, hi := req.FloodArea.Bounds()
		area, err := domain.Polygonize(hazard, lo, hi, t.engine)
		if err != nil {
			return domain.AssessmentResult{}, fmt.Errorf("flood area: %w", err)
		}
		data, err := geojson.Marshal(domain.PolygonFeatures(area), FloodAreaField)
		if err != nil {
			return domain.AssessmentResult{}, err
		}
		result.FloodArea = data
		result.FloodAreaPolygons = len(area)
		t.metrics.FloodAreaPolygons.Observe(float64(len(area)))
	}
	return result, nil
}
