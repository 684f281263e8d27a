package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// GridLoader resolves a grid reference path into a single-band grid.
type GridLoader interface {
	Load(ctx context.Context, path string) (*Grid, error)
}

// Notifier is told about every impact assessment that was produced.
type Notifier interface {
	NotifyEvacuation(ctx context.Context, result AssessmentResult) error
}

// GridPayload is a grid carried inline in a request, values row-major.
type GridPayload struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Extent Extent    `json:"extent"`
	Nodata *float64  `json:"nodata,omitempty"`
	Values []float64 `json:"values"`
}

// Grid validates the payload and builds a Grid from it.
func (p GridPayload) Grid() (*Grid, error) {
	return NewGrid(p.Width, p.Height, p.Extent, p.Nodata, p.Values)
}

// GridRef points at a grid either by loader path or inline payload.
type GridRef struct {
	Path   string       `json:"path,omitempty"`
	Inline *GridPayload `json:"inline,omitempty"`
}

// Resolve loads or builds the referenced grid.
func (r GridRef) Resolve(ctx context.Context, loader GridLoader) (*Grid, error) {
	switch {
	case r.Inline != nil:
		return r.Inline.Grid()
	case r.Path == "":
		return nil, errors.New("grid reference has neither path nor inline payload")
	case loader == nil:
		return nil, fmt.Errorf("no grid loader configured for %q", r.Path)
	default:
		return loader.Load(ctx, r.Path)
	}
}

// FloodAreaRequest asks for the hazard cells strictly between the two
// thresholds to be polygonized. A nil maximum is unbounded.
type FloodAreaRequest struct {
	ThresholdMin float64  `json:"threshold_min"`
	ThresholdMax *float64 `json:"threshold_max,omitempty"`
}

// Bounds returns the polygonize thresholds with the maximum defaulted to +Inf.
func (f FloodAreaRequest) Bounds() (float64, float64) {
	if f.ThresholdMax == nil {
		return f.ThresholdMin, math.Inf(1)
	}
	return f.ThresholdMin, *f.ThresholdMax
}

// AssessmentRequest is the source topic payload.
type AssessmentRequest struct {
	ID           string            `json:"id,omitempty"`
	Hazard       GridRef           `json:"hazard"`
	Exposure     GridRef           `json:"exposure"`
	Thresholds   []float64         `json:"thresholds,omitempty"`
	MinimumNeeds []MinimumNeed     `json:"minimum_needs,omitempty"`
	Classes      int               `json:"classes,omitempty"`
	Question     string            `json:"question,omitempty"`
	HazardUnit   string            `json:"hazard_unit,omitempty"`
	FloodArea    *FloodAreaRequest `json:"flood_area,omitempty"`
}

// Parameters converts the request options into assessment parameters.
// Unset options keep their defaults; needs falls back to fallbackNeeds.
func (r AssessmentRequest) Parameters(fallbackNeeds []MinimumNeed, classes int) Parameters {
	p := Parameters{
		Thresholds:   Thresholds(r.Thresholds),
		MinimumNeeds: r.MinimumNeeds,
		Classes:      r.Classes,
		Question:     r.Question,
		HazardUnit:   r.HazardUnit,
	}
	if p.MinimumNeeds == nil {
		p.MinimumNeeds = fallbackNeeds
	}
	if p.Classes == 0 {
		p.Classes = classes
	}
	return p
}

// ParseRawEvent decodes a source message into an AssessmentRequest. A
// missing ID is taken from the message key.
func ParseRawEvent(raw RawEvent) (AssessmentRequest, error) {
	var req AssessmentRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return AssessmentRequest{}, fmt.Errorf("parse assessment request: %w", err)
	}
	if req.ID == "" && len(raw.Key) > 0 {
		req.ID = string(raw.Key)
	}
	return req, nil
}

// AssessmentResult is the sink topic payload.
type AssessmentResult struct {
	ID                string          `json:"id"`
	Status            Status          `json:"status"`
	Counts            BandCounts      `json:"counts"`
	Thresholds        Thresholds      `json:"thresholds"`
	Evacuated         int64           `json:"evacuated"`
	EvacuatedRounding string          `json:"evacuated_rounding"`
	Total             int64           `json:"total"`
	Needs             NeedsTable      `json:"needs"`
	Classes           []StyleClass    `json:"classes,omitempty"`
	ReportText        string          `json:"report_text"`
	ReportHTML        string          `json:"report_html"`
	FloodArea         json.RawMessage `json:"flood_area,omitempty"`
	FloodAreaPolygons int             `json:"flood_area_polygons,omitempty"`
	AssessedAt        time.Time       `json:"assessed_at"`
}

// SerializeResult encodes a result for the sink topic, keyed by request ID.
func SerializeResult(r AssessmentResult) (OutputEvent, error) {
	value, err := json.Marshal(r)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize assessment result: %w", err)
	}
	return OutputEvent{
		Key:   []byte(r.ID),
		Value: value,
		Headers: map[string]string{
			HeaderStatus:     string(r.Status),
			HeaderAssessedAt: r.AssessedAt.Format(time.RFC3339),
		},
	}, nil
}
