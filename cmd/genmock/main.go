// Command genmock writes deterministic hazard and population grids together
// with the assessment requests that reference them and the results the
// service is expected to produce. Results are computed with the real
// pipeline transformer so the fixtures match service behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -grid-dir data/mock/grids \
//	  -requests data/mock/requests.json \
//	  -results data/mock/results.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/hazard-impact-service/internal/adapter/esri"
	"github.com/couchcryptid/hazard-impact-service/internal/domain"
	"github.com/couchcryptid/hazard-impact-service/internal/geometry"
	"github.com/couchcryptid/hazard-impact-service/internal/observability"
	"github.com/couchcryptid/hazard-impact-service/internal/pipeline"
)

// fixtureTime stamps every generated result; validate uses the same value.
var fixtureTime = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)

const mockNodata = -9999.0

// scenario describes one synthetic flood event.
type scenario struct {
	name      string
	depth     func(row, col, size int) float64
	floodArea *domain.FloodAreaRequest
}

var scenarios = []scenario{
	{
		// A river runs down the middle column; depth falls off with distance.
		name: "riverside",
		depth: func(row, col, size int) float64 {
			d := math.Abs(float64(col - size/2))
			return math.Max(0, 2.4-0.35*d)
		},
		floodArea: &domain.FloodAreaRequest{ThresholdMin: 1.0},
	},
	{
		// Shallow ponding never reaches the evacuation threshold.
		name: "ponding",
		depth: func(row, col, size int) float64 {
			return 0.1 * float64((row+col)%9)
		},
	},
	{
		// A breach floods a disc in the upper-left quadrant.
		name: "levee-breach",
		depth: func(row, col, size int) float64 {
			r := math.Hypot(float64(row-size/4), float64(col-size/4))
			return math.Max(0, 1.8-0.3*r)
		},
		floodArea: &domain.FloodAreaRequest{ThresholdMin: 0.5, ThresholdMax: ptr(1.5)},
	},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	gridDir := flag.String("grid-dir", "", "output directory for .asc grids")
	requestsOut := flag.String("requests", "", "output path for assessment requests JSON")
	resultsOut := flag.String("results", "", "output path for expected results JSON")
	size := flag.Int("size", 20, "grid width and height in cells")
	flag.Parse()

	if *gridDir == "" || *requestsOut == "" || *resultsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -grid-dir, -requests, -results")
	}
	if *size < 4 {
		return fmt.Errorf("-size must be at least 4, got %d", *size)
	}
	if err := os.MkdirAll(*gridDir, 0o755); err != nil {
		return err
	}

	domain.SetClock(clockwork.NewFakeClockAt(fixtureTime))
	defer domain.SetClock(nil)

	population, err := populationGrid(*size)
	if err != nil {
		return err
	}
	if err := esri.WriteFile(filepath.Join(*gridDir, "population.asc"), population); err != nil {
		return err
	}

	requests := make([]domain.AssessmentRequest, 0, len(scenarios))
	for _, s := range scenarios {
		g, err := depthGrid(*size, s.depth)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", s.name, err)
		}
		name := s.name + ".asc"
		if err := esri.WriteFile(filepath.Join(*gridDir, name), g); err != nil {
			return err
		}
		requests = append(requests, domain.AssessmentRequest{
			ID:        s.name,
			Hazard:    domain.GridRef{Path: name},
			Exposure:  domain.GridRef{Path: "population.asc"},
			FloodArea: s.floodArea,
		})
		log.Printf("%s: wrote %s", s.name, name)
	}

	results, err := assessAll(*gridDir, requests)
	if err != nil {
		return err
	}

	if err := writeJSON(*requestsOut, requests); err != nil {
		return fmt.Errorf("writing requests: %w", err)
	}
	log.Printf("wrote %d requests: %s", len(requests), *requestsOut)

	if err := writeJSON(*resultsOut, results); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	log.Printf("wrote %d results: %s", len(results), *resultsOut)

	printStats(results)
	return nil
}

// assessAll runs every request through the pipeline transformer.
func assessAll(gridDir string, requests []domain.AssessmentRequest) ([]domain.AssessmentResult, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tfm := pipeline.NewTransformer(esri.NewLoader(gridDir), geometry.NewRectEngine(), nil, pipeline.Defaults{
		MinimumNeeds: domain.DefaultMinimumNeeds(),
		Classes:      domain.DefaultClasses,
	}, logger, observability.NewMetricsForTesting())

	results := make([]domain.AssessmentResult, 0, len(requests))
	for _, req := range requests {
		value, err := json.Marshal(req)
		if err != nil {
			return nil, err
		}
		out, err := tfm.Transform(context.Background(), domain.RawEvent{Key: []byte(req.ID), Value: value})
		if err != nil {
			return nil, fmt.Errorf("assess %s: %w", req.ID, err)
		}
		var r domain.AssessmentResult
		if err := json.Unmarshal(out.Value, &r); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// populationGrid spreads 20..350 people per cell in a repeating pattern with
// a nodata cell in the bottom-right corner.
func populationGrid(size int) (*domain.Grid, error) {
	values := make([]float64, size*size)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			values[row*size+col] = 20 + float64((row*31+col*17)%23)*15
		}
	}
	values[len(values)-1] = mockNodata
	return domain.NewGrid(size, size, extent(size), ptr(mockNodata), values)
}

func depthGrid(size int, depth func(row, col, size int) float64) (*domain.Grid, error) {
	values := make([]float64, size*size)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			values[row*size+col] = math.Round(depth(row, col, size)*100) / 100
		}
	}
	return domain.NewGrid(size, size, extent(size), ptr(mockNodata), values)
}

// extent places the grids on 100 m cells with an arbitrary projected origin.
func extent(size int) domain.Extent {
	const cell, x0, y0 = 100.0, 106000.0, 9230000.0
	return domain.Extent{XMin: x0, YMin: y0, XMax: x0 + cell*float64(size), YMax: y0 + cell*float64(size)}
}

func ptr(v float64) *float64 { return &v }

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(results []domain.AssessmentResult) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	for _, r := range results {
		fmt.Printf("%-14s status=%-11s counts=%v evacuated=%d total=%d polygons=%d\n",
			r.ID, r.Status, r.Counts, r.Evacuated, r.Total, r.FloodAreaPolygons)
	}
}
