// Command validate cross-checks assessment results against the grids they
// were computed from. It recomputes band counts independently of the stored
// results and verifies rounding, needs, display classes and flood areas.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -grid-dir data/mock/grids \
//	  -requests data/mock/requests.json \
//	  -results data/mock/results.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/geojson"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/couchcryptid/hazard-impact-service/internal/adapter/esri"
	"github.com/couchcryptid/hazard-impact-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// pair is one request with its result and resolved grids.
type pair struct {
	req      domain.AssessmentRequest
	result   domain.AssessmentResult
	hazard   *domain.Grid
	exposure *domain.Grid
}

func main() {
	gridDir := flag.String("grid-dir", "", "directory the request grid paths are relative to")
	requestsPath := flag.String("requests", "", "path to assessment requests JSON")
	resultsPath := flag.String("results", "", "path to assessment results JSON")
	flag.Parse()

	if *gridDir == "" || *requestsPath == "" || *resultsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*gridDir, *requestsPath, *resultsPath); code != 0 {
		os.Exit(code)
	}
}

func run(gridDir, requestsPath, resultsPath string) int {
	fmt.Println("=== Hazard Impact Validation ===")
	fmt.Println()

	requests, err := loadJSON[domain.AssessmentRequest](requestsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load requests: %v\n", err)
		return 1
	}
	results, err := loadJSON[domain.AssessmentResult](resultsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load results: %v\n", err)
		return 1
	}

	pairs, loading := pairUp(gridDir, requests, results)
	phases := []*phase{
		loading,
		validateClassification(pairs),
		validateRounding(pairs),
		validateClasses(pairs),
		validateFloodArea(pairs),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Assessments: %d requests, %d results\n", len(requests), len(results))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

// ── Phase 1 ──

func pairUp(gridDir string, requests []domain.AssessmentRequest, results []domain.AssessmentResult) ([]pair, *phase) {
	p := &phase{name: "Phase 1: Grids and result pairing"}

	byID := make(map[string]domain.AssessmentResult, len(results))
	for _, r := range results {
		if _, dup := byID[r.ID]; dup {
			p.errorf("duplicate result id %q", r.ID)
		}
		byID[r.ID] = r
	}
	if len(requests) != len(results) {
		p.errorf("request count %d != result count %d", len(requests), len(results))
	}

	var pairs []pair
	for _, req := range requests {
		res, ok := byID[req.ID]
		if !ok {
			p.errorf("request %q has no result", req.ID)
			continue
		}
		hazard, err := loadGrid(gridDir, req.Hazard)
		if err != nil {
			p.errorf("%s: hazard: %v", req.ID, err)
			continue
		}
		exposure, err := loadGrid(gridDir, req.Exposure)
		if err != nil {
			p.errorf("%s: exposure: %v", req.ID, err)
			continue
		}
		if !hazard.AlignedWith(exposure) {
			p.errorf("%s: hazard and exposure grids are not aligned", req.ID)
			continue
		}
		pairs = append(pairs, pair{req: req, result: res, hazard: hazard, exposure: exposure})
	}
	return pairs, p
}

func loadGrid(dir string, ref domain.GridRef) (*domain.Grid, error) {
	if ref.Inline != nil {
		return ref.Inline.Grid()
	}
	return esri.ReadFile(filepath.Join(dir, ref.Path))
}

// ── Phase 2 ──

// validateClassification recounts every band by brute force over the cells.
func validateClassification(pairs []pair) *phase {
	p := &phase{name: "Phase 2: Band counts"}
	for _, pr := range pairs {
		thresholds := requestThresholds(pr.req)
		sums := make([]float64, len(thresholds))
		depth, people := pr.hazard.Values(), pr.exposure.Values()
		var total float64
		for i, d := range depth {
			n := people[i]
			total += n
			for b := len(thresholds) - 1; b >= 0; b-- {
				if d >= thresholds[b] {
					sums[b] += n
					break
				}
			}
		}

		if len(pr.result.Counts) != len(thresholds) {
			p.errorf("%s: %d counts for %d thresholds", pr.req.ID, len(pr.result.Counts), len(thresholds))
			continue
		}
		for b, s := range sums {
			if pr.result.Counts[b] != int64(s) {
				p.errorf("%s: band %d count=%d, recomputed %d", pr.req.ID, b, pr.result.Counts[b], int64(s))
			}
		}
		if want := domain.RoundUpCoarse(int64(total)); pr.result.Total != want {
			p.errorf("%s: total=%d, want %d", pr.req.ID, pr.result.Total, want)
		}
		if pr.result.Counts.Sum() > int64(total) {
			p.errorf("%s: band counts %d exceed total exposure %d", pr.req.ID, pr.result.Counts.Sum(), int64(total))
		}
	}
	return p
}

// ── Phase 3 ──

func validateRounding(pairs []pair) *phase {
	p := &phase{name: "Phase 3: Evacuation rounding and needs"}
	for _, pr := range pairs {
		r := pr.result
		want, unit := domain.RoundUpFull(r.Counts.Last())
		if r.Evacuated != want || r.EvacuatedRounding != unit {
			p.errorf("%s: evacuated=%d/%s, want %d/%s", r.ID, r.Evacuated, r.EvacuatedRounding, want, unit)
		}
		if r.Evacuated < r.Counts.Last() {
			p.errorf("%s: evacuated %d below last band %d", r.ID, r.Evacuated, r.Counts.Last())
		}

		wantStatus := domain.StatusZeroImpact
		if r.Counts.Last() > 0 {
			wantStatus = domain.StatusImpact
		}
		if r.Status != wantStatus {
			p.errorf("%s: status=%s, want %s", r.ID, r.Status, wantStatus)
		}

		needs := pr.req.MinimumNeeds
		if needs == nil {
			needs = domain.DefaultMinimumNeeds()
		}
		for _, n := range needs {
			amount, ok := findNeed(r.Needs, n)
			if !ok {
				p.errorf("%s: need %q missing", r.ID, n.TableName())
				continue
			}
			if want := domain.NeedAmount(r.Evacuated, n.Quantity); amount != want {
				p.errorf("%s: need %q=%d, want %d", r.ID, n.TableName(), amount, want)
			}
		}

		question := pr.req.Question
		if question == "" {
			question = domain.DefaultQuestion
		}
		if !strings.HasPrefix(r.ReportText, question) {
			p.errorf("%s: report does not start with the question", r.ID)
		}
	}
	return p
}

func findNeed(table domain.NeedsTable, n domain.MinimumNeed) (int64, bool) {
	for _, r := range table.Group(n.Frequency) {
		if r.Name == n.Name {
			return r.Amount, true
		}
	}
	return 0, false
}

// ── Phase 4 ──

func validateClasses(pairs []pair) *phase {
	p := &phase{name: "Phase 4: Display classes"}
	for _, pr := range pairs {
		r := pr.result
		if r.Status == domain.StatusZeroImpact {
			if len(r.Classes) != 0 {
				p.errorf("%s: zero impact result has %d classes", r.ID, len(r.Classes))
			}
			continue
		}
		n := pr.req.Classes
		if n == 0 {
			n = domain.DefaultClasses
		}
		if len(r.Classes) != n {
			p.errorf("%s: %d classes, want %d", r.ID, len(r.Classes), n)
			continue
		}
		if r.Classes[0].Lower != 0 || r.Classes[0].Upper != 0 {
			p.errorf("%s: class 0 covers [%g, %g], want [0, 0]", r.ID, r.Classes[0].Lower, r.Classes[0].Upper)
		}
		for i := 1; i < n; i++ {
			if r.Classes[i].Lower != r.Classes[i-1].Upper {
				p.errorf("%s: class %d does not start where class %d ends", r.ID, i, i-1)
			}
		}
		if want := maxImpact(pr); n > 1 && r.Classes[n-1].Upper != want {
			p.errorf("%s: top class ends at %g, want the largest impacted cell %g", r.ID, r.Classes[n-1].Upper, want)
		}
	}
	return p
}

// ── Phase 5 ──

// validateFloodArea checks that the polygons cover exactly the qualifying
// cells by comparing total area with cell count times cell area.
func validateFloodArea(pairs []pair) *phase {
	p := &phase{name: "Phase 5: Flood area polygons"}
	for _, pr := range pairs {
		r := pr.result
		if pr.req.FloodArea == nil {
			if len(r.FloodArea) != 0 {
				p.errorf("%s: unexpected flood area", r.ID)
			}
			continue
		}

		lo, hi := pr.req.FloodArea.Bounds()
		cells, err := domain.PixelsToFeatures(pr.hazard, lo, hi)
		if err != nil {
			p.errorf("%s: %v", r.ID, err)
			continue
		}
		xres, yres := pr.hazard.Resolution()
		wantArea := float64(len(cells)) * xres * yres

		fc, err := geojson.UnmarshalFeatureCollection(r.FloodArea)
		if err != nil {
			p.errorf("%s: decode flood area: %v", r.ID, err)
			continue
		}
		if len(fc.Features) != r.FloodAreaPolygons {
			p.errorf("%s: %d features, result says %d", r.ID, len(fc.Features), r.FloodAreaPolygons)
		}
		areas := make([]float64, len(fc.Features))
		for i, f := range fc.Features {
			areas[i] = f.Properties.MustFloat64("area", 0)
		}
		if got := floats.Sum(areas); !scalar.EqualWithinAbsOrRel(got, wantArea, 1e-6, 1e-9) {
			p.errorf("%s: flood area %.2f, %d cells cover %.2f", r.ID, got, len(cells), wantArea)
		}
	}
	return p
}

// maxImpact is the largest population in a cell at or above the top
// threshold, or 1 when there is none.
func maxImpact(pr pair) float64 {
	thresholds := requestThresholds(pr.req)
	top := thresholds[len(thresholds)-1]
	depth, people := pr.hazard.Values(), pr.exposure.Values()
	impact := make([]float64, 0, len(depth))
	for i, d := range depth {
		if d >= top {
			impact = append(impact, people[i])
		}
	}
	if len(impact) == 0 || floats.Max(impact) <= 0 {
		return 1
	}
	return floats.Max(impact)
}

func requestThresholds(req domain.AssessmentRequest) domain.Thresholds {
	if len(req.Thresholds) == 0 {
		return domain.DefaultThresholds()
	}
	return domain.Thresholds(req.Thresholds)
}
