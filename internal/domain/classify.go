package domain

import (
	"fmt"
	"math"
)

// Thresholds is a strictly increasing list of hazard levels. Threshold i
// opens band i, which runs up to threshold i+1; the last band is unbounded.
type Thresholds []float64

// Validate reports ErrInvalidThresholds for empty, NaN, or non strictly
// increasing thresholds.
func (t Thresholds) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: no thresholds given", ErrInvalidThresholds)
	}
	for i, v := range t {
		if math.IsNaN(v) {
			return fmt.Errorf("%w: threshold %d is NaN", ErrInvalidThresholds, i)
		}
		if i > 0 && !(v > t[i-1]) {
			return fmt.Errorf("%w: %g does not exceed %g", ErrInvalidThresholds, v, t[i-1])
		}
	}
	return nil
}

// BandCounts holds one truncated exposure sum per threshold band.
type BandCounts []int64

// Sum adds up all bands.
func (c BandCounts) Sum() int64 {
	var s int64
	for _, v := range c {
		s += v
	}
	return s
}

// Last returns the count of the top band.
func (c BandCounts) Last() int64 {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1]
}

// Classification is the outcome of Classify: either *Impacted or *ZeroImpact.
type Classification interface {
	BandCounts() BandCounts
	TotalExposure() int64
	classification()
}

// Impacted carries the impact raster: exposure where hazard reaches the top
// threshold, 0 elsewhere.
type Impacted struct {
	Counts BandCounts
	Impact *Grid
	Total  int64
}

// ZeroImpact is returned when no exposure falls in the top band. It carries
// only the band summary, no raster.
type ZeroImpact struct {
	Counts BandCounts
	Total  int64
}

func (r *Impacted) BandCounts() BandCounts   { return r.Counts }
func (r *Impacted) TotalExposure() int64     { return r.Total }
func (*Impacted) classification()            {}
func (r *ZeroImpact) BandCounts() BandCounts { return r.Counts }
func (r *ZeroImpact) TotalExposure() int64   { return r.Total }
func (*ZeroImpact) classification()          {}

// Classify bands the hazard grid by thresholds and sums the aligned exposure
// per band. Nodata in either grid counts as 0. Band sums and the total are
// accumulated in float64 and truncated toward zero.
func Classify(hazard, exposure *Grid, thresholds Thresholds) (Classification, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	if hazard == nil || exposure == nil {
		return nil, fmt.Errorf("%w: missing grid", ErrDegenerateGrid)
	}
	if !hazard.AlignedWith(exposure) {
		return nil, fmt.Errorf("%w: hazard %dx%d %+v, exposure %dx%d %+v", ErrAlignmentMismatch,
			hazard.Width(), hazard.Height(), hazard.Extent(),
			exposure.Width(), exposure.Height(), exposure.Extent())
	}

	depth := hazard.Values()
	population := exposure.Values()
	last := len(thresholds) - 1

	sums := make([]float64, len(thresholds))
	impact := make([]float64, len(depth))
	var total float64

	for i, d := range depth {
		p := population[i]
		total += p
		band := bandOf(thresholds, d)
		if band < 0 {
			continue
		}
		sums[band] += p
		if band == last {
			impact[i] = p
		}
	}

	counts := make(BandCounts, len(sums))
	for i, s := range sums {
		counts[i] = int64(s)
	}

	lo, hi := minMax(impact)
	if lo == 0 && hi == 0 {
		return &ZeroImpact{Counts: counts, Total: int64(total)}, nil
	}
	return &Impacted{Counts: counts, Impact: hazard.derive(impact), Total: int64(total)}, nil
}

// bandOf returns the band index for hazard value v, or -1 when v is below
// the first threshold.
func bandOf(thresholds Thresholds, v float64) int {
	for i := len(thresholds) - 1; i >= 0; i-- {
		if v >= thresholds[i] {
			return i
		}
	}
	return -1
}

func minMax(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}
