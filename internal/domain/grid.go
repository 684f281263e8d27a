package domain

import (
	"fmt"
	"math"
)

// Extent is the bounding rectangle of a grid in world coordinates.
type Extent struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// GridSource supplies raster cells to the core. Georeferencing and
// reprojection happen before this boundary.
type GridSource interface {
	Width() int
	Height() int
	Extent() Extent
	BandCount() int
	// Value returns the cell value and false when the cell holds nodata.
	Value(row, col int) (float64, bool)
}

// Grid is an immutable single-band raster stored row-major, row 0 at the
// top (north) edge.
type Grid struct {
	width  int
	height int
	extent Extent
	nodata *float64
	values []float64
}

// NewGrid copies values into a new Grid. A nil nodata means every finite
// value is valid; NaN cells are always treated as nodata.
func NewGrid(width, height int, extent Extent, nodata *float64, values []float64) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d height=%d", ErrDegenerateGrid, width, height)
	}
	if len(values) != width*height {
		return nil, fmt.Errorf("grid has %d values, want %d (%dx%d)", len(values), width*height, width, height)
	}
	if !(extent.XMax > extent.XMin) || !(extent.YMax > extent.YMin) {
		return nil, fmt.Errorf("%w: empty extent %+v", ErrDegenerateGrid, extent)
	}

	g := &Grid{
		width:  width,
		height: height,
		extent: extent,
		values: make([]float64, len(values)),
	}
	copy(g.values, values)
	if nodata != nil {
		v := *nodata
		g.nodata = &v
	}
	return g, nil
}

// Materialize copies a single-band GridSource into a Grid.
func Materialize(src GridSource) (*Grid, error) {
	if src.BandCount() != 1 {
		return nil, fmt.Errorf("%w: got %d bands", ErrUnsupportedBandCount, src.BandCount())
	}
	w, h := src.Width(), src.Height()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: width=%d height=%d", ErrDegenerateGrid, w, h)
	}

	values := make([]float64, w*h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			v, ok := src.Value(row, col)
			if !ok {
				v = math.NaN()
			}
			values[row*w+col] = v
		}
	}
	return NewGrid(w, h, src.Extent(), nil, values)
}

func (g *Grid) Width() int       { return g.width }
func (g *Grid) Height() int      { return g.height }
func (g *Grid) Extent() Extent   { return g.extent }
func (g *Grid) BandCount() int   { return 1 }
func (g *Grid) Nodata() *float64 { return g.nodata }

// Value returns the cell at (row, col). It panics when the index is outside the grid.
func (g *Grid) Value(row, col int) (float64, bool) {
	v := g.values[row*g.width+col]
	if g.isNodata(v) {
		return 0, false
	}
	return v, true
}

// Resolution returns the horizontal and vertical size of one cell.
func (g *Grid) Resolution() (float64, float64) {
	return (g.extent.XMax - g.extent.XMin) / float64(g.width),
		(g.extent.YMax - g.extent.YMin) / float64(g.height)
}

// Values returns a row-major copy of the cells with nodata replaced by 0.
func (g *Grid) Values() []float64 {
	out := make([]float64, len(g.values))
	for i, v := range g.values {
		if !g.isNodata(v) {
			out[i] = v
		}
	}
	return out
}

// Raw returns a row-major copy of the cells as stored, nodata sentinels included.
func (g *Grid) Raw() []float64 {
	out := make([]float64, len(g.values))
	copy(out, g.values)
	return out
}

// AlignedWith reports whether o has the same shape and georeference as g.
func (g *Grid) AlignedWith(o *Grid) bool {
	if g.width != o.width || g.height != o.height {
		return false
	}
	return nearlyEqual(g.extent.XMin, o.extent.XMin) &&
		nearlyEqual(g.extent.YMin, o.extent.YMin) &&
		nearlyEqual(g.extent.XMax, o.extent.XMax) &&
		nearlyEqual(g.extent.YMax, o.extent.YMax)
}

func (g *Grid) isNodata(v float64) bool {
	if math.IsNaN(v) {
		return true
	}
	return g.nodata != nil && v == *g.nodata
}

// derive builds a grid sharing g's georeference, taking ownership of values.
func (g *Grid) derive(values []float64) *Grid {
	return &Grid{
		width:  g.width,
		height: g.height,
		extent: g.extent,
		values: values,
	}
}

func nearlyEqual(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= 1e-9*scale
}

// PixelToWorld maps a cell index to the world coordinate of the cell's
// top-left corner. Rows grow downward while y decreases.
func PixelToWorld(extent Extent, width, height, row, col int) (float64, float64, error) {
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: width=%d height=%d", ErrDegenerateGrid, width, height)
	}
	xres := (extent.XMax - extent.XMin) / float64(width)
	yres := (extent.YMax - extent.YMin) / float64(height)
	return extent.XMin + float64(col)*xres, extent.YMax - float64(row)*yres, nil
}
