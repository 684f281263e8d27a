package domain

import (
	"fmt"
	"math"
)

// Clip resamples a single-band src onto a width x height grid covering
// extent. Each output cell takes the source cell under its centre; cells
// falling outside src or on source nodata become NaN.
func Clip(src GridSource, width, height int, extent Extent) (*Grid, error) {
	if src.BandCount() != 1 {
		return nil, fmt.Errorf("%w: got %d bands", ErrUnsupportedBandCount, src.BandCount())
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: clip to %dx%d", ErrDegenerateGrid, width, height)
	}
	sw, sh := src.Width(), src.Height()
	if sw <= 0 || sh <= 0 {
		return nil, fmt.Errorf("%w: width=%d height=%d", ErrDegenerateGrid, sw, sh)
	}

	se := src.Extent()
	sxres := (se.XMax - se.XMin) / float64(sw)
	syres := (se.YMax - se.YMin) / float64(sh)
	xres := (extent.XMax - extent.XMin) / float64(width)
	yres := (extent.YMax - extent.YMin) / float64(height)

	values := make([]float64, width*height)
	for row := 0; row < height; row++ {
		cy := extent.YMax - (float64(row)+0.5)*yres
		sr := int(math.Floor((se.YMax - cy) / syres))
		for col := 0; col < width; col++ {
			cx := extent.XMin + (float64(col)+0.5)*xres
			sc := int(math.Floor((cx - se.XMin) / sxres))

			v := math.NaN()
			if sr >= 0 && sr < sh && sc >= 0 && sc < sw {
				if sv, ok := src.Value(sr, sc); ok {
					v = sv
				}
			}
			values[row*width+col] = v
		}
	}
	return NewGrid(width, height, extent, nil, values)
}
