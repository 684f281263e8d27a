package domain

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// GeometryEngine supplies the planar operations used by Polygonize.
type GeometryEngine interface {
	// Rectangle returns the axis-aligned rectangle whose top-left corner is
	// origin, extending width to the east and height to the south.
	Rectangle(origin orb.Point, width, height float64) orb.Polygon

	// Union merges polygons so that shapes sharing an edge become one polygon.
	Union(polygons []orb.Polygon) (orb.MultiPolygon, error)
}

// Feature is a geometry with a single scalar attribute.
type Feature struct {
	Geometry orb.Geometry
	Value    float64
}

// VectorSink receives features for persistence or rendering.
type VectorSink interface {
	WriteFeatures(features []Feature) error
}

// PixelsToFeatures returns a point feature at the world coordinate of every
// cell with thresholdMin < value < thresholdMax, carrying the cell value.
// Nodata cells never qualify.
func PixelsToFeatures(src GridSource, thresholdMin, thresholdMax float64) ([]Feature, error) {
	if src.BandCount() != 1 {
		return nil, fmt.Errorf("%w: got %d bands", ErrUnsupportedBandCount, src.BandCount())
	}
	width, height, extent := src.Width(), src.Height(), src.Extent()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d height=%d", ErrDegenerateGrid, width, height)
	}

	var features []Feature
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			v, ok := src.Value(row, col)
			if !ok || !(thresholdMin < v && v < thresholdMax) {
				continue
			}
			x, y, err := PixelToWorld(extent, width, height, row, col)
			if err != nil {
				return nil, err
			}
			features = append(features, Feature{Geometry: orb.Point{x, y}, Value: v})
		}
	}
	return features, nil
}

// Polygonize converts the cells with thresholdMin < value < thresholdMax into
// polygons. Each qualifying cell becomes a one-pixel rectangle anchored at
// its world coordinate and the rectangles are merged by the engine. No
// qualifying cells yields an empty MultiPolygon.
func Polygonize(src GridSource, thresholdMin, thresholdMax float64, engine GeometryEngine) (orb.MultiPolygon, error) {
	points, err := PixelsToFeatures(src, thresholdMin, thresholdMax)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return orb.MultiPolygon{}, nil
	}

	extent := src.Extent()
	xres := (extent.XMax - extent.XMin) / float64(src.Width())
	yres := (extent.YMax - extent.YMin) / float64(src.Height())

	rects := make([]orb.Polygon, len(points))
	for i, p := range points {
		rects[i] = engine.Rectangle(p.Geometry.(orb.Point), xres, yres)
	}

	merged, err := engine.Union(rects)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeometryUnionFailed, err)
	}
	return merged, nil
}

// PolygonFeatures turns each polygon of a flood area into a feature carrying
// its area in squared map units.
func PolygonFeatures(mp orb.MultiPolygon) []Feature {
	features := make([]Feature, len(mp))
	for i, p := range mp {
		features[i] = Feature{Geometry: p, Value: planar.Area(p)}
	}
	return features
}
