// Package geometry implements the planar operations the polygonizer needs:
// building pixel rectangles and merging them into minimal polygons.
//
// Only axis-aligned rectangles are supported, which is all a raster ever
// produces. Rectangles are first grouped into touching clusters with an
// R-tree; each cluster is then rasterised onto its own compressed grid and
// the outline is traced edge by edge. Tracing always takes the left-most
// turn, so cells that touch only at a corner come out as separate polygons
// and every ring is simple.
package geometry

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
)

var errNotRectangle = errors.New("not an axis-aligned rectangle")

// RectEngine merges axis-aligned rectangles. It implements domain.GeometryEngine.
type RectEngine struct {
	// Tolerance is the snapping distance for coordinates, relative to the
	// smallest rectangle side. Edges computed independently for neighbouring
	// pixels differ by a few ulps and must still be treated as shared.
	Tolerance float64
}

// NewRectEngine returns an engine with a snapping tolerance of 1e-6 pixels.
func NewRectEngine() *RectEngine {
	return &RectEngine{Tolerance: 1e-6}
}

// Rectangle returns a counter-clockwise ring with origin as its top-left corner.
func (e *RectEngine) Rectangle(origin orb.Point, width, height float64) orb.Polygon {
	x, y := origin[0], origin[1]
	return orb.Polygon{orb.Ring{
		{x, y - height},
		{x + width, y - height},
		{x + width, y},
		{x, y},
		{x, y - height},
	}}
}

// Union merges the rectangles so that any two sharing an edge end up in the
// same polygon. Outer rings are counter-clockwise, holes clockwise. The
// result is ordered by the lower-left corner of each polygon.
func (e *RectEngine) Union(polygons []orb.Polygon) (orb.MultiPolygon, error) {
	if len(polygons) == 0 {
		return orb.MultiPolygon{}, nil
	}

	boxes := make([]orb.Bound, len(polygons))
	minSide := math.Inf(1)
	for i, p := range polygons {
		b, err := rectBound(p)
		if err != nil {
			return nil, fmt.Errorf("polygon %d: %w", i, err)
		}
		boxes[i] = b
		minSide = math.Min(minSide, math.Min(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]))
	}
	tol := minSide * e.Tolerance

	out := orb.MultiPolygon{}
	for _, members := range clusterBoxes(boxes, tol) {
		polys, err := traceCluster(boxes, members, tol)
		if err != nil {
			return nil, err
		}
		out = append(out, polys...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lowerLeftLess(out[i][0].Bound(), out[j][0].Bound())
	})
	return out, nil
}

// rectBound validates that p is a single-ring axis-aligned rectangle with a
// positive area and returns its bounds.
func rectBound(p orb.Polygon) (orb.Bound, error) {
	if len(p) != 1 {
		return orb.Bound{}, fmt.Errorf("%w: %d rings", errNotRectangle, len(p))
	}
	ring := p[0]
	if len(ring) == 5 && ring.Closed() {
		ring = ring[:4]
	}
	if len(ring) != 4 {
		return orb.Bound{}, fmt.Errorf("%w: %d vertices", errNotRectangle, len(ring))
	}

	b := ring.Bound()
	if !finite(b.Min[0], b.Min[1], b.Max[0], b.Max[1]) {
		return orb.Bound{}, fmt.Errorf("%w: non-finite coordinates", errNotRectangle)
	}
	if !(b.Max[0] > b.Min[0]) || !(b.Max[1] > b.Min[1]) {
		return orb.Bound{}, fmt.Errorf("%w: zero area", errNotRectangle)
	}

	corners := make(map[orb.Point]bool, 4)
	for _, pt := range ring {
		onX := pt[0] == b.Min[0] || pt[0] == b.Max[0]
		onY := pt[1] == b.Min[1] || pt[1] == b.Max[1]
		if !onX || !onY {
			return orb.Bound{}, fmt.Errorf("%w: vertex %v off the bounding box", errNotRectangle, pt)
		}
		corners[pt] = true
	}
	if len(corners) != 4 {
		return orb.Bound{}, fmt.Errorf("%w: repeated vertices", errNotRectangle)
	}
	return b, nil
}

func lowerLeftLess(a, b orb.Bound) bool {
	if a.Min[1] != b.Min[1] {
		return a.Min[1] < b.Min[1]
	}
	return a.Min[0] < b.Min[0]
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
