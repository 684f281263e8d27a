package geometry

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Edge directions, counter-clockwise from east.
const (
	east = iota
	north
	west
	south
)

// edge is a unit boundary segment between two nodes of the compressed grid,
// directed so that the covered side lies on its left.
type edge struct {
	from, to int
	dir      int
}

// compressedGrid is the cluster's coordinates after snapping, with one
// coverage flag per cell between consecutive coordinates.
type compressedGrid struct {
	xs, ys  []float64
	covered []bool
}

func (g *compressedGrid) nx() int { return len(g.xs) - 1 }
func (g *compressedGrid) ny() int { return len(g.ys) - 1 }

func (g *compressedGrid) isCovered(i, j int) bool {
	if i < 0 || j < 0 || i >= g.nx() || j >= g.ny() {
		return false
	}
	return g.covered[j*g.nx()+i]
}

func (g *compressedGrid) node(i, j int) int { return j*(g.nx()+1) + i }

func (g *compressedGrid) point(node int) orb.Point {
	stride := g.nx() + 1
	return orb.Point{g.xs[node%stride], g.ys[node/stride]}
}

// traceCluster unions the boxes listed in members.
func traceCluster(boxes []orb.Bound, members []int, tol float64) ([]orb.Polygon, error) {
	xs := make([]float64, 0, 2*len(members))
	ys := make([]float64, 0, 2*len(members))
	for _, m := range members {
		xs = append(xs, boxes[m].Min[0], boxes[m].Max[0])
		ys = append(ys, boxes[m].Min[1], boxes[m].Max[1])
	}

	g := &compressedGrid{xs: snap(xs, tol), ys: snap(ys, tol)}
	g.covered = make([]bool, g.nx()*g.ny())
	for _, m := range members {
		b := boxes[m]
		i0, ok0 := lookup(g.xs, b.Min[0], tol)
		i1, ok1 := lookup(g.xs, b.Max[0], tol)
		j0, ok2 := lookup(g.ys, b.Min[1], tol)
		j1, ok3 := lookup(g.ys, b.Max[1], tol)
		if !ok0 || !ok1 || !ok2 || !ok3 || i0 >= i1 || j0 >= j1 {
			return nil, fmt.Errorf("rectangle %v collapses under snapping tolerance %g", b, tol)
		}
		for j := j0; j < j1; j++ {
			for i := i0; i < i1; i++ {
				g.covered[j*g.nx()+i] = true
			}
		}
	}

	edges, outgoing := boundaryEdges(g)
	return assembleRings(g, edges, traceRings(edges, outgoing)), nil
}

// boundaryEdges emits every cell side that separates a covered cell from an
// uncovered one, oriented with the covered cell on the left.
func boundaryEdges(g *compressedGrid) ([]edge, [][]int) {
	var edges []edge
	outgoing := make([][]int, (g.nx()+1)*(g.ny()+1))
	add := func(from, to, dir int) {
		outgoing[from] = append(outgoing[from], len(edges))
		edges = append(edges, edge{from: from, to: to, dir: dir})
	}

	for j := 0; j < g.ny(); j++ {
		for i := 0; i < g.nx(); i++ {
			if !g.isCovered(i, j) {
				continue
			}
			if !g.isCovered(i, j-1) {
				add(g.node(i, j), g.node(i+1, j), east)
			}
			if !g.isCovered(i+1, j) {
				add(g.node(i+1, j), g.node(i+1, j+1), north)
			}
			if !g.isCovered(i, j+1) {
				add(g.node(i+1, j+1), g.node(i, j+1), west)
			}
			if !g.isCovered(i-1, j) {
				add(g.node(i, j+1), g.node(i, j), south)
			}
		}
	}
	return edges, outgoing
}

// tracedRing is a closed sequence of edge indices.
type tracedRing []int

// traceRings partitions the edges into closed rings. At a node with two
// outgoing edges the left-most turn is taken, which pairs each incoming
// edge with exactly one outgoing edge.
func traceRings(edges []edge, outgoing [][]int) []tracedRing {
	next := func(e int) int {
		in := edges[e]
		for _, turn := range []int{1, 0, 3} {
			want := (in.dir + turn) % 4
			for _, cand := range outgoing[in.to] {
				if edges[cand].dir == want {
					return cand
				}
			}
		}
		return -1
	}

	used := make([]bool, len(edges))
	var rings []tracedRing
	for start := range edges {
		if used[start] {
			continue
		}
		var ring tracedRing
		for e := start; e >= 0 && !used[e]; e = next(e) {
			used[e] = true
			ring = append(ring, e)
		}
		rings = append(rings, ring)
	}
	return rings
}

type ringInfo struct {
	ring orb.Ring
	area float64
}

// assembleRings drops collinear vertices, splits rings into outers and holes
// and attaches each hole to the smallest outer ring containing it.
func assembleRings(g *compressedGrid, edges []edge, traced []tracedRing) []orb.Polygon {
	var outers []ringInfo
	var holes []orb.Ring
	var probes []orb.Point

	for _, tr := range traced {
		ring := make(orb.Ring, 0, len(tr)+1)
		for k, e := range tr {
			prev := tr[(k+len(tr)-1)%len(tr)]
			if edges[prev].dir == edges[e].dir {
				continue
			}
			ring = append(ring, g.point(edges[e].from))
		}
		ring = append(ring, ring[0])

		area := signedArea(ring)
		if area > 0 {
			outers = append(outers, ringInfo{ring: ring, area: area})
			continue
		}
		holes = append(holes, ring)
		probes = append(probes, holeProbe(g, edges[tr[0]]))
	}

	polys := make([]orb.Polygon, len(outers))
	for k, o := range outers {
		polys[k] = orb.Polygon{o.ring}
	}
	for h, hole := range holes {
		best := 0
		found := false
		for k, o := range outers {
			if !planar.RingContains(o.ring, probes[h]) {
				continue
			}
			if !found || o.area < outers[best].area {
				best, found = k, true
			}
		}
		polys[best] = append(polys[best], hole)
	}
	return polys
}

// holeProbe returns a point just to the right of e, which for a hole edge
// lies inside the uncovered region.
func holeProbe(g *compressedGrid, e edge) orb.Point {
	a, b := g.point(e.from), g.point(e.to)
	mid := orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
	eps := g.minStep() / 4
	switch e.dir {
	case east:
		mid[1] -= eps
	case north:
		mid[0] += eps
	case west:
		mid[1] += eps
	case south:
		mid[0] -= eps
	}
	return mid
}

func (g *compressedGrid) minStep() float64 {
	step := math.Inf(1)
	for _, vs := range [][]float64{g.xs, g.ys} {
		for i := 1; i < len(vs); i++ {
			step = math.Min(step, vs[i]-vs[i-1])
		}
	}
	return step
}

// signedArea is the shoelace area of a closed ring, positive when the ring
// runs counter-clockwise.
func signedArea(r orb.Ring) float64 {
	var sum float64
	for i := 0; i+1 < len(r); i++ {
		sum += r[i][0]*r[i+1][1] - r[i+1][0]*r[i][1]
	}
	return sum / 2
}

// snap sorts values and merges those within tol of the previous kept value.
func snap(values []float64, tol float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	out := sorted[:0]
	for _, v := range sorted {
		if len(out) > 0 && v-out[len(out)-1] <= tol {
			continue
		}
		out = append(out, v)
	}
	return out
}

// lookup finds the snapped index of v.
func lookup(snapped []float64, v, tol float64) (int, bool) {
	k := sort.SearchFloat64s(snapped, v-tol)
	if k < len(snapped) && math.Abs(snapped[k]-v) <= tol {
		return k, true
	}
	return 0, false
}
