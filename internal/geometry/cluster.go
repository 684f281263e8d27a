package geometry

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// indexedBox adapts a rectangle to rtreego.Spatial.
type indexedBox struct {
	index int
	rect  rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (b indexedBox) Bounds() rtreego.Rect {
	return b.rect
}

// clusterBoxes groups boxes whose tolerance-expanded bounds touch or overlap.
// Groups are ordered by their smallest member index and list members in
// ascending order.
func clusterBoxes(boxes []orb.Bound, tol float64) [][]int {
	// 2D tree, min=25 children, max=50 children
	tree := rtreego.NewTree(2, 25, 50)
	items := make([]indexedBox, len(boxes))
	for i, b := range boxes {
		point := rtreego.Point{b.Min[0] - tol, b.Min[1] - tol}
		lengths := []float64{
			b.Max[0] - b.Min[0] + 2*tol,
			b.Max[1] - b.Min[1] + 2*tol,
		}
		// Lengths are positive: rectBound rejects zero-area boxes.
		rect, _ := rtreego.NewRect(point, lengths)
		items[i] = indexedBox{index: i, rect: rect}
		tree.Insert(items[i])
	}

	sets := newDisjointSet(len(boxes))
	for _, item := range items {
		for _, hit := range tree.SearchIntersect(item.rect) {
			sets.union(item.index, hit.(indexedBox).index)
		}
	}

	byRoot := make(map[int][]int)
	var roots []int
	for i := range boxes {
		r := sets.find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], i)
	}

	groups := make([][]int, 0, len(roots))
	for _, r := range roots {
		groups = append(groups, byRoot[r])
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}

type disjointSet struct {
	parent []int
	rank   []int
}

func newDisjointSet(n int) *disjointSet {
	s := &disjointSet{parent: make([]int, n), rank: make([]int, n)}
	for i := range s.parent {
		s.parent[i] = i
	}
	return s
}

func (s *disjointSet) find(i int) int {
	for s.parent[i] != i {
		s.parent[i] = s.parent[s.parent[i]]
		i = s.parent[i]
	}
	return i
}

func (s *disjointSet) union(a, b int) {
	ra, rb := s.find(a), s.find(b)
	if ra == rb {
		return
	}
	switch {
	case s.rank[ra] < s.rank[rb]:
		s.parent[ra] = rb
	case s.rank[ra] > s.rank[rb]:
		s.parent[rb] = ra
	default:
		s.parent[rb] = ra
		s.rank[ra]++
	}
}
