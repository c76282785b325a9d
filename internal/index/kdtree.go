// Package index provides an immutable 2-d kd-tree over building centroids.
// The tree is built once from the full ordered point sequence of a dataset
// and is then shared read-only across pipeline workers; external point ids
// are positions in the input sequence and never change.
package index

import (
	"container/heap"
	"math"
	"sort"
)

// Point is a 2-d coordinate. The unit (degrees or a planar unit) is the
// caller's choice; queries are Euclidean in whatever unit the tree was built
// with, and radius parameters must agree with that unit.
type Point struct {
	X float64
	Y float64
}

// KDTree is a balanced, pointerless 2-d kd-tree stored as a permutation of
// the input order. Safe for concurrent reads after Build; never mutated.
type KDTree struct {
	pts  []Point // input order, id i is pts[i]
	perm []int   // tree order -> input id
}

// Build constructs a KDTree from an ordered point sequence. Position i of
// points is point id i for every query result. The input slice is copied.
func Build(points []Point) *KDTree {
	pts := make([]Point, len(points))
	copy(pts, points)

	perm := make([]int, len(pts))
	for i := range perm {
		perm[i] = i
	}

	t := &KDTree{pts: pts, perm: perm}
	t.build(0, len(perm), 0)
	return t
}

// Len returns the number of indexed points.
func (t *KDTree) Len() int { return len(t.pts) }

// At returns the point with the given id.
func (t *KDTree) At(id int) Point { return t.pts[id] }

// build recursively sorts perm[start:end) so that the median of the axis
// splits the segment; node = start + len/2, left and right are the
// sub-segments on either side.
func (t *KDTree) build(start, end, depth int) {
	if end-start <= 1 {
		return
	}

	axis := depth % 2
	seg := t.perm[start:end]
	sort.Slice(seg, func(i, j int) bool {
		return t.coord(seg[i], axis) < t.coord(seg[j], axis)
	})

	mid := start + (end-start)/2
	t.build(start, mid, depth+1)
	t.build(mid+1, end, depth+1)
}

func (t *KDTree) coord(id, axis int) float64 {
	if axis == 0 {
		return t.pts[id].X
	}
	return t.pts[id].Y
}

// Nearest returns the ids and distances of the k points closest to p, sorted
// ascending by distance. A point equal to p (including the query point's own
// index entry) is returned with distance 0; callers querying for "other"
// neighbors must request k+1 and discard the self match. When k exceeds the
// tree size, all points are returned.
func (t *KDTree) Nearest(p Point, k int) ([]int, []float64) {
	if k <= 0 || len(t.pts) == 0 {
		return nil, nil
	}
	if k > len(t.pts) {
		k = len(t.pts)
	}

	h := &knnHeap{}
	heap.Init(h)
	t.knn(0, len(t.perm), 0, p, k, h)

	n := h.Len()
	ids := make([]int, n)
	dists := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		item := heap.Pop(h).(knnItem)
		ids[i] = item.id
		dists[i] = math.Sqrt(item.distSq)
	}
	return ids, dists
}

func (t *KDTree) knn(start, end, depth int, p Point, k int, h *knnHeap) {
	if start >= end {
		return
	}

	mid := start + (end-start)/2
	id := t.perm[mid]
	h.offer(id, distSq(p, t.pts[id]), k)

	if end-start == 1 {
		return
	}

	axis := depth % 2
	var q float64
	if axis == 0 {
		q = p.X
	} else {
		q = p.Y
	}
	planeDelta := q - t.coord(id, axis)

	nearLo, nearHi := start, mid
	farLo, farHi := mid+1, end
	if planeDelta > 0 {
		nearLo, nearHi, farLo, farHi = mid+1, end, start, mid
	}

	t.knn(nearLo, nearHi, depth+1, p, k, h)

	// The far side can only matter if the splitting plane is closer than the
	// current k-th best distance, or the heap is not yet full.
	if h.Len() < k || planeDelta*planeDelta <= (*h)[0].distSq {
		t.knn(farLo, farHi, depth+1, p, k, h)
	}
}

// Within returns the ids of all points at distance <= r from p, sorted
// ascending by id. The query point's own index entry qualifies at distance 0.
func (t *KDTree) Within(p Point, r float64) []int {
	if r < 0 || len(t.pts) == 0 {
		return nil
	}

	var ids []int
	t.within(0, len(t.perm), 0, p, r*r, &ids)
	sort.Ints(ids)
	return ids
}

func (t *KDTree) within(start, end, depth int, p Point, rSq float64, out *[]int) {
	if start >= end {
		return
	}

	mid := start + (end-start)/2
	id := t.perm[mid]
	if distSq(p, t.pts[id]) <= rSq {
		*out = append(*out, id)
	}

	if end-start == 1 {
		return
	}

	axis := depth % 2
	var q float64
	if axis == 0 {
		q = p.X
	} else {
		q = p.Y
	}
	planeDelta := q - t.coord(id, axis)

	if planeDelta <= 0 || planeDelta*planeDelta <= rSq {
		t.within(start, mid, depth+1, p, rSq, out)
	}
	if planeDelta >= 0 || planeDelta*planeDelta <= rSq {
		t.within(mid+1, end, depth+1, p, rSq, out)
	}
}

func distSq(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// knnItem is one candidate in the bounded max-heap used by Nearest.
type knnItem struct {
	id     int
	distSq float64
}

// knnHeap is a max-heap on distance so the worst candidate is evicted first.
type knnHeap []knnItem

func (h knnHeap) Len() int            { return len(h) }
func (h knnHeap) Less(i, j int) bool  { return h[i].distSq > h[j].distSq }
func (h knnHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *knnHeap) Push(x interface{}) { *h = append(*h, x.(knnItem)) }

func (h *knnHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// offer inserts a candidate, keeping at most k entries.
func (h *knnHeap) offer(id int, dSq float64, k int) {
	if h.Len() < k {
		heap.Push(h, knnItem{id: id, distSq: dSq})
		return
	}
	if dSq < (*h)[0].distSq {
		(*h)[0] = knnItem{id: id, distSq: dSq}
		heap.Fix(h, 0)
	}
}
