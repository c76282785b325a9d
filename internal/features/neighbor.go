package features

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/geomorph-labs/gauntlet/internal/index"
	"github.com/geomorph-labs/gauntlet/internal/model"
)

// Snapshot exposes the dataset-wide arrays captured between pipeline stages.
// Position i must correspond to tree point id i; the engine verifies window
// members against Len and treats a mismatch as a hard per-record error.
type Snapshot interface {
	NND(i int) float64
	Size(i int) float64
	Len() int
}

// Engine computes nearest-neighbor distance and radius-windowed statistics
// against an immutable spatial index. Safe for concurrent use.
type Engine struct {
	tree *index.KDTree
}

// NewEngine creates an Engine over a built index.
func NewEngine(tree *index.KDTree) *Engine {
	return &Engine{tree: tree}
}

// NearestDistance returns the distance from (x, y) to its closest other
// indexed point. The query point itself is assumed to be in the index, so the
// second-nearest result is the first real neighbor. A single-point dataset
// has no neighbor and returns 0.
func (e *Engine) NearestDistance(x, y float64) float64 {
	_, dists := e.tree.Nearest(index.Point{X: x, Y: y}, 2)
	if len(dists) < 2 {
		return 0
	}
	return dists[1]
}

// Window computes the neighbor statistic tuple for one scan radius around
// (x, y). Count includes the query point itself. Windows of 0 or 1 members
// take the degenerate branches; for larger windows the distances come from an
// independent k=n query and the NND/size inputs come from the snapshot, not
// from fresh geometry work.
func (e *Engine) Window(x, y, radius float64, snap Snapshot) (model.NeighborStats, error) {
	p := index.Point{X: x, Y: y}
	members := e.tree.Within(p, radius)
	n := len(members)

	// Self is always a member, so n == 0 only on an empty index.
	if n == 0 {
		return model.NeighborStats{}, nil
	}

	for _, m := range members {
		if m >= snap.Len() {
			return model.NeighborStats{}, eris.Errorf(
				"features: window member %d outside snapshot of %d rows", m, snap.Len())
		}
	}

	if n == 1 {
		size := snap.Size(members[0])
		return model.NeighborStats{
			Count:    1,
			SizeMean: size,
			SizeMin:  size,
			SizeMax:  size,
		}, nil
	}

	_, dists := e.tree.Nearest(p, n)

	var sumSq float64
	for _, d := range dists {
		sumSq += d * d
	}
	intensity := math.Pi * sumSq / float64(n)

	var sumNND float64
	sizes := make([]float64, n)
	for i, m := range members {
		sumNND += snap.NND(m)
		sizes[i] = snap.Size(m)
	}
	omd := sumNND / float64(n)

	// Clark-Evans expected mean distance under complete spatial randomness
	// for a circular window of area pi*r^2 holding n points.
	emd := 0.5 * math.Sqrt(math.Pi*radius*radius/float64(n))

	var nni float64
	if emd > 0 {
		nni = omd / emd
	}

	s := Summarize(sizes)
	return model.NeighborStats{
		Count:     n,
		OMD:       omd,
		EMD:       emd,
		NNI:       nni,
		Intensity: intensity,
		SizeMean:  s.Mean,
		SizeStd:   s.Std,
		SizeMin:   s.Min,
		SizeMax:   s.Max,
		SizeCV:    s.CV,
	}, nil
}
