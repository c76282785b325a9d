package pipeline

import (
	"github.com/rotisserie/eris"
)

// Snapshot freezes the dataset-wide arrays stage B reads: per-record
// nearest-neighbor distance and size, both in index row order. The arrays
// are copied at construction, so later mutation of the sources cannot skew
// running workers.
type Snapshot struct {
	nnd  []float64
	size []float64
}

// NewSnapshot copies nnd and size into a frozen snapshot.
func NewSnapshot(nnd, size []float64) *Snapshot {
	s := &Snapshot{
		nnd:  make([]float64, len(nnd)),
		size: make([]float64, len(size)),
	}
	copy(s.nnd, nnd)
	copy(s.size, size)
	return s
}

// NND returns the precomputed nearest-neighbor distance for index row i.
func (s *Snapshot) NND(i int) float64 { return s.nnd[i] }

// Size returns the size (sqft) for index row i.
func (s *Snapshot) Size(i int) float64 { return s.size[i] }

// Len returns the number of rows in the snapshot.
func (s *Snapshot) Len() int { return len(s.nnd) }

// Validate checks both arrays against the index row count. A mismatch means
// the invariant linking index ids to array positions is broken and no
// stage-B result could be trusted.
func (s *Snapshot) Validate(n int) error {
	if len(s.nnd) != n || len(s.size) != n {
		return eris.Errorf("pipeline: snapshot misaligned with index: nnd=%d size=%d index=%d",
			len(s.nnd), len(s.size), n)
	}
	return nil
}
