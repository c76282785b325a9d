package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		parts int
		want  []Span
	}{
		{
			name: "even split",
			n:    9, parts: 3,
			want: []Span{{0, 3}, {3, 6}, {6, 9}},
		},
		{
			name: "last span absorbs remainder",
			n:    10, parts: 3,
			want: []Span{{0, 3}, {3, 6}, {6, 10}},
		},
		{
			name: "single partition",
			n:    5, parts: 1,
			want: []Span{{0, 5}},
		},
		{
			name: "parts clamped to n",
			n:    2, parts: 8,
			want: []Span{{0, 1}, {1, 2}},
		},
		{
			name: "zero parts treated as one",
			n:    4, parts: 0,
			want: []Span{{0, 4}},
		},
		{
			name: "empty dataset",
			n:    0, parts: 4,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Partition(tt.n, tt.parts)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPartitionCoversAllRowsExactlyOnce(t *testing.T) {
	for _, n := range []int{1, 7, 100, 1001} {
		for _, parts := range []int{1, 2, 3, 10, 64} {
			spans := Partition(n, parts)
			require.NotEmpty(t, spans)

			covered := 0
			prevEnd := 0
			for _, s := range spans {
				assert.Equal(t, prevEnd, s.Start, "spans must be contiguous")
				assert.LessOrEqual(t, s.Start, s.End)
				covered += s.End - s.Start
				prevEnd = s.End
			}
			assert.Equal(t, n, covered, "n=%d parts=%d", n, parts)
			assert.Equal(t, n, spans[len(spans)-1].End)
		}
	}
}

func TestStageBParts(t *testing.T) {
	tests := []struct {
		name         string
		n            int
		workers      int
		maxPerWorker int
		want         int
	}{
		{"worker count dominates", 1000, 8, 150000, 8},
		{"row budget dominates", 1000000, 4, 150000, 7},
		{"exact multiple", 300000, 2, 150000, 2},
		{"one over budget", 300001, 2, 150000, 3},
		{"zero budget falls back to workers", 500, 4, 0, 4},
		{"zero workers", 10, 0, 3, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StageBParts(tt.n, tt.workers, tt.maxPerWorker))
		})
	}
}
