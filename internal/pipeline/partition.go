package pipeline

// Span is a half-open row range [Start, End) over the filtered record slice.
type Span struct {
	Start int
	End   int
}

// Partition splits n rows into parts contiguous spans. Sizes are n/parts
// rounded down, with the last span absorbing the remainder. parts is clamped
// to [1, n]; an empty dataset yields no spans.
func Partition(n, parts int) []Span {
	if n == 0 {
		return nil
	}
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}

	size := n / parts
	spans := make([]Span, parts)
	start := 0
	for i := 0; i < parts; i++ {
		end := start + size
		if i == parts-1 {
			end = n
		}
		spans[i] = Span{Start: start, End: end}
		start = end
	}
	return spans
}

// StageBParts derives the stage-B partition count: enough partitions that no
// worker sees more than maxPerWorker rows, but never fewer than the worker
// count. A non-positive budget disables the row cap.
func StageBParts(n, workers, maxPerWorker int) int {
	parts := workers
	if maxPerWorker > 0 {
		byBudget := (n + maxPerWorker - 1) / maxPerWorker
		if byBudget > parts {
			parts = byBudget
		}
	}
	if parts < 1 {
		parts = 1
	}
	return parts
}
