package index

import "sort"

// sortedTree answers overlap queries in O(log n + k) from a slice sorted by
// start. Entries are loaded once and never modified after build.
type sortedTree[T any] struct {
	entries []*Entry[T]
	maxStop []int64 // maxStop[i] = max(Stop) for entries[:i+1]
}

func buildSorted[T any](entries []*Entry[T]) *sortedTree[T] {
	if len(entries) == 0 {
		return &sortedTree[T]{}
	}

	sorted := append([]*Entry[T](nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	maxStop := make([]int64, len(sorted))
	maxStop[0] = sorted[0].Stop
	for i := 1; i < len(sorted); i++ {
		maxStop[i] = sorted[i].Stop
		if maxStop[i-1] > maxStop[i] {
			maxStop[i] = maxStop[i-1]
		}
	}

	return &sortedTree[T]{entries: sorted, maxStop: maxStop}
}

func (t *sortedTree[T]) search(start, stop int64) []*Entry[T] {
	// Candidates all start before stop: [0, hi).
	hi := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].Start >= stop
	})

	var result []*Entry[T]
	for i := hi - 1; i >= 0; i-- {
		// No entry in [0, i] reaches past start.
		if t.maxStop[i] <= start {
			break
		}
		if t.entries[i].overlaps(start, stop) {
			result = append(result, t.entries[i])
		}
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}
