package index

import (
	"github.com/biogo/store/interval"
)

type llrbTree[T any] struct {
	t *interval.IntTree
}

type llrbNode[T any] struct {
	e *Entry[T]
}

func (n llrbNode[T]) Overlap(b interval.IntRange) bool {
	return n.e.Stop > int64(b.Start) && n.e.Start < int64(b.End)
}
func (n llrbNode[T]) ID() uintptr { return uintptr(n.e.id) }
// Range widens empty entries to one base; the tree rejects empty ranges.
func (n llrbNode[T]) Range() interval.IntRange {
	end := n.e.Stop
	if end == n.e.Start {
		end++
	}
	return interval.IntRange{Start: int(n.e.Start), End: int(end)}
}

type llrbQuery struct {
	start, stop int
}

func (q llrbQuery) Overlap(b interval.IntRange) bool {
	return b.End > q.start && b.Start < q.stop
}

func buildLLRB[T any](entries []*Entry[T]) (*llrbTree[T], error) {
	t := &interval.IntTree{}
	for _, e := range entries {
		if err := t.Insert(llrbNode[T]{e: e}, true); err != nil {
			return nil, err
		}
	}
	t.AdjustRanges()
	return &llrbTree[T]{t: t}, nil
}

func (t *llrbTree[T]) search(start, stop int64) []*Entry[T] {
	found := t.t.Get(llrbQuery{start: int(start), stop: int(stop)})
	if len(found) == 0 {
		return nil
	}
	result := make([]*Entry[T], 0, len(found))
	for _, f := range found {
		if e := f.(llrbNode[T]).e; e.overlaps(start, stop) {
			result = append(result, e)
		}
	}
	return result
}
