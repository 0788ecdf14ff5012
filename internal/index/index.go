// Package index provides per-chromosome interval indexes over 0-based
// half-open coordinates.
package index

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownChromosome is returned by strict lookups on a chromosome
	// with no entries.
	ErrUnknownChromosome = errors.New("unknown chromosome")
	// ErrInvertedRange is returned when an entry starts after it stops.
	ErrInvertedRange = errors.New("inverted range")
)

// Entry is one interval and its payload.
type Entry[T any] struct {
	Chromosome string
	Start      int64
	Stop       int64
	Value      T

	id int
}

// ID returns the position of the entry within its chromosome, in input
// order. IDs are dense: 0..len(Entries(chrom))-1.
func (e *Entry[T]) ID() int { return e.id }

func (e *Entry[T]) overlaps(start, stop int64) bool {
	return e.Start < stop && e.Stop > start
}

type tree[T any] interface {
	search(start, stop int64) []*Entry[T]
}

// Index maps chromosomes to interval trees. It is immutable after Build
// and safe for concurrent queries.
type Index[T any] struct {
	kind    Kind
	trees   map[string]tree[T]
	entries map[string][]*Entry[T]
	chroms  []string
	size    int
}

// Build groups entries by chromosome and builds one tree per group.
func Build[T any](kind Kind, entries []Entry[T]) (*Index[T], error) {
	idx := &Index[T]{
		kind:    kind,
		trees:   make(map[string]tree[T]),
		entries: make(map[string][]*Entry[T]),
	}

	for i := range entries {
		e := entries[i]
		if e.Start > e.Stop {
			return nil, fmt.Errorf("%s:%d-%d: %w", e.Chromosome, e.Start, e.Stop, ErrInvertedRange)
		}
		group := idx.entries[e.Chromosome]
		e.id = len(group)
		idx.entries[e.Chromosome] = append(group, &e)
	}

	for chrom, group := range idx.entries {
		t, err := newTree(kind, group)
		if err != nil {
			return nil, fmt.Errorf("build %s tree for %s: %w", kind, chrom, err)
		}
		idx.trees[chrom] = t
		idx.chroms = append(idx.chroms, chrom)
		idx.size += len(group)
	}
	sort.Strings(idx.chroms)

	return idx, nil
}

// Kind returns the tree implementation backing the index.
func (x *Index[T]) Kind() Kind { return x.kind }

// Search returns entries overlapping [start, stop) on chrom, ordered by
// start. An unknown chromosome yields no entries.
func (x *Index[T]) Search(chrom string, start, stop int64) []*Entry[T] {
	t, ok := x.trees[chrom]
	if !ok || start > stop {
		return nil
	}
	return t.search(start, stop)
}

// SearchStrict is Search but fails on a chromosome without entries.
func (x *Index[T]) SearchStrict(chrom string, start, stop int64) ([]*Entry[T], error) {
	if !x.Has(chrom) {
		return nil, fmt.Errorf("%q: %w", chrom, ErrUnknownChromosome)
	}
	return x.Search(chrom, start, stop), nil
}

// Has reports whether chrom has any entries.
func (x *Index[T]) Has(chrom string) bool {
	_, ok := x.trees[chrom]
	return ok
}

// Chromosomes returns the indexed chromosomes in sorted order.
func (x *Index[T]) Chromosomes() []string {
	return append([]string(nil), x.chroms...)
}

// Entries returns the entries of chrom in input order.
func (x *Index[T]) Entries(chrom string) []*Entry[T] {
	return x.entries[chrom]
}

// Len returns the total number of entries.
func (x *Index[T]) Len() int { return x.size }
