package features

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrInconsistentFeature is returned when the fragments of one group
// disagree on chromosome, source or strand.
var ErrInconsistentFeature = errors.New("inconsistent feature fragments")

type fragmentKey struct {
	urs, chrom  string
	start, stop int64
}

// Aggregate groups fragments by their parents into FeatureData, in order of
// first appearance. A fragment listing several parents joins every one of
// them. Inside a group, repeats of a fragment (same identity, chromosome and
// coordinates) are dropped. A group whose identity, chromosome, strand and
// full fragment set equal a group already built is dropped as well, so an
// exon set duplicated under two transcript ids is only counted once while
// alternative transcripts sharing an exon keep it.
func Aggregate(fragments []*FeatureFragment) ([]*FeatureData, error) {
	var order []string
	groups := make(map[string][]*FeatureFragment)
	seen := make(map[string]map[fragmentKey]bool)

	for _, f := range fragments {
		for _, parent := range f.Parents() {
			group, ok := groups[parent]
			if !ok {
				order = append(order, parent)
				seen[parent] = make(map[fragmentKey]bool)
			}
			if len(group) > 0 {
				if err := checkConsistent(parent, group[0], f); err != nil {
					return nil, err
				}
			}
			k := fragmentKey{urs: f.URS(), chrom: f.Chromosome, start: f.Start, stop: f.Stop}
			if seen[parent][k] {
				continue
			}
			seen[parent][k] = true
			groups[parent] = append(group, f)
		}
	}

	result := make([]*FeatureData, 0, len(order))
	emitted := make(map[string]bool, len(order))
	for _, parent := range order {
		fd := build(parent, groups[parent])
		sig := signature(fd)
		if emitted[sig] {
			continue
		}
		emitted[sig] = true
		result = append(result, fd)
	}
	return result, nil
}

func checkConsistent(parent string, head, f *FeatureFragment) error {
	switch {
	case f.Chromosome != head.Chromosome:
		return fmt.Errorf("%w: %s spans chromosomes %q and %q",
			ErrInconsistentFeature, parent, head.Chromosome, f.Chromosome)
	case f.Source != head.Source:
		return fmt.Errorf("%w: %s has sources %q and %q",
			ErrInconsistentFeature, parent, head.Source, f.Source)
	case f.Strand != head.Strand:
		return fmt.Errorf("%w: %s has fragments on both strands",
			ErrInconsistentFeature, parent)
	}
	return nil
}

// build assumes the fragments were checked with checkConsistent.
func build(parent string, fragments []*FeatureFragment) *FeatureData {
	sorted := make([]*FeatureFragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].Stop < sorted[j].Stop
	})

	head := sorted[0]
	fd := &FeatureData{
		Group:      parent,
		Chromosome: head.Chromosome,
		Source:     head.Source,
		Strand:     head.Strand,
		Start:      head.Start,
		Stop:       head.Stop,
		Fragments:  sorted,
	}
	for _, f := range sorted[1:] {
		fd.Start = min(fd.Start, f.Start)
		fd.Stop = max(fd.Stop, f.Stop)
	}
	return fd
}

// signature identifies a group by identity, placement and fragment set.
func signature(fd *FeatureData) string {
	var b strings.Builder
	b.WriteString(fd.URS())
	b.WriteByte('|')
	b.WriteString(fd.Chromosome)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(int(fd.Strand)))
	for _, f := range fd.Fragments {
		b.WriteByte('|')
		b.WriteString(f.URS())
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(f.Start, 10))
		b.WriteByte('-')
		b.WriteString(strconv.FormatInt(f.Stop, 10))
	}
	return b.String()
}
