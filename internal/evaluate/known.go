package evaluate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/genome-mapping/internal/compare"
	"github.com/inodb/genome-mapping/internal/hits"
)

// CompareOptions controls CompareToKnown.
type CompareOptions struct {
	// ReduceDuplicates keeps only features sharing the hit identity when a
	// hit overlaps several features and at least one of them matches.
	ReduceDuplicates bool
	// IgnoreMissingChromosome skips hits on chromosomes without features
	// instead of failing.
	IgnoreMissingChromosome bool
}

// DefaultCompareOptions enables duplicate reduction and skips hits on
// unknown chromosomes.
func DefaultCompareOptions() CompareOptions {
	return CompareOptions{ReduceDuplicates: true, IgnoreMissingChromosome: true}
}

// CompareToKnown classifies every hit against the features it overlaps and
// reports every feature no hit overlapped as missing. Comparisons follow
// hit input order; missing features come last, by chromosome.
func (e *Evaluator) CompareToKnown(hs []*hits.Hit, opts CompareOptions) ([]*compare.Comparison, error) {
	seen := newSeenSet(e.features)
	var result []*compare.Comparison

	collect := func(r WorkResult) error {
		if r.Err != nil {
			return r.Err
		}
		for _, entry := range r.Overlaps {
			seen.mark(entry)
		}
		for _, c := range r.Comparisons {
			e.report(c)
		}
		result = append(result, r.Comparisons...)
		return nil
	}

	if e.workers > 1 {
		items := make(chan WorkItem, 2*e.workers)
		go func() {
			defer close(items)
			for i, h := range hs {
				items <- WorkItem{Seq: i, Hit: h}
			}
		}()
		if err := OrderedCollect(e.ParallelCompare(items, e.workers, opts), collect); err != nil {
			return nil, err
		}
	} else {
		for i, h := range hs {
			if err := collect(e.compareHit(i, h, opts)); err != nil {
				return nil, err
			}
		}
	}

	missing, err := e.missing(seen)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("compared hits to known features",
		zap.Int("hits", len(hs)),
		zap.Int("features", e.features.Len()),
		zap.Int("comparisons", len(result)),
		zap.Int("missing", len(missing)))

	return append(result, missing...), nil
}

// compareHit classifies a single hit. It only reads the index, so it is
// safe to call from several goroutines.
func (e *Evaluator) compareHit(seq int, h *hits.Hit, opts CompareOptions) WorkResult {
	r := WorkResult{Seq: seq, Hit: h}

	overlaps, err := e.features.SearchStrict(h.Chromosome, h.Start, h.Stop)
	if err != nil {
		if opts.IgnoreMissingChromosome {
			return r
		}
		r.Err = fmt.Errorf("hit %s: %w", h.URS(), err)
		return r
	}

	if len(overlaps) == 0 {
		c, err := compare.Build(h, nil)
		r.Comparisons, r.Err = []*compare.Comparison{c}, err
		return r
	}

	kept := overlaps
	if len(overlaps) > 1 && opts.ReduceDuplicates {
		if same := sameIdentity(h, overlaps); len(same) > 0 {
			kept = same
		}
	}

	r.Overlaps = overlaps
	for _, entry := range kept {
		c, err := compare.Build(h, entry.Value)
		if err != nil {
			r.Err = err
			return r
		}
		r.Comparisons = append(r.Comparisons, c)
	}
	return r
}

func sameIdentity(h *hits.Hit, overlaps []*featureEntry) []*featureEntry {
	var same []*featureEntry
	for _, entry := range overlaps {
		if entry.Value.URS() == h.URS() {
			same = append(same, entry)
		}
	}
	return same
}
