// Package evaluate compares hits against a set of known features.
package evaluate

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/inodb/genome-mapping/internal/compare"
	"github.com/inodb/genome-mapping/internal/features"
	"github.com/inodb/genome-mapping/internal/index"
)

type featureIndex = index.Index[*features.FeatureData]
type featureEntry = index.Entry[*features.FeatureData]

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithWorkers sets the number of goroutines used for comparisons.
// Zero or a negative value uses runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(e *Evaluator) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		e.workers = n
	}
}

// WithIndexKind selects the interval tree used for features and hits.
func WithIndexKind(k index.Kind) Option {
	return func(e *Evaluator) {
		e.kind = k
	}
}

// Evaluator holds an index of known features and classifies hits
// against it.
type Evaluator struct {
	features *featureIndex
	kind     index.Kind
	workers  int
	logger   *zap.Logger
}

// NewEvaluator indexes the given features. Features are expected in
// 0-based half-open coordinates.
func NewEvaluator(feats []*features.FeatureData, opts ...Option) (*Evaluator, error) {
	e := &Evaluator{
		kind:    index.KindLLRB,
		workers: 1,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	entries := make([]featureEntry, 0, len(feats))
	for _, f := range feats {
		entries = append(entries, featureEntry{
			Chromosome: f.Chromosome,
			Start:      f.Start,
			Stop:       f.Stop,
			Value:      f,
		})
	}
	idx, err := index.Build(e.kind, entries)
	if err != nil {
		return nil, fmt.Errorf("index features: %w", err)
	}
	e.features = idx
	return e, nil
}

// SetLogger sets the logger for warning and info messages.
func (e *Evaluator) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Chromosomes returns the chromosomes carrying at least one feature.
func (e *Evaluator) Chromosomes() []string {
	return e.features.Chromosomes()
}

// seenSet tracks which features were consulted, partitioned by chromosome
// so that each chromosome can be owned by a single goroutine.
type seenSet map[string][]bool

func newSeenSet(idx *featureIndex) seenSet {
	s := make(seenSet, len(idx.Chromosomes()))
	for _, chrom := range idx.Chromosomes() {
		s[chrom] = make([]bool, len(idx.Entries(chrom)))
	}
	return s
}

func (s seenSet) mark(e *featureEntry) {
	s[e.Chromosome][e.ID()] = true
}

// missing builds one comparison for every unseen feature, by chromosome
// then input order.
func (e *Evaluator) missing(seen seenSet) ([]*compare.Comparison, error) {
	var result []*compare.Comparison
	for _, chrom := range e.features.Chromosomes() {
		batch, err := missingOn(e.features.Entries(chrom), seen[chrom])
		if err != nil {
			return nil, err
		}
		result = append(result, batch...)
	}
	return result, nil
}

func missingOn(entries []*featureEntry, seen []bool) ([]*compare.Comparison, error) {
	var result []*compare.Comparison
	for i, entry := range entries {
		if seen[i] {
			continue
		}
		c, err := compare.Build(nil, entry.Value)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, nil
}

func (e *Evaluator) report(c *compare.Comparison) {
	if !c.Type.IsUnknown() {
		return
	}
	fields := []zap.Field{
		zap.String("urs", c.URS()),
		zap.String("chrom", c.Chromosome()),
		zap.Int64("shift_start", c.Shift.Start),
		zap.Int64("shift_stop", c.Shift.Stop),
	}
	if c.Feature != nil {
		fields = append(fields, zap.String("feature", c.Feature.URS()))
	}
	e.logger.Warn("unclassified hit location", fields...)
}
