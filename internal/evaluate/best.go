package evaluate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/genome-mapping/internal/compare"
	"github.com/inodb/genome-mapping/internal/hits"
	"github.com/inodb/genome-mapping/internal/index"
)

// ErrNegativeRange is returned by BestHitsWithin for a negative window.
var ErrNegativeRange = errors.New("max range must not be negative")

type hitIndex = index.Index[*hits.Hit]
type hitEntry = index.Entry[*hits.Hit]

// sweep holds the output of one chromosome.
type sweep struct {
	found   []*compare.Comparison
	missing []*compare.Comparison
}

// BestHitsWithin pairs every feature with the highest-identity hits lying
// within maxRange bases of it. All hits tied for the best identity are
// kept. Features with no hit in range are reported as missing after all
// found comparisons. Chromosomes are processed concurrently and the output
// is ordered by chromosome.
func (e *Evaluator) BestHitsWithin(ctx context.Context, hs []*hits.Hit, maxRange int64) ([]*compare.Comparison, error) {
	if maxRange < 0 {
		return nil, fmt.Errorf("%d: %w", maxRange, ErrNegativeRange)
	}

	entries := make([]hitEntry, 0, len(hs))
	for _, h := range hs {
		entries = append(entries, hitEntry{Chromosome: h.Chromosome, Start: h.Start, Stop: h.Stop, Value: h})
	}
	hitIdx, err := index.Build(e.kind, entries)
	if err != nil {
		return nil, fmt.Errorf("index hits: %w", err)
	}

	chroms := e.features.Chromosomes()
	sweeps := make([]sweep, len(chroms))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, chrom := range chroms {
		i, chrom := i, chrom
		g.Go(func() error {
			s, err := e.sweepChromosome(ctx, hitIdx, chrom, maxRange)
			if err != nil {
				return fmt.Errorf("chromosome %s: %w", chrom, err)
			}
			sweeps[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var found, missing []*compare.Comparison
	for _, s := range sweeps {
		found = append(found, s.found...)
		missing = append(missing, s.missing...)
	}
	for _, c := range found {
		e.report(c)
	}
	e.logger.Debug("matched features to nearby hits",
		zap.Int("hits", len(hs)),
		zap.Int64("max_range", maxRange),
		zap.Int("comparisons", len(found)),
		zap.Int("missing", len(missing)))

	return append(found, missing...), nil
}

func (e *Evaluator) sweepChromosome(ctx context.Context, hitIdx *hitIndex, chrom string, maxRange int64) (sweep, error) {
	feats := e.features.Entries(chrom)
	found := make([]bool, len(feats))

	var s sweep
	for i, entry := range feats {
		if err := ctx.Err(); err != nil {
			return sweep{}, err
		}

		start := max(entry.Start-maxRange, 0)
		best := bestByIdentity(hitIdx.Search(chrom, start, entry.Stop+maxRange))
		for _, h := range best {
			c, err := compare.Build(h.Value, entry.Value)
			if err != nil {
				return sweep{}, err
			}
			s.found = append(s.found, c)
			found[i] = true
		}
	}

	missing, err := missingOn(feats, found)
	if err != nil {
		return sweep{}, err
	}
	s.missing = missing
	return s, nil
}

// bestByIdentity returns every candidate sharing the highest identity.
func bestByIdentity(candidates []*hitEntry) []*hitEntry {
	var best []*hitEntry
	var top float64
	for _, c := range candidates {
		id := c.Value.Identity()
		switch {
		case len(best) == 0 || id > top:
			top = id
			best = []*hitEntry{c}
		case id == top:
			best = append(best, c)
		}
	}
	return best
}
