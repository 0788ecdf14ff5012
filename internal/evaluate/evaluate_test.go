package evaluate

import (
	"context"
	"fmt"
	"testing"

	"github.com/biogo/biogo/seq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/genome-mapping/internal/compare"
	"github.com/inodb/genome-mapping/internal/features"
	"github.com/inodb/genome-mapping/internal/hits"
	"github.com/inodb/genome-mapping/internal/index"
)

func makeHit(urs, chrom string, start, stop int64, identical int) *hits.Hit {
	return &hits.Hit{
		Accession:  urs,
		Chromosome: chrom,
		Start:      start,
		Stop:       stop,
		Strand:     seq.Plus,
		Fragments:  []hits.Fragment{{Name: urs, Chromosome: chrom, Start: start, Stop: stop, Strand: seq.Plus}},
		Stats: hits.Stats{
			Identical: identical,
			Length:    hits.PairStat{Query: float64(stop - start), Hit: float64(stop - start)},
		},
	}
}

func makeFeature(urs, chrom string, start, stop int64) *features.FeatureData {
	return &features.FeatureData{
		Chromosome: chrom,
		Source:     "test",
		Strand:     seq.Plus,
		Start:      start,
		Stop:       stop,
		Fragments: []*features.FeatureFragment{{
			Chromosome:  chrom,
			Source:      "test",
			FeatureType: "exon",
			Start:       start,
			Stop:        stop,
			Strand:      seq.Plus,
			Attributes:  map[string][]string{features.IdentityAttribute: {urs}},
		}},
	}
}

func newEvaluator(t *testing.T, feats []*features.FeatureData, opts ...Option) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(feats, opts...)
	require.NoError(t, err)
	return e
}

func labels(cs []*compare.Comparison) []string {
	var out []string
	for _, c := range cs {
		out = append(out, c.URS()+":"+c.Type.Pretty)
	}
	return out
}

func TestCompareToKnown_ExactMatch(t *testing.T) {
	e := newEvaluator(t, []*features.FeatureData{makeFeature("X", "1", 100, 200)})

	out, err := e.CompareToKnown([]*hits.Hit{makeHit("X", "1", 100, 200, 100)}, DefaultCompareOptions())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, compare.MatchCorrect, out[0].Type.Match)
	assert.Equal(t, compare.LocationExact, out[0].Type.Location)
}

func TestCompareToKnown_ShiftedIncorrect(t *testing.T) {
	e := newEvaluator(t, []*features.FeatureData{makeFeature("Y", "1", 150, 250)})

	out, err := e.CompareToKnown([]*hits.Hit{makeHit("X", "1", 100, 200, 100)}, DefaultCompareOptions())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, compare.MatchIncorrect, out[0].Type.Match)
	assert.Equal(t, compare.Location5pShift, out[0].Type.Location)
}

func TestCompareToKnown_MissingChromosomeSkipped(t *testing.T) {
	e := newEvaluator(t, []*features.FeatureData{makeFeature("X", "1", 100, 200)})

	out, err := e.CompareToKnown([]*hits.Hit{makeHit("X", "2", 100, 200, 100)}, DefaultCompareOptions())
	require.NoError(t, err)
	require.Len(t, out, 1, "only the missing feature")
	assert.Nil(t, out[0].Hit)
	assert.Equal(t, compare.MatchMissing, out[0].Type.Match)
}

func TestCompareToKnown_MissingChromosomeStrict(t *testing.T) {
	e := newEvaluator(t, []*features.FeatureData{makeFeature("X", "1", 100, 200)})

	opts := DefaultCompareOptions()
	opts.IgnoreMissingChromosome = false
	_, err := e.CompareToKnown([]*hits.Hit{makeHit("X", "2", 100, 200, 100)}, opts)
	assert.ErrorIs(t, err, index.ErrUnknownChromosome)

	e = newEvaluator(t, []*features.FeatureData{makeFeature("X", "1", 100, 200)}, WithWorkers(4))
	_, err = e.CompareToKnown([]*hits.Hit{
		makeHit("X", "1", 100, 200, 100),
		makeHit("X", "2", 100, 200, 100),
	}, opts)
	assert.ErrorIs(t, err, index.ErrUnknownChromosome)
}

func TestCompareToKnown_TrailingMissing(t *testing.T) {
	e := newEvaluator(t, []*features.FeatureData{
		makeFeature("X", "1", 100, 200),
		makeFeature("Z", "1", 1000, 1100),
	})

	out, err := e.CompareToKnown([]*hits.Hit{makeHit("X", "1", 100, 200, 100)}, DefaultCompareOptions())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Z", out[1].URS())
	assert.Nil(t, out[1].Hit)
	assert.Equal(t, compare.MatchMissing, out[1].Type.Match)
}

func TestCompareToKnown_Novel(t *testing.T) {
	e := newEvaluator(t, []*features.FeatureData{makeFeature("X", "1", 100, 200)})

	out, err := e.CompareToKnown([]*hits.Hit{
		makeHit("N", "1", 500, 600, 100),
		makeHit("X", "1", 100, 200, 100),
	}, DefaultCompareOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"N:novel", "X:correct/exact/unspliced/unspliced"}, labels(out))
}

func TestCompareToKnown_ReduceDuplicates(t *testing.T) {
	feats := []*features.FeatureData{
		makeFeature("A", "1", 100, 200),
		makeFeature("B", "1", 100, 200),
	}
	h := makeHit("A", "1", 100, 200, 100)

	e := newEvaluator(t, feats)
	out, err := e.CompareToKnown([]*hits.Hit{h}, DefaultCompareOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"A:correct/exact/unspliced/unspliced"}, labels(out),
		"B overlapped but was narrowed away and counts as seen")

	out, err = e.CompareToKnown([]*hits.Hit{h}, CompareOptions{IgnoreMissingChromosome: true})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"A:correct/exact/unspliced/unspliced",
		"A:incorrect/exact/unspliced/unspliced",
	}, labels(out))
}

func TestCompareToKnown_NoIdentityMatchKeepsAll(t *testing.T) {
	e := newEvaluator(t, []*features.FeatureData{
		makeFeature("A", "1", 100, 200),
		makeFeature("B", "1", 150, 300),
	})

	out, err := e.CompareToKnown([]*hits.Hit{makeHit("C", "1", 120, 180, 60)}, DefaultCompareOptions())
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, c := range out {
		assert.Equal(t, compare.MatchIncorrect, c.Type.Match)
	}
}

func TestCompareToKnown_Completeness(t *testing.T) {
	var feats []*features.FeatureData
	var hs []*hits.Hit
	for i := 0; i < 40; i++ {
		chrom := fmt.Sprintf("%d", i%3+1)
		start := int64(i * 100)
		feats = append(feats, makeFeature(fmt.Sprintf("F%d", i), chrom, start, start+80))
		if i%4 != 0 {
			hs = append(hs, makeHit(fmt.Sprintf("F%d", i+i%2), chrom, start+int64(i%3)*10, start+90, 50))
		}
	}
	hs = append(hs, makeHit("N", "1", 99999, 100010, 5))

	e := newEvaluator(t, feats)
	out, err := e.CompareToKnown(hs, DefaultCompareOptions())
	require.NoError(t, err)

	hitSeen := map[*hits.Hit]bool{}
	featSeen := map[*features.FeatureData]bool{}
	for _, c := range out {
		if c.Hit != nil {
			hitSeen[c.Hit] = true
		}
		if c.Feature != nil {
			featSeen[c.Feature] = true
		}
	}
	assert.Len(t, hitSeen, len(hs))
	assert.Len(t, featSeen, len(feats))
}

func TestCompareToKnown_ParallelMatchesSerial(t *testing.T) {
	var feats []*features.FeatureData
	var hs []*hits.Hit
	for i := 0; i < 300; i++ {
		chrom := fmt.Sprintf("%d", i%5+1)
		start := int64(i * 37)
		feats = append(feats, makeFeature(fmt.Sprintf("F%d", i), chrom, start, start+120))
		hs = append(hs, makeHit(fmt.Sprintf("F%d", i+i%3), chrom, start+int64(i%7), start+100+int64(i%11), 60))
	}

	serial, err := newEvaluator(t, feats).CompareToKnown(hs, DefaultCompareOptions())
	require.NoError(t, err)

	for _, kind := range []index.Kind{index.KindLLRB, index.KindSorted} {
		parallel, err := newEvaluator(t, feats, WithWorkers(8), WithIndexKind(kind)).CompareToKnown(hs, DefaultCompareOptions())
		require.NoError(t, err)
		assert.Equal(t, labels(serial), labels(parallel), "kind %s", kind)
	}
}

func TestCompareToKnown_UnknownLocationLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := newEvaluator(t, []*features.FeatureData{makeFeature("X", "1", 100, 200)})
	e.SetLogger(zap.New(core))

	out, err := e.CompareToKnown([]*hits.Hit{makeHit("X", "1", 100, 250, 150)}, DefaultCompareOptions())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Type.IsUnknown())
	assert.Equal(t, 1, logs.FilterMessage("unclassified hit location").Len())
}

func TestBestHitsWithin(t *testing.T) {
	e := newEvaluator(t, []*features.FeatureData{
		makeFeature("X", "1", 1000, 1100),
		makeFeature("Y", "2", 500, 600),
		makeFeature("Z", "1", 5000, 5100),
	})

	hs := []*hits.Hit{
		makeHit("X", "1", 950, 1050, 90),  // identity 0.9
		makeHit("X", "1", 1120, 1220, 95), // identity 0.95, 20 bases past the feature
		makeHit("W", "1", 1130, 1230, 95), // tied
		makeHit("X", "1", 1300, 1400, 100),
		makeHit("Y", "2", 560, 620, 60),
		makeHit("Q", "3", 0, 10, 10),
	}

	out, err := e.BestHitsWithin(context.Background(), hs, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"X:correct/3p_disjoint/unspliced/unspliced",
		"W:incorrect/3p_disjoint/unspliced/unspliced",
		"Y:correct/3p_shift/unspliced/unspliced",
		"Z:missing",
	}, labels(out))
	assert.Equal(t, "X", out[0].Feature.URS())
	assert.Equal(t, hs[1], out[0].Hit)
	assert.Equal(t, hs[2], out[1].Hit)
}

func TestBestHitsWithin_ClampsWindowAtZero(t *testing.T) {
	e := newEvaluator(t, []*features.FeatureData{makeFeature("X", "1", 10, 20)})

	out, err := e.BestHitsWithin(context.Background(), []*hits.Hit{makeHit("X", "1", 0, 5, 5)}, 100)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, compare.MatchCorrect, out[0].Type.Match)
}

func TestBestHitsWithin_EmptyWindow(t *testing.T) {
	e := newEvaluator(t, []*features.FeatureData{makeFeature("X", "1", 1000, 1100)}, WithWorkers(2))

	out, err := e.BestHitsWithin(context.Background(), []*hits.Hit{makeHit("X", "1", 0, 10, 10)}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"X:missing"}, labels(out))
}

func TestBestHitsWithin_NegativeRange(t *testing.T) {
	e := newEvaluator(t, nil)
	_, err := e.BestHitsWithin(context.Background(), nil, -1)
	assert.ErrorIs(t, err, ErrNegativeRange)
}

func TestBestHitsWithin_Cancelled(t *testing.T) {
	e := newEvaluator(t, []*features.FeatureData{makeFeature("X", "1", 1000, 1100)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.BestHitsWithin(ctx, nil, 10)
	assert.ErrorIs(t, err, context.Canceled)
}
