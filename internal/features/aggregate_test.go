package features

import (
	"testing"

	"github.com/biogo/biogo/seq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/genome-mapping/internal/hits"
)

func exon(parent, name, chrom string, start, stop int64) *FeatureFragment {
	return &FeatureFragment{
		Chromosome:  chrom,
		Source:      "test",
		FeatureType: "exon",
		Start:       start,
		Stop:        stop,
		Strand:      seq.Plus,
		Frame:       -1,
		Attributes: map[string][]string{
			IdentityAttribute: {name},
			ParentAttribute:   {parent},
		},
	}
}

func TestFeatureFragment_Parent(t *testing.T) {
	f := &FeatureFragment{Attributes: map[string][]string{"Name": {"URS1"}}}
	assert.Equal(t, "URS1", f.Parent(), "falls back to identity")

	f.Attributes["ID"] = []string{"id1"}
	assert.Equal(t, "id1", f.Parent())

	f.Attributes["transcript_id"] = []string{"T1"}
	assert.Equal(t, "T1", f.Parent())

	f.Attributes[ParentAttribute] = []string{"P1", "P2"}
	assert.Equal(t, "P1", f.Parent())
	assert.Equal(t, []string{"P1", "P2"}, f.Parents())
	assert.Equal(t, "URS1", f.URS())
}

func TestAggregate_GroupsByParent(t *testing.T) {
	frags := []*FeatureFragment{
		exon("T1", "URS1", "1", 300, 400),
		exon("T2", "URS2", "1", 1000, 1100),
		exon("T1", "URS1", "1", 100, 200),
	}

	result, err := Aggregate(frags)
	require.NoError(t, err)
	require.Len(t, result, 2)

	t1 := result[0]
	assert.Equal(t, "URS1", t1.URS())
	assert.Equal(t, "T1", t1.Parent())
	assert.Equal(t, int64(100), t1.Start)
	assert.Equal(t, int64(400), t1.Stop)
	assert.Equal(t, hits.Spliced, t1.SequenceType())
	require.Len(t, t1.Fragments, 2)
	assert.Equal(t, int64(100), t1.Fragments[0].Start, "fragments sorted by start")

	t2 := result[1]
	assert.Equal(t, "URS2", t2.URS())
	assert.Equal(t, hits.Unspliced, t2.SequenceType())
	assert.True(t, t2.IsForward())
}

func TestAggregate_DropsDuplicatedFragments(t *testing.T) {
	frags := []*FeatureFragment{
		exon("T1", "URS1", "1", 100, 200),
		exon("T1", "URS1", "1", 300, 400),
		exon("T1b", "URS1", "1", 100, 200),
		exon("T1b", "URS1", "1", 300, 400),
		exon("T1", "URS1", "1", 100, 200),
	}

	result, err := Aggregate(frags)
	require.NoError(t, err)
	require.Len(t, result, 1, "duplicated exon set counted once")
	assert.Len(t, result[0].Fragments, 2)
}

func TestAggregate_AlternativeTranscriptsShareExon(t *testing.T) {
	frags := []*FeatureFragment{
		exon("T1", "URS1", "1", 100, 200),
		exon("T1", "URS1", "1", 300, 400),
		exon("T2", "URS1", "1", 100, 200),
		exon("T2", "URS1", "1", 500, 600),
	}

	result, err := Aggregate(frags)
	require.NoError(t, err)
	require.Len(t, result, 2)

	t2 := result[1]
	assert.Equal(t, "T2", t2.Parent())
	assert.Equal(t, int64(100), t2.Start)
	assert.Equal(t, int64(600), t2.Stop)
	assert.Len(t, t2.Fragments, 2)
	assert.Equal(t, hits.Spliced, t2.SequenceType())
}

func TestAggregate_MultipleParents(t *testing.T) {
	shared := exon("T1", "URS1", "1", 100, 200)
	shared.Attributes[ParentAttribute] = []string{"T1", "T2"}
	frags := []*FeatureFragment{
		shared,
		exon("T1", "URS1", "1", 300, 400),
		exon("T2", "URS1", "1", 500, 600),
	}

	result, err := Aggregate(frags)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "T1", result[0].Parent())
	assert.Equal(t, int64(400), result[0].Stop)
	assert.Equal(t, "T2", result[1].Parent())
	assert.Equal(t, int64(100), result[1].Start)
	assert.Equal(t, int64(600), result[1].Stop)
}

func TestAggregate_KeepsSameCoordinatesWithOtherIdentity(t *testing.T) {
	frags := []*FeatureFragment{
		exon("T1", "URS1", "1", 100, 200),
		exon("T2", "URS2", "1", 100, 200),
	}

	result, err := Aggregate(frags)
	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestAggregate_Inconsistent(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *FeatureFragment)
	}{
		{"chromosome", func(f *FeatureFragment) { f.Chromosome = "2" }},
		{"source", func(f *FeatureFragment) { f.Source = "other" }},
		{"strand", func(f *FeatureFragment) { f.Strand = seq.Minus }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := exon("T1", "URS1", "1", 300, 400)
			tt.modify(bad)
			_, err := Aggregate([]*FeatureFragment{exon("T1", "URS1", "1", 100, 200), bad})
			assert.ErrorIs(t, err, ErrInconsistentFeature)
		})
	}
}

func TestAggregate_RepeatedCoordinatesStillChecked(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *FeatureFragment)
	}{
		{"source", func(f *FeatureFragment) { f.Source = "other" }},
		{"strand", func(f *FeatureFragment) { f.Strand = seq.Minus }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repeat := exon("T1", "URS1", "1", 100, 200)
			tt.modify(repeat)
			_, err := Aggregate([]*FeatureFragment{exon("T1", "URS1", "1", 100, 200), repeat})
			assert.ErrorIs(t, err, ErrInconsistentFeature)
		})
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	frags := []*FeatureFragment{
		exon("T2", "URS2", "2", 50, 60),
		exon("T1", "URS1", "1", 300, 400),
		exon("T1", "URS1", "1", 100, 200),
		exon("T3", "URS3", "1", 150, 160),
	}

	first, err := Aggregate(frags)
	require.NoError(t, err)
	second, err := Aggregate(frags)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAggregate_Empty(t *testing.T) {
	result, err := Aggregate(nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}
