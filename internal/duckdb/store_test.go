package duckdb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/biogo/biogo/seq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/genome-mapping/internal/compare"
	"github.com/inodb/genome-mapping/internal/features"
	"github.com/inodb/genome-mapping/internal/hits"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testHit(urs, chrom string, start, stop int64) *hits.Hit {
	return &hits.Hit{
		Accession:  urs,
		Chromosome: chrom,
		Start:      start,
		Stop:       stop,
		Strand:     seq.Plus,
		Fragments:  []hits.Fragment{{Name: urs, Chromosome: chrom, Start: start, Stop: stop, Strand: seq.Plus}},
		Stats:      hits.Stats{Identical: 90, Length: hits.PairStat{Query: 100, Hit: 100}},
	}
}

func testFeature(urs, chrom string, start, stop int64) *features.FeatureData {
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
			Frame:       -1,
			Attributes:  map[string][]string{features.IdentityAttribute: {urs}},
		}},
	}
}

func sample(t *testing.T) []*compare.Comparison {
	t.Helper()
	var cs []*compare.Comparison
	for _, pair := range []struct {
		h *hits.Hit
		f *features.FeatureData
	}{
		{testHit("A", "1", 100, 200), testFeature("A", "1", 100, 200)},
		{testHit("B", "1", 500, 600), nil},
		{nil, testFeature("C", "2", 10, 20)},
		{testHit("D", "1", 100, 200), testFeature("A", "1", 100, 200)},
	} {
		c, err := compare.Build(pair.h, pair.f)
		require.NoError(t, err)
		cs = append(cs, c)
	}
	return cs
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
	assert.Empty(t, s.Path())
}

func TestWriteComparisons(t *testing.T) {
	s := openInMemory(t)

	runID, err := s.WriteComparisons("hits.json", sample(t))
	require.NoError(t, err)
	assert.Len(t, runID, 36)

	rows, err := s.Comparisons(runID)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	exact := rows[0]
	assert.Equal(t, "A", exact.HitURS.String)
	assert.Equal(t, "A", exact.FeatureURS.String)
	assert.Equal(t, int64(0), exact.ShiftStart.Int64)
	assert.True(t, exact.ShiftStart.Valid)
	assert.Equal(t, "correct", exact.Match)
	assert.Equal(t, "exact", exact.Location)

	novel := rows[1]
	assert.False(t, novel.FeatureURS.Valid)
	assert.False(t, novel.ShiftStart.Valid, "cross-chromosome shift stored as NULL")
	assert.Equal(t, "novel", novel.Pretty)

	missing := rows[2]
	assert.False(t, missing.HitURS.Valid)
	assert.Equal(t, "C", missing.FeatureURS.String)
	assert.Equal(t, int64(10), missing.FeatureStart.Int64)
	assert.Equal(t, "missing", missing.Match)
}

func TestSummary(t *testing.T) {
	s := openInMemory(t)

	runID, err := s.WriteComparisons("hits.json", sample(t))
	require.NoError(t, err)
	other, err := s.WriteComparisons("other.json", sample(t)[:1])
	require.NoError(t, err)
	assert.NotEqual(t, runID, other)

	counts, err := s.Summary(runID)
	require.NoError(t, err)
	assert.Equal(t, []LabelCount{
		{Label: "correct/exact/unspliced/unspliced", Count: 1},
		{Label: "incorrect/exact/unspliced/unspliced", Count: 1},
		{Label: "missing", Count: 1},
		{Label: "novel", Count: 1},
	}, counts)

	counts, err = s.Summary(other)
	require.NoError(t, err)
	assert.Len(t, counts, 1)
}

func TestRunsAndDelete(t *testing.T) {
	s := openInMemory(t)

	runID, err := s.WriteComparisons("hits.json", sample(t))
	require.NoError(t, err)
	empty, err := s.WriteComparisons("empty.json", nil)
	require.NoError(t, err)

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	byID := map[string]Run{}
	for _, r := range runs {
		byID[r.ID] = r
	}
	assert.Equal(t, int64(4), byID[runID].Comparisons)
	assert.Equal(t, "hits.json", byID[runID].Source)
	assert.Equal(t, int64(0), byID[empty].Comparisons)

	require.NoError(t, s.DeleteRun(runID))
	rows, err := s.Comparisons(runID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	runs, err = s.Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestWriteComparisons_FailedAppendLeavesNoRun(t *testing.T) {
	s := openInMemory(t)
	_, err := s.DB().Exec("DROP TABLE comparisons")
	require.NoError(t, err)
	_, err = s.DB().Exec("CREATE TABLE comparisons (run_id VARCHAR, seq BIGINT)")
	require.NoError(t, err)

	runID, err := s.WriteComparisons("hits.json", sample(t))
	require.Error(t, err)
	assert.Empty(t, runID)

	runs, err := s.Runs()
	require.NoError(t, err)
	assert.Empty(t, runs)

	var n int
	require.NoError(t, s.DB().QueryRow("SELECT count(*) FROM comparisons").Scan(&n))
	assert.Zero(t, n)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.WriteComparisons("hits.json", sample(t))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

// --- Feature cache tests (gob) ---

func TestFeatureCacheWriteAndLoad(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "genes.gtf")
	require.NoError(t, os.WriteFile(src, []byte("test"), 0644))

	fc := NewFeatureCache(filepath.Join(dir, "cache"), src)
	fp, err := StatAnnotation(src, "gtf|exon")
	require.NoError(t, err)
	assert.False(t, fc.Valid(fp), "nothing cached yet")

	feats := []*features.FeatureData{testFeature("A", "1", 100, 200), testFeature("B", "2", 5, 10)}
	require.NoError(t, fc.Write(feats, fp))
	assert.True(t, fc.Valid(fp))

	loaded, err := fc.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "A", loaded[0].URS())
	assert.Equal(t, int64(200), loaded[0].Stop)
	assert.Equal(t, seq.Plus, loaded[1].Strand)
	assert.Equal(t, feats[1].Fragments[0].Attributes, loaded[1].Fragments[0].Attributes)
}

func TestFeatureCacheValidation(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "genes.gff3")
	require.NoError(t, os.WriteFile(src, []byte("test"), 0644))

	fc := NewFeatureCache(dir, src)
	fp, err := StatAnnotation(src, "gff|exon")
	require.NoError(t, err)
	require.NoError(t, fc.Write([]*features.FeatureData{testFeature("A", "1", 0, 10)}, fp))
	assert.True(t, fc.Valid(fp))

	changed := fp
	changed.Settings = "gff|exon,transcript"
	assert.False(t, fc.Valid(changed), "different loader settings")

	later := fp
	later.ModTime = fp.ModTime.Add(time.Second)
	assert.False(t, fc.Valid(later), "annotation file modified")

	elsewhere := filepath.Join(dir, "other", "genes.gff3")
	require.NoError(t, os.MkdirAll(filepath.Dir(elsewhere), 0755))
	require.NoError(t, os.WriteFile(elsewhere, []byte("test"), 0644))
	require.NoError(t, os.Chtimes(elsewhere, fp.ModTime, fp.ModTime))
	same, err := StatAnnotation(elsewhere, "gff|exon")
	require.NoError(t, err)
	assert.False(t, NewFeatureCache(dir, elsewhere).Valid(same), "same name and stat from another directory")

	fc.Clear()
	assert.False(t, fc.Valid(fp))
	_, err = fc.Load()
	assert.Error(t, err)

	_, err = StatAnnotation(filepath.Join(dir, "missing.gtf"), "")
	assert.Error(t, err)
}
