package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/genome-mapping/internal/compare"
	"github.com/inodb/genome-mapping/internal/features"
	"github.com/inodb/genome-mapping/internal/hits"
)

func TestKnown(t *testing.T) {
	assert.Equal(t, []string{"gff", "gff3", "insertable", "json", "tab"}, Known())
	for _, name := range Known() {
		f, err := Fetch(name)
		require.NoError(t, err)
		assert.Equal(t, name, f.Name())
	}
	_, err := Fetch("bed")
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	cs := sampleComparisons(t)

	var buf bytes.Buffer
	require.NoError(t, JSONFormatter{}.Format(&buf, Data{Comparisons: cs}))
	d, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, d.Comparisons, len(cs))
	assert.Nil(t, d.Hits)

	buf.Reset()
	require.NoError(t, JSONFormatter{}.Format(&buf, Data{Hits: []*hits.Hit{testHit("A_1", "1", 0, 10)}}))
	d, err = Decode(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, d.Hits, 1)
	assert.Equal(t, "A_1", d.Hits[0].URS())

	buf.Reset()
	require.NoError(t, JSONFormatter{}.Format(&buf, Data{Features: []*features.FeatureData{testFeature("F", "1", 0, 10)}}))
	d, err = Decode(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, d.Features, 1)
	assert.Equal(t, "F", d.Features[0].URS())

	d, err = Decode([]byte(`[]`))
	require.NoError(t, err)
	assert.Zero(t, d.Len())

	_, err = Decode([]byte(`[{"name": "x"}]`))
	assert.ErrorIs(t, err, ErrUnknownData)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestJSONFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONFormatter{}.Format(&buf, Data{}))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestGFF3Formatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GFF3Formatter{}.Format(&buf, Data{Comparisons: sampleComparisons(t)[:4]}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "##gff-version 3", lines[0])

	hit := strings.Split(lines[1], "\t")
	require.Len(t, hit, 9)
	assert.Equal(t, "1", hit[0])
	assert.Equal(t, "correct-hit", hit[2])
	assert.Equal(t, "101", hit[3], "1-based start")
	assert.Equal(t, "200", hit[4])
	assert.Equal(t, "+", hit[6])
	assert.Contains(t, hit[8], "Name=URS1_9606")
	assert.Contains(t, hit[8], "type=correct/exact/unspliced/unspliced")
	assert.Contains(t, hit[8], "Header=header URS1_9606")

	feature := strings.Split(lines[2], "\t")
	assert.Equal(t, "exon", feature[2])
	assert.Equal(t, "Name=URS1_9606;Parent=T-URS1_9606", feature[8])

	assert.Contains(t, lines[3], "\thit\t", "novel hits carry no match")
	assert.Contains(t, lines[len(lines)-1], "Name=URS5_9606", "missing comparisons emit their feature")
}

func TestGFF3Formatter_Escapes(t *testing.T) {
	f := testFeature("A;B", "1", 0, 10)
	var buf bytes.Buffer
	require.NoError(t, GFF3Formatter{}.Format(&buf, Data{Features: []*features.FeatureData{f}}))
	assert.Contains(t, buf.String(), "Name=A%3BB")
}

func TestGFFFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GFFFormatter{}.Format(&buf, Data{Hits: []*hits.Hit{testHit("URS1_9606", "1", 100, 200)}}))

	out := buf.String()
	assert.Contains(t, out, "\thit\t")
	assert.Contains(t, out, "\t101\t200\t")
	assert.Contains(t, out, `"URS1_9606"`)
}

func TestInsertableFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InsertableFormatter{}.Format(&buf, Data{Comparisons: sampleComparisons(t)[:4]}))

	var out []InsertableHit
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 3, "missing comparison has no hit")
	assert.Equal(t, "URS1", out[0].URS)
	assert.Equal(t, 9606, out[0].TaxID)
	assert.Equal(t, []InsertableExon{{PrimaryStart: 101, PrimaryEnd: 200, Name: "1", Strand: 1}}, out[0].Exons)
}

func TestInsertableFormatter_Errors(t *testing.T) {
	err := InsertableFormatter{}.Format(&bytes.Buffer{}, Data{Hits: []*hits.Hit{testHit("URS1", "1", 0, 1)}})
	assert.Error(t, err, "no taxid")

	err = InsertableFormatter{}.Format(&bytes.Buffer{}, Data{Hits: []*hits.Hit{testHit("URS1_human", "1", 0, 1)}})
	assert.Error(t, err)

	err = InsertableFormatter{}.Format(&bytes.Buffer{}, Data{Features: []*features.FeatureData{testFeature("F", "1", 0, 1)}})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFormatters_AcceptEmptyComparisons(t *testing.T) {
	for _, name := range Known() {
		f, err := Fetch(name)
		require.NoError(t, err)
		assert.NoError(t, f.Format(&bytes.Buffer{}, Data{Comparisons: []*compare.Comparison{}}), name)
	}
}
