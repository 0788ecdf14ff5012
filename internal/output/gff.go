package output

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/biogo/biogo/io/featio/gff"
	"github.com/biogo/biogo/seq"

	"github.com/inodb/genome-mapping/internal/compare"
	"github.com/inodb/genome-mapping/internal/features"
	"github.com/inodb/genome-mapping/internal/hits"
)

const gffSource = "genome-mapping"

// attribute is one key with its values, in output order.
type attribute struct {
	key    string
	values []string
}

// record is a format-neutral GFF line. Coordinates are 0-based half-open.
type record struct {
	chrom, source, featureType string
	start, stop                int64
	strand                     seq.Strand
	frame                      int
	attributes                 []attribute
}

func hitRecord(h *hits.Hit, match compare.Match, pretty string) record {
	featureType := "hit"
	if match != compare.MatchNone {
		featureType = string(match) + "-hit"
	}
	name := h.Sequence.URS
	if name == "" {
		name = h.URS()
	}
	attrs := []attribute{
		{"Name", []string{name}},
		{"Header", []string{h.Sequence.Header}},
		{"HitSize", []string{strconv.FormatFloat(h.Stats.Length.Hit, 'f', -1, 64)}},
		{"QuerySize", []string{strconv.FormatFloat(h.Stats.Length.Query, 'f', -1, 64)}},
	}
	if pretty != "" {
		attrs = append(attrs, attribute{"type", []string{pretty}})
	}
	return record{
		chrom:       h.Chromosome,
		source:      gffSource,
		featureType: featureType,
		start:       h.Start,
		stop:        h.Stop,
		strand:      h.Strand,
		frame:       -1,
		attributes:  attrs,
	}
}

func fragmentRecords(f *features.FeatureData) []record {
	records := make([]record, 0, len(f.Fragments))
	for _, frag := range f.Fragments {
		keys := make([]string, 0, len(frag.Attributes))
		for k := range frag.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		attrs := make([]attribute, 0, len(keys))
		for _, k := range keys {
			attrs = append(attrs, attribute{k, frag.Attributes[k]})
		}
		records = append(records, record{
			chrom:       frag.Chromosome,
			source:      frag.Source,
			featureType: frag.FeatureType,
			start:       frag.Start,
			stop:        frag.Stop,
			strand:      frag.Strand,
			frame:       frag.Frame,
			attributes:  attrs,
		})
	}
	return records
}

// records flattens any data into GFF lines. A comparison yields its hit,
// typed by match, followed by its feature.
func records(d Data) []record {
	var out []record
	for _, h := range d.Hits {
		out = append(out, hitRecord(h, compare.MatchNone, ""))
	}
	for _, f := range d.Features {
		out = append(out, fragmentRecords(f)...)
	}
	for _, c := range d.Comparisons {
		if c.Hit != nil {
			out = append(out, hitRecord(c.Hit, c.Type.Match, c.Type.Pretty))
		}
		if c.Feature != nil {
			out = append(out, fragmentRecords(c.Feature)...)
		}
	}
	return out
}

// GFFFormatter writes GFF2 through the biogo writer.
type GFFFormatter struct{}

func (GFFFormatter) Name() string { return "gff" }

func (GFFFormatter) Format(w io.Writer, d Data) error {
	gw := gff.NewWriter(w, 60, true)
	for _, r := range records(d) {
		gf := &gff.Feature{
			SeqName:    r.chrom,
			Source:     r.source,
			Feature:    r.featureType,
			FeatStart:  int(r.start),
			FeatEnd:    int(r.stop),
			FeatStrand: r.strand,
			FeatFrame:  gff.NoFrame,
		}
		if r.frame >= 0 {
			gf.FeatFrame = gff.Frame(r.frame)
		}
		for _, a := range r.attributes {
			gf.FeatAttributes = append(gf.FeatAttributes, gff.Attribute{
				Tag:   a.key,
				Value: strconv.Quote(strings.Join(a.values, ",")),
			})
		}
		if _, err := gw.Write(gf); err != nil {
			return fmt.Errorf("write gff: %w", err)
		}
	}
	return nil
}

// GFF3Formatter writes GFF3 with 1-based inclusive coordinates.
type GFF3Formatter struct{}

func (GFF3Formatter) Name() string { return "gff3" }

var gff3Escaper = strings.NewReplacer(
	"%", "%25", ";", "%3B", "=", "%3D", "&", "%26", ",", "%2C", "\t", "%09", "\n", "%0A",
)

func (GFF3Formatter) Format(w io.Writer, d Data) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("##gff-version 3\n")
	for _, r := range records(d) {
		frame := "."
		if r.frame >= 0 {
			frame = strconv.Itoa(r.frame)
		}
		attrs := make([]string, 0, len(r.attributes))
		for _, a := range r.attributes {
			escaped := make([]string, len(a.values))
			for i, v := range a.values {
				escaped[i] = gff3Escaper.Replace(v)
			}
			attrs = append(attrs, gff3Escaper.Replace(a.key)+"="+strings.Join(escaped, ","))
		}
		fmt.Fprintf(bw, "%s\t%s\t%s\t%d\t%d\t.\t%s\t%s\t%s\n",
			r.chrom, r.source, r.featureType, r.start+1, r.stop, strandChar(r.strand), frame,
			strings.Join(attrs, ";"))
	}
	return bw.Flush()
}

func strandChar(s seq.Strand) string {
	switch s {
	case seq.Plus:
		return "+"
	case seq.Minus:
		return "-"
	}
	return "."
}
