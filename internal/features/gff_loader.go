package features

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/biogo/biogo/io/featio"
	"github.com/biogo/biogo/io/featio/gff"
)

// GFFLoader loads annotation records from GFF3 files.
type GFFLoader struct {
	path string
	opts Options
}

// NewGFFLoader creates a new GFF3 loader.
func NewGFFLoader(path string, opts Options) *GFFLoader {
	return &GFFLoader{path: path, opts: opts}
}

// Load reads all matching records from the GFF file.
func (l *GFFLoader) Load() ([]*FeatureFragment, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open GFF file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(l.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return l.parseGFF(reader)
}

// parseGFF reads features with the biogo GFF reader. Its records are
// already 0-based half-open.
func (l *GFFLoader) parseGFF(reader io.Reader) ([]*FeatureFragment, error) {
	sc := featio.NewScanner(gff.NewReader(withoutDirectives(reader)))

	var fragments []*FeatureFragment
	for sc.Next() {
		gf := sc.Feat().(*gff.Feature)

		if l.opts.Chromosome != "" && gf.SeqName != l.opts.Chromosome {
			continue
		}
		if !l.opts.keeps(gf.Feature) {
			continue
		}

		attrs := normalizeAttributes(gf.FeatAttributes)
		l.opts.fillIdentity(attrs)
		fragments = append(fragments, &FeatureFragment{
			Chromosome:  gf.SeqName,
			Source:      gf.Source,
			FeatureType: gf.Feature,
			Start:       int64(gf.FeatStart),
			Stop:        int64(gf.FeatEnd),
			Strand:      gf.FeatStrand,
			Frame:       int(gf.FeatFrame),
			Attributes:  attrs,
		})
	}
	if err := sc.Error(); err != nil {
		return nil, fmt.Errorf("read GFF: %w", err)
	}
	return fragments, nil
}

// withoutDirectives strips "##" pragma lines (gff-version 3, sequence-region,
// FASTA sections) which the GFF2 oriented reader does not accept.
func withoutDirectives(r io.Reader) io.Reader {
	return &directiveFilter{r: bufio.NewReader(r)}
}

type directiveFilter struct {
	r    *bufio.Reader
	buf  []byte
	done bool
}

func (d *directiveFilter) Read(p []byte) (int, error) {
	for len(d.buf) == 0 && !d.done {
		line, err := d.r.ReadString('\n')
		if err != nil && err != io.EOF {
			return 0, err
		}
		if err == io.EOF {
			d.done = true
		}
		trimmed := strings.TrimRight(line, "\r\n")
		switch {
		case trimmed == "##FASTA":
			d.done = true
		case trimmed == "", strings.HasPrefix(trimmed, "##"):
		default:
			d.buf = append(append(d.buf, trimmed...), '\n')
		}
	}
	if len(d.buf) == 0 {
		return 0, io.EOF
	}
	n := copy(p, d.buf)
	d.buf = d.buf[n:]
	return n, nil
}

// normalizeAttributes converts parsed GFF attributes into a multi-valued map.
// Both GFF3 (Name=A,B) and GTF-like (gene_id "A") pairs are accepted;
// GFF3 values are split on commas and percent-decoded.
func normalizeAttributes(attrs gff.Attributes) map[string][]string {
	result := make(map[string][]string)
	for _, a := range attrs {
		key, value := strings.TrimSpace(a.Tag), a.Value
		if k, v, ok := strings.Cut(key, "="); ok {
			key = k
			value = strings.TrimSpace(v + " " + a.Value)
		} else {
			value = strings.Trim(strings.TrimSpace(value), "\"")
			result[key] = append(result[key], value)
			continue
		}

		for _, part := range strings.Split(value, ",") {
			if unescaped, err := url.PathUnescape(part); err == nil {
				part = unescaped
			}
			result[key] = append(result[key], part)
		}
	}
	return result
}
