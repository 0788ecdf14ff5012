package features

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/biogo/seq"
)

// Options controls which annotation records are loaded.
type Options struct {
	// FeatureTypes lists the record types to keep. Defaults to exon.
	FeatureTypes []string
	// Chromosome, when set, restricts loading to one chromosome.
	Chromosome string
	// IdentityKey names the attribute copied into Name when a record has no
	// Name attribute. When empty, gene_name then transcript_id are tried.
	IdentityKey string
}

func (o Options) keeps(featureType string) bool {
	types := o.FeatureTypes
	if len(types) == 0 {
		types = []string{"exon"}
	}
	for _, t := range types {
		if t == featureType {
			return true
		}
	}
	return false
}

// fillIdentity makes sure the record carries a Name attribute.
func (o Options) fillIdentity(attrs map[string][]string) {
	if len(attrs[IdentityAttribute]) > 0 {
		return
	}
	keys := []string{"gene_name", "transcript_id"}
	if o.IdentityKey != "" {
		keys = []string{o.IdentityKey}
	}
	for _, k := range keys {
		if v := attrs[k]; len(v) > 0 {
			attrs[IdentityAttribute] = []string{v[0]}
			return
		}
	}
}

// GTFLoader loads annotation records from GENCODE/Ensembl style GTF files.
type GTFLoader struct {
	path string
	opts Options
}

// NewGTFLoader creates a new GTF loader.
func NewGTFLoader(path string, opts Options) *GTFLoader {
	return &GTFLoader{path: path, opts: opts}
}

// Load reads all matching records from the GTF file.
func (l *GTFLoader) Load() ([]*FeatureFragment, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open GTF file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	// Handle gzipped files
	if strings.HasSuffix(l.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return l.parseGTF(reader)
}

// parseGTF parses GTF content into fragments, converting the 1-based closed
// coordinates into 0-based half-open ones.
func (l *GTFLoader) parseGTF(reader io.Reader) ([]*FeatureFragment, error) {
	scanner := bufio.NewScanner(reader)
	// Increase buffer size for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var fragments []*FeatureFragment
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		frag, err := l.parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		if l.opts.Chromosome != "" && frag.Chromosome != l.opts.Chromosome {
			continue
		}
		if !l.opts.keeps(frag.FeatureType) {
			continue
		}
		l.opts.fillIdentity(frag.Attributes)
		fragments = append(fragments, frag)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan GTF: %w", err)
	}
	return fragments, nil
}

// parseLine parses a single GTF line.
func (l *GTFLoader) parseLine(line string) (*FeatureFragment, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, fmt.Errorf("invalid GTF line: expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}

	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}

	return &FeatureFragment{
		Chromosome:  fields[0],
		Source:      fields[1],
		FeatureType: fields[2],
		Start:       start - 1,
		Stop:        end,
		Strand:      parseStrand(fields[6]),
		Frame:       parseFrame(fields[7]),
		Attributes:  parseAttributes(fields[8]),
	}, nil
}

// parseAttributes parses the GTF attribute column.
// Format: key "value"; key "value"; ...
// Repeated keys (e.g. tag) accumulate values in order.
func parseAttributes(attrStr string) map[string][]string {
	attrs := make(map[string][]string)

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		idx := strings.Index(part, " ")
		if idx == -1 {
			continue
		}

		key := part[:idx]
		value := strings.Trim(strings.TrimSpace(part[idx+1:]), "\"")
		attrs[key] = append(attrs[key], value)
	}

	return attrs
}

// parseStrand converts a strand column to a seq.Strand.
func parseStrand(s string) seq.Strand {
	switch s {
	case "+":
		return seq.Plus
	case "-":
		return seq.Minus
	}
	return seq.None
}

// parseFrame converts a phase column, returning -1 for ".".
func parseFrame(s string) int {
	frame, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return frame
}
