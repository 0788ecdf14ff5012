package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/inodb/genome-mapping/internal/compare"
)

// TabWriter writes comparisons in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#URS",
			"Hit_location",
			"Hit_type",
			"Feature",
			"Feature_location",
			"Feature_type",
			"Match",
			"Location",
			"Shift",
			"Identity",
			"Pretty",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single comparison.
func (tw *TabWriter) Write(c *compare.Comparison) error {
	urs, hitLoc, identity := "-", "-", "-"
	if c.Hit != nil {
		urs = c.Hit.URS()
		hitLoc = location(c.Hit.Chromosome, c.Hit.Start, c.Hit.Stop)
		identity = fmt.Sprintf("%.4f", c.Hit.Identity())
	}

	feature, featLoc := "-", "-"
	if c.Feature != nil {
		feature = c.Feature.URS()
		featLoc = location(c.Feature.Chromosome, c.Feature.Start, c.Feature.Stop)
	}

	shift := "-"
	if !c.Shift.IsCrossChromosome() {
		shift = fmt.Sprintf("%d,%d", c.Shift.Start, c.Shift.Stop)
	}

	values := []string{
		urs,
		hitLoc,
		dash(c.Type.HitType),
		feature,
		featLoc,
		dash(c.Type.FeatureType),
		dash(string(c.Type.Match)),
		dash(string(c.Type.Location)),
		shift,
		identity,
		c.Type.Pretty,
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// location renders 0-based half-open coordinates as 1-based chrom:start-end.
func location(chrom string, start, stop int64) string {
	return fmt.Sprintf("%s:%d-%d", chrom, start+1, stop)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// TabFormatter writes comparisons through a TabWriter.
type TabFormatter struct{}

func (TabFormatter) Name() string { return "tab" }

func (TabFormatter) Format(w io.Writer, d Data) error {
	if len(d.Hits) > 0 || len(d.Features) > 0 {
		return fmt.Errorf("tab: %w", ErrUnsupported)
	}
	tw := NewTabWriter(w)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, c := range d.Comparisons {
		if err := tw.Write(c); err != nil {
			return err
		}
	}
	return tw.Flush()
}
