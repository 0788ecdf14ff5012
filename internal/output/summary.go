package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs"
	linq "github.com/ahmetb/go-linq"

	"github.com/inodb/genome-mapping/internal/compare"
)

// LabelCount is the number of comparisons sharing a pretty label.
type LabelCount struct {
	Label string
	Count int
}

// CountByLabel counts comparisons per pretty label, ordered by label.
func CountByLabel(cs []*compare.Comparison) []LabelCount {
	var counts []LabelCount
	linq.From(cs).
		GroupByT(
			func(c *compare.Comparison) string { return c.Type.Pretty },
			func(c *compare.Comparison) *compare.Comparison { return c },
		).
		OrderByT(func(g linq.Group) string { return g.Key.(string) }).
		SelectT(func(g linq.Group) LabelCount {
			return LabelCount{Label: g.Key.(string), Count: len(g.Group)}
		}).
		ToSlice(&counts)
	return counts
}

// HitGroup holds every comparison made for one hit identity.
type HitGroup struct {
	URS         string
	Comparisons []*compare.Comparison
}

// GroupByHit groups comparisons by hit identity, ordered by identity.
// Missing comparisons have no hit and are left out.
func GroupByHit(cs []*compare.Comparison) []HitGroup {
	var groups []HitGroup
	linq.From(cs).
		WhereT(func(c *compare.Comparison) bool { return c.Hit != nil }).
		GroupByT(
			func(c *compare.Comparison) string { return c.Hit.URS() },
			func(c *compare.Comparison) *compare.Comparison { return c },
		).
		OrderByT(func(g linq.Group) string { return g.Key.(string) }).
		SelectT(func(g linq.Group) HitGroup {
			group := HitGroup{URS: g.Key.(string)}
			for _, c := range g.Group {
				group.Comparisons = append(group.Comparisons, c.(*compare.Comparison))
			}
			return group
		}).
		ToSlice(&groups)
	return groups
}

// SortComparisons returns comparisons ordered by chromosome, start,
// identity and label.
func SortComparisons(cs []*compare.Comparison) []*compare.Comparison {
	var sorted []*compare.Comparison
	linq.From(cs).
		OrderByT(func(c *compare.Comparison) string { return c.Chromosome() }).
		ThenByT(func(c *compare.Comparison) int64 { return c.Start() }).
		ThenByT(func(c *compare.Comparison) string { return c.URS() }).
		ThenByT(func(c *compare.Comparison) string { return c.Type.Pretty }).
		ToSlice(&sorted)
	return sorted
}

var summaryWriters = map[string]func(io.Writer, []*compare.Comparison) error{
	"csv":  WriteSummaryCSV,
	"json": WriteSummaryJSON,
	"text": WriteSummary,
}

// SummaryFormats returns the supported summary formats.
func SummaryFormats() []string {
	names := make([]string, 0, len(summaryWriters))
	for name := range summaryWriters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteSummaryAs writes a summary in the named format.
func WriteSummaryAs(w io.Writer, format string, cs []*compare.Comparison) error {
	write, ok := summaryWriters[format]
	if !ok {
		return fmt.Errorf("unknown summary format %q (known: %s)", format, strings.Join(SummaryFormats(), ", "))
	}
	return write(w, cs)
}

// WriteSummaryCSV writes one header row of labels and one row of counts.
func WriteSummaryCSV(w io.Writer, cs []*compare.Comparison) error {
	counts := CountByLabel(cs)
	header := make([]string, len(counts))
	row := make([]string, len(counts))
	for i, c := range counts {
		header[i] = c.Label
		row[i] = strconv.Itoa(c.Count)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryJSON writes totals and per-label counts as a JSON document.
func WriteSummaryJSON(w io.Writer, cs []*compare.Comparison) error {
	doc := gabs.New()
	if _, err := doc.Set(len(cs), "total"); err != nil {
		return err
	}
	if _, err := doc.Set(len(GroupByHit(cs)), "hits"); err != nil {
		return err
	}
	if _, err := doc.Set(map[string]any{}, "counts"); err != nil {
		return err
	}
	for _, c := range CountByLabel(cs) {
		if _, err := doc.Set(c.Count, "counts", c.Label); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, doc.StringIndent("", "  ")+"\n")
	return err
}

// WriteSummary writes label counts as text, most frequent first.
func WriteSummary(w io.Writer, cs []*compare.Comparison) error {
	counts := CountByLabel(cs)
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if _, err := fmt.Fprintf(w, "Comparison Summary (%d comparisons):\n", len(cs)); err != nil {
		return err
	}
	for _, c := range counts {
		if _, err := fmt.Fprintf(w, "  %-45s%d\n", c.Label, c.Count); err != nil {
			return err
		}
	}
	return nil
}
