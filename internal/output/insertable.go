package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/biogo/biogo/seq"
	"github.com/goccy/go-json"

	"github.com/inodb/genome-mapping/internal/hits"
)

// InsertableHit is the database loading form of a hit. Accessions are
// expected as "<urs>_<taxid>".
type InsertableHit struct {
	URS   string           `json:"urs"`
	TaxID int              `json:"taxid"`
	Exons []InsertableExon `json:"exons"`
}

// InsertableExon is one fragment in 1-based inclusive coordinates.
type InsertableExon struct {
	PrimaryStart int64  `json:"primary_start"`
	PrimaryEnd   int64  `json:"primary_end"`
	Name         string `json:"name"`
	Strand       int    `json:"strand"`
}

// NewInsertableHit converts a hit.
func NewInsertableHit(h *hits.Hit) (InsertableHit, error) {
	urs, taxid, ok := strings.Cut(h.URS(), "_")
	if !ok {
		return InsertableHit{}, fmt.Errorf("accession %q has no taxid", h.URS())
	}
	id, err := strconv.Atoi(taxid)
	if err != nil {
		return InsertableHit{}, fmt.Errorf("accession %q: invalid taxid: %w", h.URS(), err)
	}

	ins := InsertableHit{URS: urs, TaxID: id, Exons: make([]InsertableExon, 0, len(h.Fragments))}
	for _, f := range h.Fragments {
		strand := 1
		if f.Strand == seq.Minus {
			strand = -1
		}
		ins.Exons = append(ins.Exons, InsertableExon{
			PrimaryStart: f.Start + 1,
			PrimaryEnd:   f.Stop,
			Name:         f.Chromosome,
			Strand:       strand,
		})
	}
	return ins, nil
}

// InsertableFormatter writes hits, or the hits of comparisons, ready for
// database loading.
type InsertableFormatter struct{}

func (InsertableFormatter) Name() string { return "insertable" }

func (InsertableFormatter) Format(w io.Writer, d Data) error {
	if len(d.Features) > 0 {
		return fmt.Errorf("insertable: %w", ErrUnsupported)
	}

	hs := append([]*hits.Hit(nil), d.Hits...)
	for _, c := range d.Comparisons {
		if c.Hit != nil {
			hs = append(hs, c.Hit)
		}
	}

	out := make([]InsertableHit, 0, len(hs))
	for _, h := range hs {
		ins, err := NewInsertableHit(h)
		if err != nil {
			return err
		}
		out = append(out, ins)
	}
	if err := json.NewEncoder(w).Encode(out); err != nil {
		return fmt.Errorf("encode insertable: %w", err)
	}
	return nil
}
