// Package hits provides the alignment ("hit") model used by the comparison engine.
package hits

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/biogo/biogo/seq"
)

// ErrInvalidHit is returned when a hit violates its structural invariants.
var ErrInvalidHit = errors.New("invalid hit")

// Sequence types derived from the number of fragments.
const (
	Unspliced = "unspliced"
	Spliced   = "spliced"
)

var copySuffix = regexp.MustCompile(`_\d+$`)

// Identified is implemented by every entity that carries an accession.
type Identified interface {
	URS() string
}

// SequenceSummary describes the query sequence a hit was computed for.
type SequenceSummary struct {
	ID     string `json:"id"`
	URS    string `json:"urs"`
	Header string `json:"header"`
	Length int    `json:"length"`
}

// NewSequenceSummary builds a summary, normalizing the accession by
// stripping a trailing "_<digits>" copy suffix from the id.
func NewSequenceSummary(id, header string, length int) SequenceSummary {
	return SequenceSummary{
		ID:     id,
		URS:    copySuffix.ReplaceAllString(id, ""),
		Header: header,
		Length: length,
	}
}

// Fragment is one contiguous aligned segment of a hit (0-based, half-open).
type Fragment struct {
	Name       string        `json:"name"`
	Chromosome string        `json:"chromosome"`
	Start      int64         `json:"start"`
	Stop       int64         `json:"stop"`
	Strand     seq.Strand    `json:"strand"`
	Stats      FragmentStats `json:"stats"`
}

// Len returns the genomic length of the fragment.
func (f Fragment) Len() int64 {
	return f.Stop - f.Start
}

// Hit is one full alignment of a query sequence to the genome.
type Hit struct {
	Accession  string          `json:"urs"`
	Chromosome string          `json:"chromosome"`
	Start      int64           `json:"start"`
	Stop       int64           `json:"stop"`
	Fragments  []Fragment      `json:"fragments"`
	Strand     seq.Strand      `json:"strand"`
	Sequence   SequenceSummary `json:"input_sequence"`
	Stats      Stats           `json:"stats"`
}

// URS returns the accession of the aligned sequence.
func (h *Hit) URS() string {
	return h.Accession
}

// IsForward reports whether the hit is on the forward strand.
func (h *Hit) IsForward() bool {
	return h.Strand == seq.Plus
}

// IsSpliced reports whether the hit is made of more than one fragment.
func (h *Hit) IsSpliced() bool {
	return len(h.Fragments) > 1
}

// SequenceType returns Spliced or Unspliced.
func (h *Hit) SequenceType() string {
	if h.IsSpliced() {
		return Spliced
	}
	return Unspliced
}

// Identity returns the identity score used to rank competing hits.
func (h *Hit) Identity() float64 {
	return h.Stats.Identity()
}

// Validate checks that the fragments agree on chromosome and strand, that
// every fragment has a non-negative, ascending range, that fragments are
// ordered by start and that the hit range spans exactly its fragments.
func (h *Hit) Validate() error {
	if len(h.Fragments) == 0 {
		return fmt.Errorf("%w: %s has no fragments", ErrInvalidHit, h.Accession)
	}
	if h.Start < 0 || h.Stop < h.Start {
		return fmt.Errorf("%w: %s has range %d-%d", ErrInvalidHit, h.Accession, h.Start, h.Stop)
	}
	start, stop := h.Fragments[0].Start, h.Fragments[0].Stop
	for i, f := range h.Fragments {
		if f.Chromosome != h.Chromosome {
			return fmt.Errorf("%w: %s fragment %d on chromosome %q, hit on %q",
				ErrInvalidHit, h.Accession, i, f.Chromosome, h.Chromosome)
		}
		if f.Strand != h.Strand {
			return fmt.Errorf("%w: %s fragment %d has mismatched strand", ErrInvalidHit, h.Accession, i)
		}
		if f.Start < 0 || f.Stop < f.Start {
			return fmt.Errorf("%w: %s fragment %d has range %d-%d",
				ErrInvalidHit, h.Accession, i, f.Start, f.Stop)
		}
		if i > 0 && f.Start < h.Fragments[i-1].Start {
			return fmt.Errorf("%w: %s fragment %d starts before fragment %d",
				ErrInvalidHit, h.Accession, i, i-1)
		}
		start = min(start, f.Start)
		stop = max(stop, f.Stop)
	}
	if start != h.Start || stop != h.Stop {
		return fmt.Errorf("%w: %s has range %d-%d but fragments span %d-%d",
			ErrInvalidHit, h.Accession, h.Start, h.Stop, start, stop)
	}
	return nil
}

// Key returns a string uniquely identifying the alignment, used to merge
// hit collections without duplicates.
func (h *Hit) Key() string {
	key := fmt.Sprintf("%s|%s|%s|%d|%d|%d", h.Accession, h.Sequence.ID, h.Chromosome, h.Start, h.Stop, h.Strand)
	for _, f := range h.Fragments {
		key += fmt.Sprintf("|%d-%d", f.Start, f.Stop)
	}
	return key
}
