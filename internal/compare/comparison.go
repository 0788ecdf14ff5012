package compare

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/inodb/genome-mapping/internal/features"
	"github.com/inodb/genome-mapping/internal/hits"
)

// Comparison is the outcome of comparing one hit with one feature. A nil
// Hit means the feature was never hit (missing); a nil Feature means the
// hit matches no annotation (novel).
type Comparison struct {
	Hit     *hits.Hit             `json:"hit"`
	Feature *features.FeatureData `json:"feature"`
	Shift   Shift                 `json:"shift"`
	Type    ComparisonType        `json:"type"`
}

// Build computes the shift and classification of a hit against a feature.
func Build(hit *hits.Hit, feature *features.FeatureData) (*Comparison, error) {
	shift := BuildShift(hit, feature)
	typ, err := Classify(shift, hit, feature)
	if err != nil {
		return nil, err
	}
	return &Comparison{Hit: hit, Feature: feature, Shift: shift, Type: typ}, nil
}

// Chromosome returns the chromosome of the hit, or of the feature when
// there is no hit.
func (c *Comparison) Chromosome() string {
	if c.Hit != nil {
		return c.Hit.Chromosome
	}
	return c.Feature.Chromosome
}

// Start returns the start of the hit, or of the feature when there is no hit.
func (c *Comparison) Start() int64 {
	if c.Hit != nil {
		return c.Hit.Start
	}
	return c.Feature.Start
}

// URS returns the hit accession, or the feature identity when there is no hit.
func (c *Comparison) URS() string {
	if c.Hit != nil {
		return c.Hit.URS()
	}
	return c.Feature.URS()
}

// ReadFile loads comparisons written by WriteFile.
func ReadFile(path string) ([]*Comparison, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open comparisons file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a JSON array of comparisons.
func Read(r io.Reader) ([]*Comparison, error) {
	var result []*Comparison
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode comparisons: %w", err)
	}
	for i, c := range result {
		if c == nil || (c.Hit == nil && c.Feature == nil) {
			return nil, fmt.Errorf("comparison %d: %w", i, ErrInvalidComparison)
		}
	}
	return result, nil
}

// WriteFile writes comparisons as a JSON array.
func WriteFile(path string, comparisons []*Comparison) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create comparisons file: %w", err)
	}
	if err := Write(f, comparisons); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write encodes comparisons as a JSON array.
func Write(w io.Writer, comparisons []*Comparison) error {
	if comparisons == nil {
		comparisons = []*Comparison{}
	}
	if err := json.NewEncoder(w).Encode(comparisons); err != nil {
		return fmt.Errorf("encode comparisons: %w", err)
	}
	return nil
}
