// Package features provides annotation loading and aggregation of
// sub-features (exons) into multi-fragment features (transcripts).
package features

import (
	"github.com/biogo/biogo/seq"

	"github.com/inodb/genome-mapping/internal/hits"
)

// Attribute names used to identify annotation records.
const (
	IdentityAttribute = "Name"
	ParentAttribute   = "Parent"
)

// FeatureFragment is one raw annotation record, e.g. an exon.
// Coordinates are 0-based, half-open.
type FeatureFragment struct {
	Chromosome  string              `json:"chromosome"`
	Source      string              `json:"source"`
	FeatureType string              `json:"feature_type"`
	Start       int64               `json:"start"`
	Stop        int64               `json:"stop"`
	Strand      seq.Strand          `json:"strand"`
	Frame       int                 `json:"frame"`
	Attributes  map[string][]string `json:"attributes"`
	Extra       map[string]string   `json:"extra,omitempty"`
}

// URS returns the primary identity of the record.
func (f *FeatureFragment) URS() string {
	return first(f.Attributes[IdentityAttribute])
}

// Parent returns the first group this record belongs to.
func (f *FeatureFragment) Parent() string {
	return f.Parents()[0]
}

// Parents returns every group this record belongs to. GFF3 records may list
// several comma separated Parent values; other keys contribute one.
func (f *FeatureFragment) Parents() []string {
	var parents []string
	for _, p := range f.Attributes[ParentAttribute] {
		if p != "" {
			parents = append(parents, p)
		}
	}
	if len(parents) > 0 {
		return parents
	}
	for _, key := range []string{"transcript_id", "ID"} {
		if v := first(f.Attributes[key]); v != "" {
			return []string{v}
		}
	}
	return []string{f.URS()}
}

// FeatureData is an aggregated multi-fragment feature, e.g. a transcript
// built from its exons.
type FeatureData struct {
	Group      string             `json:"group,omitempty"`
	Chromosome string             `json:"chromosome"`
	Source     string             `json:"source"`
	Strand     seq.Strand         `json:"strand"`
	Start      int64              `json:"start"`
	Stop       int64              `json:"stop"`
	Fragments  []*FeatureFragment `json:"fragments"`
}

// URS returns the identity of the feature.
func (f *FeatureData) URS() string {
	if len(f.Fragments) == 0 {
		return ""
	}
	return f.Fragments[0].URS()
}

// Parent returns the group id the feature was aggregated under.
func (f *FeatureData) Parent() string {
	if f.Group != "" {
		return f.Group
	}
	if len(f.Fragments) == 0 {
		return ""
	}
	return f.Fragments[0].Parent()
}

// IsForward reports whether the feature is on the forward strand.
func (f *FeatureData) IsForward() bool {
	return f.Strand == seq.Plus
}

// SequenceType returns hits.Spliced when the feature has more than one fragment.
func (f *FeatureData) SequenceType() string {
	if len(f.Fragments) > 1 {
		return hits.Spliced
	}
	return hits.Unspliced
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
