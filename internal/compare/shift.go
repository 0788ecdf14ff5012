// Package compare classifies how a hit relates to a known feature.
package compare

import (
	"math"

	"github.com/inodb/genome-mapping/internal/features"
	"github.com/inodb/genome-mapping/internal/hits"
)

// Shift is the signed offset between the boundaries of a hit and a feature.
type Shift struct {
	Start int64 `json:"start"`
	Stop  int64 `json:"stop"`
}

// CrossChromosome returns the sentinel shift for a hit and feature that
// cannot be compared.
func CrossChromosome() Shift {
	return Shift{Start: math.MinInt64, Stop: math.MaxInt64}
}

// BuildShift computes hit - feature for both boundaries.
func BuildShift(hit *hits.Hit, feature *features.FeatureData) Shift {
	if hit == nil || feature == nil || hit.Chromosome != feature.Chromosome {
		return CrossChromosome()
	}
	return Shift{
		Start: hit.Start - feature.Start,
		Stop:  hit.Stop - feature.Stop,
	}
}

// IsCrossChromosome reports whether s is the incomparable sentinel.
func (s Shift) IsCrossChromosome() bool {
	return s.Start == math.MinInt64 && s.Stop == math.MaxInt64
}

// IsExact reports an exact match. A start one base before the feature is
// tolerated to absorb a 1-based/0-based boundary mismatch.
func (s Shift) IsExact() bool {
	return (s.Start == 0 && s.Stop == 0) || (s.Start == -1 && s.Stop == 0)
}

// Total is |start| + |stop|, saturating for the cross-chromosome sentinel.
func (s Shift) Total() int64 {
	if s.IsCrossChromosome() {
		return math.MaxInt64
	}
	total := abs(s.Start) + abs(s.Stop)
	if total < 0 {
		return math.MaxInt64
	}
	return total
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
