package compare

import (
	"errors"
	"strings"

	"github.com/inodb/genome-mapping/internal/features"
	"github.com/inodb/genome-mapping/internal/hits"
)

// ErrInvalidComparison is returned when neither a hit nor a feature is given.
var ErrInvalidComparison = errors.New("comparison needs a hit or a feature")

// Location describes where a hit lies relative to a feature.
type Location string

const (
	LocationNone       Location = ""
	LocationNovel      Location = "novel"
	LocationExact      Location = "exact"
	Location5pDisjoint Location = "5p_disjoint"
	Location3pDisjoint Location = "3p_disjoint"
	LocationWithin     Location = "within"
	LocationEnclose    Location = "enclose"
	Location3pShift    Location = "3p_shift"
	Location5pShift    Location = "5p_shift"
	LocationUnknown    Location = "UNKNOWN"
)

// Match describes whether the hit and feature share an identity.
type Match string

const (
	MatchNone      Match = ""
	MatchCorrect   Match = "correct"
	MatchIncorrect Match = "incorrect"
	MatchMissing   Match = "missing"
)

// Pretty labels for the two one-sided outcomes.
const (
	PrettyNovel   = "novel"
	PrettyMissing = "missing"
)

const labelSeparator = "/"

// ComparisonType is the classification of one hit/feature pairing.
type ComparisonType struct {
	Location    Location `json:"location"`
	Match       Match    `json:"match"`
	FeatureType string   `json:"feature_type"`
	HitType     string   `json:"hit_type"`
	Pretty      string   `json:"pretty"`
}

// IsUnknown reports whether the shift fell outside every location rule.
func (t ComparisonType) IsUnknown() bool {
	return t.Location == LocationUnknown
}

// Classify maps a shift and the two sides of a comparison to a category.
// The rules are evaluated in a fixed order and the first match wins.
func Classify(shift Shift, hit *hits.Hit, feature *features.FeatureData) (ComparisonType, error) {
	switch {
	case hit == nil && feature == nil:
		return ComparisonType{}, ErrInvalidComparison
	case feature == nil:
		return ComparisonType{
			Location: LocationNovel,
			Match:    MatchNone,
			HitType:  hit.SequenceType(),
			Pretty:   PrettyNovel,
		}, nil
	case hit == nil:
		return ComparisonType{
			Location:    LocationNone,
			Match:       MatchMissing,
			FeatureType: feature.SequenceType(),
			Pretty:      PrettyMissing,
		}, nil
	}

	match := MatchIncorrect
	if hit.URS() == feature.URS() {
		match = MatchCorrect
	}
	location := locate(shift, hit, feature)

	return ComparisonType{
		Location:    location,
		Match:       match,
		FeatureType: feature.SequenceType(),
		HitType:     hit.SequenceType(),
		Pretty: strings.Join([]string{
			string(match), string(location), feature.SequenceType(), hit.SequenceType(),
		}, labelSeparator),
	}, nil
}

func locate(shift Shift, hit *hits.Hit, feature *features.FeatureData) Location {
	switch {
	case shift.IsExact():
		return LocationExact
	case hit.Stop < feature.Start:
		return Location5pDisjoint
	case hit.Start > feature.Stop:
		return Location3pDisjoint
	case shift.Start >= 0 && shift.Stop <= 0:
		return LocationWithin
	case shift.Start < 0 && shift.Stop > 0:
		return LocationEnclose
	case shift.Start > 0 && shift.Stop >= 0:
		return Location3pShift
	case shift.Start < 0 && shift.Stop <= 0:
		return Location5pShift
	}
	// Only reached when the hit starts with the feature and ends past it.
	return LocationUnknown
}
