package output

import (
	"errors"
	"fmt"
	"os"

	"github.com/Jeffail/gabs"
	"github.com/goccy/go-json"

	"github.com/inodb/genome-mapping/internal/compare"
	"github.com/inodb/genome-mapping/internal/features"
	"github.com/inodb/genome-mapping/internal/hits"
)

// ErrUnknownData is returned when a JSON document holds neither hits,
// features nor comparisons.
var ErrUnknownData = errors.New("unrecognized data")

// Data is one collection to format. Only one of the slices is expected to
// be set.
type Data struct {
	Hits        []*hits.Hit
	Features    []*features.FeatureData
	Comparisons []*compare.Comparison
}

// Len returns the number of records held.
func (d Data) Len() int {
	return len(d.Hits) + len(d.Features) + len(d.Comparisons)
}

// ReadFile loads a JSON file written by any of the subcommands.
func ReadFile(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read data file: %w", err)
	}
	return Decode(raw)
}

// Decode inspects the first record of a JSON array to decide what it
// holds, then decodes the whole array.
func Decode(raw []byte) (Data, error) {
	doc, err := gabs.ParseJSON(raw)
	if err != nil {
		return Data{}, fmt.Errorf("parse data: %w", err)
	}
	children, err := doc.Children()
	if err != nil {
		return Data{}, fmt.Errorf("%w: expected a JSON array", ErrUnknownData)
	}
	if len(children) == 0 {
		return Data{}, nil
	}

	var d Data
	first := children[0]
	switch {
	case first.Exists("shift") && first.Exists("type"):
		err = json.Unmarshal(raw, &d.Comparisons)
	case first.Exists("fragments") && first.Exists("urs"):
		err = json.Unmarshal(raw, &d.Hits)
	case first.Exists("fragments") && first.Exists("source"):
		err = json.Unmarshal(raw, &d.Features)
	default:
		return Data{}, ErrUnknownData
	}
	if err != nil {
		return Data{}, fmt.Errorf("decode data: %w", err)
	}
	return d, nil
}
