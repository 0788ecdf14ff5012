package features

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// FragmentLoader reads raw annotation records.
type FragmentLoader interface {
	Load() ([]*FeatureFragment, error)
}

var loaders = map[string]func(path string, opts Options) FragmentLoader{
	"gtf": func(path string, opts Options) FragmentLoader { return NewGTFLoader(path, opts) },
	"gff": func(path string, opts Options) FragmentLoader { return NewGFFLoader(path, opts) },
}

// Formats returns the supported annotation formats.
func Formats() []string {
	names := make([]string, 0, len(loaders))
	for name := range loaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectFormat guesses the annotation format from the file extension.
func DetectFormat(path string) string {
	lower := strings.ToLower(path)
	lower = strings.TrimSuffix(lower, ".gz")
	switch filepath.Ext(lower) {
	case ".gtf", ".gff2":
		return "gtf"
	default:
		return "gff"
	}
}

// NewLoader returns the loader registered for format. An empty format is
// detected from the file name.
func NewLoader(path, format string, opts Options) (FragmentLoader, error) {
	if format == "" {
		format = DetectFormat(path)
	}
	newLoader, ok := loaders[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("unknown annotation format %q (known: %s)", format, strings.Join(Formats(), ", "))
	}
	return newLoader(path, opts), nil
}

// Load reads an annotation file and aggregates its records into features.
func Load(path, format string, opts Options) ([]*FeatureData, error) {
	loader, err := NewLoader(path, format, opts)
	if err != nil {
		return nil, err
	}
	fragments, err := loader.Load()
	if err != nil {
		return nil, err
	}
	features, err := Aggregate(fragments)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", path, err)
	}
	return features, nil
}
