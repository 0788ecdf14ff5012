// Package output formats hits, features and comparisons for downstream use.
package output

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrUnsupported is returned when a format cannot represent the given data.
var ErrUnsupported = errors.New("data not supported by format")

// Formatter writes a collection in one output format.
type Formatter interface {
	Name() string
	Format(w io.Writer, d Data) error
}

var formatters = map[string]func() Formatter{
	"json":       func() Formatter { return JSONFormatter{} },
	"gff":        func() Formatter { return GFFFormatter{} },
	"gff3":       func() Formatter { return GFF3Formatter{} },
	"tab":        func() Formatter { return TabFormatter{} },
	"insertable": func() Formatter { return InsertableFormatter{} },
}

// Known returns the registered format names.
func Known() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fetch returns the formatter registered under name.
func Fetch(name string) (Formatter, error) {
	newFormatter, ok := formatters[name]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (known: %s)", name, strings.Join(Known(), ", "))
	}
	return newFormatter(), nil
}
