package output

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// JSONFormatter writes the data back as a JSON array.
type JSONFormatter struct{}

func (JSONFormatter) Name() string { return "json" }

func (JSONFormatter) Format(w io.Writer, d Data) error {
	var v any = []any{}
	switch {
	case d.Comparisons != nil:
		v = d.Comparisons
	case d.Hits != nil:
		v = d.Hits
	case d.Features != nil:
		v = d.Features
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
