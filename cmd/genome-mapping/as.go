package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/genome-mapping/internal/output"
)

func newAsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "as <format> <data> <save>",
		Short: "Convert hits, features or comparisons to another format",
		Long: fmt.Sprintf(`Convert a JSON file of hits, features or comparisons to another format.
The kind of data is detected from the first record.

Formats: %s`, strings.Join(output.Known(), ", ")),
		Example: `  genome-mapping as gff3 hits.json hits.gff3
  genome-mapping as tab comparisons.json -`,
		Args: exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.Fetch(args[0])
			if err != nil {
				return usageError{err}
			}
			return runAs(f, args[1], args[2])
		},
	}
}

func runAs(f output.Formatter, dataPath, save string) error {
	d, err := output.ReadFile(dataPath)
	if err != nil {
		return err
	}
	logger.Debug("converting",
		zap.String("format", f.Name()),
		zap.String("input", dataPath),
		zap.Int("records", d.Len()))

	return writeOutput(save, func(w io.Writer) error {
		return f.Format(w, d)
	})
}
