package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/genome-mapping/internal/compare"
	"github.com/inodb/genome-mapping/internal/duckdb"
	"github.com/inodb/genome-mapping/internal/output"
)

func newComparisonsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comparisons",
		Aliases: []string{"cmp"},
		Short:   "Filter, summarize and store comparison results",
	}
	cmd.AddCommand(newComparisonsSelectCmd())
	cmd.AddCommand(newComparisonsExtractCmd())
	cmd.AddCommand(newComparisonsSummaryCmd())
	cmd.AddCommand(newComparisonsStoreCmd())
	cmd.AddCommand(newComparisonsRunsCmd())
	return cmd
}

func newComparisonsSelectCmd() *cobra.Command {
	var types []string

	cmd := &cobra.Command{
		Use:   "select <comparisons> <save>",
		Short: "Keep comparisons of the given types",
		Long: `Keep the comparisons whose pretty label, match or location equals one of
the values given with --type.`,
		Example: `  genome-mapping comparisons select cmp.json exact.json --type exact
  genome-mapping comparisons select cmp.json odd.json --type novel --type missing`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(types) == 0 {
				return usageError{fmt.Errorf("at least one --type is required")}
			}
			cs, err := compare.ReadFile(args[0])
			if err != nil {
				return err
			}
			selected := selectComparisons(cs, types)
			logger.Info("selected comparisons",
				zap.Strings("types", types),
				zap.Int("input", len(cs)),
				zap.Int("selected", len(selected)))
			return writeOutput(args[1], func(w io.Writer) error {
				return compare.Write(w, selected)
			})
		},
	}
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "Label, match or location to keep (repeatable)")
	return cmd
}

func selectComparisons(cs []*compare.Comparison, types []string) []*compare.Comparison {
	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	var selected []*compare.Comparison
	for _, c := range cs {
		if wanted[c.Type.Pretty] || wanted[string(c.Type.Match)] || wanted[string(c.Type.Location)] {
			selected = append(selected, c)
		}
	}
	return selected
}

var extractors = map[string]func(*compare.Comparison) any{
	"hit": func(c *compare.Comparison) any {
		if c.Hit == nil {
			return nil
		}
		return c.Hit
	},
	"feature": func(c *compare.Comparison) any {
		if c.Feature == nil {
			return nil
		}
		return c.Feature
	},
	"type":  func(c *compare.Comparison) any { return c.Type },
	"shift": func(c *compare.Comparison) any { return c.Shift },
}

func extractorNames() []string {
	return []string{"hit", "feature", "type", "shift"}
}

func newComparisonsExtractCmd() *cobra.Command {
	var skipMissing bool

	cmd := &cobra.Command{
		Use:   "extract <comparisons> <hit|feature|type|shift> <save>",
		Short: "Write one part of every comparison as a JSON array",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := extractors[args[1]]; !ok {
				return usageError{fmt.Errorf("unknown property %q (known: %s)", args[1], strings.Join(extractorNames(), ", "))}
			}
			cs, err := compare.ReadFile(args[0])
			if err != nil {
				return err
			}
			values := extract(cs, args[1], skipMissing)
			return writeOutput(args[2], func(w io.Writer) error {
				return json.NewEncoder(w).Encode(values)
			})
		},
	}
	cmd.Flags().BoolVar(&skipMissing, "skip-missing", false, "Leave out comparisons where the property is absent")
	return cmd
}

func extract(cs []*compare.Comparison, property string, skipMissing bool) []any {
	get := extractors[property]
	values := make([]any, 0, len(cs))
	for _, c := range cs {
		v := get(c)
		if v == nil && skipMissing {
			continue
		}
		values = append(values, v)
	}
	return values
}

func newComparisonsSummaryCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "summary <comparisons> <save>",
		Short: "Count comparisons per label",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := compare.ReadFile(args[0])
			if err != nil {
				return err
			}
			return writeOutput(args[1], func(w io.Writer) error {
				return output.WriteSummaryAs(w, format, cs)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv",
		fmt.Sprintf("Summary format: %s", strings.Join(output.SummaryFormats(), ", ")))
	return cmd
}

func newComparisonsStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store <comparisons>",
		Short: "Append comparisons to a DuckDB database",
		Long: `Append comparisons to a DuckDB database as a new run and print the run
id. The database defaults to GENOME_MAPPING_DB or the db config key.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			cs, err := compare.ReadFile(args[0])
			if err != nil {
				return err
			}
			runID, err := store.WriteComparisons(args[0], cs)
			if err != nil {
				return err
			}
			logger.Info("stored comparisons",
				zap.String("db", store.Path()),
				zap.String("run", runID),
				zap.Int("comparisons", len(cs)))
			fmt.Fprintln(cmd.OutOrStdout(), runID)
			return nil
		},
	}
	cmd.Flags().String("db", "", "DuckDB database path")
	return cmd
}

func newComparisonsRunsCmd() *cobra.Command {
	var (
		summary string
		rows    string
		remove  string
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored comparison runs",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			switch {
			case remove != "":
				return store.DeleteRun(remove)
			case summary != "":
				return printRunSummary(cmd.OutOrStdout(), store, summary)
			case rows != "":
				return printRunRows(cmd.OutOrStdout(), store, rows)
			}
			return printRuns(cmd.OutOrStdout(), store)
		},
	}
	cmd.Flags().String("db", "", "DuckDB database path")
	cmd.Flags().StringVar(&summary, "summary", "", "Print label counts of one run")
	cmd.Flags().StringVar(&rows, "rows", "", "Print the stored comparisons of one run")
	cmd.Flags().StringVar(&remove, "delete", "", "Delete one run")
	return cmd
}

func openStore() (*duckdb.Store, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}
	if s.DB == "" {
		return nil, usageError{fmt.Errorf("no database given: use --db or GENOME_MAPPING_DB")}
	}
	return duckdb.Open(s.DB)
}

func printRuns(w io.Writer, store *duckdb.Store) error {
	runs, err := store.Runs()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSOURCE\tCREATED\tCOMPARISONS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", r.ID, r.Source, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Comparisons)
	}
	return tw.Flush()
}

func printRunSummary(w io.Writer, store *duckdb.Store, runID string) error {
	counts, err := store.Summary(runID)
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		fmt.Fprintf(os.Stderr, "No comparisons stored for run %s\n", runID)
		return nil
	}
	for _, c := range counts {
		fmt.Fprintf(w, "  %-45s%d\n", c.Label, c.Count)
	}
	return nil
}

func printRunRows(w io.Writer, store *duckdb.Store, runID string) error {
	rows, err := store.Comparisons(runID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tHIT\tFEATURE\tSHIFT\tPRETTY")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Seq,
			storedSide(r.HitURS, r.HitChrom, r.HitStart, r.HitStop),
			storedSide(r.FeatureURS, r.FeatureChrom, r.FeatureStart, r.FeatureStop),
			storedShift(r.ShiftStart, r.ShiftStop),
			r.Pretty)
	}
	return tw.Flush()
}

func storedSide(urs, chrom sql.NullString, start, stop sql.NullInt64) string {
	if !urs.Valid {
		return "-"
	}
	return fmt.Sprintf("%s@%s:%d-%d", urs.String, chrom.String, start.Int64+1, stop.Int64)
}

func storedShift(start, stop sql.NullInt64) string {
	if !start.Valid || !stop.Valid {
		return "-"
	}
	return fmt.Sprintf("%d,%d", start.Int64, stop.Int64)
}
