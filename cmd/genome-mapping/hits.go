package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/genome-mapping/internal/compare"
	"github.com/inodb/genome-mapping/internal/evaluate"
	"github.com/inodb/genome-mapping/internal/features"
	"github.com/inodb/genome-mapping/internal/hits"
	"github.com/inodb/genome-mapping/internal/matchers"
	"github.com/inodb/genome-mapping/internal/output"
)

func newHitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hits",
		Short: "Filter, compare and merge genome hits",
	}
	cmd.AddCommand(newHitsSelectCmd())
	cmd.AddCommand(newHitsCompareCmd())
	cmd.AddCommand(newHitsBestWithinCmd())
	cmd.AddCommand(newHitsMergeCmd())
	return cmd
}

func addAnnotationFlags(cmd *cobra.Command, a *annotationFlags) {
	cmd.Flags().StringVar(&a.Format, "annotation-format", "",
		fmt.Sprintf("Annotation format: %s (default: from file extension)", strings.Join(features.Formats(), ", ")))
	cmd.Flags().StringSliceVar(&a.FeatureTypes, "feature-type", nil, "Annotation record types to load (default exon)")
	cmd.Flags().StringVar(&a.Chromosome, "chromosome", "", "Only load annotations on this chromosome")
	cmd.Flags().StringVar(&a.IdentityKey, "identity-key", "", "Attribute used as feature identity when Name is absent")
}

func newHitsSelectCmd() *cobra.Command {
	var defines []string

	cmd := &cobra.Command{
		Use:   "select <hits> <matcher> <save>",
		Short: "Keep hits accepted by a matcher",
		Long: fmt.Sprintf(`Keep the hits accepted by the named matcher. Matcher parameters are
given with --define key=value.

Matchers: %s`, strings.Join(matchers.Known(), ", ")),
		Example: `  genome-mapping hits select hits.json exact exact.json
  genome-mapping hits select hits.json identity good.json --define min_identity=0.98`,
		Args: exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := matchers.ParseDefines(defines)
			if err != nil {
				return usageError{err}
			}
			m, err := matchers.Fetch(args[1], params)
			if err != nil {
				return usageError{err}
			}
			return runHitsSelect(args[0], m, args[2])
		},
	}
	cmd.Flags().StringArrayVarP(&defines, "define", "D", nil, "Matcher parameter as key=value (repeatable)")
	return cmd
}

func runHitsSelect(hitsPath string, m matchers.Matcher, save string) error {
	hs, err := hits.ReadFile(hitsPath)
	if err != nil {
		return err
	}
	selected := matchers.Filter(m, hs)
	logger.Info("selected hits",
		zap.String("matcher", m.Name()),
		zap.Int("input", len(hs)),
		zap.Int("selected", len(selected)))

	return writeOutput(save, func(w io.Writer) error {
		return hits.Write(w, selected)
	})
}

func newHitsCompareCmd() *cobra.Command {
	var (
		ann      annotationFlags
		noReduce bool
		strict   bool
		sorted   bool
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "compare <hits> <annotations> <save>",
		Short: "Compare hits with known annotated features",
		Long: `Compare every hit with the annotated features it overlaps and write the
comparisons as JSON. Features that no hit overlaps are reported as missing,
hits that overlap no feature as novel. A label summary is printed to stderr.`,
		Example: `  genome-mapping hits compare hits.json gencode.gtf comparisons.json
  genome-mapping hits compare --workers 0 --index sorted hits.json ann.gff3 -`,
		Args: exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			opts := evaluate.CompareOptions{
				ReduceDuplicates:        !noReduce,
				IgnoreMissingChromosome: !strict,
			}
			cs, err := runHitsCompare(s, args[0], args[1], ann, opts)
			if err != nil {
				return err
			}
			if sorted {
				cs = output.SortComparisons(cs)
			}
			if err := writeOutput(args[2], func(w io.Writer) error {
				return compare.Write(w, cs)
			}); err != nil {
				return err
			}
			if quiet {
				return nil
			}
			return output.WriteSummary(os.Stderr, cs)
		},
	}
	addAnnotationFlags(cmd, &ann)
	cmd.Flags().BoolVar(&noReduce, "no-reduce-duplicates", false, "Keep every overlapping feature instead of preferring same-identity ones")
	cmd.Flags().BoolVar(&strict, "strict-chromosomes", false, "Fail on hits whose chromosome has no annotations")
	cmd.Flags().BoolVar(&sorted, "sort", false, "Sort comparisons by location before writing")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the summary")
	return cmd
}

func runHitsCompare(s settings, hitsPath, annPath string, ann annotationFlags, opts evaluate.CompareOptions) ([]*compare.Comparison, error) {
	hs, err := hits.ReadFile(hitsPath)
	if err != nil {
		return nil, err
	}
	feats, err := s.loadFeatures(annPath, ann)
	if err != nil {
		return nil, err
	}
	ev, err := s.newEvaluator(feats)
	if err != nil {
		return nil, err
	}
	return ev.CompareToKnown(hs, opts)
}

func newHitsBestWithinCmd() *cobra.Command {
	var ann annotationFlags

	cmd := &cobra.Command{
		Use:   "best-within <hits> <annotations> <max-range> <save>",
		Short: "Find the best hit near each annotated feature",
		Long: `For each annotated feature, select the hits lying within max-range bases
of it and keep the ones with the highest identity. Features with no nearby
hit are reported as missing.`,
		Args: exactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxRange, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil || maxRange < 0 {
				return usageError{fmt.Errorf("invalid max-range %q: must be a non-negative integer", args[2])}
			}
			s, err := loadSettings()
			if err != nil {
				return err
			}
			cs, err := runBestWithin(cmd.Context(), s, args[0], args[1], ann, maxRange)
			if err != nil {
				return err
			}
			return writeOutput(args[3], func(w io.Writer) error {
				return compare.Write(w, cs)
			})
		},
	}
	addAnnotationFlags(cmd, &ann)
	return cmd
}

func runBestWithin(ctx context.Context, s settings, hitsPath, annPath string, ann annotationFlags, maxRange int64) ([]*compare.Comparison, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	hs, err := hits.ReadFile(hitsPath)
	if err != nil {
		return nil, err
	}
	feats, err := s.loadFeatures(annPath, ann)
	if err != nil {
		return nil, err
	}
	ev, err := s.newEvaluator(feats)
	if err != nil {
		return nil, err
	}
	return ev.BestHitsWithin(ctx, hs, maxRange)
}

func newHitsMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <hits...> <save>",
		Short: "Merge hit files, dropping duplicates",
		Args:  usageArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHitsMerge(args[:len(args)-1], args[len(args)-1])
		},
	}
}

func runHitsMerge(paths []string, save string) error {
	collections := make([][]*hits.Hit, 0, len(paths))
	total := 0
	for _, p := range paths {
		hs, err := hits.ReadFile(p)
		if err != nil {
			return err
		}
		total += len(hs)
		collections = append(collections, hs)
	}
	merged := hits.Merge(collections...)
	logger.Info("merged hits",
		zap.Int("files", len(paths)),
		zap.Int("input", total),
		zap.Int("merged", len(merged)))

	return writeOutput(save, func(w io.Writer) error {
		return hits.Write(w, merged)
	})
}
