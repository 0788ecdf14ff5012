package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/genome-mapping/internal/duckdb"
	"github.com/inodb/genome-mapping/internal/evaluate"
	"github.com/inodb/genome-mapping/internal/features"
	"github.com/inodb/genome-mapping/internal/index"
)

// settings holds the resolved values shared by several commands.
type settings struct {
	Workers  int
	Index    index.Kind
	CacheDir string
	NoCache  bool
	DB       string
}

func loadSettings() (settings, error) {
	kind, err := index.ParseKind(viper.GetString("index"))
	if err != nil {
		return settings{}, usageError{err}
	}
	s := settings{
		Workers:  viper.GetInt("workers"),
		Index:    kind,
		CacheDir: viper.GetString("cache_dir"),
		NoCache:  viper.GetBool("no_cache"),
		DB:       viper.GetString("db"),
	}
	if s.CacheDir == "" {
		s.CacheDir = defaultCacheDir()
	}
	return s, nil
}

func (s settings) newEvaluator(feats []*features.FeatureData) (*evaluate.Evaluator, error) {
	ev, err := evaluate.NewEvaluator(feats,
		evaluate.WithWorkers(s.Workers),
		evaluate.WithIndexKind(s.Index),
	)
	if err != nil {
		return nil, err
	}
	ev.SetLogger(logger)
	return ev, nil
}

// annotationFlags are the loader options exposed by commands that read
// annotation files.
type annotationFlags struct {
	Format       string
	FeatureTypes []string
	Chromosome   string
	IdentityKey  string
}

func (a annotationFlags) options() features.Options {
	return features.Options{
		FeatureTypes: a.FeatureTypes,
		Chromosome:   a.Chromosome,
		IdentityKey:  a.IdentityKey,
	}
}

// fingerprint encodes the loader settings so that a cache built with other
// options is not reused.
func (a annotationFlags) fingerprint() string {
	return fmt.Sprintf("format=%s;types=%s;chrom=%s;identity=%s",
		a.Format, strings.Join(a.FeatureTypes, ","), a.Chromosome, a.IdentityKey)
}

// loadFeatures parses an annotation file, going through the gob cache
// unless caching is disabled.
func (s settings) loadFeatures(path string, a annotationFlags) ([]*features.FeatureData, error) {
	if s.NoCache {
		return features.Load(path, a.Format, a.options())
	}

	fp, err := duckdb.StatAnnotation(path, a.fingerprint())
	if err != nil {
		return nil, fmt.Errorf("annotation file: %w", err)
	}
	fc := duckdb.NewFeatureCache(s.CacheDir, path)
	if fc.Valid(fp) {
		feats, err := fc.Load()
		if err == nil {
			logger.Debug("loaded features from cache",
				zap.String("path", path),
				zap.Int("features", len(feats)))
			return feats, nil
		}
		logger.Warn("feature cache unreadable, reparsing", zap.Error(err))
		fc.Clear()
	}

	feats, err := features.Load(path, a.Format, a.options())
	if err != nil {
		return nil, err
	}
	if err := fc.Write(feats, fp); err != nil {
		logger.Warn("could not write feature cache", zap.Error(err))
	}
	logger.Info("loaded features",
		zap.String("path", path),
		zap.Int("features", len(feats)))
	return feats, nil
}

// writeOutput creates path, or writes to stdout when path is "-".
func writeOutput(path string, fn func(w io.Writer) error) error {
	if path == "-" {
		return fn(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
