// Package main provides the genome-mapping command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const configName = ".genome-mapping"

// envDefaults are read from the environment before flags and the config
// file are consulted.
type envDefaults struct {
	Workers  int    `envconfig:"GENOME_MAPPING_WORKERS" default:"1"`
	Index    string `envconfig:"GENOME_MAPPING_INDEX" default:"llrb"`
	DB       string `envconfig:"GENOME_MAPPING_DB"`
	CacheDir string `envconfig:"GENOME_MAPPING_CACHE_DIR"`
}

// usageError marks errors caused by bad arguments or flags.
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

var logger = zap.NewNop()

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var ue usageError
		if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:     "genome-mapping",
		Short:   "Compare sequence-to-genome hits with known annotations",
		Version: fmt.Sprintf("%s (%s) built %s", version, commit, date),
		Long: `genome-mapping filters genome alignment hits, compares them against
annotated features and converts the results into other formats.

Defaults come from GENOME_MAPPING_* environment variables, then from
~/.genome-mapping.yaml, then from command-line flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cmd, cfgFile); err != nil {
				return err
			}
			return initLogger(verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default ~/.genome-mapping.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log debug messages")
	flags.Int("workers", 1, "Number of comparison workers (0 = all CPUs)")
	flags.String("index", "llrb", "Interval index implementation: llrb or sorted")
	flags.String("cache-dir", "", "Directory for parsed annotation caches (default ~/.genome-mapping/cache)")
	flags.Bool("no-cache", false, "Parse annotations without reading or writing the cache")

	cmd.AddCommand(newHitsCmd())
	cmd.AddCommand(newComparisonsCmd())
	cmd.AddCommand(newAsCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig layers environment defaults, the YAML config file and flags
// into viper.
func initConfig(cmd *cobra.Command, cfgFile string) error {
	var env envDefaults
	if err := envconfig.Process("", &env); err != nil {
		return usageError{fmt.Errorf("reading environment: %w", err)}
	}
	viper.SetDefault("workers", env.Workers)
	viper.SetDefault("index", env.Index)
	viper.SetDefault("db", env.DB)
	viper.SetDefault("cache_dir", env.CacheDir)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
	}

	flags := cmd.Flags()
	for key, flag := range map[string]string{
		"workers":   "workers",
		"index":     "index",
		"cache_dir": "cache-dir",
		"no_cache":  "no-cache",
		"db":        "db",
	} {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			if err := viper.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func initLogger(verbose bool) error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	logger = l
	return nil
}

// defaultCacheDir returns ~/.genome-mapping/cache.
func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".genome-mapping-cache"
	}
	return filepath.Join(home, ".genome-mapping", "cache")
}

// exactArgs wraps cobra.ExactArgs so that argument errors exit with
// ExitUsage.
func exactArgs(n int) cobra.PositionalArgs {
	return usageArgs(cobra.ExactArgs(n))
}

func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}
