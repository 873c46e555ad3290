// Package main provides the itree command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

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

// Configuration keys and their defaults.
const (
	keyDBPath      = "db.path"
	keySnapshotDir = "snapshot.dir"
	keyInclusive   = "query.inclusive"
	keyWorkers     = "batch.workers"
	keyVerbose     = "log.verbose"
)

var cfgFile string

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var ue usageError
		if errors.As(err, &ue) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

// usageError marks errors caused by bad arguments or flags.
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

// exactArgs is cobra.ExactArgs reporting a usageError.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "itree",
		Short: "itree - augmented interval tree index",
		Long: `Build interval trees from interval files or stored sets and run
overlap queries against them.`,
		Example: `  # Store an interval file as a named set
  itree load --set genes genes.tsv

  # Query a stored set (closed intervals)
  itree query --set genes --inclusive 100 200

  # Query a file directly
  itree query --file genes.tsv 100 200

  # Check tree invariants against the SQL oracle
  itree verify --set genes`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.itree.yaml)")
	root.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	root.PersistentFlags().String("db", "", "DuckDB database path (default: ~/.itree/itree.duckdb)")
	viper.BindPFlag(keyVerbose, root.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag(keyDBPath, root.PersistentFlags().Lookup("db"))

	root.AddCommand(newLoadCmd())
	root.AddCommand(newSetsCmd())
	root.AddCommand(newQueryCmd())
	root.AddCommand(newBatchCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newBenchCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// initConfig reads ~/.itree.yaml (or --config) and ITREE_* environment variables.
func initConfig() error {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	viper.SetDefault(keyDBPath, filepath.Join(home, ".itree", "itree.duckdb"))
	viper.SetDefault(keySnapshotDir, filepath.Join(home, ".itree", "snapshots"))
	viper.SetDefault(keyInclusive, false)
	viper.SetDefault(keyWorkers, 0)

	viper.SetEnvPrefix("itree")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(home)
		viper.SetConfigName(".itree")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// newLogger returns a console logger on stderr. Debug messages are shown
// only with --verbose.
func newLogger() *zap.Logger {
	level := zapcore.InfoLevel
	if viper.GetBool(keyVerbose) {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
