package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/itree/internal/itree"
	"github.com/inodb/itree/internal/loader"
	"github.com/inodb/itree/internal/store"
)

// addSourceFlags registers --set and --file on cmd.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("set", "", "Name of a stored interval set")
	cmd.Flags().String("file", "", "Interval file (plain or gzipped, '-' for stdin)")
	cmd.Flags().Bool("no-snapshot", false, "Do not read or write the snapshot cache for --file")
}

// readSource returns the intervals selected by --set or --file, in
// insertion order, plus a label describing where they came from.
func readSource(cmd *cobra.Command, logger *zap.Logger) ([]itree.Item[string], string, error) {
	set, _ := cmd.Flags().GetString("set")
	file, _ := cmd.Flags().GetString("file")

	switch {
	case set != "" && file != "":
		return nil, "", usageError{fmt.Errorf("--set and --file are mutually exclusive")}
	case set != "":
		s, err := openStore()
		if err != nil {
			return nil, "", err
		}
		defer s.Close()

		items, err := s.LoadSet(set)
		if err != nil {
			return nil, "", err
		}
		if len(items) == 0 {
			return nil, "", fmt.Errorf("interval set %q not found in %s", set, s.Path())
		}
		logger.Debug("loaded interval set", zap.String("set", set), zap.Int("intervals", len(items)))
		return items, "set " + set, nil
	case file != "":
		noSnapshot, _ := cmd.Flags().GetBool("no-snapshot")
		items, err := readFile(file, !noSnapshot, logger)
		if err != nil {
			return nil, "", err
		}
		return items, "file " + file, nil
	default:
		return nil, "", usageError{fmt.Errorf("one of --set or --file is required")}
	}
}

// readFile parses an interval file, going through the gob snapshot cache
// when the file is unchanged since it was last parsed.
func readFile(path string, useSnapshot bool, logger *zap.Logger) ([]itree.Item[string], error) {
	if !useSnapshot || path == "-" {
		return loader.ReadFile(path)
	}

	fp, err := store.StatFile(path)
	if err != nil {
		return nil, fmt.Errorf("open interval file: %w", err)
	}

	snap := store.NewSnapshot(viper.GetString(keySnapshotDir), snapshotName(path, fp))
	if snap.Valid(fp) {
		items, err := snap.Load()
		if err == nil {
			logger.Debug("using snapshot", zap.String("file", path), zap.Int("intervals", len(items)))
			return items, nil
		}
		logger.Warn("could not load snapshot, reparsing", zap.String("file", path), zap.Error(err))
	}

	items, err := loader.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := snap.Write(items, fp); err != nil {
		logger.Warn("could not write snapshot", zap.String("file", path), zap.Error(err))
	}
	return items, nil
}

// snapshotName derives a stable per-file snapshot name.
func snapshotName(path string, fp store.FileFingerprint) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return fmt.Sprintf("%s-%016x", base, fp.Digest)
}

// buildTree builds a tree and logs its shape.
func buildTree(items []itree.Item[string], label string, logger *zap.Logger) (*itree.Tree[string], error) {
	tree, err := itree.Build(items)
	if err != nil {
		return nil, fmt.Errorf("build tree from %s: %w", label, err)
	}
	logger.Debug("built tree",
		zap.String("source", label),
		zap.Int("intervals", tree.Len()),
		zap.Int("height", tree.Height()),
		zap.Uint64("max", tree.Max()))
	return tree, nil
}

func openStore() (*store.Store, error) {
	return store.Open(viper.GetString(keyDBPath))
}

// inclusiveFlag returns --inclusive when given, else the configured default.
func inclusiveFlag(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("inclusive") {
		v, _ := cmd.Flags().GetBool("inclusive")
		return v
	}
	return viper.GetBool(keyInclusive)
}
