package main

import (
	"fmt"
	"math/rand"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/itree/internal/batch"
	"github.com/inodb/itree/internal/itree"
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time tree builds and queries on random data",
		Long: `Generate random intervals with exponentially distributed lengths, build a
tree for each size and time fixed-width queries against it. Each point is
the best of --repeats runs.`,
		Example: `  itree bench
  itree bench --sizes 1000,100000 --widths 1,10000 --queries 1000`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg benchConfig
			f := cmd.Flags()
			cfg.sizes, _ = f.GetIntSlice("sizes")
			widths, _ := f.GetInt64Slice("widths")
			for _, w := range widths {
				if w < 0 {
					return usageError{fmt.Errorf("invalid width %d", w)}
				}
				cfg.widths = append(cfg.widths, uint64(w))
			}
			cfg.queries, _ = f.GetInt("queries")
			cfg.maxCoord, _ = f.GetUint64("max-coord")
			cfg.avgLen, _ = f.GetUint64("avg-len")
			cfg.repeats, _ = f.GetInt("repeats")
			cfg.seed, _ = f.GetInt64("seed")
			cfg.workers, _ = f.GetInt("workers")
			cfg.inclusive = inclusiveFlag(cmd)
			if cfg.queries <= 0 || cfg.repeats <= 0 || cfg.maxCoord < 2 {
				return usageError{fmt.Errorf("--queries and --repeats must be positive and --max-coord at least 2")}
			}
			return runBench(cmd, cfg)
		},
	}
	cmd.Flags().IntSlice("sizes", []int{1_000, 10_000, 100_000}, "Tree sizes")
	cmd.Flags().Int64Slice("widths", []int64{1, 10_000, 1_000_000}, "Query widths")
	cmd.Flags().Int("queries", 5_000, "Queries per point")
	cmd.Flags().Uint64("max-coord", 10_000_000, "Largest coordinate")
	cmd.Flags().Uint64("avg-len", 500, "Average interval length")
	cmd.Flags().Int("repeats", 3, "Timing repeats per point (best of)")
	cmd.Flags().Int64("seed", 123, "Random seed")
	cmd.Flags().Int("workers", 1, "Query workers (1 = sequential)")
	cmd.Flags().Bool("inclusive", false, "Treat intervals as closed")
	return cmd
}

type benchConfig struct {
	sizes     []int
	widths    []uint64
	queries   int
	maxCoord  uint64
	avgLen    uint64
	repeats   int
	seed      int64
	workers   int
	inclusive bool
}

// randomItems returns n positive-length intervals within [0, maxCoord].
func randomItems(rng *rand.Rand, n int, maxCoord, avgLen uint64) []itree.Item[string] {
	items := make([]itree.Item[string], n)
	for i := range items {
		l := uint64(rng.Int63n(int64(maxCoord - 1)))
		length := max(1, uint64(rng.ExpFloat64()*float64(avgLen)))
		r := min(maxCoord, l+length)
		items[i] = itree.Item[string]{Left: l, Right: r, Data: fmt.Sprintf("id%d", i)}
	}
	return items
}

// randomRequests returns n fixed-width queries within [0, maxCoord].
func randomRequests(rng *rand.Rand, n int, maxCoord, width uint64) []batch.Request {
	width = max(1, width)
	span := int64(1)
	if maxCoord > width {
		span = int64(maxCoord - width)
	}
	reqs := make([]batch.Request, n)
	for i := range reqs {
		l := uint64(rng.Int63n(span))
		reqs[i] = batch.Request{Start: l, End: l + width}
	}
	return reqs
}

func runBench(cmd *cobra.Command, cfg benchConfig) error {
	logger := newLogger()
	defer logger.Sync()

	rng := rand.New(rand.NewSource(cfg.seed))

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "size\theight\tbuild\twidth\tquery/op\tavg hits\t")

	for _, size := range cfg.sizes {
		items := randomItems(rng, size, cfg.maxCoord, cfg.avgLen)

		var tree *itree.Tree[string]
		buildTime := time.Duration(1<<63 - 1)
		for iter := 0; iter < cfg.repeats; iter++ {
			start := time.Now()
			t, err := itree.Build(items)
			if err != nil {
				return err
			}
			buildTime = min(buildTime, time.Since(start))
			tree = t
		}
		logger.Debug("built bench tree", zap.Int("size", size), zap.Duration("took", buildTime))

		runner := batch.NewRunner(tree, cfg.inclusive)
		runner.SetLogger(logger)

		for _, width := range cfg.widths {
			reqs := randomRequests(rng, cfg.queries, cfg.maxCoord, width)

			queryTime := time.Duration(1<<63 - 1)
			hits := 0
			for iter := 0; iter < cfg.repeats; iter++ {
				hits = 0
				start := time.Now()
				if err := runner.RunAll(reqs, cfg.workers, func(res batch.Result[string]) error {
					hits += len(res.Hits)
					return nil
				}); err != nil {
					return err
				}
				queryTime = min(queryTime, time.Since(start))
			}

			perOp := queryTime / time.Duration(len(reqs))
			fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%s\t%.1f\t\n",
				size, tree.Height(), buildTime.Round(time.Microsecond), width, perOp,
				float64(hits)/float64(len(reqs)))
		}
	}
	return tw.Flush()
}
