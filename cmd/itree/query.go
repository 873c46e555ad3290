package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/itree/internal/batch"
	"github.com/inodb/itree/internal/itree"
	"github.com/inodb/itree/internal/loader"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <start> <end>",
		Short: "Print intervals overlapping [start, end]",
		Long: `Build a tree from a stored set or a file and print every interval that
overlaps [start, end], ordered by interval start.

By default overlap is exclusive: intervals that only touch the query at an
endpoint do not match. Use --inclusive for closed intervals.`,
		Example: `  itree query --set genes 100 200
  itree query --file genes.tsv --inclusive 100 200`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ql, qr, err := parseRange(args[0], args[1])
			if err != nil {
				return err
			}
			return runQuery(cmd, ql, qr)
		},
	}
	addSourceFlags(cmd)
	cmd.Flags().Bool("inclusive", false, "Treat intervals as closed (default from query.inclusive)")
	return cmd
}

func parseRange(a, b string) (uint64, uint64, error) {
	ql, err := strconv.ParseUint(a, 10, 64)
	if err != nil {
		return 0, 0, usageError{fmt.Errorf("invalid start %q: %w", a, err)}
	}
	qr, err := strconv.ParseUint(b, 10, 64)
	if err != nil {
		return 0, 0, usageError{fmt.Errorf("invalid end %q: %w", b, err)}
	}
	if ql > qr {
		return 0, 0, usageError{fmt.Errorf("start %d is after end %d", ql, qr)}
	}
	return ql, qr, nil
}

func runQuery(cmd *cobra.Command, ql, qr uint64) error {
	logger := newLogger()
	defer logger.Sync()

	items, label, err := readSource(cmd, logger)
	if err != nil {
		return err
	}
	tree, err := buildTree(items, label, logger)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(cmd.OutOrStdout())
	for _, h := range tree.Query(ql, qr, inclusiveFlag(cmd)) {
		writeHit(w, h)
	}
	return w.Flush()
}

func writeHit(w io.Writer, h itree.Hit[string]) {
	fmt.Fprintf(w, "%d\t%d\t%s\n", h.Left, h.Right, *h.Data)
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <queries-file>",
		Short: "Run many queries in parallel",
		Long: `Read "start end" query lines and answer them concurrently against one
tree. Output rows are prefixed with the 1-based query number and appear in
input order.`,
		Example: `  itree batch --set genes queries.txt
  itree batch --file genes.tsv --workers 4 -o hits.tsv queries.txt`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0])
		},
	}
	addSourceFlags(cmd)
	cmd.Flags().Bool("inclusive", false, "Treat intervals as closed (default from query.inclusive)")
	cmd.Flags().Int("workers", 0, "Number of workers (default from batch.workers, 0 = all CPUs)")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	return cmd
}

func runBatch(cmd *cobra.Command, queriesPath string) error {
	logger := newLogger()
	defer logger.Sync()

	var in io.Reader = os.Stdin
	if queriesPath != "-" {
		f, err := os.Open(queriesPath)
		if err != nil {
			return fmt.Errorf("open queries file: %w", err)
		}
		defer f.Close()
		in = f
	}
	queries, err := loader.ReadQueries(in)
	if err != nil {
		return fmt.Errorf("read queries: %w", err)
	}

	items, label, err := readSource(cmd, logger)
	if err != nil {
		return err
	}
	tree, err := buildTree(items, label, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	workers := viper.GetInt(keyWorkers)
	if cmd.Flags().Changed("workers") {
		workers, _ = cmd.Flags().GetInt("workers")
	}

	runner := batch.NewRunner(tree, inclusiveFlag(cmd))
	runner.SetLogger(logger)

	requests := make([]batch.Request, len(queries))
	for i, q := range queries {
		requests[i] = batch.Request{Start: q.Start, End: q.End}
	}

	w := bufio.NewWriter(out)
	total := 0
	if err := runner.RunAll(requests, workers, func(res batch.Result[string]) error {
		for _, h := range res.Hits {
			fmt.Fprintf(w, "%d\t", res.Seq+1)
			writeHit(w, h)
		}
		total += len(res.Hits)
		return nil
	}); err != nil {
		return err
	}

	logger.Debug("batch done", zap.Int("queries", len(queries)), zap.Int("hits", total))
	return w.Flush()
}
