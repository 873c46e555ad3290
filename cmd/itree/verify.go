package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/itree/internal/itree"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check tree invariants and cross-check random queries",
		Long: `Build a tree and check that every node's max equals the largest end in
its subtree and that starts are ordered. Then run random queries in both
overlap modes and compare the results with a full scan (SQL for stored
sets, a linear scan for files).`,
		Example: `  itree verify --set genes
  itree verify --file genes.tsv --queries 1000 --dump`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd)
		},
	}
	addSourceFlags(cmd)
	cmd.Flags().Int("queries", 100, "Number of random queries to cross-check")
	cmd.Flags().Int64("seed", 1, "Random seed for queries")
	cmd.Flags().Bool("dump", false, "Print the tree structure")
	return cmd
}

// scanFunc returns the intervals overlapping [ql, qr] by full scan.
type scanFunc func(ql, qr uint64, inclusive bool) ([]itree.Item[string], error)

func runVerify(cmd *cobra.Command) error {
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

	out := cmd.OutOrStdout()
	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		fmt.Fprint(out, tree.String())
	}

	if err := tree.Check(); err != nil {
		return fmt.Errorf("invariant violated: %w", err)
	}
	fmt.Fprintf(out, "source:    %s\nintervals: %d\nheight:    %d\nmax:       %d\n",
		label, tree.Len(), tree.Height(), tree.Max())

	scan := linearScan(items)
	if set, _ := cmd.Flags().GetString("set"); set != "" {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		scan = func(ql, qr uint64, inclusive bool) ([]itree.Item[string], error) {
			return s.QueryOverlapsSQL(set, ql, qr, inclusive)
		}
	}

	n, _ := cmd.Flags().GetInt("queries")
	seed, _ := cmd.Flags().GetInt64("seed")
	checked, err := crossCheck(tree, scan, n, seed)
	if err != nil {
		return err
	}

	logger.Info("tree verified", zap.String("source", label), zap.Int("queries", checked))
	fmt.Fprintf(out, "queries:   %d ok\n", checked)
	return nil
}

func linearScan(items []itree.Item[string]) scanFunc {
	return func(ql, qr uint64, inclusive bool) ([]itree.Item[string], error) {
		o := itree.OverlapperFor(inclusive)
		q := itree.Interval{Left: ql, Right: qr}
		var out []itree.Item[string]
		for _, it := range items {
			if o.Overlap(itree.Interval{Left: it.Left, Right: it.Right}, q) {
				out = append(out, it)
			}
		}
		return out, nil
	}
}

// crossCheck runs n random queries per overlap mode and compares tree
// results with scan as multisets. It returns the number of queries run.
func crossCheck(tree *itree.Tree[string], scan scanFunc, n int, seed int64) (int, error) {
	rng := rand.New(rand.NewSource(seed))
	limit := min(tree.Max(), 1<<62) + 1
	maxWidth := limit/100 + 1

	checked := 0
	for iter := 0; iter < n; iter++ {
		ql := uint64(rng.Int63n(int64(limit)))
		qr := ql + uint64(rng.Int63n(int64(maxWidth)))

		for _, inclusive := range []bool{true, false} {
			want, err := scan(ql, qr, inclusive)
			if err != nil {
				return checked, err
			}
			got := tree.Query(ql, qr, inclusive)

			counts := make(map[itree.Item[string]]int, len(want))
			for _, it := range want {
				counts[it]++
			}
			for _, h := range got {
				counts[itree.Item[string]{Left: h.Left, Right: h.Right, Data: *h.Data}]--
			}
			for it, c := range counts {
				if c != 0 {
					return checked, fmt.Errorf("query [%d, %d] inclusive=%v: %s %q off by %d",
						ql, qr, inclusive, itree.Interval{Left: it.Left, Right: it.Right}, it.Data, -c)
				}
			}
			checked++
		}
	}
	return checked, nil
}
