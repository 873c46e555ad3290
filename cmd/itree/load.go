package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/itree/internal/loader"
)

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Store an interval file as a named set",
		Long: `Parse an interval file, check that every interval is valid by building
a tree from it, and store the intervals in DuckDB under the given name.
An existing set with the same name is replaced.`,
		Example: `  itree load --set genes genes.tsv
  zcat genes.tsv.gz | itree load --set genes -`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("set")
			if name == "" {
				return usageError{fmt.Errorf("--set is required")}
			}
			return runLoad(cmd, name, args[0])
		},
	}
	cmd.Flags().String("set", "", "Name to store the intervals under")
	return cmd
}

func runLoad(cmd *cobra.Command, name, path string) error {
	logger := newLogger()
	defer logger.Sync()

	items, err := loader.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := buildTree(items, "file "+path, logger); err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.WriteSet(name, items); err != nil {
		return fmt.Errorf("write set %q: %w", name, err)
	}

	logger.Info("stored interval set",
		zap.String("set", name),
		zap.Int("intervals", len(items)),
		zap.String("db", s.Path()))
	return nil
}

func newSetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sets",
		Short: "List stored interval sets",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetsList(cmd)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored interval set",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			return s.DeleteSet(args[0])
		},
	})
	return cmd
}

func runSetsList(cmd *cobra.Command) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	sets, err := s.ListSets()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tINTERVALS\tMIN\tMAX")
	for _, si := range sets {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", si.Name, si.Count, si.Min, si.Max)
	}
	return tw.Flush()
}
