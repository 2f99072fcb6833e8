package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reneu/pkg/skeleton"
)

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		precision int
		largest   bool
	)

	cmd := &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Convert a skeleton between SWC and precomputed form",
		Long: `Convert reads IN and writes OUT. Files ending in .swc are SWC text,
anything else is a precomputed buffer.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("precision") {
				precision = c.cfg.Codec.Precision
			}

			start := time.Now()
			t, err := readSkeleton(args[0])
			if err != nil {
				return err
			}
			if largest {
				n := t.NodeCount()
				if t, err = t.Subset(t.LargestComponent()); err != nil {
					return err
				}
				c.Logger.Debug("kept largest component", "nodes", t.NodeCount(), "dropped", n-t.NodeCount())
			}
			if err := writeSkeleton(args[1], t, precision); err != nil {
				return err
			}

			c.Logger.Infof("Converted %d nodes (%s)", t.NodeCount(), time.Since(start).Round(time.Millisecond))
			printFile(cmd.OutOrStdout(), args[1])
			return nil
		},
	}

	cmd.Flags().IntVarP(&precision, "precision", "p", skeleton.DefaultPrecision, "SWC fractional digits")
	cmd.Flags().BoolVar(&largest, "largest", false, "keep only the largest connected component")

	return cmd
}

// infoCommand creates the info command.
func (c *CLI) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "Summarize a skeleton file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readSkeleton(args[0])
			if err != nil {
				return err
			}
			_, components := t.Components()

			w := cmd.OutOrStdout()
			printTitle(w, args[0])
			printKeyValue(w, "nodes", t.NodeCount())
			printKeyValue(w, "edges", t.EdgeCount())
			printKeyValue(w, "components", components)
			printKeyValue(w, "roots", len(t.Roots()))
			printKeyValue(w, "leaves", len(t.Leaves()))
			printKeyValue(w, "branch points", len(t.BranchPoints()))
			printKeyValue(w, "path length", fmt.Sprintf("%.3f", t.PathLength()))
			return nil
		},
	}
}
