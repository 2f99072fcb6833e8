package cli

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"reneu/pkg/dendrogram"
)

// dendrogramCommand creates the dendrogram command group.
func (c *CLI) dendrogramCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dendrogram",
		Aliases: []string{"dend"},
		Short:   "Merge, inspect and filter agglomeration dendrograms",
	}

	cmd.AddCommand(c.dendrogramMergeCommand())
	cmd.AddCommand(c.dendrogramPrintCommand())
	cmd.AddCommand(c.dendrogramPairsCommand())
	cmd.AddCommand(c.dendrogramFilterCommand())
	cmd.AddCommand(c.dendrogramRelabelCommand())
	cmd.AddCommand(c.dendrogramAgglomerateCommand())

	return cmd
}

// dendrogramMergeCommand creates the "dendrogram merge" subcommand.
func (c *CLI) dendrogramMergeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "merge OUT IN...",
		Short: "Concatenate dendrograms, keeping the lowest threshold",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var merged *dendrogram.Dendrogram
			for _, path := range args[1:] {
				d, err := readDendrogram(path)
				if err != nil {
					return err
				}
				if merged == nil {
					merged = d
					continue
				}
				merged.Merge(d)
			}
			if err := writeDendrogram(args[0], merged); err != nil {
				return err
			}

			printSuccess(cmd.OutOrStdout(), "Merged %d dendrograms into %d edges (threshold %g)",
				len(args)-1, merged.EdgeNum(), merged.Threshold())
			printFile(cmd.OutOrStdout(), args[0])
			return nil
		},
	}
}

// dendrogramPrintCommand creates the "dendrogram print" subcommand.
func (c *CLI) dendrogramPrintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "print FILE",
		Short: "Print the threshold and every edge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readDendrogram(args[0])
			if err != nil {
				return err
			}
			return d.Fprint(cmd.OutOrStdout())
		},
	}
}

// dendrogramPairsCommand creates the "dendrogram pairs" subcommand.
func (c *CLI) dendrogramPairsCommand() *cobra.Command {
	var threshold float32

	cmd := &cobra.Command{
		Use:   "pairs FILE",
		Short: "Print the segment-to-root merge table",
		Long: `Pairs merges every edge whose weight is at least the threshold and
prints one "id root" line for each segment that joined another one.
Without --threshold the dendrogram's own threshold is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readDendrogram(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = d.Threshold()
			}

			w := cmd.OutOrStdout()
			for _, p := range d.MergePairs(threshold) {
				fmt.Fprintf(w, "%d %d\n", p.ID, p.Root)
			}
			return nil
		},
	}

	cmd.Flags().Float32VarP(&threshold, "threshold", "t", 0, "minimum edge weight to merge")

	return cmd
}

// volumeFlags are shared by commands that read raw label volumes.
type volumeFlags struct {
	shape []int
}

func (f *volumeFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntSliceVar(&f.shape, "shape", nil, "volume shape as z,y,x")
	cmd.MarkFlagRequired("shape")
}

// dendrogramFilterCommand creates the "dendrogram filter" subcommand.
func (c *CLI) dendrogramFilterCommand() *cobra.Command {
	var (
		vf      volumeFlags
		block   []int
		workers int
	)

	cmd := &cobra.Command{
		Use:   "filter IN SEG OUT",
		Short: "Drop edges whose segments never touch inside one block",
		Long: `Filter reads the dendrogram IN and the raw uint64 segmentation SEG, keeps
only the edges whose two segments share a face inside a processing block,
and writes the result to OUT.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("block") {
				block = c.cfg.Contact.Block[:]
			}
			if !cmd.Flags().Changed("workers") {
				workers = c.cfg.Contact.Workers
			}
			blk, err := blockShape(block)
			if err != nil {
				return err
			}

			d, err := readDendrogram(args[0])
			if err != nil {
				return err
			}
			vol, err := readVolume(args[1], vf.shape)
			if err != nil {
				return err
			}

			start := time.Now()
			before := d.EdgeNum()
			if err := d.KeepOnlyContactingEdgesWorkers(vol, blk, workers); err != nil {
				return err
			}
			c.Logger.Infof("Kept %d of %d edges (%s)", d.EdgeNum(), before, time.Since(start).Round(time.Millisecond))

			if err := writeDendrogram(args[2], d); err != nil {
				return err
			}
			printFile(cmd.OutOrStdout(), args[2])
			return nil
		},
	}

	vf.register(cmd)
	cmd.Flags().IntSliceVar(&block, "block", nil, "block shape as z,y,x (default from config)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel block scanners (default from config)")

	return cmd
}

// dendrogramRelabelCommand creates the "dendrogram relabel" subcommand.
func (c *CLI) dendrogramRelabelCommand() *cobra.Command {
	var (
		vf        volumeFlags
		threshold float32
	)

	cmd := &cobra.Command{
		Use:   "relabel IN SEG OUT",
		Short: "Rewrite a segmentation with merged segment ids",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readDendrogram(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = d.Threshold()
			}
			vol, err := readVolume(args[1], vf.shape)
			if err != nil {
				return err
			}

			changed := d.DisjointSets(threshold).Relabel(vol)

			var buf bytes.Buffer
			if err := binary.Write(&buf, binary.LittleEndian, vol.Data); err != nil {
				return err
			}
			if err := os.WriteFile(args[2], buf.Bytes(), 0o644); err != nil {
				return err
			}

			printSuccess(cmd.OutOrStdout(), "Relabeled %d of %d voxels", changed, vol.Len())
			printFile(cmd.OutOrStdout(), args[2])
			return nil
		},
	}

	vf.register(cmd)
	cmd.Flags().Float32VarP(&threshold, "threshold", "t", 0, "minimum edge weight to merge")

	return cmd
}

// dendrogramAgglomerateCommand creates the "dendrogram agglomerate" subcommand.
func (c *CLI) dendrogramAgglomerateCommand() *cobra.Command {
	var vf volumeFlags

	cmd := &cobra.Command{
		Use:   "agglomerate FRAG SEG",
		Short: "List touching fragment pairs that share a segment",
		Long: `Agglomerate compares the raw uint64 fragment volume FRAG with the
agglomerated segmentation SEG and prints one "a b" line for every pair of
touching fragments that ended up in the same segment.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			frag, err := readVolume(args[0], vf.shape)
			if err != nil {
				return err
			}
			seg, err := readVolume(args[1], vf.shape)
			if err != nil {
				return err
			}
			pairs, err := dendrogram.AgglomerationPairs(frag, seg)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, p := range pairs {
				fmt.Fprintf(w, "%d %d\n", p.Lo, p.Hi)
			}
			return nil
		},
	}

	vf.register(cmd)

	return cmd
}
