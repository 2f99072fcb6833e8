package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reneu/pkg/api"
	"reneu/pkg/errors"
	"reneu/pkg/store"
)

func parseSegID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "segment id %q", s)
	}
	return id, nil
}

// withStore opens the configured store for the duration of fn.
func (c *CLI) withStore(fn func(store.Store) error) error {
	s, err := store.Open(c.cfg.Store)
	if err != nil {
		return err
	}
	c.Logger.Debug("opened store", "kind", c.cfg.Store.Kind, "path", c.cfg.Store.Path)

	if err := fn(s); err != nil {
		s.Close()
		return err
	}
	return s.Close()
}

// storeCommand creates the store command group.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Move skeletons and dendrograms in and out of the configured store",
	}

	cmd.AddCommand(c.storePutCommand())
	cmd.AddCommand(c.storeGetCommand())
	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storePutDendrogramCommand())

	return cmd
}

// storePutCommand creates the "store put" subcommand.
func (c *CLI) storePutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put SEGID FILE",
		Short: "Store a skeleton file under a segment id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSegID(args[0])
			if err != nil {
				return err
			}
			t, err := readSkeleton(args[1])
			if err != nil {
				return err
			}
			return c.withStore(func(s store.Store) error {
				if err := s.PutSkeleton(cmd.Context(), id, t); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Stored skeleton %d (%d nodes)", id, t.NodeCount())
				return nil
			})
		},
	}
}

// storeGetCommand creates the "store get" subcommand.
func (c *CLI) storeGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get SEGID FILE",
		Short: "Write a stored skeleton to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSegID(args[0])
			if err != nil {
				return err
			}
			return c.withStore(func(s store.Store) error {
				t, err := s.GetSkeleton(cmd.Context(), id)
				if err != nil {
					return err
				}
				if err := writeSkeleton(args[1], t, c.cfg.Codec.Precision); err != nil {
					return err
				}
				printFile(cmd.OutOrStdout(), args[1])
				return nil
			})
		},
	}
}

// storeListCommand creates the "store list" subcommand.
func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored segment ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(func(s store.Store) error {
				ids, err := s.ListSkeletons(cmd.Context())
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
}

// storePutDendrogramCommand creates the "store put-dendrogram" subcommand.
func (c *CLI) storePutDendrogramCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put-dendrogram NAME FILE",
		Short: "Store a dendrogram file under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readDendrogram(args[1])
			if err != nil {
				return err
			}
			return c.withStore(func(s store.Store) error {
				if err := s.PutDendrogram(cmd.Context(), args[0], d); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Stored dendrogram %q (%d edges)", args[0], d.EdgeNum())
				return nil
			})
		},
	}
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured store over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srvCfg := c.cfg.Server
			if addr != "" {
				srvCfg.Addr = addr
			}
			return c.withStore(func(s store.Store) error {
				handlers := api.NewHandlers(s, c.cfg.Codec.Precision)
				return api.ListenAndServe(cmd.Context(), api.NewServer(srvCfg, handlers))
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", fmt.Sprintf("listen address (default %q from config)", c.cfg.Server.Addr))

	return cmd
}
