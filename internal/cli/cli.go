// Package cli implements the reneu command-line interface.
//
// Commands convert and inspect skeleton files, combine and filter
// dendrograms, move objects in and out of a store, and run the HTTP server.
// Library packages log through the charmbracelet/log default logger, which
// the root command replaces with the CLI logger before any command runs.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"reneu/pkg/config"
)

// LogInfo is the default level passed in from main.go.
const LogInfo = log.InfoLevel

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	cfg        config.Config
	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		cfg: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "reneu",
		Short:        "Reneu converts neuron skeletons and agglomeration dendrograms",
		Long:         `Reneu reads and writes neuron skeletons in SWC and precomputed form, merges and filters segmentation dendrograms, and serves both over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (.toml, .yaml or .yml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.convertCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.dendrogramCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.serveCommand())

	return root
}

// setup loads the config file, if any, and installs the logger as the
// process default.
func (c *CLI) setup() error {
	if c.configPath != "" {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			return err
		}
		c.cfg = cfg
	}

	level, err := log.ParseLevel(c.cfg.Log.Level)
	if err != nil {
		return err
	}
	if c.verbose {
		level = log.DebugLevel
	}
	c.SetLogLevel(level)
	log.SetDefault(c.Logger)

	c.Logger.Debug("config", "path", c.configPath, "store", c.cfg.Store.Kind, "block", c.cfg.Contact.Block)
	return nil
}
