package main

import (
	"github.com/spf13/cobra"

	"github.com/treewatch/treewatch/internal/cmdutil"
	"github.com/treewatch/treewatch/internal/version"
	"github.com/treewatch/treewatch/pkg/logging"
)

var rootCommand = &cobra.Command{
	Use:     "treewatch",
	Short:   "treewatch recursively watches a directory tree and reports change events",
	Version: version.String,
	Args:    cmdutil.DisallowArguments,
}

var rootConfiguration struct {
	// logLevel is the name of the minimum logging.Level to emit, applied to
	// logging.RootLogger before any subcommand runs.
	logLevel string
}

func init() {
	flags := rootCommand.PersistentFlags()
	flags.StringVar(&rootConfiguration.logLevel, "log-level", "info", "minimum log level (disabled|error|warn|info|debug)")

	cobra.EnableCommandSorting = false
	cobra.OnInitialize(applyLogLevel)

	rootCommand.AddCommand(watchCommand)
}

func applyLogLevel() {
	level, ok := logging.NameToLevel(rootConfiguration.logLevel)
	if !ok {
		level = logging.LevelInfo
	}
	logging.RootLogger.SetLevel(level)
}
