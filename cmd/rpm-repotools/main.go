package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/open-edge-platform/rpm-repotools/internal/provider"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/config"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/logger"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/network"
)

// Global flags
var (
	configFile string
	logLevel   string
	verbose    bool
)

var flushLogger = func() {}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	rootCmd := createRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	flushLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// createRootCommand builds the rpm-repotools command tree
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rpm-repotools",
		Short: "Manage local RPM package directories and repository mirrors",
		Long: `rpm-repotools keeps directories of RPM packages tidy and mirrors
remote yum repositories. Packages are grouped by name and architecture
and ordered by epoch, version and release.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Path to the global YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	rootCmd.AddCommand(createManageCommand())
	rootCmd.AddCommand(createSyncCommand())
	rootCmd.AddCommand(createCompareCommand())

	attachLoggingHooks(rootCmd)
	return rootCmd
}

// attachLoggingHooks loads configuration and sets up logging before every
// subcommand runs.
func attachLoggingHooks(root *cobra.Command) {
	for _, sub := range root.Commands() {
		prev := sub.PersistentPreRunE
		sub.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
			if err := initConfigAndLogging(cmd); err != nil {
				return err
			}
			if prev != nil {
				return prev(cmd, args)
			}
			return nil
		}
	}
}

func initConfigAndLogging(cmd *cobra.Command) error {
	cfg, err := config.LoadGlobalConfig(configFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	config.GlConfig = cfg

	helpers := config.NewConfigHelpers(cfg)
	level := resolveRequestedLogLevel(cmd)
	if level == "" {
		level = helpers.LogLevel()
	}
	flush, err := logger.SetupLogger(level)
	if err != nil {
		return err
	}
	flushLogger = flush

	provider.Register(provider.NewHTTPProvider(network.NewSecureHTTPClient(helpers.HTTPTimeout())))
	logger.Logger().Debugf("configuration loaded from %q, %d workers", configFile, helpers.Workers())
	return nil
}

// resolveRequestedLogLevel returns the level asked for on the command line,
// or "" to fall back to the configuration.
func resolveRequestedLogLevel(cmd *cobra.Command) string {
	if logLevel != "" {
		return logLevel
	}
	if cmd == nil {
		return ""
	}
	if boolFlagSet(cmd.Flags(), "verbose") {
		return "debug"
	}
	if boolFlagSet(cmd.Flags(), "quiet") {
		return "error"
	}
	return ""
}

// boolFlagSet reports whether a boolean flag was given and is true.
func boolFlagSet(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil || !f.Changed {
		return false
	}
	v, err := fs.GetBool(name)
	return err == nil && v
}
