package main

import (
	"github.com/spf13/cobra"

	"github.com/open-edge-platform/rpm-repotools/internal/repomanage"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/config"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/logger"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/rpmutils"
)

// Manage command flags
var (
	manageOld     bool
	manageNew     bool
	manageKeep    int
	manageSpace   bool
	manageNoCheck bool
	manageExclude []string
)

// newHeaderReader is swapped out in tests.
var newHeaderReader = rpmutils.NewHeaderReader

// createManageCommand creates the manage subcommand
func createManageCommand() *cobra.Command {
	manageCmd := &cobra.Command{
		Use:   "manage [flags] DIR",
		Short: "List the newest or the superseded packages in a directory",
		Long: `Manage scans DIR recursively for .rpm files, groups them by name and
architecture and prints either the newest packages of every group (--new,
the default) or the older ones beyond the newest --keep versions (--old).
The output is suitable for piping into rm or createrepo.`,
		Args: cobra.ExactArgs(1),
		RunE: executeManage,
	}

	manageCmd.Flags().BoolVarP(&manageOld, "old", "o", false,
		"Print the older packages")
	manageCmd.Flags().BoolVarP(&manageNew, "new", "n", false,
		"Print the newest packages")
	manageCmd.Flags().IntVarP(&manageKeep, "keep", "k", config.DefaultKeep,
		"Number of newest versions to keep per package")
	manageCmd.Flags().BoolVarP(&manageSpace, "space", "s", false,
		"Space separated output instead of one path per line")
	manageCmd.Flags().BoolVarP(&manageNoCheck, "nocheck", "c", false,
		"Do not check package digests while reading headers")
	manageCmd.Flags().StringSliceVar(&manageExclude, "exclude", nil,
		"Glob of files to leave out (repeatable)")
	return manageCmd
}

// executeManage handles the manage command execution logic
func executeManage(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	cfg := config.GlConfig

	keep := manageKeep
	if !cmd.Flags().Changed("keep") && cfg.Manage.Keep > 0 {
		keep = cfg.Manage.Keep
	}

	opts := repomanage.Options{
		Dir:     args[0],
		Old:     manageOld,
		New:     manageNew,
		Keep:    keep,
		NoCheck: manageNoCheck,
		Exclude: append(append([]string(nil), cfg.Manage.Exclude...), manageExclude...),
		Workers: cfg.Workers,
		Reader:  newHeaderReader(!manageNoCheck),
	}
	log.Debugf("managing %s (old=%v keep=%d)", opts.Dir, opts.Old, opts.Keep)

	paths, err := repomanage.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	return repomanage.Write(cmd.OutOrStdout(), paths, manageSpace)
}
