package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/rpm-repotools/internal/reposync"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/config"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/logger"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/rpmutils"
)

// Sync command flags
var (
	syncRepoFiles    []string
	syncRepoIDs      []string
	syncDownloadPath string
	syncGPGCheck     bool
	syncURLs         bool
	syncNewestOnly   bool
	syncQuiet        bool
	syncArches       []string
	syncWorkers      int
	syncReportDir    string
	syncSchedule     string
)

// createSyncCommand creates the sync subcommand
func createSyncCommand() *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync [flags]",
		Short: "Mirror remote yum repositories into a local directory",
		Long: `Sync reads repository definitions from the configuration file and from
yum .repo files, and downloads every package that is missing or incomplete
under <download-path>/<repoid>. Files already present with the size the
repository declares are left alone; nothing is ever deleted except packages
that fail signature verification with --gpgcheck.`,
		Args: cobra.NoArgs,
		RunE: executeSync,
	}

	syncCmd.Flags().StringSliceVar(&syncRepoFiles, "repofile", nil,
		"yum .repo file to read repositories from (repeatable)")
	syncCmd.Flags().StringSliceVarP(&syncRepoIDs, "repoid", "r", nil,
		"Glob of repository ids to sync (repeatable)")
	syncCmd.Flags().StringVarP(&syncDownloadPath, "download-path", "p", "",
		"Directory to download packages into")
	syncCmd.Flags().BoolVarP(&syncGPGCheck, "gpgcheck", "g", false,
		"Remove packages that fail GPG signature checking after download")
	syncCmd.Flags().BoolVarP(&syncURLs, "urls", "u", false,
		"Print the URLs that would be downloaded instead of downloading")
	syncCmd.Flags().BoolVarP(&syncNewestOnly, "newest-only", "n", false,
		"Download only the newest version of every package")
	syncCmd.Flags().BoolVarP(&syncQuiet, "quiet", "q", false,
		"Only print errors")
	syncCmd.Flags().StringSliceVarP(&syncArches, "arch", "a", nil,
		"Architecture to sync packages for (repeatable)")
	syncCmd.Flags().IntVar(&syncWorkers, "workers", 0,
		"Number of concurrent downloads (default from configuration)")
	syncCmd.Flags().StringVar(&syncReportDir, "report-dir", "",
		"Directory to write per-repository download reports into")
	syncCmd.Flags().StringVar(&syncSchedule, "schedule", "",
		"Keep running and sync on this cron schedule, e.g. \"0 3 * * *\"")
	return syncCmd
}

// executeSync handles the sync command execution logic
func executeSync(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	cfg := *config.GlConfig
	flags := cmd.Flags()

	if flags.Changed("download-path") {
		cfg.Sync.DownloadPath = syncDownloadPath
	}
	if flags.Changed("arch") {
		cfg.Sync.Arches = syncArches
	}
	if flags.Changed("workers") {
		cfg.Workers = syncWorkers
	}
	if flags.Changed("report-dir") {
		cfg.Sync.ReportDir = syncReportDir
	}
	if flags.Changed("schedule") {
		cfg.Sync.Schedule = syncSchedule
	}
	helpers := config.NewConfigHelpers(&cfg)

	repos, err := loadRepos(cfg.Sync.Repos, append(append([]string(nil), cfg.Sync.RepoFiles...), syncRepoFiles...))
	if err != nil {
		return err
	}

	var dest string
	if syncURLs {
		dest, err = helpers.DownloadPath()
	} else {
		dest, err = helpers.CreateDownloadPath()
	}
	if err != nil {
		return err
	}
	cacheDir, err := helpers.CacheDir()
	if err != nil {
		return fmt.Errorf("resolving cache dir: %w", err)
	}

	opts := reposync.Options{
		Repos:        repos,
		RepoIDs:      syncRepoIDs,
		DownloadPath: dest,
		GPGCheck:     syncGPGCheck,
		URLsOnly:     syncURLs,
		NewestOnly:   syncNewestOnly,
		Quiet:        syncQuiet,
		Arches:       cfg.Sync.Arches,
		Workers:      helpers.Workers(),
		ReportDir:    cfg.Sync.ReportDir,
		CacheDir:     cacheDir,
		Out:          cmd.OutOrStdout(),
	}

	if cfg.Sync.Schedule != "" && !syncURLs {
		return reposync.RunScheduled(cmd.Context(), cfg.Sync.Schedule, opts, nil)
	}

	sum, err := reposync.Run(cmd.Context(), opts)
	if !syncURLs {
		log.Infof("synced %d repositories: %d up to date, %d fetched, %d failed, %d removed",
			sum.Repos, sum.Skipped, sum.Fetched, sum.Failed, sum.Removed)
	}
	return err
}

// loadRepos merges inline repositories with those read from .repo files.
func loadRepos(inline []rpmutils.RepoConfig, files []string) ([]rpmutils.RepoConfig, error) {
	repos := append([]rpmutils.RepoConfig(nil), inline...)
	for _, f := range files {
		rs, err := rpmutils.LoadRepoFile(f)
		if err != nil {
			return nil, err
		}
		repos = append(repos, rs...)
	}
	return repos, nil
}
