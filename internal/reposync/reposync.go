// Package reposync mirrors the packages of remote RPM repositories into a
// local directory.
package reposync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"

	"github.com/open-edge-platform/rpm-repotools/internal/pkgfetcher"
	"github.com/open-edge-platform/rpm-repotools/internal/provider"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/logger"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/reconcile"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/rpmutils"
)

// Options controls a sync run.
type Options struct {
	Repos        []rpmutils.RepoConfig
	RepoIDs      []string // globs; when set they override the enabled flag
	DownloadPath string
	GPGCheck     bool
	URLsOnly     bool
	NewestOnly   bool
	Quiet        bool
	Arches       []string
	Workers      int
	ReportDir    string
	CacheDir     string // repository metadata is cached under CacheDir/<repoid>

	// Out receives the URL list in URLsOnly mode.
	Out io.Writer

	// Verifier replaces the per-repository keyring verifier when set.
	Verifier rpmutils.Verifier
}

// Summary counts what a run did across all repositories.
type Summary struct {
	Repos       int
	FailedRepos int
	Skipped     int
	Fetched     int
	Failed      int
	Removed     int
	Listed      int
}

func (s *Summary) add(o Summary) {
	s.Skipped += o.Skipped
	s.Fetched += o.Fetched
	s.Failed += o.Failed
	s.Removed += o.Removed
	s.Listed += o.Listed
}

// Run syncs every selected repository in turn. A repository whose metadata
// cannot be loaded is logged and skipped; the returned error then reports
// how many failed.
func Run(ctx context.Context, opts Options) (Summary, error) {
	log := logger.Logger()
	var sum Summary

	repos := SelectRepos(opts.Repos, opts.RepoIDs)
	if len(repos) == 0 {
		return sum, fmt.Errorf("%w: no repositories selected", pkg.ErrInvalidArgument)
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	runID := uuid.NewString()
	log.Debugf("sync run %s: %d repositories", runID, len(repos))

	vars := map[string]string{"basearch": BaseArch(opts.Arches)}
	fetcher := pkgfetcher.New(opts.Workers, opts.Quiet)

	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Repos++
		repo = repo.Expand(vars)
		rs, err := syncRepo(ctx, repo, opts, fetcher)
		sum.add(rs)
		if err != nil {
			sum.FailedRepos++
			log.Errorf("repository %s: %v", repo.ID, err)
		}
	}

	log.Debugf("sync run %s finished: %+v", runID, sum)
	if sum.FailedRepos > 0 {
		return sum, fmt.Errorf("%d of %d repositories failed", sum.FailedRepos, sum.Repos)
	}
	return sum, nil
}

// SelectRepos returns the enabled repositories, or, when globs are given,
// every repository whose id matches one of them.
func SelectRepos(repos []rpmutils.RepoConfig, globs []string) []rpmutils.RepoConfig {
	var out []rpmutils.RepoConfig
	for _, r := range repos {
		if len(globs) == 0 {
			if r.Enabled {
				out = append(out, r)
			}
			continue
		}
		for _, g := range globs {
			if ok, _ := path.Match(g, r.ID); ok {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// BaseArch is the value of $basearch: the first requested arch, or the
// host's.
func BaseArch(arches []string) string {
	if len(arches) > 0 && arches[0] != pkg.SourceArch {
		return arches[0]
	}
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "386":
		return "i686"
	default:
		return runtime.GOARCH
	}
}

func syncRepo(ctx context.Context, repo rpmutils.RepoConfig, opts Options, fetcher *pkgfetcher.Fetcher) (Summary, error) {
	log := logger.Logger()
	var sum Summary

	if repo.URL == "" {
		return sum, fmt.Errorf("no baseurl")
	}
	var cacheDir string
	if opts.CacheDir != "" {
		cacheDir = filepath.Join(opts.CacheDir, repo.ID)
	}
	remote, err := LoadPrimary(ctx, repo.URL, cacheDir)
	if err != nil {
		return sum, err
	}
	remote = rpmutils.FilterArches(remote, opts.Arches)
	remote = safeLocations(repo.ID, remote)

	repoDir := filepath.Join(opts.DownloadPath, repo.ID)
	local, err := rpmutils.LocalInventory(repoDir)
	if err != nil {
		return sum, err
	}

	steps, err := reconcile.Plan(local, remote, reconcile.Options{
		NewestOnly: opts.NewestOnly,
		Verify:     opts.GPGCheck && !opts.URLsOnly,
	})
	if err != nil {
		return sum, err
	}
	counts := reconcile.Summarize(steps)
	sum.Skipped = counts[reconcile.Skip]
	log.Infof("%s: %d packages, %d up to date", repo.ID, len(steps), sum.Skipped)

	if !opts.Quiet {
		for _, s := range steps {
			if s.Action == reconcile.Skip {
				log.Infof("%s already exists and appears to be complete", filepath.Join(repoDir, filepath.FromSlash(s.Record.Location)))
			}
		}
	}

	pending := reconcile.Pending(steps)
	if opts.URLsOnly {
		for _, s := range pending {
			u, err := provider.JoinURL(repo.URL, s.Record.Location)
			if err != nil {
				return sum, err
			}
			fmt.Fprintln(opts.Out, u)
			sum.Listed++
		}
		return sum, nil
	}
	if len(pending) == 0 {
		return sum, nil
	}

	var verifier rpmutils.Verifier
	if opts.GPGCheck {
		verifier = opts.Verifier
		if verifier == nil {
			verifier = rpmutils.NewKeyringVerifier(loadKeyring(ctx, repo.GPGKeys))
		}
	}

	jobs := make([]pkgfetcher.Job, len(pending))
	for i, s := range pending {
		u, err := provider.JoinURL(repo.URL, s.Record.Location)
		if err != nil {
			return sum, err
		}
		jobs[i] = pkgfetcher.Job{
			URL:  u,
			Dest: filepath.Join(repoDir, filepath.FromSlash(s.Record.Location)),
		}
		if s.Action == reconcile.FetchAndVerify {
			jobs[i].Verify = verifyFunc(verifier)
		}
		if !opts.Quiet {
			log.Debugf("downloading %s", path.Base(s.Record.Location))
		}
	}

	report := logger.NewStringListReport(repo.ID)
	for i, res := range fetcher.Fetch(ctx, jobs) {
		step := pending[i]
		name := path.Base(step.Record.Location)
		switch {
		case res.Err == nil:
			sum.Fetched++
			report.Add(res.Job.URL)
		case errors.Is(res.Err, pkg.ErrVerificationFailed):
			if reconcile.Outcome(step, false) == reconcile.Remove {
				sum.Removed++
				log.Warn(removalMessage(name, res.Err))
				report.Add("removed " + res.Job.Dest)
			}
		default:
			sum.Failed++
			log.Errorf("could not retrieve package %s: %v", step.Record.NEVRA(), res.Err)
		}
	}

	if opts.ReportDir != "" {
		if p, err := report.WriteToFile(opts.ReportDir); err != nil {
			log.Warnf("writing report for %s: %v", repo.ID, err)
		} else {
			log.Debugf("report for %s written to %s", repo.ID, p)
		}
	}
	log.Infof("%s: fetched %d, failed %d, removed %d", repo.ID, sum.Fetched, sum.Failed, sum.Removed)
	return sum, nil
}

// safeLocations drops records whose location would escape the repository
// directory.
func safeLocations(repoID string, recs []pkg.Record) []pkg.Record {
	var out []pkg.Record
	for _, r := range recs {
		if !filepath.IsLocal(filepath.FromSlash(r.Location)) {
			logger.Logger().Warnf("%s: ignoring %s with unsafe location %q", repoID, r.NEVRA(), r.Location)
			continue
		}
		out = append(out, r)
	}
	return out
}
