package pkgfetcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/open-edge-platform/rpm-repotools/internal/provider"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/logger"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg"
	"github.com/schollz/progressbar/v3"
)

// Job is a single download. When Verify is set it runs on the final file;
// a non-nil error removes the file.
type Job struct {
	URL    string
	Dest   string
	Verify func(path string) error
}

// Result reports how a Job ended. Err wraps pkg.ErrTransfer or
// pkg.ErrVerificationFailed.
type Result struct {
	Job  Job
	Size int64
	Err  error
}

// Fetcher downloads jobs with a bounded pool of workers.
type Fetcher struct {
	Workers int
	Quiet   bool

	mu      sync.Mutex
	fetched int
	failed  int
}

// New returns a Fetcher with the given concurrency.
func New(workers int, quiet bool) *Fetcher {
	if workers < 1 {
		workers = 1
	}
	return &Fetcher{Workers: workers, Quiet: quiet}
}

// Stats returns the number of successful and failed jobs so far.
func (f *Fetcher) Stats() (fetched, failed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetched, f.failed
}

// Fetch downloads every job and returns one Result per job, in job order.
// Jobs not started before ctx is cancelled fail with ctx.Err().
func (f *Fetcher) Fetch(ctx context.Context, jobs []Job) []Result {
	log := logger.Logger()
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	workers := f.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	opts := []progressbar.Option{
		progressbar.OptionFullWidth(),
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100 * time.Millisecond),
	}
	if f.Quiet {
		opts = append(opts, progressbar.OptionSetWriter(io.Discard))
	} else {
		opts = append(opts, progressbar.OptionSetWriter(os.Stderr))
	}
	bar := progressbar.NewOptions(len(jobs), opts...)

	idx := make(chan int, len(jobs))
	for i := range jobs {
		idx <- i
	}
	close(idx)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				job := jobs[i]
				res := Result{Job: job}
				if err := ctx.Err(); err != nil {
					res.Err = fmt.Errorf("%w: %s: %w", pkg.ErrTransfer, job.URL, err)
				} else {
					bar.Describe(fmt.Sprintf("downloading %s", filepath.Base(job.Dest)))
					res.Size, res.Err = fetchOne(ctx, job)
				}
				if res.Err != nil {
					log.Debugf("fetching %s failed: %v", job.URL, res.Err)
				}
				results[i] = res

				f.mu.Lock()
				if res.Err != nil {
					f.failed++
				} else {
					f.fetched++
				}
				f.mu.Unlock()
				bar.Add(1)
			}
		}()
	}
	wg.Wait()
	bar.Finish()
	return results
}

func fetchOne(ctx context.Context, job Job) (int64, error) {
	n, err := download(ctx, job.URL, job.Dest)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", pkg.ErrTransfer, job.URL, err)
	}
	if job.Verify != nil {
		if verr := job.Verify(job.Dest); verr != nil {
			if rerr := os.Remove(job.Dest); rerr != nil && !os.IsNotExist(rerr) {
				logger.Logger().Warnf("removing %s: %v", job.Dest, rerr)
			}
			return n, fmt.Errorf("%w: %s: %w", pkg.ErrVerificationFailed, job.Dest, verr)
		}
	}
	return n, nil
}

// download streams url into a uniquely named temp file next to dest and
// renames it into place, so dest is either complete or absent.
func download(ctx context.Context, url, dest string) (int64, error) {
	rc, err := provider.Open(ctx, url)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, fmt.Errorf("creating directory for %s: %w", dest, err)
	}

	tmp := dest + ".part-" + uuid.NewString()
	out, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", tmp, err)
	}
	n, err := io.Copy(out, rc)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return n, nil
}
