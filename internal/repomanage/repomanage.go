// Package repomanage lists the newest or the superseded RPM files in a
// directory tree.
package repomanage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/open-edge-platform/rpm-repotools/internal/utils/logger"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/catalog"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/retention"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/rpmutils"
)

// Options controls a single run.
type Options struct {
	Dir     string
	Old     bool
	New     bool
	Keep    int
	NoCheck bool
	Exclude []string
	Workers int

	// Reader overrides the header reader; nil picks one based on NoCheck.
	Reader rpmutils.HeaderReader
}

// Validate rejects conflicting or out-of-range options.
func (o Options) Validate() error {
	if o.Old && o.New {
		return fmt.Errorf("%w: pass either --old or --new, not both", pkg.ErrInvalidArgument)
	}
	if o.Keep < 1 {
		return fmt.Errorf("%w: keep must be at least 1, got %d", pkg.ErrInvalidArgument, o.Keep)
	}
	if o.Dir == "" {
		return fmt.Errorf("%w: a directory is required", pkg.ErrInvalidArgument)
	}
	return nil
}

// Run scans opts.Dir and returns the selected file paths, sorted.
// Without Old the newest Keep EVRs of every (name, arch) are selected.
func Run(ctx context.Context, opts Options) ([]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	log := logger.Logger()

	files, err := rpmutils.CollectFiles(opts.Dir, ".rpm")
	if err != nil {
		return nil, err
	}
	files = rpmutils.Exclude(files, opts.Exclude)
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to process in %s", opts.Dir)
	}
	log.Debugf("found %d packages under %s", len(files), opts.Dir)

	reader := opts.Reader
	if reader == nil {
		reader = rpmutils.NewHeaderReader(!opts.NoCheck)
	}

	recs, err := readAll(ctx, reader, files, opts.Workers)
	if err != nil {
		return nil, err
	}

	cat := catalog.FromRecords(recs)
	log.Debugf("catalog holds %d records in %d groups", cat.Records(), cat.Len())

	var selected []pkg.Record
	if opts.Old {
		selected, err = retention.SelectOldest(cat, opts.Keep)
	} else {
		selected, err = retention.SelectNewest(cat, opts.Keep)
	}
	if err != nil {
		return nil, err
	}
	return retention.Locations(selected), nil
}

// readAll reads headers concurrently. Unreadable files are logged and
// skipped; the surviving records keep the enumeration order.
func readAll(ctx context.Context, r rpmutils.HeaderReader, files []string, workers int) ([]pkg.Record, error) {
	log := logger.Logger()
	if workers < 1 {
		workers = 1
	}

	slots := make([]*pkg.Record, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := r.ReadPackage(f)
			if err != nil {
				log.Warnf("skipping %s: %v", f, err)
				return nil
			}
			slots[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recs := make([]pkg.Record, 0, len(files))
	for _, s := range slots {
		if s != nil {
			recs = append(recs, *s)
		}
	}
	return recs, nil
}

// Write prints paths one per line, or on a single space separated line.
func Write(w io.Writer, paths []string, space bool) error {
	if len(paths) == 0 {
		return nil
	}
	var err error
	if space {
		_, err = fmt.Fprintln(w, strings.Join(paths, " "))
	} else {
		_, err = fmt.Fprintln(w, strings.Join(paths, "\n"))
	}
	return err
}
