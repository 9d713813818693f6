// Package reconcile decides, for every package a repository offers, whether
// the local mirror already has it or it has to be downloaded.
package reconcile

import (
	"path"
	"sort"

	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/catalog"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/retention"
)

// Action is what the mirror has to do with one remote package.
type Action int

const (
	// Skip means the local copy is already complete.
	Skip Action = iota
	// Fetch means the package has to be downloaded.
	Fetch
	// FetchAndVerify means download, then check the signature.
	FetchAndVerify
	// Remove means the downloaded copy failed verification and is deleted.
	Remove
)

func (a Action) String() string {
	switch a {
	case Skip:
		return "skip"
	case Fetch:
		return "fetch"
	case FetchAndVerify:
		return "fetch+verify"
	case Remove:
		return "remove"
	default:
		return "unknown"
	}
}

// Step pairs a remote package with its planned action.
type Step struct {
	Record pkg.Record
	Action Action
}

// Options tune Plan.
type Options struct {
	// NewestOnly limits candidates to the newest EVR of every (name, arch).
	NewestOnly bool
	// Verify turns every Fetch into FetchAndVerify.
	Verify bool
}

// Plan compares the local inventory (relative path to size in bytes) with
// the remote records. A local file counts as complete when it exists at the
// record's location with exactly the declared size; no content is hashed.
// Local files the remote no longer lists are left alone.
//
// Steps are ordered by name, then arch, then location.
func Plan(local map[string]int64, remote []pkg.Record, opts Options) ([]Step, error) {
	var candidates []pkg.Record
	if opts.NewestOnly {
		newest, err := retention.SelectNewest(catalog.FromRecords(remote), 1)
		if err != nil {
			return nil, err
		}
		candidates = newest
	} else {
		candidates = append([]pkg.Record(nil), remote...)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Arch != b.Arch {
			return a.Arch < b.Arch
		}
		return a.Location < b.Location
	})

	fetch := Fetch
	if opts.Verify {
		fetch = FetchAndVerify
	}

	steps := make([]Step, 0, len(candidates))
	for _, r := range candidates {
		action := fetch
		if size, ok := local[path.Clean(r.Location)]; ok && r.Size >= 0 && size == r.Size {
			action = Skip
		}
		steps = append(steps, Step{Record: r, Action: action})
	}
	return steps, nil
}

// Outcome is the final action of a step once its download has finished:
// a FetchAndVerify whose verification failed becomes Remove.
func Outcome(s Step, verified bool) Action {
	if s.Action == FetchAndVerify && !verified {
		return Remove
	}
	return s.Action
}

// Pending returns the steps that need a download.
func Pending(steps []Step) []Step {
	var out []Step
	for _, s := range steps {
		if s.Action == Fetch || s.Action == FetchAndVerify {
			out = append(out, s)
		}
	}
	return out
}

// Summarize counts steps per action.
func Summarize(steps []Step) map[Action]int {
	counts := make(map[Action]int)
	for _, s := range steps {
		counts[s.Action]++
	}
	return counts
}
