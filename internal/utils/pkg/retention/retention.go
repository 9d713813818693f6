// Package retention picks the newest or surplus builds of every package
// identity held in a catalog.
package retention

import (
	"fmt"
	"sort"

	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/catalog"
)

// SelectNewest returns the records of the newest keep EVRs of every group.
// Groups with keep or fewer EVRs contribute all of their records.
func SelectNewest(c *catalog.Catalog, keep int) ([]pkg.Record, error) {
	if err := checkKeep(keep); err != nil {
		return nil, err
	}

	var out []pkg.Record
	for _, g := range c.Groups() {
		start := len(g.EVRs) - keep
		if start < 0 {
			start = 0
		}
		for _, recs := range g.Records[start:] {
			out = append(out, recs...)
		}
	}
	sortByLocation(out)
	return out, nil
}

// SelectOldest returns the records of every EVR ranked below the newest
// keep. Groups that never exceeded keep EVRs contribute nothing.
func SelectOldest(c *catalog.Catalog, keep int) ([]pkg.Record, error) {
	if err := checkKeep(keep); err != nil {
		return nil, err
	}

	var out []pkg.Record
	for _, g := range c.Groups() {
		if len(g.EVRs) <= keep {
			continue
		}
		for _, recs := range g.Records[:len(g.EVRs)-keep] {
			out = append(out, recs...)
		}
	}
	sortByLocation(out)
	return out, nil
}

// Locations extracts the Location of every record.
func Locations(recs []pkg.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Location
	}
	return out
}

func checkKeep(keep int) error {
	if keep <= 0 {
		return fmt.Errorf("%w: retention count must be positive, got %d", pkg.ErrInvalidArgument, keep)
	}
	return nil
}

func sortByLocation(recs []pkg.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Location < recs[j].Location
	})
}
