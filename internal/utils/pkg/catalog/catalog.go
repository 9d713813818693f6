// Package catalog indexes package records by (name, arch) and keeps, per
// identity, the distinct EVRs seen in ascending order.
package catalog

import (
	"sort"

	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/evr"
)

// Group is one identity with its EVRs sorted ascending and, at the same
// index, every record that carries that EVR.
type Group struct {
	Identity pkg.Identity
	EVRs     []evr.EVR
	Records  [][]pkg.Record
}

// Catalog is an arena of groups addressed through an identity index.
type Catalog struct {
	index  map[pkg.Identity]int
	groups []*Group
	total  int
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{index: make(map[pkg.Identity]int)}
}

// FromRecords builds a catalog holding recs in the given order.
func FromRecords(recs []pkg.Record) *Catalog {
	c := New()
	for _, r := range recs {
		c.Ingest(r)
	}
	return c
}

// Ingest adds rec to its identity's group. A new EVR is inserted at its
// sorted position; records are never deduplicated, so ingesting the same
// file twice lists it twice.
func (c *Catalog) Ingest(rec pkg.Record) {
	idx, ok := c.index[rec.Identity]
	if !ok {
		idx = len(c.groups)
		c.index[rec.Identity] = idx
		c.groups = append(c.groups, &Group{Identity: rec.Identity})
	}
	g := c.groups[idx]

	pos := sort.Search(len(g.EVRs), func(i int) bool {
		return evr.Compare(g.EVRs[i], rec.EVR) >= 0
	})
	if pos == len(g.EVRs) || evr.Compare(g.EVRs[pos], rec.EVR) != 0 {
		g.EVRs = append(g.EVRs, evr.EVR{})
		copy(g.EVRs[pos+1:], g.EVRs[pos:])
		g.EVRs[pos] = rec.EVR

		g.Records = append(g.Records, nil)
		copy(g.Records[pos+1:], g.Records[pos:])
		g.Records[pos] = nil
	}
	g.Records[pos] = append(g.Records[pos], rec)
	c.total++
}

// Groups returns a copy of every group in first-seen identity order.
func (c *Catalog) Groups() []Group {
	out := make([]Group, 0, len(c.groups))
	for _, g := range c.groups {
		out = append(out, g.snapshot())
	}
	return out
}

// Lookup returns the group for id.
func (c *Catalog) Lookup(id pkg.Identity) (Group, bool) {
	idx, ok := c.index[id]
	if !ok {
		return Group{}, false
	}
	return c.groups[idx].snapshot(), true
}

// Len is the number of distinct identities.
func (c *Catalog) Len() int {
	return len(c.groups)
}

// Records is the number of records ingested.
func (c *Catalog) Records() int {
	return c.total
}

func (g *Group) snapshot() Group {
	cp := Group{
		Identity: g.Identity,
		EVRs:     append([]evr.EVR(nil), g.EVRs...),
		Records:  make([][]pkg.Record, len(g.Records)),
	}
	for i, recs := range g.Records {
		cp.Records[i] = append([]pkg.Record(nil), recs...)
	}
	return cp
}
