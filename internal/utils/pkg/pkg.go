package pkg

import (
	"fmt"

	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/evr"
)

// SourceArch is the architecture recorded for source packages.
const SourceArch = "src"

// Identity is the (name, arch) key packages are grouped by.
type Identity struct {
	Name string // e.g. "abseil-cpp"
	Arch string // e.g. "x86_64", "noarch", "src"
}

func (id Identity) String() string {
	return id.Name + "." + id.Arch
}

// Record holds everything known about one package file or repository entry.
type Record struct {
	Identity
	EVR      evr.EVR
	Location string // file path, or href relative to the repository base URL
	Size     int64  // declared package size in bytes, -1 when unknown
	Checksum string // optional pre-known digest, informational only
}

// NEVRA renders the record as name-[epoch:]version-release.arch.
func (r Record) NEVRA() string {
	return fmt.Sprintf("%s-%s.%s", r.Name, r.EVR, r.Arch)
}

// String shadows the embedded Identity so a Record prints its full NEVRA.
func (r Record) String() string {
	return r.NEVRA()
}
