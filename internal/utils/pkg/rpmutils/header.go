package rpmutils

import (
	"fmt"
	"os"

	rpm "github.com/sassoftware/go-rpmutils"

	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/evr"
)

// HeaderReader turns a package file into a Record.
type HeaderReader interface {
	ReadPackage(path string) (pkg.Record, error)
}

type headerReader struct {
	checkDigests bool
}

// NewHeaderReader returns a HeaderReader backed by the RPM header. With
// checkDigests set the whole file is read so header and payload digests are
// validated; otherwise only the header is parsed.
func NewHeaderReader(checkDigests bool) HeaderReader {
	return &headerReader{checkDigests: checkDigests}
}

func (r *headerReader) ReadPackage(path string) (pkg.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return pkg.Record{}, fmt.Errorf("%w: opening %s: %v", pkg.ErrUnreadablePackage, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return pkg.Record{}, fmt.Errorf("%w: stat %s: %v", pkg.ErrUnreadablePackage, path, err)
	}

	var hdr *rpm.RpmHeader
	if r.checkDigests {
		hdr, _, err = rpm.Verify(f, nil)
	} else {
		hdr, err = rpm.ReadHeader(f)
	}
	if err != nil {
		return pkg.Record{}, fmt.Errorf("%w: reading header of %s: %v", pkg.ErrUnreadablePackage, path, err)
	}

	rec, err := recordFromHeader(hdr)
	if err != nil {
		return pkg.Record{}, fmt.Errorf("%w: %s: %v", pkg.ErrUnreadablePackage, path, err)
	}
	rec.Location = path
	rec.Size = info.Size()
	return rec, nil
}

// recordFromHeader extracts identity and EVR. Binary packages name the
// source RPM they were built from; a header without that tag is a source
// package and is filed under the "src" arch.
func recordFromHeader(hdr *rpm.RpmHeader) (pkg.Record, error) {
	nevra, err := hdr.GetNEVRA()
	if err != nil {
		return pkg.Record{}, err
	}
	if nevra.Name == "" || nevra.Version == "" {
		return pkg.Record{}, fmt.Errorf("header is missing name or version")
	}

	arch := nevra.Arch
	if !hdr.HasTag(rpm.SOURCERPM) {
		arch = pkg.SourceArch
	}

	return pkg.Record{
		Identity: pkg.Identity{Name: nevra.Name, Arch: arch},
		EVR:      evr.New(nevra.Epoch, nevra.Version, nevra.Release),
		Size:     -1,
	}, nil
}
