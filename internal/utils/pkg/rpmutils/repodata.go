package rpmutils

import (
	"compress/bzip2"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/evr"
)

// RepomdPath is where repository metadata indexes live, relative to the base URL.
const RepomdPath = "repodata/repomd.xml"

type primaryPackage struct {
	Type    string `xml:"type,attr"`
	Name    string `xml:"name"`
	Arch    string `xml:"arch"`
	Version struct {
		Epoch string `xml:"epoch,attr"`
		Ver   string `xml:"ver,attr"`
		Rel   string `xml:"rel,attr"`
	} `xml:"version"`
	Checksum struct {
		Type  string `xml:"type,attr"`
		Value string `xml:",chardata"`
	} `xml:"checksum"`
	Size struct {
		Package int64 `xml:"package,attr"`
	} `xml:"size"`
	Location struct {
		Href string `xml:"href,attr"`
	} `xml:"location"`
}

// ParseRepomd reads repomd.xml and returns the href of the primary metadata.
func ParseRepomd(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	// Walk the tokens looking for <data type="primary">
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "data" {
			continue
		}
		if attrValue(se, "type") != "primary" {
			if err := dec.Skip(); err != nil {
				return "", fmt.Errorf("error skipping token: %w", err)
			}
			continue
		}

		// Inside <data type="primary">, look for <location href="..."/>
		for {
			tok2, err := dec.Token()
			if err != nil {
				if err == io.EOF {
					break
				}
				return "", err
			}
			if ee, ok := tok2.(xml.EndElement); ok && ee.Name.Local == "data" {
				break
			}
			if le, ok := tok2.(xml.StartElement); ok && le.Name.Local == "location" {
				if href := attrValue(le, "href"); href != "" {
					return href, nil
				}
			}
		}
	}
	return "", fmt.Errorf("primary location not found in repomd.xml")
}

// ParsePrimary decodes primary metadata, decompressing according to the
// extension of href, and returns one Record per package entry.
func ParsePrimary(r io.Reader, href string) ([]pkg.Record, error) {
	rc, err := Decompress(r, href)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var out []pkg.Record
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("parsing %s: %w", href, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "package" {
			continue
		}

		var p primaryPackage
		if err := dec.DecodeElement(&p, &se); err != nil {
			return nil, fmt.Errorf("decoding package entry in %s: %w", href, err)
		}
		if p.Type != "" && p.Type != "rpm" {
			continue
		}
		if p.Name == "" || p.Location.Href == "" {
			return nil, fmt.Errorf("package entry without name or location in %s", href)
		}

		size := p.Size.Package
		if size <= 0 {
			size = -1
		}
		out = append(out, pkg.Record{
			Identity: pkg.Identity{Name: p.Name, Arch: p.Arch},
			EVR:      evr.New(p.Version.Epoch, p.Version.Ver, p.Version.Rel),
			Location: p.Location.Href,
			Size:     size,
			Checksum: strings.TrimSpace(p.Checksum.Value),
		})
	}
	return out, nil
}

// Decompress wraps r in the decoder matching name's extension. Unknown
// extensions are returned as is.
func Decompress(r io.Reader, name string) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader for %s: %w", name, err)
		}
		return zr, nil
	case strings.HasSuffix(name, ".zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader for %s: %w", name, err)
		}
		return zr.IOReadCloser(), nil
	case strings.HasSuffix(name, ".xz"):
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("xz reader for %s: %w", name, err)
		}
		return io.NopCloser(xr), nil
	case strings.HasSuffix(name, ".bz2"):
		return io.NopCloser(bzip2.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

func attrValue(se xml.StartElement, name string) string {
	for _, attr := range se.Attr {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}
