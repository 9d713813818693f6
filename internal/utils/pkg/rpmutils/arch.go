package rpmutils

import "github.com/open-edge-platform/rpm-repotools/internal/utils/pkg"

var archCompat = map[string][]string{
	"x86_64":  {"x86_64", "athlon", "i686", "i586", "i486", "i386", "noarch"},
	"i686":    {"i686", "i586", "i486", "i386", "noarch"},
	"aarch64": {"aarch64", "noarch"},
	"ppc64le": {"ppc64le", "noarch"},
	"s390x":   {"s390x", "noarch"},
	"noarch":  {"noarch"},
}

// CompatArches lists the architectures installable on arch.
func CompatArches(arch string) []string {
	if list, ok := archCompat[arch]; ok {
		return list
	}
	return []string{arch, "noarch"}
}

// FilterArches keeps records whose arch is compatible with one of arches.
// Source packages pass only when "src" is asked for explicitly. An empty
// arches list keeps everything.
func FilterArches(recs []pkg.Record, arches []string) []pkg.Record {
	if len(arches) == 0 {
		return recs
	}
	allowed := make(map[string]bool)
	for _, a := range arches {
		if a == pkg.SourceArch {
			allowed[a] = true
			continue
		}
		for _, c := range CompatArches(a) {
			allowed[c] = true
		}
	}

	var out []pkg.Record
	for _, r := range recs {
		if allowed[r.Arch] {
			out = append(out, r)
		}
	}
	return out
}
