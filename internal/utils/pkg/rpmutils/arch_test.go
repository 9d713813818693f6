package rpmutils

import (
	"reflect"
	"testing"

	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg"
)

func TestFilterArches(t *testing.T) {
	recs := []pkg.Record{
		{Identity: pkg.Identity{Name: "a", Arch: "x86_64"}},
		{Identity: pkg.Identity{Name: "b", Arch: "i686"}},
		{Identity: pkg.Identity{Name: "c", Arch: "noarch"}},
		{Identity: pkg.Identity{Name: "d", Arch: "aarch64"}},
		{Identity: pkg.Identity{Name: "e", Arch: "src"}},
	}

	names := func(rs []pkg.Record) []string {
		var out []string
		for _, r := range rs {
			out = append(out, r.Name)
		}
		return out
	}

	tests := []struct {
		arches []string
		want   []string
	}{
		{nil, []string{"a", "b", "c", "d", "e"}},
		{[]string{"x86_64"}, []string{"a", "b", "c"}},
		{[]string{"aarch64"}, []string{"c", "d"}},
		{[]string{"aarch64", "src"}, []string{"c", "d", "e"}},
		{[]string{"riscv64"}, []string{"c"}},
	}
	for _, tt := range tests {
		if got := names(FilterArches(recs, tt.arches)); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("FilterArches(%v) = %v, want %v", tt.arches, got, tt.want)
		}
	}
}
