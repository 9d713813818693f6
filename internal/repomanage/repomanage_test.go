package repomanage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/evr"
)

// fakeReader answers from a table keyed by base name instead of reading
// real headers.
type fakeReader struct {
	byBase map[string]pkg.Record
}

func (f fakeReader) ReadPackage(path string) (pkg.Record, error) {
	rec, ok := f.byBase[filepath.Base(path)]
	if !ok {
		return pkg.Record{}, fmt.Errorf("%w: %s", pkg.ErrUnreadablePackage, path)
	}
	rec.Location = path
	return rec, nil
}

func record(name, arch, e, v, r string) pkg.Record {
	return pkg.Record{
		Identity: pkg.Identity{Name: name, Arch: arch},
		EVR:      evr.New(e, v, r),
		Size:     -1,
	}
}

func setupDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("rpm"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func fooReader() fakeReader {
	return fakeReader{byBase: map[string]pkg.Record{
		"foo-1.0-1.x86_64.rpm":  record("foo", "x86_64", "0", "1.0", "1"),
		"foo-1.1-1.x86_64.rpm":  record("foo", "x86_64", "0", "1.1", "1"),
		"foo-1.10-1.x86_64.rpm": record("foo", "x86_64", "0", "1.10", "1"),
		"bar-2.0-1.noarch.rpm":  record("bar", "noarch", "0", "2.0", "1"),
	}}
}

func TestRunNewest(t *testing.T) {
	dir := setupDir(t,
		"foo-1.0-1.x86_64.rpm",
		"sub/foo-1.1-1.x86_64.rpm",
		"foo-1.10-1.x86_64.rpm",
		"bar-2.0-1.noarch.rpm",
		"README.txt",
	)

	got, err := Run(context.Background(), Options{Dir: dir, Keep: 1, Workers: 3, Reader: fooReader()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []string{
		filepath.Join(dir, "bar-2.0-1.noarch.rpm"),
		filepath.Join(dir, "foo-1.10-1.x86_64.rpm"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("newest = %v, want %v", got, want)
	}
}

func TestRunOldest(t *testing.T) {
	dir := setupDir(t,
		"foo-1.0-1.x86_64.rpm",
		"foo-1.1-1.x86_64.rpm",
		"foo-1.10-1.x86_64.rpm",
		"bar-2.0-1.noarch.rpm",
	)

	tests := []struct {
		keep int
		want []string
	}{
		{1, []string{"foo-1.0-1.x86_64.rpm", "foo-1.1-1.x86_64.rpm"}},
		{2, []string{"foo-1.0-1.x86_64.rpm"}},
		{3, []string{}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("keep=%d", tt.keep), func(t *testing.T) {
			got, err := Run(context.Background(), Options{Dir: dir, Old: true, Keep: tt.keep, Reader: fooReader()})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			want := []string{}
			for _, w := range tt.want {
				want = append(want, filepath.Join(dir, w))
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("oldest = %v, want %v", got, want)
			}
		})
	}
}

func TestRunSkipsUnreadable(t *testing.T) {
	dir := setupDir(t, "foo-1.0-1.x86_64.rpm", "broken.rpm")

	got, err := Run(context.Background(), Options{Dir: dir, Keep: 1, Reader: fooReader()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "foo-1.0-1.x86_64.rpm" {
		t.Errorf("got %v", got)
	}
}

func TestRunExclude(t *testing.T) {
	dir := setupDir(t, "foo-1.0-1.x86_64.rpm", "foo-1.10-1.x86_64.rpm")

	got, err := Run(context.Background(), Options{
		Dir:     dir,
		Keep:    1,
		Exclude: []string{"foo-1.10-*"},
		Reader:  fooReader(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "foo-1.0-1.x86_64.rpm" {
		t.Errorf("got %v", got)
	}
}

func TestRunErrors(t *testing.T) {
	empty := t.TempDir()

	tests := []struct {
		name    string
		opts    Options
		wantArg bool
	}{
		{"old and new", Options{Dir: empty, Old: true, New: true, Keep: 1}, true},
		{"zero keep", Options{Dir: empty, Keep: 0}, true},
		{"no dir", Options{Keep: 1}, true},
		{"no files", Options{Dir: empty, Keep: 1, Reader: fooReader()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, pkg.ErrInvalidArgument); got != tt.wantArg {
				t.Errorf("errors.Is(err, ErrInvalidArgument) = %v, want %v (err: %v)", got, tt.wantArg, err)
			}
		})
	}
}

func TestRunMissingDir(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Dir:    filepath.Join(t.TempDir(), "nope"),
		Keep:   1,
		Reader: fooReader(),
	})
	if !errors.Is(err, pkg.ErrDirectoryAccess) {
		t.Errorf("err = %v, want ErrDirectoryAccess", err)
	}
}

func TestWrite(t *testing.T) {
	paths := []string{"a.rpm", "b.rpm"}

	var buf bytes.Buffer
	if err := Write(&buf, paths, false); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "a.rpm\nb.rpm\n" {
		t.Errorf("newline output = %q", buf.String())
	}

	buf.Reset()
	if err := Write(&buf, paths, true); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "a.rpm b.rpm\n" {
		t.Errorf("space output = %q", buf.String())
	}

	buf.Reset()
	if err := Write(&buf, nil, false); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("empty output = %q", buf.String())
	}
}
