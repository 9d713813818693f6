package reposync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg"
)

func repoDirOf(url string) string {
	return filepath.FromSlash(strings.TrimPrefix(url, "file://"))
}

func TestLoadPrimaryUncached(t *testing.T) {
	recs, err := LoadPrimary(context.Background(), makeRepo(t, basePackages), "")
	if err != nil {
		t.Fatalf("LoadPrimary: %v", err)
	}
	if len(recs) != len(basePackages) {
		t.Errorf("got %d records, want %d", len(recs), len(basePackages))
	}
}

func TestLoadPrimaryCache(t *testing.T) {
	url := makeRepo(t, basePackages)
	remote := repoDirOf(url)
	cache := filepath.Join(t.TempDir(), "base")

	recs, err := LoadPrimary(context.Background(), url, cache)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if len(recs) != len(basePackages) {
		t.Fatalf("got %d records, want %d", len(recs), len(basePackages))
	}
	for _, f := range []string{"repomd.xml", "primary.xml"} {
		if _, err := os.Stat(filepath.Join(cache, "repodata", f)); err != nil {
			t.Errorf("%s not cached: %v", f, err)
		}
	}

	// repomd.xml unchanged: the broken remote primary is never read
	writeFile(t, filepath.Join(remote, "repodata", "primary.xml"), "<broken")
	recs, err = LoadPrimary(context.Background(), url, cache)
	if err != nil {
		t.Fatalf("cached load: %v", err)
	}
	if len(recs) != len(basePackages) {
		t.Errorf("cached load returned %d records", len(recs))
	}

	// repomd.xml changed: the primary is fetched again
	repomd, err := os.ReadFile(filepath.Join(remote, "repodata", "repomd.xml"))
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(remote, "repodata", "repomd.xml"), string(repomd)+"\n")
	if _, err := LoadPrimary(context.Background(), url, cache); err == nil {
		t.Fatal("expected the refreshed broken primary to fail parsing")
	}
}

func TestLoadPrimaryMissingRepo(t *testing.T) {
	_, err := LoadPrimary(context.Background(), "file://"+filepath.ToSlash(t.TempDir()), t.TempDir())
	if !errors.Is(err, pkg.ErrTransfer) {
		t.Fatalf("expected ErrTransfer, got %v", err)
	}
}

func TestRunWritesMetadataCache(t *testing.T) {
	opts := baseOptions(t, makeRepo(t, basePackages))
	opts.CacheDir = t.TempDir()
	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(opts.CacheDir, "base", "repodata", "repomd.xml")); err != nil {
		t.Errorf("metadata not cached per repository: %v", err)
	}
}
