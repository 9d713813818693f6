package reposync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/google/uuid"

	"github.com/open-edge-platform/rpm-repotools/internal/provider"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/logger"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/rpmutils"
)

// LoadPrimary fetches repomd.xml under baseURL and returns the packages
// listed by the primary metadata it points to. With cacheDir set, both files
// are kept there and the cached primary is reused while repomd.xml is
// unchanged.
func LoadPrimary(ctx context.Context, baseURL, cacheDir string) ([]pkg.Record, error) {
	repomdURL, err := provider.JoinURL(baseURL, rpmutils.RepomdPath)
	if err != nil {
		return nil, err
	}
	repomd, err := fetchAll(ctx, repomdURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkg.ErrTransfer, err)
	}
	href, err := rpmutils.ParseRepomd(bytes.NewReader(repomd))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", repomdURL, err)
	}

	primaryURL, err := provider.JoinURL(baseURL, href)
	if err != nil {
		return nil, err
	}
	rc, err := openPrimary(ctx, primaryURL, href, repomd, cacheDir)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	recs, err := rpmutils.ParsePrimary(rc, href)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", primaryURL, err)
	}
	logger.Logger().Debugf("%s lists %d packages", primaryURL, len(recs))
	return recs, nil
}

func fetchAll(ctx context.Context, rawURL string) ([]byte, error) {
	rc, err := provider.Open(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func openPrimary(ctx context.Context, primaryURL, href string, repomd []byte, cacheDir string) (io.ReadCloser, error) {
	if cacheDir == "" {
		rc, err := provider.Open(ctx, primaryURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", pkg.ErrTransfer, err)
		}
		return rc, nil
	}

	cachedRepomd := filepath.Join(cacheDir, filepath.FromSlash(rpmutils.RepomdPath))
	cachedPrimary := filepath.Join(cacheDir, "repodata", path.Base(href))
	if old, err := os.ReadFile(cachedRepomd); err == nil && bytes.Equal(old, repomd) {
		if f, err := os.Open(cachedPrimary); err == nil {
			logger.Logger().Debugf("using cached %s", cachedPrimary)
			return f, nil
		}
	}

	rc, err := provider.Open(ctx, primaryURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkg.ErrTransfer, err)
	}
	defer rc.Close()
	// primary goes first so an interrupted refresh leaves a stale repomd.xml
	if err := writeCacheFile(cachedPrimary, rc); err != nil {
		return nil, fmt.Errorf("%w: caching %s: %w", pkg.ErrTransfer, primaryURL, err)
	}
	if err := writeCacheFile(cachedRepomd, bytes.NewReader(repomd)); err != nil {
		return nil, fmt.Errorf("caching repomd.xml: %w", err)
	}
	return os.Open(cachedPrimary)
}

func writeCacheFile(dst string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	tmp := dst + ".part-" + uuid.NewString()
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

// loadKeyring collects the keys behind every gpgkey URL. Keys that cannot
// be fetched or parsed are logged and left out, so their packages end up
// with a missing-key verdict.
func loadKeyring(ctx context.Context, urls []string) openpgp.EntityList {
	log := logger.Logger()
	keys := openpgp.EntityList{}
	for _, u := range urls {
		rc, err := provider.Open(ctx, u)
		if err != nil {
			log.Warnf("fetching GPG key %s: %v", u, err)
			continue
		}
		k, err := rpmutils.ReadKeyRing(rc)
		rc.Close()
		if err != nil {
			log.Warnf("parsing GPG key %s: %v", u, err)
			continue
		}
		keys = append(keys, k...)
	}
	return keys
}
