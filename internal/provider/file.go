package provider

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
)

// FileProvider reads file:// URLs and bare paths from the local disk.
type FileProvider struct{}

func (FileProvider) Name() string { return "file" }

func (FileProvider) Schemes() []string { return []string{"file"} }

func (FileProvider) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Scheme == "file" {
		p = u.Path
	}
	f, err := os.Open(filepath.FromSlash(p))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", rawURL, err)
	}
	return f, nil
}
