package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/open-edge-platform/rpm-repotools/internal/utils/network"
)

// HTTPProvider fetches over http and https.
type HTTPProvider struct {
	client *http.Client
}

// NewHTTPProvider wraps client; nil selects the secure default client.
func NewHTTPProvider(client *http.Client) *HTTPProvider {
	if client == nil {
		client = network.NewSecureHTTPClient(0)
	}
	return &HTTPProvider{client: client}
}

func (p *HTTPProvider) Name() string { return "http" }

func (p *HTTPProvider) Schemes() []string { return []string{"http", "https"} }

func (p *HTTPProvider) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", rawURL, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: bad status: %s", rawURL, resp.Status)
	}
	return resp.Body, nil
}
