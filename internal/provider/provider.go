package provider

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
)

// Provider is the interface every repository backend must implement.
type Provider interface {
	// Name is a unique ID, e.g. "http" or "file".
	Name() string

	// Schemes lists the URL schemes this backend serves.
	Schemes() []string

	// Open streams the resource at rawURL. The caller closes it.
	Open(ctx context.Context, rawURL string) (io.ReadCloser, error)
}

var (
	mu        sync.RWMutex
	providers = make(map[string]Provider)
	bySchema  = make(map[string]Provider)
)

// Register makes a Provider available under its Name() and its schemes,
// replacing any earlier registration.
func Register(p Provider) {
	mu.Lock()
	defer mu.Unlock()
	providers[p.Name()] = p
	for _, s := range p.Schemes() {
		bySchema[s] = p
	}
}

// Get returns the Provider by name.
func Get(name string) (Provider, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := providers[name]
	return p, ok
}

// ForURL returns the Provider serving rawURL's scheme. URLs without a
// scheme are treated as local paths.
func ForURL(rawURL string) (Provider, error) {
	scheme := "file"
	if u, err := url.Parse(rawURL); err == nil && u.Scheme != "" {
		scheme = strings.ToLower(u.Scheme)
	}
	mu.RLock()
	defer mu.RUnlock()
	p, ok := bySchema[scheme]
	if !ok {
		return nil, fmt.Errorf("no repository provider for scheme %q", scheme)
	}
	return p, nil
}

// Open is a shortcut for ForURL(rawURL).Open.
func Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	p, err := ForURL(rawURL)
	if err != nil {
		return nil, err
	}
	return p.Open(ctx, rawURL)
}

// JoinURL resolves rel against base, treating base as a directory.
func JoinURL(base, rel string) (string, error) {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL %q: %w", base, err)
	}
	r, err := url.Parse(rel)
	if err != nil {
		return "", fmt.Errorf("parsing relative URL %q: %w", rel, err)
	}
	return b.ResolveReference(r).String(), nil
}

func init() {
	Register(NewHTTPProvider(nil))
	Register(FileProvider{})
}
