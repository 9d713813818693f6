package provider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestForURL(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://example.com/repo/", "http", false},
		{"HTTP://example.com/repo/", "http", false},
		{"file:///srv/repo", "file", false},
		{"/srv/repo", "file", false},
		{"ftp://example.com/repo", "", true},
	}
	for _, tt := range tests {
		p, err := ForURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ForURL(%q) err = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && p.Name() != tt.want {
			t.Errorf("ForURL(%q) = %s, want %s", tt.url, p.Name(), tt.want)
		}
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, rel, want string
	}{
		{"https://example.com/base/x86_64", "Packages/a.rpm", "https://example.com/base/x86_64/Packages/a.rpm"},
		{"https://example.com/base/x86_64/", "repodata/repomd.xml", "https://example.com/base/x86_64/repodata/repomd.xml"},
		{"file:///srv/repo", "Packages/b.rpm", "file:///srv/repo/Packages/b.rpm"},
	}
	for _, tt := range tests {
		got, err := JoinURL(tt.base, tt.rel)
		if err != nil {
			t.Fatalf("JoinURL(%q, %q) failed: %v", tt.base, tt.rel, err)
		}
		if got != tt.want {
			t.Errorf("JoinURL(%q, %q) = %q, want %q", tt.base, tt.rel, got, tt.want)
		}
	}
}

func TestFileProviderOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repomd.xml")
	if err := os.WriteFile(path, []byte("<repomd/>"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, u := range []string{"file://" + filepath.ToSlash(path), path} {
		rc, err := Open(context.Background(), u)
		if err != nil {
			t.Fatalf("Open(%q) failed: %v", u, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		if string(data) != "<repomd/>" {
			t.Errorf("Open(%q) read %q", u, data)
		}
	}

	if _, err := Open(context.Background(), "file://"+filepath.ToSlash(filepath.Join(dir, "missing"))); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestHTTPProviderOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.Client())
	rc, err := p.Open(context.Background(), srv.URL+"/ok")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "payload" {
		t.Errorf("read %q", data)
	}

	if _, err := p.Open(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("expected error for 404")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Open(ctx, srv.URL+"/ok"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestRegisterReplaces(t *testing.T) {
	orig, _ := Get("http")
	t.Cleanup(func() { Register(orig) })

	custom := NewHTTPProvider(http.DefaultClient)
	Register(custom)
	p, err := ForURL("https://example.com")
	if err != nil {
		t.Fatalf("ForURL failed: %v", err)
	}
	if p != Provider(custom) {
		t.Error("expected the replacement provider")
	}
}
