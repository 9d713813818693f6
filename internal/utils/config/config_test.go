package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadGlobalConfigDefaults(t *testing.T) {
	cfg, err := LoadGlobalConfig("")
	if err != nil {
		t.Fatalf("LoadGlobalConfig failed: %v", err)
	}
	if cfg.Workers != DefaultWorkers || cfg.Manage.Keep != DefaultKeep || cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	cfg, err = LoadGlobalConfig(writeConfig(t, "   \n"))
	if err != nil {
		t.Fatalf("empty file should load defaults: %v", err)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", cfg.Workers, DefaultWorkers)
	}
}

func TestLoadGlobalConfigOverlay(t *testing.T) {
	path := writeConfig(t, `
workers: 4
logging:
  level: debug
http:
  timeout_seconds: 30
manage:
  keep: 3
  exclude: ["*-debuginfo-*"]
sync:
  download_path: /srv/mirror
  arch: [x86_64]
  repos:
    - id: base
      baseurl: https://packages.example.com/base/
      gpgcheck: true
      gpgkey: [https://packages.example.com/KEY]
    - id: extras
      baseurl: file:///srv/extras
      enabled: false
`)
	cfg, err := LoadGlobalConfig(path)
	if err != nil {
		t.Fatalf("LoadGlobalConfig failed: %v", err)
	}
	if cfg.Workers != 4 || cfg.Manage.Keep != 3 || cfg.Sync.DownloadPath != "/srv/mirror" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.CacheDir != "./cache" {
		t.Errorf("unset field lost its default: %q", cfg.CacheDir)
	}
	if len(cfg.Sync.Repos) != 2 || !cfg.Sync.Repos[0].Enabled || cfg.Sync.Repos[1].Enabled {
		t.Errorf("unexpected repos: %+v", cfg.Sync.Repos)
	}

	h := NewConfigHelpers(cfg)
	if h.Workers() != 4 || h.LogLevel() != "debug" || h.HTTPTimeout() != 30*time.Second {
		t.Errorf("helpers disagree with config: workers=%d level=%q timeout=%v", h.Workers(), h.LogLevel(), h.HTTPTimeout())
	}
}

func TestLoadGlobalConfigSchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "bogus: 1\n"},
		{"zero workers", "workers: 0\n"},
		{"bad level", "logging:\n  level: trace\n"},
		{"repo without baseurl", "sync:\n  repos:\n    - id: base\n"},
		{"keep as string", "manage:\n  keep: many\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadGlobalConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), "schema validation failed") {
				t.Errorf("expected schema error, got %v", err)
			}
		})
	}
}

func TestLoadGlobalConfigDuplicateRepo(t *testing.T) {
	path := writeConfig(t, `
sync:
  repos:
    - id: base
      baseurl: https://a/
    - id: base
      baseurl: https://b/
`)
	if _, err := LoadGlobalConfig(path); err == nil || !strings.Contains(err.Error(), "duplicate repository id") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestLoadGlobalConfigMissingFile(t *testing.T) {
	if _, err := LoadGlobalConfig(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCreateDownloadPath(t *testing.T) {
	cfg := DefaultGlobalConfig()
	cfg.Sync.DownloadPath = filepath.Join(t.TempDir(), "a", "b")

	dir, err := NewConfigHelpers(cfg).CreateDownloadPath()
	if err != nil {
		t.Fatalf("CreateDownloadPath failed: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("download path not created: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("write probe left files behind: %v", entries)
	}
}

func TestCacheDir(t *testing.T) {
	cfg := DefaultGlobalConfig()
	got, err := NewConfigHelpers(cfg).CacheDir()
	if err != nil {
		t.Fatalf("CacheDir: %v", err)
	}
	want, _ := filepath.Abs("./cache")
	if got != want {
		t.Errorf("CacheDir() = %q, want %q", got, want)
	}

	cfg.CacheDir = ""
	if got, err := NewConfigHelpers(cfg).CacheDir(); err != nil || got != "" {
		t.Errorf("empty cache_dir: CacheDir() = %q, %v", got, err)
	}
}

func TestLoadGlobalConfigSchedule(t *testing.T) {
	cfg, err := LoadGlobalConfig(writeConfig(t, "sync:\n  schedule: \"30 2 * * *\"\n"))
	if err != nil {
		t.Fatalf("valid schedule rejected: %v", err)
	}
	if cfg.Sync.Schedule != "30 2 * * *" {
		t.Errorf("Schedule = %q", cfg.Sync.Schedule)
	}

	if _, err := LoadGlobalConfig(writeConfig(t, "sync:\n  schedule: \"every tuesday\"\n")); err == nil {
		t.Error("expected an error for an invalid schedule")
	}
}
