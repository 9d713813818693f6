package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
	k8syaml "sigs.k8s.io/yaml"

	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/rpmutils"
)

//go:embed global_config.schema.json
var globalConfigSchema string

const (
	DefaultWorkers     = 8
	DefaultHTTPTimeout = 300
	DefaultKeep        = 1
	DefaultLogLevel    = "info"
)

// GlobalConfig holds tool-wide settings loaded from a YAML file.
type GlobalConfig struct {
	Workers  int           `yaml:"workers"`
	CacheDir string        `yaml:"cache_dir"`
	Logging  LoggingConfig `yaml:"logging"`
	HTTP     HTTPConfig    `yaml:"http"`
	Manage   ManageConfig  `yaml:"manage"`
	Sync     SyncConfig    `yaml:"sync"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type HTTPConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// ManageConfig holds defaults for the manage command.
type ManageConfig struct {
	Keep    int      `yaml:"keep"`
	Exclude []string `yaml:"exclude"`
}

// SyncConfig holds defaults for the sync command plus inline repositories.
type SyncConfig struct {
	DownloadPath string                `yaml:"download_path"`
	ReportDir    string                `yaml:"report_dir"`
	Arches       []string              `yaml:"arch"`
	RepoFiles    []string              `yaml:"repo_files"`
	Schedule     string                `yaml:"schedule"`
	Repos        []rpmutils.RepoConfig `yaml:"repos"`
}

// GlConfig is the configuration the running command works with.
var GlConfig = DefaultGlobalConfig()

// DefaultGlobalConfig returns the built-in defaults.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Workers:  DefaultWorkers,
		CacheDir: "./cache",
		Logging:  LoggingConfig{Level: DefaultLogLevel},
		HTTP:     HTTPConfig{TimeoutSeconds: DefaultHTTPTimeout},
		Manage:   ManageConfig{Keep: DefaultKeep},
		Sync:     SyncConfig{DownloadPath: "."},
	}
}

// LoadGlobalConfig reads path, validates it against the config schema and
// overlays it on the defaults. An empty path yields the defaults.
func LoadGlobalConfig(path string) (*GlobalConfig, error) {
	cfg := DefaultGlobalConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return cfg, nil
	}

	if err := ValidateConfigData(data); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// ValidateConfigData checks YAML config data against the embedded schema.
func ValidateConfigData(data []byte) error {
	jsonData, err := k8syaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("converting YAML to JSON: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}

	schema, err := jsonschema.CompileString("global_config.schema.json", globalConfigSchema)
	if err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// Validate checks constraints the schema cannot express.
func (c *GlobalConfig) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Manage.Keep <= 0 {
		return fmt.Errorf("manage.keep must be positive, got %d", c.Manage.Keep)
	}
	if c.Sync.Schedule != "" {
		if _, err := cron.ParseStandard(c.Sync.Schedule); err != nil {
			return fmt.Errorf("sync.schedule %q: %w", c.Sync.Schedule, err)
		}
	}
	seen := make(map[string]bool)
	for _, r := range c.Sync.Repos {
		if seen[r.ID] {
			return fmt.Errorf("duplicate repository id %q", r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}
