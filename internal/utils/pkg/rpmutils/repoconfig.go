package rpmutils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RepoConfig holds the values of one .repo section
type RepoConfig struct {
	ID           string   `yaml:"id"`   // section header
	Name         string   `yaml:"name"` // human-readable name from name=
	URL          string   `yaml:"baseurl"`
	GPGCheck     bool     `yaml:"gpgcheck"`
	RepoGPGCheck bool     `yaml:"repo_gpgcheck"`
	Enabled      bool     `yaml:"enabled"`
	GPGKeys      []string `yaml:"gpgkey"`
}

// UnmarshalYAML defaults Enabled to true, as a .repo section does.
func (rc *RepoConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain RepoConfig
	p := plain{Enabled: true}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*rc = RepoConfig(p)
	return nil
}

// LoadRepoFile parses a yum .repo file from disk.
func LoadRepoFile(path string) ([]RepoConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening repo file: %w", err)
	}
	defer f.Close()

	repos, err := ParseRepoFile(f)
	if err != nil {
		return nil, fmt.Errorf("parsing repo file %s: %w", path, err)
	}
	return repos, nil
}

// ParseRepoFile parses yum .repo data holding one or more sections.
// Sections are enabled unless they say enabled=0. Indented lines continue
// the list value of the key above them.
func ParseRepoFile(r io.Reader) ([]RepoConfig, error) {
	s := bufio.NewScanner(r)
	var repos []RepoConfig
	var cur *RepoConfig
	var lastKey string
	for s.Scan() {
		raw := s.Text()
		line := strings.TrimSpace(raw)
		// skip comments or empty
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		// section header
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			repos = append(repos, RepoConfig{ID: strings.TrimSpace(strings.Trim(line, "[]")), Enabled: true})
			cur = &repos[len(repos)-1]
			lastKey = ""
			continue
		}
		if cur != nil && lastKey != "" && (raw[0] == ' ' || raw[0] == '\t') {
			switch lastKey {
			case "baseurl":
				if urls := splitList(line); len(urls) > 0 && cur.URL == "" {
					cur.URL = urls[0]
				}
			case "gpgkey":
				cur.GPGKeys = append(cur.GPGKeys, splitList(line)...)
			}
			continue
		}
		// key=value lines
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("key %q outside of a section", strings.TrimSpace(parts[0]))
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		lastKey = key
		switch key {
		case "name":
			cur.Name = val
		case "baseurl":
			if urls := splitList(val); len(urls) > 0 {
				cur.URL = urls[0]
			}
		case "gpgcheck":
			cur.GPGCheck = (val == "1")
		case "repo_gpgcheck":
			cur.RepoGPGCheck = (val == "1")
		case "enabled":
			cur.Enabled = (val == "1")
		case "gpgkey":
			cur.GPGKeys = append(cur.GPGKeys, splitList(val)...)
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return repos, nil
}

// Expand substitutes yum variables such as $basearch in the URL and keys.
func (rc RepoConfig) Expand(vars map[string]string) RepoConfig {
	out := rc
	out.URL = expandVars(rc.URL, vars)
	out.GPGKeys = make([]string, len(rc.GPGKeys))
	for i, k := range rc.GPGKeys {
		out.GPGKeys[i] = expandVars(k, vars)
	}
	return out
}

func expandVars(s string, vars map[string]string) string {
	for k, v := range vars {
		s = strings.ReplaceAll(s, "${"+k+"}", v)
		s = strings.ReplaceAll(s, "$"+k, v)
	}
	return s
}

func splitList(val string) []string {
	return strings.FieldsFunc(val, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}
