// pkg/core/config.go
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHost         = "github"
	DefaultOrg          = "me50"
	DefaultAPIURL       = "https://api.github.com"
	DefaultGitURL       = "https://github.com"
	DefaultBranchPrefix = "review50"
	DefaultConcurrency  = 8
	DefaultTimeout      = 30 * time.Second
)

// Config holds review50 configuration
type Config struct {
	Host         string        `yaml:"host"`
	Org          string        `yaml:"org" env:"REVIEW50_ORG"`
	APIURL       string        `yaml:"api_url" env:"REVIEW50_API_URL"`
	GitURL       string        `yaml:"git_url" env:"REVIEW50_GIT_URL"`
	Token        string        `yaml:"token" env:"GITHUB_TOKEN"`
	BranchPrefix string        `yaml:"branch_prefix" env:"REVIEW50_BRANCH_PREFIX"`
	Reviewers    []string      `yaml:"reviewers" env:"REVIEW50_REVIEWERS" envSeparator:","`
	Concurrency  int           `yaml:"concurrency" env:"REVIEW50_CONCURRENCY"`
	Timeout      time.Duration `yaml:"timeout" env:"REVIEW50_TIMEOUT"`
	Debug        bool          `yaml:"debug"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:         DefaultHost,
		Org:          DefaultOrg,
		APIURL:       DefaultAPIURL,
		GitURL:       DefaultGitURL,
		BranchPrefix: DefaultBranchPrefix,
		Concurrency:  DefaultConcurrency,
		Timeout:      DefaultTimeout,
	}
}

// DefaultConfigPath is $HOME/.config/review50/config.yaml
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "review50", "config.yaml"), nil
}

// LoadConfig loads configuration from file, then applies environment
// overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return cfg, applyEnv(cfg)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

// fillDefaults restores defaults for fields a config file blanked out.
func (c *Config) fillDefaults() {
	d := DefaultConfig()
	if c.Host == "" {
		c.Host = d.Host
	}
	if c.Org == "" {
		c.Org = d.Org
	}
	if c.APIURL == "" {
		c.APIURL = d.APIURL
	}
	if c.GitURL == "" {
		c.GitURL = d.GitURL
	}
	if c.BranchPrefix == "" {
		c.BranchPrefix = d.BranchPrefix
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// the file may hold a token
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
