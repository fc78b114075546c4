// Package manifest holds the package metadata of review50: the name,
// version, authorship and declared requirements that installers and
// package indexes read. The canonical copy is embedded in the binary.
package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/mail"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	semver "github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

//go:embed review50.toml
var embedded []byte

// Manifest mirrors the fields of review50.toml
type Manifest struct {
	Name            string            `toml:"name" yaml:"name" json:"name"`
	Version         string            `toml:"version" yaml:"version" json:"version"`
	Author          string            `toml:"author" yaml:"author" json:"author"`
	AuthorEmail     string            `toml:"author_email" yaml:"author_email" json:"author_email"`
	URL             string            `toml:"url" yaml:"url" json:"url"`
	Description     string            `toml:"description" yaml:"description" json:"description"`
	Keywords        []string          `toml:"keywords" yaml:"keywords" json:"keywords"`
	Classifiers     []string          `toml:"classifiers" yaml:"classifiers" json:"classifiers"`
	InstallRequires []string          `toml:"install_requires" yaml:"install_requires" json:"install_requires"`
	Scripts         []string          `toml:"scripts" yaml:"scripts" json:"scripts"`
	Provides        map[string]string `toml:"provides" yaml:"provides,omitempty" json:"provides,omitempty"`
}

// Default decodes the manifest compiled into the binary.
func Default() (*Manifest, error) {
	return Decode(embedded)
}

// MustDefault is Default for package-level initialisation.
func MustDefault() *Manifest {
	m, err := Default()
	if err != nil {
		panic(fmt.Sprintf("manifest: embedded manifest is broken: %v", err))
	}
	return m
}

// Load reads and decodes a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: reading %s: %w", path, err)
	}
	return Decode(data)
}

// Decode parses a TOML manifest. Undecoded keys are rejected so typos
// in field names surface instead of silently producing empty fields.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("manifest: parsing: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("manifest: unknown fields: %s", strings.Join(keys, ", "))
	}
	return &m, nil
}

// Validate reports every structural problem found, joined into one error.
func (m *Manifest) Validate() error {
	var problems []string

	required := []struct {
		field, value string
	}{
		{"name", m.Name},
		{"version", m.Version},
		{"author", m.Author},
		{"description", m.Description},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			problems = append(problems, fmt.Sprintf("%s is required", r.field))
		}
	}

	if m.Version != "" {
		if _, err := semver.StrictNewVersion(m.Version); err != nil {
			problems = append(problems, fmt.Sprintf("version %q is not a semantic version: %v", m.Version, err))
		}
	}

	if m.AuthorEmail != "" {
		if _, err := mail.ParseAddress(m.AuthorEmail); err != nil {
			problems = append(problems, fmt.Sprintf("author_email %q is invalid", m.AuthorEmail))
		}
	}

	if len(m.Scripts) == 0 {
		problems = append(problems, "at least one script is required")
	}
	problems = append(problems, checkList("install_requires", m.InstallRequires)...)
	problems = append(problems, checkList("scripts", m.Scripts)...)

	if len(problems) > 0 {
		return fmt.Errorf("manifest: %s", strings.Join(problems, "; "))
	}
	return nil
}

func checkList(field string, items []string) []string {
	var problems []string
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			problems = append(problems, fmt.Sprintf("%s[%d] is empty", field, i))
			continue
		}
		key := strings.ToLower(item)
		if seen[key] {
			problems = append(problems, fmt.Sprintf("%s contains %q twice", field, item))
		}
		seen[key] = true
	}
	return problems
}

// SemVer returns the parsed version.
func (m *Manifest) SemVer() (*semver.Version, error) {
	return semver.StrictNewVersion(m.Version)
}

// HasRequirement reports whether name is a declared requirement.
// Comparison is case-insensitive, as package indexes treat names.
func (m *Manifest) HasRequirement(name string) bool {
	for _, r := range m.InstallRequires {
		if strings.EqualFold(r, name) {
			return true
		}
	}
	return false
}

// UserAgent is the HTTP User-Agent sent to review hosts.
func (m *Manifest) UserAgent() string {
	return m.Name + "/" + m.Version
}

// Encode renders the manifest as toml, yaml or json.
func (m *Manifest) Encode(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(m); err != nil {
			return nil, fmt.Errorf("manifest: encoding toml: %w", err)
		}
		return buf.Bytes(), nil
	case "yaml", "yml":
		data, err := yaml.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("manifest: encoding yaml: %w", err)
		}
		return data, nil
	case "json":
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("manifest: encoding json: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("manifest: unsupported format %q", format)
	}
}
