// Package config loads the ankivert YAML configuration with environment
// variable expansion and validates it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is probed in the working directory when --config is unset.
const DefaultFileName = "ankivert.yaml"

// Duration is a time.Duration that unmarshals from YAML strings like "10s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"10s\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the application configuration.
type Config struct {
	Vault VaultConfig `yaml:"vault"`
	Anki  AnkiConfig  `yaml:"anki"`
	Watch WatchConfig `yaml:"watch"`
}

// VaultConfig locates the note vault and the course subset to scan.
type VaultConfig struct {
	Path    string   `yaml:"path"`
	Courses []string `yaml:"courses"`
}

// AnkiConfig holds everything about the AnkiConnect endpoint and how cards
// are written to it.
type AnkiConfig struct {
	URL        string   `yaml:"url"`
	Timeout    Duration `yaml:"timeout"`
	Model      string   `yaml:"model"`
	RootDeck   string   `yaml:"root_deck"`
	RenderHTML bool     `yaml:"render_html"`
	ExtraTags  []string `yaml:"extra_tags"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Debounce Duration `yaml:"debounce"`
}

// Default returns the configuration used when no file or flag overrides
// anything. The vault path is deliberately empty; it must come from the
// config file or the --vault flag.
func Default() *Config {
	return &Config{
		Anki: AnkiConfig{
			URL:        "http://127.0.0.1:8765",
			Timeout:    Duration(10 * time.Second),
			Model:      "Basic",
			RenderHTML: true,
		},
		Watch: WatchConfig{
			Debounce: Duration(750 * time.Millisecond),
		},
	}
}

// Load reads a YAML file over cfg, expanding $VAR references first. Keys
// absent from the file keep their current (default) values.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// Validate validates the configuration. Call it after flag overrides have
// been applied.
func (c *Config) Validate() error {
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Anki.Validate(); err != nil {
		return err
	}
	return c.Watch.Validate()
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// Validate validates the Anki configuration.
func (c *AnkiConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.Timeout, validation.Required),
		validation.Field(&c.Model, validation.Required),
	)
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Required),
	)
}

// ExpandPath resolves a leading "~" against the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
