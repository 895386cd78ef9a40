// Package config loads mekforge.yaml.
//
// Every section is optional; keys that are absent keep the values returned
// by Default. JSON files are accepted as well since they parse as YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mektycoon/mekforge/internal/batch"
	"github.com/mektycoon/mekforge/internal/logging"
	"github.com/mektycoon/mekforge/pkg/blueprint"
	"github.com/mektycoon/mekforge/pkg/domain"
	"github.com/mektycoon/mekforge/pkg/essence"
	"github.com/mektycoon/mekforge/pkg/imageio"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when --config is not given.
const DefaultPath = "mekforge.yaml"

// Config is the root of mekforge.yaml.
type Config struct {
	LogLevel  string                     `yaml:"log_level" json:"log_level"`
	Blueprint BlueprintConfig            `yaml:"blueprint" json:"blueprint"`
	Technical blueprint.TechnicalOptions `yaml:"technical" json:"technical"`
	Essence   EssenceConfig              `yaml:"essence" json:"essence"`
	Server    ServerConfig               `yaml:"server" json:"server"`
	Catalog   CatalogConfig              `yaml:"catalog" json:"catalog"`
}

// BlueprintConfig holds the classic renderer settings plus batch controls.
type BlueprintConfig struct {
	blueprint.ClassicOptions `yaml:",inline" mapstructure:",squash"`

	Workers int    `yaml:"workers" json:"workers"`
	Pattern string `yaml:"pattern" json:"pattern"`
	// Suffix is appended to the input stem when naming batch outputs.
	Suffix string `yaml:"suffix" json:"suffix"`
}

type EssenceConfig struct {
	Size   int    `yaml:"size" json:"size"`
	Format string `yaml:"format" json:"format"`
}

// ServerConfig configures `mekforge serve`.
type ServerConfig struct {
	Port int `yaml:"port" json:"port"`
	// RedisAddr enables the shared render cache when set.
	RedisAddr   string        `yaml:"redis_addr" json:"redis_addr"`
	RedisPrefix string        `yaml:"redis_prefix" json:"redis_prefix"`
	CacheTTL    time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
	// MaxUploadMB bounds multipart request bodies.
	MaxUploadMB int `yaml:"max_upload_mb" json:"max_upload_mb"`
}

type CatalogConfig struct {
	// Path overrides the embedded variation catalog.
	Path string `yaml:"path" json:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Blueprint: BlueprintConfig{
			ClassicOptions: blueprint.DefaultClassicOptions(),
			Workers:        batch.DefaultWorkers,
			Pattern:        domain.DefaultPattern,
			Suffix:         domain.BlueprintSuffix,
		},
		Technical: blueprint.DefaultTechnicalOptions(),
		Essence: EssenceConfig{
			Size:   essence.DefaultSize,
			Format: string(imageio.FormatWebP),
		},
		Server: ServerConfig{
			Port:        8080,
			RedisPrefix: "mekforge:",
			CacheTTL:    time.Hour,
			MaxUploadMB: 32,
		},
	}
}

// Load reads path on top of Default. The file must exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is Load, except a missing file yields Default.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes a document on top of Default and validates the result.
// Unknown keys are rejected so that typos do not pass silently.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if err := c.Blueprint.Validate(); err != nil {
		return fmt.Errorf("blueprint: %w", err)
	}
	if c.Blueprint.Workers <= 0 {
		return fmt.Errorf("blueprint: workers must be positive, got %d", c.Blueprint.Workers)
	}
	if err := c.Technical.Validate(); err != nil {
		return fmt.Errorf("technical: %w", err)
	}
	if c.Essence.Size <= 0 {
		return fmt.Errorf("essence: size must be positive, got %d", c.Essence.Size)
	}
	if _, err := imageio.ParseFormat(c.Essence.Format); err != nil {
		return fmt.Errorf("essence: %w", err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port %d", c.Server.Port)
	}
	if c.Server.CacheTTL < 0 {
		return fmt.Errorf("server: cache_ttl must not be negative")
	}
	return nil
}
