// Package config loads modelgraph settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-modelgraph/pkg/traverse"
	"github.com/dd0wney/cluso-modelgraph/pkg/validation"
)

// Default values
const (
	DefaultCopySuffix = "_Copy"
	DefaultLogLevel   = "info"
	MaxAllowedDepth   = 1 << 16
)

// LogLevels lists the accepted log_level values
var LogLevels = []string{"debug", "info", "warn", "error"}

// Config holds the settings shared by every operation.
type Config struct {
	LogLevel   string       `yaml:"log_level"`
	MaxDepth   int          `yaml:"max_depth" validate:"min=1"`
	Workers    int          `yaml:"workers"`
	CopySuffix string       `yaml:"copy_suffix"`
	Export     ExportConfig `yaml:"export"`
}

// ExportConfig controls the flattened export document.
type ExportConfig struct {
	ProjectID string `yaml:"project_id"`
	ModelID   string `yaml:"model_id"`
	Indent    bool   `yaml:"indent"`
	Compress  bool   `yaml:"compress"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel:   DefaultLogLevel,
		MaxDepth:   traverse.DefaultMaxDepth,
		Workers:    0,
		CopySuffix: DefaultCopySuffix,
		Export: ExportConfig{
			Indent: true,
		},
	}
}

// Load reads a YAML file over the defaults, applies MODELGRAPH_* environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from the environment
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("MODELGRAPH_LOG_LEVEL"); ok {
		c.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup("MODELGRAPH_COPY_SUFFIX"); ok {
		c.CopySuffix = v
	}
	if v, ok := lookup("MODELGRAPH_PROJECT_ID"); ok {
		c.Export.ProjectID = v
	}
	if v, ok := lookup("MODELGRAPH_MODEL_ID"); ok {
		c.Export.ModelID = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"MODELGRAPH_MAX_DEPTH", &c.MaxDepth},
		{"MODELGRAPH_WORKERS", &c.Workers},
	}
	for _, e := range ints {
		if v, ok := lookup(e.key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = n
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"MODELGRAPH_EXPORT_INDENT", &c.Export.Indent},
		{"MODELGRAPH_EXPORT_COMPRESS", &c.Export.Compress},
	}
	for _, e := range bools {
		if v, ok := lookup(e.key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = b
		}
	}
	return nil
}

// Validate checks struct tags, then cross-field rules.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	return validation.NewConfigValidator("Config").
		Required("CopySuffix", c.CopySuffix).
		Custom("CopySuffix", func() error {
			if strings.ContainsFunc(c.CopySuffix, unicode.IsControl) {
				return fmt.Errorf("%q contains control characters", c.CopySuffix)
			}
			return nil
		}).
		RangeInt("MaxDepth", c.MaxDepth, 1, MaxAllowedDepth).
		NonNegative("Workers", c.Workers).
		OneOf("LogLevel", c.LogLevel, LogLevels).
		When(c.Export.ModelID != "", func(cv *validation.ConfigValidator) {
			cv.Required("Export.ProjectID", c.Export.ProjectID)
		}).
		Validate()
}

// Walker returns a traversal walker bounded by MaxDepth
func (c *Config) Walker() traverse.Walker {
	return traverse.NewWalker(c.MaxDepth)
}
