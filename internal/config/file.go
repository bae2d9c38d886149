package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML layout. Pointer fields distinguish "absent" from a
// zero value so only keys present in the file override defaults.
type fileConfig struct {
	APIToken       *string      `yaml:"api_token,omitempty"`
	BaseURL        *string      `yaml:"base_url,omitempty"`
	OutputPath     *string      `yaml:"output,omitempty"`
	SheetName      *string      `yaml:"sheet,omitempty"`
	RequestTimeout *string      `yaml:"request_timeout,omitempty"` // e.g. "30s"
	RateLimit      *float64     `yaml:"rate_limit,omitempty"`
	RateBurst      *int         `yaml:"rate_burst,omitempty"`
	Projects       []string     `yaml:"projects,omitempty"`
	History        *historyFile `yaml:"history,omitempty"`
}

type historyFile struct {
	Enabled *bool   `yaml:"enabled,omitempty"`
	Path    *string `yaml:"path,omitempty"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing YAML in %s: %w", path, err)
	}

	if fc.APIToken != nil {
		c.APIToken = *fc.APIToken
	}
	if fc.BaseURL != nil {
		c.BaseURL = *fc.BaseURL
	}
	if fc.OutputPath != nil {
		c.OutputPath = *fc.OutputPath
	}
	if fc.SheetName != nil {
		c.SheetName = *fc.SheetName
	}
	if fc.RequestTimeout != nil {
		d, err := time.ParseDuration(*fc.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid request_timeout %q: %w", *fc.RequestTimeout, err)
		}
		c.RequestTimeout = d
	}
	if fc.RateLimit != nil {
		c.RateLimit = *fc.RateLimit
	}
	if fc.RateBurst != nil {
		c.RateBurst = *fc.RateBurst
	}
	if len(fc.Projects) > 0 {
		c.Projects = fc.Projects
	}
	if fc.History != nil {
		if fc.History.Enabled != nil {
			c.HistoryEnabled = *fc.History.Enabled
		}
		if fc.History.Path != nil {
			c.HistoryPath = *fc.History.Path
		}
	}

	return nil
}

// SaveDefault writes the default configuration to path. The token is left
// out; supply it through TODOIST_API_TOKEN instead.
func SaveDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	def := Default()
	timeout := def.RequestTimeout.String()
	enabled := def.HistoryEnabled
	fc := fileConfig{
		BaseURL:        &def.BaseURL,
		OutputPath:     &def.OutputPath,
		SheetName:      &def.SheetName,
		RequestTimeout: &timeout,
		RateLimit:      &def.RateLimit,
		RateBurst:      &def.RateBurst,
		History:        &historyFile{Enabled: &enabled, Path: &def.HistoryPath},
	}

	data, err := yaml.Marshal(&fc)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
