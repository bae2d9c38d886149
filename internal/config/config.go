// Package config loads tasksheet settings from defaults, a YAML file, and
// environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultFileName is the config file looked up in the working directory
	DefaultFileName = "tasksheet.yaml"

	defaultBaseURL    = "https://api.todoist.com/rest/v2"
	defaultOutputPath = "todoist_data_dynamic_subtasks.xlsx"
	defaultSheetName  = "Sheet1"
	defaultDBPath     = ".tasksheet/history.db"
)

// Config holds everything a sync run needs
type Config struct {
	// APIToken is the Todoist bearer token
	// Required, never written to the default config file
	APIToken string

	// BaseURL is the REST endpoint projects and tasks are read from
	// Default: https://api.todoist.com/rest/v2
	BaseURL string

	// OutputPath is the workbook rows are merged into
	// Default: todoist_data_dynamic_subtasks.xlsx
	OutputPath string

	// SheetName is the worksheet inside OutputPath
	// Default: Sheet1
	SheetName string

	// RequestTimeout bounds each HTTP request
	// Default: 30s, Range: 1s-10m
	RequestTimeout time.Duration

	// RateLimit is the sustained request rate in requests per second
	// Default: 1.0
	RateLimit float64

	// RateBurst is how many requests may be issued back to back
	// Default: 5
	RateBurst int

	// Projects restricts the export to these project names (case-insensitive)
	// Default: empty (all projects)
	Projects []string

	// HistoryEnabled records a summary of every run in the history database
	// Default: true
	HistoryEnabled bool

	// HistoryPath is the SQLite database holding run history
	// Default: .tasksheet/history.db
	HistoryPath string

	// Debug turns on debug logging
	// Default: false
	Debug bool
}

// Default returns the default configuration. The API token is left empty.
func Default() Config {
	return Config{
		BaseURL:        defaultBaseURL,
		OutputPath:     defaultOutputPath,
		SheetName:      defaultSheetName,
		RequestTimeout: 30 * time.Second,
		RateLimit:      1.0,
		RateBurst:      5,
		HistoryEnabled: true,
		HistoryPath:    defaultDBPath,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIToken) == "" {
		return fmt.Errorf("api token is required (set TODOIST_API_TOKEN or api_token in %s)", DefaultFileName)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be http or https (got %q)", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url has no host (got %q)", c.BaseURL)
	}

	if c.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if ext := strings.ToLower(filepath.Ext(c.OutputPath)); ext != ".xlsx" {
		return fmt.Errorf("output path must end in .xlsx (got %q)", c.OutputPath)
	}
	if strings.TrimSpace(c.SheetName) == "" {
		return fmt.Errorf("sheet name is required")
	}
	if len(c.SheetName) > 31 {
		return fmt.Errorf("sheet name must be 31 characters or less (got %d)", len(c.SheetName))
	}

	if c.RequestTimeout < time.Second {
		return fmt.Errorf("request_timeout must be at least 1s (got %v)", c.RequestTimeout)
	}
	if c.RequestTimeout > 10*time.Minute {
		return fmt.Errorf("request_timeout too large (got %v, max 10m)", c.RequestTimeout)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be positive (got %v)", c.RateLimit)
	}
	if c.RateBurst < 1 {
		return fmt.Errorf("rate_burst must be at least 1 (got %d)", c.RateBurst)
	}

	if c.HistoryEnabled && c.HistoryPath == "" {
		return fmt.Errorf("history_path is required when history is enabled")
	}

	return nil
}

// String returns a human-readable representation of the config with the
// token redacted
func (c Config) String() string {
	token := "<unset>"
	if c.APIToken != "" {
		token = "<redacted>"
	}
	return fmt.Sprintf(
		"Config{Token: %s, BaseURL: %s, Output: %s, Sheet: %s, Timeout: %v, "+
			"Rate: %.2f/s, Burst: %d, Projects: %v, History: %t (%s), Debug: %t}",
		token, c.BaseURL, c.OutputPath, c.SheetName, c.RequestTimeout,
		c.RateLimit, c.RateBurst, c.Projects, c.HistoryEnabled, c.HistoryPath, c.Debug,
	)
}

// Load builds the configuration from defaults, the YAML file at path, and the
// environment. An empty path means DefaultFileName in the working directory,
// which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	if _, err := os.Stat(path); err == nil || explicit {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	return cfg, nil
}
