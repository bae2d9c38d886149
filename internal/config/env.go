package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnv overrides fields from environment variables
//
// Environment variables:
//   - TODOIST_API_TOKEN: bearer token (required unless set in the file)
//   - TASKSHEET_BASE_URL: REST endpoint (default: https://api.todoist.com/rest/v2)
//   - TASKSHEET_OUTPUT: workbook path (default: todoist_data_dynamic_subtasks.xlsx)
//   - TASKSHEET_SHEET: worksheet name (default: Sheet1)
//   - TASKSHEET_TIMEOUT: per-request timeout, e.g. 45s (default: 30s)
//   - TASKSHEET_RATE_LIMIT: requests per second (default: 1.0)
//   - TASKSHEET_RATE_BURST: burst size (default: 5)
//   - TASKSHEET_PROJECTS: comma-separated project names (default: all)
//   - TASKSHEET_HISTORY: record runs in the history database (default: true)
//   - TASKSHEET_DB_PATH: history database path (default: .tasksheet/history.db)
//   - TASKSHEET_DEBUG: debug logging (default: false)
func (c *Config) applyEnv() error {
	if err := parseEnvString("TODOIST_API_TOKEN", &c.APIToken); err != nil {
		return err
	}
	if err := parseEnvString("TASKSHEET_BASE_URL", &c.BaseURL); err != nil {
		return err
	}
	if err := parseEnvString("TASKSHEET_OUTPUT", &c.OutputPath); err != nil {
		return err
	}
	if err := parseEnvString("TASKSHEET_SHEET", &c.SheetName); err != nil {
		return err
	}
	if err := parseEnvDuration("TASKSHEET_TIMEOUT", &c.RequestTimeout); err != nil {
		return err
	}
	if err := parseEnvFloat("TASKSHEET_RATE_LIMIT", &c.RateLimit); err != nil {
		return err
	}
	if err := parseEnvInt("TASKSHEET_RATE_BURST", &c.RateBurst); err != nil {
		return err
	}
	if err := parseEnvList("TASKSHEET_PROJECTS", &c.Projects); err != nil {
		return err
	}
	if err := parseEnvBool("TASKSHEET_HISTORY", &c.HistoryEnabled); err != nil {
		return err
	}
	if err := parseEnvString("TASKSHEET_DB_PATH", &c.HistoryPath); err != nil {
		return err
	}
	if err := parseEnvBool("TASKSHEET_DEBUG", &c.Debug); err != nil {
		return err
	}
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvFloat parses a float from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvDuration parses a duration such as "45s" from an environment variable
func parseEnvDuration(key string, dest *time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) error {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	*dest = value
	return nil
}

// parseEnvList parses a comma-separated list, dropping empty entries
func parseEnvList(key string, dest *[]string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dest = items
	return nil
}
