package config

import (
	"fmt"
	"net/url"

	"github.com/leapstack-labs/dataload/internal/integration"
	"github.com/leapstack-labs/dataload/internal/table"
)

// Validate checks if the configuration is valid. An empty integration is
// allowed here; commands that load data require one via RequireIntegration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.Integration != "" {
		if _, err := c.IntegrationType(); err != nil {
			return fmt.Errorf("integration: %w", err)
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if _, err := table.ParseFormat(c.OutputFormat); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if c.Table.MinWidth < 0 || c.Table.MaxWidth < 0 {
		return fmt.Errorf("table widths must not be negative")
	}
	if c.Table.MaxWidth > 0 && c.Table.MinWidth > c.Table.MaxWidth {
		return fmt.Errorf("table.min_width (%d) exceeds table.max_width (%d)", c.Table.MinWidth, c.Table.MaxWidth)
	}
	return nil
}

// RequireIntegration returns the configured integration or an error with a
// hint when none is set.
func (c *Config) RequireIntegration() (integration.Type, error) {
	if c.Integration == "" {
		return "", fmt.Errorf("no integration selected\nHint: pass --integration or set integration in dataload.yaml")
	}
	return c.IntegrationType()
}
