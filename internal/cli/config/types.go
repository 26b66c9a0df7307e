// Package config provides configuration management for the dataload CLI.
//
// Values are layered with koanf. Precedence, highest first: flags,
// DATALOAD_ environment variables (including those set by a .env file),
// dataload.yaml, built-in defaults.
package config

import (
	"time"

	"github.com/leapstack-labs/dataload/internal/integration"
	"github.com/leapstack-labs/dataload/internal/table"
)

// TableConfig holds column width bounds for table output.
type TableConfig struct {
	MinWidth int `koanf:"min_width"`
	MaxWidth int `koanf:"max_width"`
}

// LoaderConfig holds loader behaviour settings.
type LoaderConfig struct {
	// Sequencing discards results of loads overtaken by a newer load or a
	// clear. When false, whichever response arrives last wins.
	Sequencing bool `koanf:"sequencing"`
}

// Config holds all CLI configuration options.
type Config struct {
	BaseURL         string         `koanf:"base_url"`
	Integration     string         `koanf:"integration"`
	Credentials     map[string]any `koanf:"credentials"`
	CredentialsFile string         `koanf:"credentials_file"`
	Timeout         time.Duration  `koanf:"timeout"`
	OutputFormat    string         `koanf:"output"`
	Verbose         bool           `koanf:"verbose"`
	Table           TableConfig    `koanf:"table"`
	Loader          LoaderConfig   `koanf:"loader"`
	HistoryFile     string         `koanf:"history_file"`

	// ProjectRoot is the directory holding dataload.yaml, or the working
	// directory when there is none.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultBaseURL = integration.DefaultBaseURL
	DefaultTimeout = 30 * time.Second
	DefaultOutput  = string(table.FormatTable)
	EnvPrefix      = "DATALOAD_"
)

// Defaults returns a Config holding only default values.
func Defaults() *Config {
	return &Config{
		BaseURL:      DefaultBaseURL,
		Credentials:  map[string]any{},
		Timeout:      DefaultTimeout,
		OutputFormat: DefaultOutput,
		Table: TableConfig{
			MinWidth: table.DefaultMinWidth,
			MaxWidth: table.DefaultMaxWidth,
		},
		Loader: LoaderConfig{Sequencing: true},
	}
}

// IntegrationType resolves the configured integration.
func (c *Config) IntegrationType() (integration.Type, error) {
	return integration.ParseType(c.Integration)
}

// TableOptions returns render options for the configured output format.
func (c *Config) TableOptions() (table.Options, error) {
	f, err := table.ParseFormat(c.OutputFormat)
	if err != nil {
		return table.Options{}, err
	}
	opts := table.DefaultOptions()
	opts.Format = f
	opts.MinWidth = c.Table.MinWidth
	opts.MaxWidth = c.Table.MaxWidth
	return opts, nil
}
