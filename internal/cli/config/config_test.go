package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dataload/internal/integration"
	"github.com/leapstack-labs/dataload/internal/table"
	"github.com/leapstack-labs/dataload/internal/testutil"
)

// chdir switches to an empty temp directory for the duration of the test so
// no config file from the repository is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	ResetConfig()
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("base-url", "", "")
	fs.StringP("integration", "i", "", "")
	fs.String("credentials", "", "")
	fs.String("credentials-file", "", "")
	fs.Duration("timeout", 0, "")
	fs.StringP("format", "f", "", "")
	fs.BoolP("verbose", "v", false, "")
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := chdir(t)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, table.DefaultMinWidth, cfg.Table.MinWidth)
	assert.Equal(t, table.DefaultMaxWidth, cfg.Table.MaxWidth)
	assert.True(t, cfg.Loader.Sequencing)
	assert.Empty(t, cfg.Integration)
	assert.NotNil(t, cfg.Credentials)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())

	wantRoot, _ := filepath.EvalSymlinks(dir)
	gotRoot, _ := filepath.EvalSymlinks(cfg.ProjectRoot)
	assert.Equal(t, wantRoot, gotRoot)
}

func TestLoadConfig_File(t *testing.T) {
	dir := chdir(t)
	writeFile(t, filepath.Join(dir, "dataload.yaml"), `
base_url: http://backend:9000
integration: hubspot
timeout: 5s
output: csv
credentials:
  access_token: abc
table:
  min_width: 4
  max_width: 40
loader:
  sequencing: false
`)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://backend:9000", cfg.BaseURL)
	assert.Equal(t, "hubspot", cfg.Integration)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "csv", cfg.OutputFormat)
	assert.Equal(t, map[string]any{"access_token": "abc"}, cfg.Credentials)
	assert.Equal(t, TableConfig{MinWidth: 4, MaxWidth: 40}, cfg.Table)
	assert.False(t, cfg.Loader.Sequencing)
	assert.Equal(t, "dataload.yaml", filepath.Base(GetConfigFileUsed()))

	typ, err := cfg.IntegrationType()
	require.NoError(t, err)
	assert.Equal(t, integration.Hubspot, typ)
}

func TestLoadConfig_FindsFileUpward(t *testing.T) {
	dir := chdir(t)
	writeFile(t, filepath.Join(dir, "dataload.yml"), "integration: slack\n")
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "slack", cfg.Integration)

	wantRoot, _ := filepath.EvalSymlinks(dir)
	gotRoot, _ := filepath.EvalSymlinks(cfg.ProjectRoot)
	assert.Equal(t, wantRoot, gotRoot)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "conf", "custom.yaml")
	writeFile(t, path, "integration: notion\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "notion", cfg.Integration)
	assert.Equal(t, filepath.Join(dir, "conf"), cfg.ProjectRoot)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	chdir(t)
	_, err := LoadConfig("nope.yaml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := chdir(t)
	writeFile(t, filepath.Join(dir, "dataload.yaml"), `
integration: notion
output: csv
timeout: 5s
`)
	t.Setenv("DATALOAD_INTEGRATION", "slack")
	t.Setenv("DATALOAD_OUTPUT", "json")
	t.Setenv("DATALOAD_TABLE__MAX_WIDTH", "30")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--format", "markdown"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "slack", cfg.Integration, "env overrides file")
	assert.Equal(t, "markdown", cfg.OutputFormat, "flag overrides env")
	assert.Equal(t, 5*time.Second, cfg.Timeout, "unset flag does not override file")
	assert.Equal(t, 30, cfg.Table.MaxWidth, "double underscore reaches nested keys")
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := chdir(t)
	writeFile(t, filepath.Join(dir, ".env"), "DATALOAD_INTEGRATION=airtable\nDATALOAD_BASE_URL=http://fromdotenv:1\n")
	// A variable already in the environment wins over .env.
	t.Setenv("DATALOAD_BASE_URL", "http://fromenv:2")
	t.Cleanup(func() { _ = os.Unsetenv("DATALOAD_INTEGRATION") })

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "airtable", cfg.Integration)
	assert.Equal(t, "http://fromenv:2", cfg.BaseURL)
}

func TestLoadConfig_Credentials(t *testing.T) {
	t.Run("flag JSON", func(t *testing.T) {
		chdir(t)
		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--credentials", `{"access_token":"tok","workspace":{"id":7}}`}))

		cfg, err := LoadConfig("", flags)
		require.NoError(t, err)
		assert.Equal(t, "tok", cfg.Credentials["access_token"])
		assert.Equal(t, map[string]any{"id": float64(7)}, cfg.Credentials["workspace"])
	})

	t.Run("invalid flag JSON", func(t *testing.T) {
		chdir(t)
		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--credentials", `not json`}))

		_, err := LoadConfig("", flags)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--credentials")
	})

	t.Run("env JSON", func(t *testing.T) {
		chdir(t)
		t.Setenv("DATALOAD_CREDENTIALS", `{"access_token":"from-env"}`)

		cfg, err := LoadConfig("", nil)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Credentials["access_token"])
	})

	t.Run("invalid env JSON", func(t *testing.T) {
		chdir(t)
		t.Setenv("DATALOAD_CREDENTIALS", `not json`)

		cfg, err := LoadConfig("", nil)
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "DATALOAD_CREDENTIALS")
	})

	t.Run("file merged under direct keys", func(t *testing.T) {
		dir := chdir(t)
		writeFile(t, filepath.Join(dir, "secrets", "hubspot.json"), `{"access_token":"file","refresh_token":"r"}`)
		writeFile(t, filepath.Join(dir, "dataload.yaml"), `
credentials_file: secrets/hubspot.json
credentials:
  access_token: direct
`)

		cfg, err := LoadConfig("", nil)
		require.NoError(t, err)
		assert.Equal(t, "direct", cfg.Credentials["access_token"])
		assert.Equal(t, "r", cfg.Credentials["refresh_token"])
	})

	t.Run("missing file", func(t *testing.T) {
		chdir(t)
		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--credentials-file", "absent.json"}))

		_, err := LoadConfig("", flags)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credentials file")
	})

	t.Run("env var expansion", func(t *testing.T) {
		dir := chdir(t)
		t.Setenv("HUBSPOT_TOKEN", "s3cret")
		writeFile(t, filepath.Join(dir, "dataload.yaml"), `
credentials:
  access_token: ${HUBSPOT_TOKEN}
  scopes: ["${HUBSPOT_TOKEN}-scope", "plain"]
  unset: ${DATALOAD_TEST_UNSET_VAR}
`)

		cfg, err := LoadConfig("", nil)
		require.NoError(t, err)
		assert.Equal(t, "s3cret", cfg.Credentials["access_token"])
		assert.Equal(t, []any{"s3cret-scope", "plain"}, cfg.Credentials["scopes"])
		assert.Equal(t, "${DATALOAD_TEST_UNSET_VAR}", cfg.Credentials["unset"])
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errSubstr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "https url", mutate: func(c *Config) { c.BaseURL = "https://example.com/api" }},
		{name: "known integration", mutate: func(c *Config) { c.Integration = "HubSpot" }},
		{name: "ftp url", mutate: func(c *Config) { c.BaseURL = "ftp://example.com" }, errSubstr: "base_url"},
		{name: "no host", mutate: func(c *Config) { c.BaseURL = "http://" }, errSubstr: "base_url"},
		{name: "unknown integration", mutate: func(c *Config) { c.Integration = "salesforce" }, errSubstr: "unknown integration"},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, errSubstr: "timeout"},
		{name: "bad output", mutate: func(c *Config) { c.OutputFormat = "xml" }, errSubstr: "output"},
		{name: "negative width", mutate: func(c *Config) { c.Table.MinWidth = -1 }, errSubstr: "negative"},
		{name: "min above max", mutate: func(c *Config) { c.Table.MinWidth = 50 }, errSubstr: "exceeds"},
		{name: "no max", mutate: func(c *Config) { c.Table.MinWidth, c.Table.MaxWidth = 50, 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	dir := chdir(t)
	writeFile(t, filepath.Join(dir, "dataload.yaml"), "integration: salesforce\n")

	_, err := LoadConfig("", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, integration.ErrUnknownIntegration)
}

func TestConfig_RequireIntegration(t *testing.T) {
	cfg := Defaults()
	_, err := cfg.RequireIntegration()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--integration")

	cfg.Integration = "slack"
	typ, err := cfg.RequireIntegration()
	require.NoError(t, err)
	assert.Equal(t, integration.Slack, typ)
}

func TestConfig_TableOptions(t *testing.T) {
	cfg := Defaults()
	cfg.OutputFormat = "md"
	cfg.Table = TableConfig{MinWidth: 3, MaxWidth: 9}

	opts, err := cfg.TableOptions()
	require.NoError(t, err)
	assert.Equal(t, table.FormatMarkdown, opts.Format)
	assert.Equal(t, 3, opts.MinWidth)
	assert.Equal(t, 9, opts.MaxWidth)
	assert.True(t, opts.Footer)
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "falls back to a discard logger")

	log := testutil.NewTestLogger(t)
	ctx := context.WithValue(context.Background(), LoggerKey(), log)
	assert.Same(t, log, GetLogger(ctx))
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DATALOAD_TEST_A", "alpha")
	assert.Equal(t, "x-alpha-y", expandEnvVars("x-${DATALOAD_TEST_A}-y"))
	assert.Equal(t, "${DATALOAD_TEST_MISSING}", expandEnvVars("${DATALOAD_TEST_MISSING}"))
	assert.Equal(t, "$DATALOAD_TEST_A", expandEnvVars("$DATALOAD_TEST_A"))
}
