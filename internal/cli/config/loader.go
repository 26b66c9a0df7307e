package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// configNames are the config file names looked for, in order.
var configNames = []string{"dataload.yaml", "dataload.yml"}

// flagKeys maps flag names whose config key is not the snake_case form of
// the flag name.
var flagKeys = map[string]string{
	"format": "output",
}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// configIn returns the config file in dir, if any.
func configIn(dir string) string {
	for _, name := range configNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a dataload config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if p := configIn(dir); p != "" {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, .env, environment variables,
// and flags. Only flags marked as changed override lower layers.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	// 1. Defaults
	def := Defaults()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"base_url":          def.BaseURL,
		"timeout":           def.Timeout.String(),
		"output":            def.OutputFormat,
		"verbose":           false,
		"table.min_width":   def.Table.MinWidth,
		"table.max_width":   def.Table.MaxWidth,
		"loader.sequencing": def.Loader.Sequencing,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file: explicit path, else the nearest dataload.yaml upward
	if cfgFile == "" {
		cfgFile = findConfigUpward(cwd)
	}
	configFileUsed = cfgFile
	projectRoot := cwd
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. .env next to the config file. Variables already set in the
	// environment win over the file.
	if err := godotenv.Load(filepath.Join(projectRoot, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	// 4. Environment variables (DATALOAD_ prefix)
	// Transform: DATALOAD_BASE_URL -> base_url, DATALOAD_TABLE__MAX_WIDTH -> table.max_width
	var envErr error
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		name := key
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		key = strings.ReplaceAll(key, "__", ".")
		if key == "credentials" {
			creds, err := parseCredentials(value)
			if err != nil {
				envErr = fmt.Errorf("%s: %w", name, err)
				return "", nil
			}
			return key, creds
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}
	if envErr != nil {
		return nil, envErr
	}

	// 5. Flags (highest priority)
	if flags != nil {
		var flagErr error
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[f.Name]; ok {
				key = mapped
			}
			if key == "credentials" {
				creds, err := parseCredentials(f.Value.String())
				if err != nil {
					flagErr = fmt.Errorf("--credentials: %w", err)
					return "", nil
				}
				return key, creds
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
		if flagErr != nil {
			return nil, flagErr
		}
	}

	// 6. Unmarshal into Config struct
	cfg := Defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	// 7. Credentials file, relative to the project root. Keys given directly
	// take precedence over the file.
	if cfg.CredentialsFile != "" {
		path := cfg.CredentialsFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectRoot, path)
		}
		fromFile, err := loadCredentialsFile(path)
		if err != nil {
			return nil, err
		}
		for key, v := range cfg.Credentials {
			fromFile[key] = v
		}
		cfg.Credentials = fromFile
	}
	if cfg.Credentials == nil {
		cfg.Credentials = map[string]any{}
	}
	expandCredentialEnvVars(cfg.Credentials)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = cfg
	return cfg, nil
}

// parseCredentials decodes a JSON object given on the command line or in
// the environment.
func parseCredentials(s string) (map[string]any, error) {
	creds := map[string]any{}
	if strings.TrimSpace(s) == "" {
		return creds, nil
	}
	if err := json.Unmarshal([]byte(s), &creds); err != nil {
		return nil, fmt.Errorf("credentials must be a JSON object: %w", err)
	}
	return creds, nil
}

// loadCredentialsFile reads a credentials object from a YAML or JSON file.
func loadCredentialsFile(path string) (map[string]any, error) {
	ck := koanf.New(".")
	if err := ck.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("error reading credentials file %s: %w", path, err)
	}
	creds := ck.Raw()
	if creds == nil {
		creds = map[string]any{}
	}
	return creds, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandCredentialEnvVars expands ${VAR} in every string credential value,
// including nested ones.
func expandCredentialEnvVars(m map[string]any) {
	for key, v := range m {
		m[key] = expandValue(v)
	}
}

func expandValue(v any) any {
	switch x := v.(type) {
	case string:
		return expandEnvVars(x)
	case map[string]any:
		expandCredentialEnvVars(x)
		return x
	case []any:
		for i := range x {
			x[i] = expandValue(x[i])
		}
		return x
	default:
		return v
	}
}
