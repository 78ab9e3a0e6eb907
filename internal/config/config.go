// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/lingua-tui/internal/cloud"
	"github.com/jeranaias/lingua-tui/internal/logging"
	"github.com/jeranaias/lingua-tui/internal/server"
	"github.com/jeranaias/lingua-tui/internal/storage"
	"github.com/jeranaias/lingua-tui/internal/util"
)

// CurrentVersion is written into new configuration files.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete lingua configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Provider is the OpenAI-compatible completion endpoint.
	Provider ProviderConfig `toml:"provider" json:"provider"`

	// Server configures the relay started by `lingua serve`.
	Server ServerConfig `toml:"server" json:"server"`

	// Client configures how the chat screen reaches the model.
	Client ClientConfig `toml:"client" json:"client"`

	Storage StorageConfig `toml:"storage" json:"storage"`
	Log     LogConfig     `toml:"log" json:"log"`
	UI      UIConfig      `toml:"ui" json:"ui"`
}

// ProviderConfig holds the completion endpoint settings.
type ProviderConfig struct {
	BaseURL        string `toml:"base_url" json:"base_url"`
	APIKey         string `toml:"api_key" json:"api_key"`
	Model          string `toml:"model" json:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds" json:"timeout_seconds"`
}

// ServerConfig holds relay listener settings.
type ServerConfig struct {
	Host           string   `toml:"host" json:"host"`
	Port           int      `toml:"port" json:"port"`
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`
}

// ClientConfig selects the completion path of the chat screen. With RelayURL
// set, requests go through a relay; otherwise the provider is called directly.
type ClientConfig struct {
	RelayURL       string `toml:"relay_url" json:"relay_url"`
	GenerateTitles bool   `toml:"generate_titles" json:"generate_titles"`
}

// StorageConfig selects where chats are kept.
type StorageConfig struct {
	// Backend is "file", "sqlite" or "memory".
	Backend string `toml:"backend" json:"backend"`

	// Dir holds the chat data. Empty means the config directory.
	Dir string `toml:"dir" json:"dir"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	Level string `toml:"level" json:"level"`

	// File receives log output. The chat screen always logs to a file since
	// it owns the terminal; empty means lingua.log in the config directory.
	File string `toml:"file" json:"file"`
}

// UIConfig holds display preferences.
type UIConfig struct {
	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme" json:"theme"`

	// ShowDiffStats shows the "+n -m words" line under corrections.
	ShowDiffStats bool `toml:"show_diff_stats" json:"show_diff_stats"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Provider: ProviderConfig{
			Model:          cloud.DefaultModel,
			TimeoutSeconds: int(cloud.DefaultTimeout / time.Second),
		},
		Server: ServerConfig{
			Host:           server.DefaultHost,
			Port:           server.DefaultPort,
			AllowedOrigins: append([]string(nil), server.DefaultCORSConfig().AllowedOrigins...),
		},
		Client: ClientConfig{
			GenerateTitles: true,
		},
		Storage: StorageConfig{
			Backend: storage.BackendFile,
		},
		Log: LogConfig{
			Level: logging.LevelInfo.String(),
		},
		UI: UIConfig{
			Theme:         "auto",
			ShowDiffStats: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the lingua configuration directory: $LINGUA_HOME when
// set, otherwise ~/.lingua.
func ConfigDir() (string, error) {
	if dir := os.Getenv("LINGUA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".lingua"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions tightens a config file to 0600 since it may hold
// the provider API key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// StorageDir resolves the directory chats are stored in.
func (c *Config) StorageDir() (string, error) {
	if c.Storage.Dir != "" {
		return expandHome(c.Storage.Dir)
	}
	return ConfigDir()
}

// LogPath resolves the log file path.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return expandHome(c.Log.File)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lingua.log"), nil
}

// ProviderTimeout returns the provider timeout as a duration.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}

// UsesRelay reports whether the chat screen talks to a relay.
func (c *Config) UsesRelay() bool {
	return c.Client.RelayURL != ""
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the default config file when it exists, then applies environment
// overrides, defaults and validation. A missing file is not an error.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		return finish(Default())
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := fillDefaults(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file onto cfg. Keys absent from the file keep the
// values cfg already has.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		logging.Warnf("CONFIG_PERMISSIONS | path=%s error=%v", path, err)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	for _, key := range meta.Undecoded() {
		logging.Warnf("CONFIG_UNKNOWN_KEY | path=%s key=%s", path, key.String())
	}
	return fillDefaults(cfg)
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	if cfg.Provider.Model == "" {
		cfg.Provider.Model = defaults.Provider.Model
	}
	if cfg.Provider.TimeoutSeconds == 0 {
		cfg.Provider.TimeoutSeconds = defaults.Provider.TimeoutSeconds
	}
	cfg.Provider.BaseURL = strings.TrimSuffix(cfg.Provider.BaseURL, "/")

	if cfg.Server.Host == "" {
		cfg.Server.Host = defaults.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = defaults.Server.AllowedOrigins
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# lingua configuration file")
	fmt.Fprintln(&buf, "# API keys are stored in plain text; keep this file private.")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration. The returned error is a
// ValidateErrors listing every problem.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Provider.BaseURL != "" {
		if msg := checkHTTPURL(c.Provider.BaseURL); msg != "" {
			errs = append(errs, ValidationError{Field: "provider.base_url", Message: msg})
		}
	}
	if c.Provider.TimeoutSeconds < 1 || c.Provider.TimeoutSeconds > 600 {
		errs = append(errs, ValidationError{
			Field:   "provider.timeout_seconds",
			Message: fmt.Sprintf("must be between 1 and 600, got %d", c.Provider.TimeoutSeconds),
		})
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", c.Server.Port),
		})
	}

	if c.Client.RelayURL != "" {
		if msg := checkHTTPURL(c.Client.RelayURL); msg != "" {
			errs = append(errs, ValidationError{Field: "client.relay_url", Message: msg})
		}
	}

	switch c.Storage.Backend {
	case storage.BackendFile, storage.BackendSQLite, storage.BackendMemory:
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, memory", c.Storage.Backend),
		})
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{Field: "log.level", Message: err.Error()})
	}

	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func checkHTTPURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "URL has no host"
	}
	return ""
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - API_BASE_URL: overrides provider.base_url
//   - API_KEY: overrides provider.api_key
//   - LINGUA_MODEL: overrides provider.model
//   - LINGUA_RELAY_URL: overrides client.relay_url
//   - LINGUA_STORAGE: overrides storage.backend
//   - LINGUA_STORAGE_DIR: overrides storage.dir
//   - LINGUA_LOG_LEVEL: overrides log.level
//   - LINGUA_PORT: overrides server.port
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("LINGUA_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv("LINGUA_RELAY_URL"); v != "" {
		c.Client.RelayURL = v
	}
	if v := os.Getenv("LINGUA_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("LINGUA_STORAGE_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("LINGUA_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LINGUA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		} else {
			logging.Warnf("CONFIG_ENV_IGNORED | var=LINGUA_PORT value=%q", v)
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "server.port").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "server.port").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field, nil
		}

		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field
// equivalent. Comparison is case-insensitive, so "base_url" finds BaseURL.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %v", err)
			}
			field.SetBool(boolVal)
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, item := range strings.Split(strVal, ",") {
					if item = strings.TrimSpace(item); item != "" {
						items = append(items, item)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"provider.base_url",
		"provider.api_key",
		"provider.model",
		"provider.timeout_seconds",
		"server.host",
		"server.port",
		"server.allowed_origins",
		"client.relay_url",
		"client.generate_titles",
		"storage.backend",
		"storage.dir",
		"log.level",
		"log.file",
		"ui.theme",
		"ui.show_diff_stats",
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	return &clone
}

// String renders the config as JSON with the API key redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Provider.APIKey != "" {
		safe.Provider.APIKey = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. A load failure falls back to defaults.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			logging.Warnf("CONFIG_LOAD_FAILED | error=%v (using defaults)", err)
			if cfg == nil {
				cfg = Default()
			}
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
