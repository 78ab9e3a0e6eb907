// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears env overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LINGUA_HOME", dir)
	for _, v := range []string{"API_BASE_URL", "API_KEY", "LINGUA_MODEL", "LINGUA_RELAY_URL",
		"LINGUA_STORAGE", "LINGUA_STORAGE_DIR", "LINGUA_LOG_LEVEL", "LINGUA_PORT"} {
		t.Setenv(v, "")
	}
	return dir
}

// TestConfig_ConcurrentAccess tests that Global() and SetGlobal() can be
// called concurrently.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c := Default()
			c.Provider.Model = "test-model"
			SetGlobal(c)
		}()

		go func() {
			defer wg.Done()
			if cfg := Global(); cfg == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

// TestConfig_ConcurrentReload tests concurrent ReloadGlobal and Global calls.
func TestConfig_ConcurrentReload(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	_ = Global()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ReloadGlobal(); err != nil {
				t.Errorf("ReloadGlobal() error = %v", err)
			}
		}()
	}
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cfg := Global(); cfg == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	_ = Global()

	custom := Default()
	custom.Provider.Model = "custom-model"
	SetGlobal(custom)

	if got := Global().Provider.Model; got != "custom-model" {
		t.Errorf("Global().Provider.Model = %q, want %q", got, "custom-model")
	}
}

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %q, want %q", cfg.Version, CurrentVersion)
	}
	if cfg.Provider.Model == "" {
		t.Error("Default config should have a model")
	}
	if cfg.Server.Port != 8787 {
		t.Errorf("Server.Port = %d, want 8787", cfg.Server.Port)
	}
	if !cfg.Client.GenerateTitles {
		t.Error("title generation should be on by default")
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("Storage.Backend = %q, want file", cfg.Storage.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		field   string
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, "", false},
		{"valid provider url", func(c *Config) { c.Provider.BaseURL = "https://api.example.com/v1" }, "", false},
		{"bad provider scheme", func(c *Config) { c.Provider.BaseURL = "ftp://x" }, "provider.base_url", true},
		{"provider url without host", func(c *Config) { c.Provider.BaseURL = "https://" }, "provider.base_url", true},
		{"zero timeout", func(c *Config) { c.Provider.TimeoutSeconds = 0 }, "provider.timeout_seconds", true},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port", true},
		{"bad relay url", func(c *Config) { c.Client.RelayURL = "localhost:8787" }, "client.relay_url", true},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend", true},
		{"sqlite backend", func(c *Config) { c.Storage.Backend = "sqlite" }, "", false},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level", true},
		{"invalid theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestConfig_ValidateCollectsAll(t *testing.T) {
	c := Default()
	c.Server.Port = -1
	c.UI.Theme = "neon"

	err := c.Validate()
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "ui.theme")
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Provider.Model, cfg.Provider.Model)
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	content := `
[provider]
base_url = "https://api.example.com/v1/"
api_key = "sk-file"

[server]
port = 9000

[client]
generate_titles = false

[storage]
backend = "sqlite"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/v1", cfg.Provider.BaseURL, "trailing slash trimmed")
	assert.Equal(t, "sk-file", cfg.Provider.APIKey)
	assert.Equal(t, Default().Provider.Model, cfg.Provider.Model, "unset key keeps default")
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.False(t, cfg.Client.GenerateTitles)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "permissions tightened on load")
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport = "), 0600))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"neon\"\n"), 0600))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ui.theme")
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("API_BASE_URL", "https://env.example.com")
	t.Setenv("API_KEY", "sk-env")
	t.Setenv("LINGUA_MODEL", "env-model")
	t.Setenv("LINGUA_RELAY_URL", "http://relay.local:8787")
	t.Setenv("LINGUA_STORAGE", "memory")
	t.Setenv("LINGUA_STORAGE_DIR", "/tmp/lingua-data")
	t.Setenv("LINGUA_LOG_LEVEL", "debug")
	t.Setenv("LINGUA_PORT", "9999")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "https://env.example.com", cfg.Provider.BaseURL)
	assert.Equal(t, "sk-env", cfg.Provider.APIKey)
	assert.Equal(t, "env-model", cfg.Provider.Model)
	assert.Equal(t, "http://relay.local:8787", cfg.Client.RelayURL)
	assert.True(t, cfg.UsesRelay())
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/lingua-data", cfg.Storage.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestApplyEnvOverrides_BadPortIgnored(t *testing.T) {
	isolate(t)
	t.Setenv("LINGUA_PORT", "eighty")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, 8787, cfg.Server.Port)
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "sub", "config.toml")

	cfg := Default()
	cfg.Provider.APIKey = "sk-secret"
	cfg.Server.AllowedOrigins = []string{"https://app.example.com"}
	cfg.UI.Theme = "light"
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", loaded.Provider.APIKey)
	assert.Equal(t, []string{"https://app.example.com"}, loaded.Server.AllowedOrigins)
	assert.Equal(t, "light", loaded.UI.Theme)
}

func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("server.port", "9100"))
	v, err := cfg.Get("server.port")
	require.NoError(t, err)
	assert.Equal(t, 9100, v)

	require.NoError(t, cfg.Set("provider.base_url", "https://x.test"))
	assert.Equal(t, "https://x.test", cfg.Provider.BaseURL)

	require.NoError(t, cfg.Set("client.generate_titles", "false"))
	assert.False(t, cfg.Client.GenerateTitles)

	require.NoError(t, cfg.Set("server.allowed_origins", "http://a.test, http://b.test"))
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)

	assert.Error(t, cfg.Set("server.port", "many"))
	assert.Error(t, cfg.Set("client.generate_titles", "maybe"))
	assert.Error(t, cfg.Set("nope.field", "x"))
	_, err = cfg.Get("server.port.deeper")
	assert.Error(t, err)
	_, err = cfg.Get("")
	assert.Error(t, err)
}

func TestGetAllKeys_Resolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) error = %v", key, err)
		}
	}
}

func TestConfig_StringRedactsKey(t *testing.T) {
	cfg := Default()
	cfg.Provider.APIKey = "sk-very-secret"

	s := cfg.String()
	assert.NotContains(t, s, "sk-very-secret")
	assert.Contains(t, s, "[REDACTED]")
	assert.Equal(t, "sk-very-secret", cfg.Provider.APIKey, "original untouched")
}

func TestConfig_Clone(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Server.AllowedOrigins[0] = "changed"
	assert.NotEqual(t, "changed", cfg.Server.AllowedOrigins[0])
}

func TestConfig_Paths(t *testing.T) {
	dir := isolate(t)

	cfg := Default()
	got, err := cfg.StorageDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	logPath, err := cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lingua.log"), logPath)

	cfg.Storage.Dir = "~/chats"
	got, err = cfg.StorageDir()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, string(filepath.Separator)+"chats"))
	assert.False(t, strings.HasPrefix(got, "~"))

	assert.Equal(t, 60*time.Second, cfg.ProviderTimeout())
}
