// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves the lingua configuration.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (API_BASE_URL, API_KEY, LINGUA_*)
//   - ~/.lingua/config.toml ($LINGUA_HOME/config.toml when set)
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := cloud.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey)
package config
