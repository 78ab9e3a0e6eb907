// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/jeranaias/lingua-tui/internal/cloud"
	"github.com/jeranaias/lingua-tui/internal/config"
	"github.com/jeranaias/lingua-tui/internal/logging"
	"github.com/jeranaias/lingua-tui/internal/relay"
	"github.com/jeranaias/lingua-tui/internal/session"
	"github.com/jeranaias/lingua-tui/internal/storage"
)

// openStore opens the configured chat backend. The caller closes the
// returned backend.
func openStore(cfg *config.Config) (*storage.ChatStore, storage.Backend, error) {
	dir, err := cfg.StorageDir()
	if err != nil {
		return nil, nil, err
	}
	backend, err := storage.OpenBackend(cfg.Storage.Backend, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}
	logging.Debugf("STORAGE_OPEN | backend=%s dir=%s", cfg.Storage.Backend, dir)
	return storage.NewChatStore(backend), backend, nil
}

// newCloudClient builds the provider client from cfg.
func newCloudClient(cfg *config.Config) *cloud.Client {
	return cloud.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey).
		WithModel(cfg.Provider.Model).
		WithTimeout(cfg.ProviderTimeout())
}

// buildCompleter picks the completion path: the relay when client.relay_url
// is set, the provider otherwise. The description is for status output.
func buildCompleter(cfg *config.Config) (session.Completer, string, error) {
	if cfg.UsesRelay() {
		c := relay.NewClient(cfg.Client.RelayURL)
		return c, "relay " + c.BaseURL(), nil
	}

	c := newCloudClient(cfg)
	if !c.IsConfigured() {
		return nil, "", fmt.Errorf("%w: set API_BASE_URL and API_KEY, or client.relay_url", cloud.ErrNotConfigured)
	}
	logging.Debugf("COMPLETER | provider=%s model=%s key=%s", c.BaseURL(), c.Model(), c.KeyFingerprint())
	return session.CompleterFunc(c.Reply), c.Model() + " at " + c.BaseURL(), nil
}
