// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud is the client for the upstream OpenAI-compatible chat
// completions API.
//
// The client forwards a message list unchanged, returns the provider body
// verbatim (Completion.Raw) alongside its decoded form, and performs exactly
// one HTTP round trip per call.
//
//	client := cloud.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey).
//	    WithModel(cfg.Provider.Model)
//	comp, err := client.Complete(ctx, messages)
//	text := comp.Content()
package cloud
