// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the lingua chat
// screen. All colors use Lip Gloss AdaptiveColor so that one palette serves
// dark and light terminals.
package styles
