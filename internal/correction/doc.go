// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package correction parses the correction block a language partner model
// places at the start of its reply.
//
// The model is prompted to answer with a single-line JSON object
//
//	{"original": "...", "corrected": "...", "explanation": "..."}
//
// followed by conversational text on the next line. Model output is not
// trusted to follow that shape, so Parse is a best-effort heuristic: when the
// block is missing or malformed the whole reply is treated as conversation.
package correction
