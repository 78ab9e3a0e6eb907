// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the chat relay: a small HTTP server that holds the
// provider credentials and forwards conversations to the provider.
//
// # Endpoints
//
//   - POST /api/chat - body {"messages": [...]}, answers {"result": <completion>}
//   - GET  /health   - {"status": "ok"}
//   - GET  /stats    - request counters
//
// Every failure answers {"error": "Something went wrong."}. Status 400 marks a
// malformed request and 500 a provider or transport failure; the detail is
// only written to the log.
//
// # Usage
//
//	client := cloud.NewClient(baseURL, apiKey)
//	srv := server.NewServer("127.0.0.1", 8787, client)
//	if err := srv.Start(); err != nil {
//		log.Fatal(err)
//	}
package server
