// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation types shared by storage, the relay
// and the UI.
//
// # Key Types
//
//   - Role: system, user or assistant
//   - Message: one {role, content} turn, the unit that is stored and sent
//   - Processed: a display projection tagged user, partner, correction or system
//   - Notice: a transient entry such as a send failure
//
// # Usage
//
//	msgs := []model.Message{
//	    model.NewSystemMessage(prompt.System),
//	    model.NewUserMessage("I has a apple"),
//	    model.NewAssistantMessage(reply),
//	}
//	for _, p := range model.Project(msgs, nil) {
//	    fmt.Println(p.Kind, p.Original, p.Text)
//	}
package model
