// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/lingua-tui/internal/correction"
	"github.com/jeranaias/lingua-tui/internal/model"
	"github.com/jeranaias/lingua-tui/internal/prompt"
)

// askResult is the --json output of lingua ask.
type askResult struct {
	correction.Result
	ChatID string `json:"chat_id,omitempty"`
}

func newAskCmd(a *app) *cobra.Command {
	var (
		save   bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "ask <text>",
		Short: "Get one correction and reply without opening the chat",
		Example: `  lingua ask "Yo es estudiante"
  lingua ask --json "Ich habe gestern ins Kino gegangen"
  echo "Je suis allé au magasin hier" | xargs -0 lingua ask --save`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			completer, _, err := buildCompleter(cfg)
			if err != nil {
				return err
			}

			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("nothing to ask")
			}
			user := model.NewUserMessage(text)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ProviderTimeout())
			defer cancel()

			reply, err := completer.Complete(ctx, []model.Message{prompt.SystemMessage(), user})
			if err != nil {
				return fmt.Errorf("no reply: %w", err)
			}
			conversation := []model.Message{prompt.SystemMessage(), user, model.NewAssistantMessage(reply)}

			var chatID string
			if save {
				store, backend, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer backend.Close()

				if chatID, err = store.NewID(); err != nil {
					return err
				}
				if _, err := store.Save(chatID, conversation, ""); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(askResult{Result: correction.Parse(reply), ChatID: chatID}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			printConversation(out, model.Project(conversation, nil))
			if chatID != "" {
				fmt.Fprintf(out, "\n%s %s\n", render(DimStyle, "Saved as"), chatID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "store the exchange as a new chat")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the parsed correction as JSON")
	return cmd
}
