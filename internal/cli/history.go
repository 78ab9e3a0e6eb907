// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/lingua-tui/internal/export"
	"github.com/jeranaias/lingua-tui/internal/model"
	"github.com/jeranaias/lingua-tui/internal/storage"
	"github.com/jeranaias/lingua-tui/internal/util"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"chats"},
		Short:   "List, show, delete and export saved chats",
		Long: `Manage saved chats.

Chats can be named by full id, a unique id prefix, or their number in
'lingua history list' (1 is the most recent).`,
	}

	cmd.AddCommand(
		newHistoryListCmd(a),
		newHistoryShowCmd(a),
		newHistoryDeleteCmd(a),
		newHistoryExportCmd(a),
	)
	return cmd
}

// withStore opens the configured store for the duration of fn.
func withStore(a *app, fn func(store *storage.ChatStore) error) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	store, backend, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()
	return fn(store)
}

// findChat resolves ref against the stored chats.
func findChat(store *storage.ChatStore, ref string) (*storage.StoredChat, error) {
	chats, err := store.GetAll()
	if err != nil {
		return nil, err
	}
	return resolveChat(chats, ref)
}

// =============================================================================
// LIST
// =============================================================================

func newHistoryListCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved chats, most recent first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(a, func(store *storage.ChatStore) error {
				chats, err := store.GetAll()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				switch {
				case asJSON:
					if chats == nil {
						chats = []storage.StoredChat{}
					}
					data, err := json.MarshalIndent(chats, "", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintln(out, string(data))
				case isTerminalWriter(out):
					printChatList(out, chats, time.Now())
				default:
					fmt.Fprint(out, storage.FormatChatList(chats))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored records as JSON")
	return cmd
}

// printChatList writes the styled listing shown on a terminal.
func printChatList(w io.Writer, chats []storage.StoredChat, now time.Time) {
	if len(chats) == 0 {
		fmt.Fprintln(w, render(DimStyle, "No saved chats. Start one with `lingua`."))
		return
	}

	fmt.Fprintln(w, render(TitleStyle, "Saved chats"))
	fmt.Fprintln(w, RenderSeparator(40))

	titleWidth := renderWidth() - 24
	if titleWidth < 20 {
		titleWidth = 20
	}
	for i, c := range chats {
		fmt.Fprintf(w, "%3d. %s  %s\n",
			i+1,
			render(ValueStyle, util.TruncateWidth(util.SingleLine(c.DisplayTitle()), titleWidth)),
			render(DimStyle, storage.FormatAge(c.LastUpdated, now)),
		)
		if preview := c.Preview(titleWidth); preview != "" && preview != c.DisplayTitle() {
			fmt.Fprintf(w, "     %s\n", render(DimStyle, preview))
		}
	}
}

// =============================================================================
// SHOW
// =============================================================================

func newHistoryShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <chat>",
		Short: "Print a saved chat with its corrections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(a, func(store *storage.ChatStore) error {
				chat, err := findChat(store, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s\n", render(TitleStyle, "Chat:"), chat.DisplayTitle())
				fmt.Fprintf(out, "%s\n", render(DimStyle, fmt.Sprintf("%s · %d messages · %s",
					chat.ID, len(chat.Messages), storage.FormatAge(chat.LastUpdated, time.Now()))))
				fmt.Fprintln(out, RenderSeparator(40))
				printConversation(out, model.Project(chat.Messages, nil))
				return nil
			})
		},
	}
}

// =============================================================================
// DELETE
// =============================================================================

func newHistoryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <chat>...",
		Aliases: []string{"rm"},
		Short:   "Delete saved chats",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(a, func(store *storage.ChatStore) error {
				// Resolve everything first so numbers refer to the listing
				// the user saw.
				chats, err := store.GetAll()
				if err != nil {
					return err
				}
				targets := make([]storage.StoredChat, 0, len(args))
				for _, ref := range args {
					chat, err := resolveChat(chats, ref)
					if err != nil {
						return err
					}
					targets = append(targets, *chat)
				}

				out := cmd.OutOrStdout()
				for _, chat := range targets {
					if err := store.Delete(chat.ID); err != nil {
						return err
					}
					fmt.Fprintf(out, "%s %s (%s)\n", render(SuccessStyle, "Deleted"), chat.DisplayTitle(), chat.ID)
				}
				return nil
			})
		},
	}
}

// =============================================================================
// EXPORT
// =============================================================================

func newHistoryExportCmd(a *app) *cobra.Command {
	var (
		format        string
		outputDir     string
		toStdout      bool
		noMetadata    bool
		includeSystem bool
		theme         string
	)

	cmd := &cobra.Command{
		Use:   "export <chat>",
		Short: "Export a saved chat to markdown, html, json or yaml",
		Example: `  lingua history export 1
  lingua history export 1 --format html --theme light -o ~/Documents
  lingua history export 3f2a --format json --stdout`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := export.DefaultOptions()
			opts.OutputDir = outputDir
			opts.IncludeMetadata = !noMetadata
			opts.IncludeSystem = includeSystem
			opts.Theme = theme

			exporter, err := export.ForFormat(format, opts)
			if err != nil {
				return err
			}

			return withStore(a, func(store *storage.ChatStore) error {
				chat, err := findChat(store, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if toStdout {
					data, err := exporter.Export(chat)
					if err != nil {
						return err
					}
					fmt.Fprint(out, highlightExport(string(data), format))
					return nil
				}

				path, err := export.ExportToFile(chat, exporter, opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s\n", render(SuccessStyle, "Exported to"), path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "export format ("+strings.Join(export.Formats, ", ")+")")
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "directory to write the file to")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "print instead of writing a file")
	cmd.Flags().BoolVar(&noMetadata, "no-metadata", false, "leave out id, dates and message count")
	cmd.Flags().BoolVar(&includeSystem, "include-system", false, "keep the system prompt in markdown and html")
	cmd.Flags().StringVar(&theme, "theme", "dark", "html theme (dark or light)")
	return cmd
}

// highlightExport colors data formats for the terminal.
func highlightExport(data, format string) string {
	switch strings.ToLower(format) {
	case "json":
		return highlight(data, "json")
	case "yaml", "yml":
		return highlight(data, "yaml")
	case "html":
		return highlight(data, "html")
	default:
		return data
	}
}
