// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/lingua-tui/internal/config"
	"github.com/jeranaias/lingua-tui/internal/logging"
	"github.com/jeranaias/lingua-tui/internal/session"
	"github.com/jeranaias/lingua-tui/internal/storage"
	"github.com/jeranaias/lingua-tui/internal/ui/chat"
	"github.com/jeranaias/lingua-tui/internal/ui/styles"
)

func newChatCmd(a *app) *cobra.Command {
	var (
		plain  bool
		chatID string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the practice chat",
		Long: `Open the practice chat.

By default this starts the full-screen chat with the history sidebar. With
--plain it runs a line-based chat instead, which works over any terminal and
keeps input history in ~/.lingua/chat_history.

Line chat commands:
  /new            start a new chat
  /list           list saved chats
  /open <n|id>    open a chat from /list
  /delete <n|id>  delete a chat
  /quit           leave`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if plain || !IsTTY() || !IsStdoutTTY() {
				return runChatPlain(cmd, a, chatID)
			}
			return runChatTUI(cmd, a, chatID)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "line-based chat instead of the full screen")
	cmd.Flags().StringVar(&chatID, "open", "", "open this chat id instead of the most recent")
	return cmd
}

// openSession loads config, storage and the completer for a chat command.
func openSession(a *app) (*session.Session, session.Completer, storage.Backend, *config.Config, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	completer, desc, err := buildCompleter(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	store, backend, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	sess := session.New(store).WithTitleGeneration(cfg.Client.GenerateTitles)
	if err := sess.Open(); err != nil {
		logging.Warnf("SESSION_OPEN | error=%v", err)
	}
	logging.Infof("CHAT_START | completer=%q backend=%s", desc, cfg.Storage.Backend)
	return sess, completer, backend, cfg, nil
}

// =============================================================================
// FULL-SCREEN CHAT
// =============================================================================

func runChatTUI(cmd *cobra.Command, a *app, chatID string) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}

	// The screen owns the terminal, so logs go to a file.
	if path, err := cfg.LogPath(); err == nil {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err == nil {
			if f, err := logging.OpenFile(path); err == nil {
				defer f.Close()
				defer logging.SetOutput(os.Stderr)
			} else {
				logging.SetOutput(io.Discard)
			}
		}
	}

	sess, completer, backend, cfg, err := openSession(a)
	if err != nil {
		logging.SetOutput(os.Stderr)
		return err
	}
	defer backend.Close()

	if chatID != "" {
		if err := sess.Select(chatID); err != nil {
			return fmt.Errorf("open chat %s: %w", chatID, err)
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	changes, err := storage.WatchBackend(ctx, backend)
	if err != nil {
		logging.Warnf("WATCH_FAILED | error=%v", err)
	}

	m := chat.New(sess, completer, styles.NewTheme(cfg.UI.Theme), chat.Options{
		ShowDiffStats: cfg.UI.ShowDiffStats,
		Timeout:       2 * cfg.ProviderTimeout(),
		Changes:       changes,
	})

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

// =============================================================================
// LINE CHAT
// =============================================================================

func runChatPlain(cmd *cobra.Command, a *app, chatID string) error {
	sess, completer, backend, cfg, err := openSession(a)
	if err != nil {
		return err
	}
	defer backend.Close()

	if chatID != "" {
		if err := sess.Select(chatID); err != nil {
			return fmt.Errorf("open chat %s: %w", chatID, err)
		}
	}

	input := newLineInput()
	defer input.Close()

	lc := &lineChat{
		sess:      sess,
		completer: completer,
		timeout:   2 * cfg.ProviderTimeout(),
		out:       cmd.OutOrStdout(),
	}
	return lc.Run(cmd.Context(), input.ReadLine)
}

// lineInput provides input history and line editing for the line chat.
type lineInput struct {
	line        *liner.State
	historyFile string
}

func newLineInput() *lineInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	in := &lineInput{line: line, historyFile: filepath.Join(dir, "chat_history")}

	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

// ReadLine reads one line, adding non-blank input to the history.
func (in *lineInput) ReadLine(prompt string) (string, error) {
	text, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) != "" {
		in.line.AppendHistory(text)
	}
	return text, nil
}

// Close saves the history with owner-only permissions and restores the
// terminal.
func (in *lineInput) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			in.line.WriteHistory(f)
			f.Close()
		}
	}
	in.line.Close()
}

// lineChat drives a Session from a line reader. Each send completes before
// the next prompt.
type lineChat struct {
	sess      *session.Session
	completer session.Completer
	timeout   time.Duration
	out       io.Writer
}

// errQuit ends the line chat loop.
var errQuit = errors.New("quit")

// Run reads lines until EOF, an aborted prompt or /quit.
func (c *lineChat) Run(ctx context.Context, read func(prompt string) (string, error)) error {
	c.printHeader()
	printConversation(c.out, c.sess.View())

	for {
		text, err := read("you> ")
		if err != nil {
			fmt.Fprintln(c.out)
			return nil
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if err := c.handle(ctx, text); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(c.out, "%s %v\n", render(ErrorStyle, "[Error]"), err)
		}
	}
}

func (c *lineChat) handle(ctx context.Context, text string) error {
	if strings.EqualFold(text, "exit") || strings.EqualFold(text, "quit") {
		return errQuit
	}
	if !strings.HasPrefix(text, "/") {
		return c.send(ctx, text)
	}

	fields := strings.Fields(text)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "/quit", "/exit", "/q":
		return errQuit

	case "/new":
		err := c.sess.NewChat()
		c.printHeader()
		return err

	case "/list", "/history":
		c.printHistory()
		return nil

	case "/open":
		found, err := resolveChat(c.sess.History(), arg)
		if err != nil {
			return err
		}
		if err := c.sess.Select(found.ID); err != nil {
			return err
		}
		c.printHeader()
		printConversation(c.out, c.sess.View())
		return nil

	case "/delete":
		found, err := resolveChat(c.sess.History(), arg)
		if err != nil {
			return err
		}
		if err := c.sess.Delete(found.ID); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s %s\n", render(SuccessStyle, "Deleted"), found.DisplayTitle())
		c.printHeader()
		return nil

	case "/help":
		fmt.Fprintln(c.out, render(PromptStyle, "/new  /list  /open <n|id>  /delete <n|id>  /quit"))
		return nil

	default:
		return fmt.Errorf("unknown command %s (try /help)", fields[0])
	}
}

func (c *lineChat) send(ctx context.Context, text string) error {
	before := len(c.sess.View())

	p, err := c.sess.BeginSend(text)
	if err != nil {
		return err
	}

	sendCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	fmt.Fprintln(c.out, render(DimStyle, chat.ThinkingText))
	reply := session.Run(sendCtx, c.completer, p)
	saveErr := c.sess.Complete(p, reply)

	entries := c.sess.View()
	if before > len(entries) {
		before = len(entries)
	}
	fmt.Fprintln(c.out)
	printConversation(c.out, entries[before:])
	fmt.Fprintln(c.out)

	if reply.Err != nil {
		logging.Debugf("LINE_SEND_FAILED | error=%v", reply.Err)
	}
	return saveErr
}

func (c *lineChat) printHeader() {
	fmt.Fprintf(c.out, "%s %s\n", render(TitleStyle, "Chat:"), c.sess.ActiveTitle())
	fmt.Fprintln(c.out, RenderSeparator(40))
}

func (c *lineChat) printHistory() {
	history := c.sess.History()
	if len(history) == 0 {
		fmt.Fprintln(c.out, render(DimStyle, "No saved chats."))
		return
	}
	now := time.Now()
	for i, h := range history {
		marker := " "
		if h.ID == c.sess.ActiveID() {
			marker = "*"
		}
		fmt.Fprintf(c.out, "%s %2d. %s %s\n", marker, i+1, h.DisplayTitle(),
			render(DimStyle, storage.FormatAge(h.LastUpdated, now)))
	}
}

// resolveChat finds a chat by 1-based position in chats, exact id or unique
// id prefix.
func resolveChat(chats []storage.StoredChat, ref string) (*storage.StoredChat, error) {
	if ref == "" {
		return nil, errors.New("missing chat number or id")
	}

	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(chats) {
		return &chats[n-1], nil
	}

	var match *storage.StoredChat
	for i := range chats {
		if chats[i].ID == ref {
			return &chats[i], nil
		}
		if strings.HasPrefix(chats[i].ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("%q matches more than one chat", ref)
			}
			match = &chats[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrChatNotFound, ref)
	}
	return match, nil
}
