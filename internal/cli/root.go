// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jeranaias/lingua-tui/internal/config"
	"github.com/jeranaias/lingua-tui/internal/logging"
)

// Version information (can be overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// app carries state shared by all commands.
type app struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

// config loads the configuration once: the --config file when given,
// otherwise the default location. It also applies the log level.
func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	config.SetGlobal(cfg)
	a.cfg = cfg
	a.applyLogLevel()
	return cfg, nil
}

func (a *app) applyLogLevel() {
	if a.verbose {
		logging.SetVerbose(true)
		return
	}
	if a.cfg == nil {
		return
	}
	level, err := logging.ParseLevel(a.cfg.Log.Level)
	if err != nil {
		logging.Warnf("CONFIG_LOG_LEVEL | %v", err)
	}
	logging.SetLevel(level)
}

// NewRootCmd builds the lingua command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "lingua",
		Short: "Practice a language by chatting with an AI partner",
		Long: `lingua is a terminal chat for language practice.

Write to your partner in the language you are learning. Every reply starts
with a correction of your last message, shown as a word-level diff, and then
carries the conversation on.

Quick Start:
  export API_BASE_URL=https://api.example.com/v1 API_KEY=...
  lingua                         # open the chat screen
  lingua ask "Yo es estudiante"  # one correction, no chat
  lingua serve                   # run the relay for other clients`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			lipgloss.SetColorProfile(GetColorProfile())
			logging.SetVerbose(a.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !IsTTY() || !IsStdoutTTY() {
				return runChatPlain(cmd, a, "")
			}
			return runChatTUI(cmd, a, "")
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.lingua/config.toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newChatCmd(a),
		newAskCmd(a),
		newServeCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", render(ErrorStyle, "Error:"), err)
		var verr config.ValidateErrors
		if errors.As(err, &verr) {
			fmt.Fprintln(os.Stderr, render(DimStyle, "Fix the config file or run `lingua config path` to find it."))
		}
		return 1
	}
	return 0
}
