// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/lingua-tui/internal/cloud"
	"github.com/jeranaias/lingua-tui/internal/logging"
	"github.com/jeranaias/lingua-tui/internal/server"
)

// shutdownTimeout bounds the graceful stop of the relay.
const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat relay",
		Long: `Run the HTTP relay that forwards conversations to the provider.

Clients POST {"messages": [...]} to /api/chat and get {"result": <completion>}
back. The API key stays in this process.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			client := newCloudClient(cfg)
			if !client.IsConfigured() {
				return fmt.Errorf("%w: set API_BASE_URL and API_KEY", cloud.ErrNotConfigured)
			}

			srv := server.NewServer(cfg.Server.Host, cfg.Server.Port, client).
				WithAllowedOrigins(cfg.Server.AllowedOrigins).
				WithLogger(logging.Logger())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, srv, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&host, "host", server.DefaultHost, "listen address")
	cmd.Flags().IntVarP(&port, "port", "p", server.DefaultPort, "listen port")
	return cmd
}

// runServer serves until ctx ends, then shuts the relay down gracefully.
func runServer(ctx context.Context, srv *server.Server, out io.Writer) error {
	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", srv.Addr(), err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	fmt.Fprintf(out, "%s listening on http://%s\n", render(SuccessStyle, "relay"), ln.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)

	// Shutdown is a no-op if Serve has not installed its http.Server yet.
	ln.Close()
	if err := <-errCh; err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return shutdownErr
}
