package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/scout"
	httpAdapter "github.com/aretw0/scout/pkg/adapters/http"
	mcpAdapter "github.com/aretw0/scout/pkg/adapters/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the chat UI and the JSON/SSE API over HTTP.
With --mcp-port the MCP server is exposed over SSE on a second port.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAssistant(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.Config()
		logger := a.Logger()

		addr := cfg.Server.Addr
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			addr = ":" + port
		}
		mcpPort := cfg.Server.MCPPort
		if cmd.Flags().Changed("mcp-port") {
			mcpPort, _ = cmd.Flags().GetInt("mcp-port")
		}

		handler, err := httpAdapter.NewHandler(a,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithVersion(scout.Version),
			httpAdapter.WithCORSOrigins(cfg.Server.CORSOrigins...),
			httpAdapter.WithStaticDir(cfg.Server.StaticDir),
			httpAdapter.WithGatherer(a.Gatherer()),
		)
		if err != nil {
			return fmt.Errorf("error building HTTP handler: %w", err)
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("Starting Scout server", "address", srv.Addr, "provider", cfg.Oracle.Provider)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("Shutting down Scout server")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				return srv.Close()
			}
			return nil
		})
		if mcpPort > 0 {
			mcpServer := mcpAdapter.NewServer(a, a.Prompts(), scout.Version, mcpAdapter.WithLogger(logger))
			g.Go(func() error {
				return mcpServer.ServeSSE(gctx, mcpPort)
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}
		logger.Info("Scout server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config, or $PORT)")
	serveCmd.Flags().Int("mcp-port", 0, "Also serve MCP over SSE on this port")
}
