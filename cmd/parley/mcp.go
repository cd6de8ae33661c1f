package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/parley/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Exposes conversations as MCP tools (send_message, start_conversation, get_conversation).

Supported Transports:
- stdio (default): Standard Input/Output, for local agents.
- sse: Server-Sent Events over HTTP, for remote agents.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("transport") {
				a.cfg.MCP.Transport, _ = cmd.Flags().GetString("transport")
			}
			if cmd.Flags().Changed("port") {
				a.cfg.MCP.Port, _ = cmd.Flags().GetInt("port")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := a.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			srv := mcp.NewServer(rt.engine,
				mcp.WithLogger(a.logger),
				mcp.WithMaxInput(a.cfg.Input.MaxSize),
			)

			switch a.cfg.MCP.Transport {
			case "stdio":
				// stdout carries JSON-RPC
				log.SetOutput(os.Stderr)
				a.logger.Info("starting mcp server", "transport", "stdio")
				return srv.ServeStdio()
			case "sse":
				a.logger.Info("starting mcp server", "transport", "sse", "port", a.cfg.MCP.Port)
				if err := srv.ServeSSE(ctx, a.cfg.MCP.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			default:
				return fmt.Errorf("unknown transport %q, supported: stdio, sse", a.cfg.MCP.Transport)
			}
		},
	}
	cmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	cmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
	return cmd
}
