package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/config"
	"github.com/jonathan/resume-matcher/internal/insights"
	"github.com/jonathan/resume-matcher/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: "Start an HTTP server that scores documents and proxies AI requests. " +
			"The AI endpoints require a bearer token; mint one with 'token'. Requires JWT_SECRET.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jwtCfg, err := config.NewJWTConfig()
			if err != nil {
				return err
			}

			srv, err := server.New(server.Config{
				Port:      port,
				Scoring:   a.cfg.Scoring(),
				Insights:  insights.DefaultOptions(),
				Optimizer: a.llmOptimizer(),
				JWT:       jwtCfg,
				Logger:    a.logger,
			})
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Start(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")
	return cmd
}
