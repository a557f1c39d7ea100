package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomchat-server/internal/app"
	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/log"
)

func main() {
	var (
		configPath string
		addr       string
		opsAddr    string
		logLevel   string
	)

	root := &cobra.Command{
		Use:   "roomchat-server",
		Short: "Multi-room TCP chat server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			boot := log.New("info")
			cfg, path, err := config.Load(boot, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			// Flags win over file and env.
			if addr != "" {
				cfg.Addr = addr
			}
			if opsAddr != "" {
				cfg.OpsAddr = opsAddr
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).
				Msg("starting roomchat server")

			ctx, stop := signal.NotifyContext(cmd.Context(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := app.New(cfg, logger).Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	root.Flags().StringVar(&addr, "addr", "", "chat listen address")
	root.Flags().StringVar(&opsAddr, "ops-addr", "", "ops HTTP listen address")
	root.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
