package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-sync/internal/app"
	"github.com/vovakirdan/wirechat-sync/internal/config"
	"github.com/vovakirdan/wirechat-sync/internal/log"
)

type rootFlags struct {
	configPath string
	overrides  config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.New("info", "console").Error().Err(err).Msg("wirechat-sync failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "wirechat-sync",
		Short:         "Real-time one-to-one chat client core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to config file")
	pf.StringVar(&flags.overrides.User, "user", "", "local username")
	pf.StringVar(&flags.overrides.RelayURL, "relay", "", "relay WebSocket URL")
	pf.StringVar(&flags.overrides.APIBaseURL, "api-base", "", "relay REST base URL")
	pf.StringVar(&flags.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newServeCmd(flags), newChatCmd(flags))
	return root
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Connect to the relay and expose the conversation over a local HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags.overrides.APIAddr = addr
			cfg, logger, err := loadConfig(flags)
			if err != nil {
				return err
			}
			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			logger.Info().Str("user", cfg.User).Msg("starting wirechat-sync")
			if err := application.Run(cmd.Context()); err != nil {
				return err
			}
			logger.Info().Msg("client stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "local API listen address")
	return cmd
}

func newChatCmd(flags *rootFlags) *cobra.Command {
	var peer string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive terminal chat",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(flags)
			if err != nil {
				return err
			}
			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			conn, err := application.Connect(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			go func() {
				if err := <-conn.Done(); err != nil {
					logger.Warn().Err(err).Msg("relay connection lost")
				}
				cancel()
			}()

			out := cmd.OutOrStdout()
			term := app.NewTerminal(conn.Session, out)
			if peer != "" {
				term.Open(ctx, peer)
			}
			return term.Run(ctx, cmd.InOrStdin())
		},
	}
	cmd.Flags().StringVar(&peer, "peer", "", "open the conversation with this user on start")
	return cmd
}

// loadConfig resolves configuration and builds the logger. The bootstrap
// logger reports config file problems before the configured level is known.
func loadConfig(flags *rootFlags) (config.Config, *zerolog.Logger, error) {
	bootstrap := log.New("info", "console")

	cfg, path, err := config.Load(bootstrap, flags.configPath)
	if err != nil {
		bootstrap.Error().Err(err).Str("path", path).Msg("failed to load config")
		return cfg, bootstrap, err
	}
	cfg.UpdateFrom(flags.overrides)

	return cfg, log.New(cfg.LogLevel, cfg.LogFormat), nil
}
