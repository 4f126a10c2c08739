package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zpam/phish-filter/pkg/milter"
	"go.uber.org/zap"
)

var (
	milterNetwork string
	milterAddress string
)

var milterCmd = &cobra.Command{
	Use:   "milter",
	Short: "Start milter server for Postfix/Sendmail integration",
	Long: `Start a milter server that classifies incoming mail with the trained model.

Each message gets X-Phish-Status, X-Phish-Score, X-Phish-Indicators and
X-Phish-Model headers; with reject_enabled, messages whose phishing
probability reaches reject_threshold are refused with a 550.

For Postfix integration, add to main.cf:
  smtpd_milters = inet:127.0.0.1:7357
  non_smtpd_milters = inet:127.0.0.1:7357
  milter_default_action = accept`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("network") {
			cfg.Milter.Network = milterNetwork
		}
		if cmd.Flags().Changed("address") {
			cfg.Milter.Address = milterAddress
		}
		cfg.Milter.Enabled = true

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		model, err := loadModel(context.Background(), cfg, cfg.Learning.ModelName, logger)
		if err != nil {
			return err
		}

		if cfg.Milter.Network == "unix" {
			os.Remove(cfg.Milter.Address)
		}
		listener, err := net.Listen(cfg.Milter.Network, cfg.Milter.Address)
		if err != nil {
			return fmt.Errorf("failed to create listener: %w", err)
		}
		defer listener.Close()

		server, err := milter.NewServer(cfg, model, logger)
		if err != nil {
			return fmt.Errorf("failed to create milter server: %w", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		serverErr := make(chan error, 1)
		go func() {
			fmt.Printf("🎣 phish-filter milter starting on %s://%s\n", cfg.Milter.Network, cfg.Milter.Address)
			fmt.Printf("🧠 Model: %s (%s)\n", cfg.Learning.ModelName, model.ID)
			fmt.Printf("🎯 Thresholds: flag >= %.2f", cfg.Detection.PhishingThreshold)
			if cfg.Milter.RejectEnabled {
				fmt.Printf(", reject >= %.2f", cfg.Milter.RejectThreshold)
			}
			fmt.Printf("\n🚀 Press Ctrl+C to stop\n\n")

			serverErr <- server.Serve(ctx, listener)
		}()

		select {
		case <-sigChan:
			fmt.Printf("\n🛑 Shutdown signal received, stopping milter server...\n")

			shutdownCtx, shutdownCancel := context.WithTimeout(
				context.Background(),
				time.Duration(cfg.Milter.GracefulShutdownTimeout)*time.Millisecond,
			)
			defer shutdownCancel()

			cancel()

			select {
			case err := <-serverErr:
				if err != nil && err != context.Canceled {
					logger.Warn("milter shutdown with error", zap.Error(err))
				} else {
					fmt.Printf("✅ Milter server stopped gracefully (%d sessions)\n", server.Stats().MilterCount)
				}
			case <-shutdownCtx.Done():
				fmt.Printf("⏰ Shutdown timeout exceeded, forcing stop\n")
			}

		case err := <-serverErr:
			if err != nil {
				return fmt.Errorf("milter server error: %w", err)
			}
		}

		return nil
	},
}

func init() {
	milterCmd.Flags().StringVarP(&milterNetwork, "network", "n", "", "Network type (tcp or unix)")
	milterCmd.Flags().StringVarP(&milterAddress, "address", "a", "", "Bind address (e.g., 127.0.0.1:7357 or /tmp/phish-filter.sock)")
}
