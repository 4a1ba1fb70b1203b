package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-verify/internal/config"
	"github.com/kozaktomas/face-verify/internal/database"
	"github.com/kozaktomas/face-verify/internal/database/postgres"
	"github.com/kozaktomas/face-verify/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the verification API server",
	Long: `Start the HTTP API. POST /verify_identity accepts a multipart upload with
profile_image and live_video and returns the liveness and match verdicts.
Set DATABASE_URL to keep an audit log of verification attempts.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
	serveCmd.Flags().String("temp-dir", "", "Directory for staged uploads (defaults to the system temp dir)")
}

// applyServeFlags lets explicit flags win over environment configuration.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
}

// initAttemptLog connects the audit log when DATABASE_URL is set and returns
// the store, or nil when the log is disabled.
func initAttemptLog(ctx context.Context, cfg *config.Config) (database.AttemptWriter, error) {
	if cfg.Database.URL == "" {
		slog.Info("attempt log: disabled, DATABASE_URL not set")
		return nil, nil
	}

	slog.Info("attempt log: connecting to PostgreSQL")
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	writer, err := database.GetAttemptWriter(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting attempt store: %w", err)
	}
	slog.Info("attempt log: enabled")
	return writer, nil
}

func newServer(ctx context.Context, cfg *config.Config, tempDir string) (*web.Server, error) {
	service := buildService(ctx, cfg, tempDir)

	store, err := initAttemptLog(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return web.NewServer(cfg, service, nil), nil
	}
	return web.NewServer(cfg, service.WithRecorder(store), store), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := newServer(ctx, cfg, mustGetString(cmd, "temp-dir"))
	if err != nil {
		return err
	}
	defer func() {
		if pool := postgres.GetGlobalPool(); pool != nil {
			if err := pool.Close(); err != nil {
				slog.Warn("attempt log: closing pool failed", "error", err)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("serve: signal received, shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("serve: shutdown failed", "error", err)
		}
	}()

	slog.Info("serve: verification API ready", "addr", server.Addr(), "model", cfg.Face.Model)

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
