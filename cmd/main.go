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

	"github.com/spf13/cobra"

	"github.com/okian/vibeverse/internal/adapters/http/api"
	app "github.com/okian/vibeverse/internal/app"
	"github.com/okian/vibeverse/internal/config"
	"github.com/okian/vibeverse/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// cli carries the configuration loaded before any subcommand runs.
type cli struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "vibeverse",
		Short:         "VibeVerse plays music by mood and scores rhythm sessions against it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), c.cfg)
		},
	}
	root.AddCommand(
		newServeCmd(c),
		newTracksCmd(c),
		newPlayCmd(c),
		newLoadTestCmd(),
	)
	return root
}

// init loads configuration (defaults -> optional file -> env) and sets up logging.
func (c *cli) init(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.InitWithConfig(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	c.cfg = cfg
	return nil
}

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), c.cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.Named("main")

	svc, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop(context.Background())

	go startServiceMetricsUpdater(ctx, svc)

	apiServer := api.NewServer(svc,
		api.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		api.WithAllowedOrigins(cfg.CORSAllowedOrigins...),
		api.WithPushInterval(cfg.WSPushInterval()),
	)
	defer apiServer.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Handler(ctx),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	log.Info(ctx, "shutting down server...")

	// Push loops hold hijacked connections that Shutdown does not track.
	apiServer.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// startServiceMetricsUpdater refreshes the gauges derived from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.GetStats(ctx)
		}
	}
}
