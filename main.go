package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/iedon/talks-site-go/config"
	"github.com/iedon/talks-site-go/server"
	"github.com/iedon/talks-site-go/site"
	"github.com/iedon/talks-site-go/watcher"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// defaultConfigPath is read when present; a missing file means defaults.
const defaultConfigPath = "config.json"

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:          "talks-site",
		Short:        "Build and serve the training catalogue site",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath, "path to configuration file (empty to use defaults)")

	root.AddCommand(
		&cobra.Command{
			Use:   "build",
			Short: "Render the site into the output directory",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withService(cmd.Context(), configPath(cmd, cfgPath), func(ctx context.Context, cfg *config.Config, svc *site.Service, logger *slog.Logger) error {
					if err := svc.BuildStatic(ctx); err != nil {
						return fmt.Errorf("build: %w", err)
					}
					logger.Info("static build completed", "output", cfg.OutputDir)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "Verify that every page code has a talk entry",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withService(cmd.Context(), configPath(cmd, cfgPath), func(ctx context.Context, cfg *config.Config, svc *site.Service, logger *slog.Logger) error {
					if err := svc.Check(ctx); err != nil {
						return err
					}
					logger.Info("check passed", "talks", svc.Talks().Len())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Serve pages live and rebuild on change",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withService(cmd.Context(), configPath(cmd, cfgPath), serve)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), SERVER_SIGNATURE)
			},
		},
	)
	return root
}

// configPath drops the default config file when it does not exist, so a fresh
// checkout runs on defaults. An explicit --config must exist.
func configPath(cmd *cobra.Command, path string) string {
	if cmd.Flags().Changed("config") {
		return path
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return ""
	}
	return path
}

type serviceFunc func(ctx context.Context, cfg *config.Config, svc *site.Service, logger *slog.Logger) error

func withService(parent context.Context, cfgPath string, fn serviceFunc) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := site.NewService(cfg, afero.NewOsFs(), logger)
	if err := svc.Reload(ctx); err != nil {
		logger.Error("load", "error", err)
		return err
	}
	if err := fn(ctx, cfg, svc, logger); err != nil {
		logger.Error("command failed", "error", err)
		return err
	}
	return nil
}

func serve(ctx context.Context, cfg *config.Config, svc *site.Service, logger *slog.Logger) error {
	if err := svc.BuildStatic(ctx); err != nil {
		logger.Warn("static build", "error", err)
	}

	roots := []string{cfg.ContentDir, cfg.TemplateDir, filepath.Dir(cfg.DataFile)}
	w, err := watcher.New(svc, logger, cfg.WatchDebounce, roots, cfg.OutputDir)
	if err != nil {
		return err
	}
	go w.Run(ctx)

	srv := server.New(cfg, svc, logger, SERVER_SIGNATURE)
	return srv.Start(ctx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
