package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stats-loader/internal/client"
	"stats-loader/internal/config"
	"stats-loader/internal/loader"
	"stats-loader/internal/logger"
	"stats-loader/internal/surface"
	"stats-loader/internal/tracer"
	"stats-loader/internal/version"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type options struct {
	baseURL string
	path    string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "stats-loader",
		Short:         "Fetch the product list once and print the rendered stats",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version.Version, version.Commit, version.BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "products service base URL (overrides PRODUCTS_BASE_URL)")
	cmd.Flags().StringVar(&opts.path, "path", "", "products resource path (overrides PRODUCTS_PATH)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "request timeout, 0 waits forever (overrides LOADER_TIMEOUT_MS)")
	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	ctx := cmd.Context()
	// stdout carries the rendered surface only
	logger.SetOutput(cmd.ErrOrStderr())
	if opts.baseURL != "" {
		// lets config validation pass when only the flag is given
		_ = os.Setenv("PRODUCTS_BASE_URL", opts.baseURL)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error(ctx, "Invalid configuration", slog.String("error", err.Error()))
		return err
	}
	path := cfg.ProductsPath
	if opts.path != "" {
		path = opts.path
	}
	timeout := time.Duration(cfg.LoaderTimeoutMs) * time.Millisecond
	if cmd.Flags().Changed("timeout") {
		timeout = opts.timeout
	}

	shutdown, err := tracer.Instance(ctx, cfg)
	if err != nil {
		logger.Warn(ctx, "Telemetry unavailable", slog.String("error", err.Error()))
	}
	defer shutdown()

	out := surface.NewWriter(surface.DefaultID, cmd.OutOrStdout())
	l := loader.New(client.NewHTTPClient(cfg.ProductsBaseURL, 0), out,
		loader.WithPath(path),
		loader.WithTimeout(timeout),
	)

	// a failed load has already been printed as the surface content
	return l.Load(ctx)
}
