package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	airport "github.com/hugr-lab/airport-a5"
	"github.com/hugr-lab/airport-a5/a5"
	"github.com/hugr-lab/airport-a5/a5/ffi"
	"github.com/hugr-lab/airport-a5/functions"
	"github.com/hugr-lab/airport-a5/internal/a5mock"
	"github.com/hugr-lab/airport-a5/internal/logger"
	"github.com/hugr-lab/airport-a5/internal/metrics"
)

func newServeCmd() *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Flight server and the admin HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.resolve(cmd, os.Getenv)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	flags.register(cmd)
	return cmd
}

// openLibrary returns the configured backend, wrapped in the LRU cache
// when enabled.
func openLibrary(cfg Config) (a5.Library, error) {
	var lib a5.Library
	switch cfg.Library {
	case libraryMock:
		lib = a5mock.New()
	default:
		native, err := ffi.New()
		if err != nil {
			return nil, err
		}
		lib = native
	}
	if cfg.Cache.Size == 0 {
		return lib, nil
	}
	cached, err := a5.NewCachedLibrary(lib, cfg.Cache.Size)
	if err != nil {
		return nil, err
	}
	return cached, nil
}

func serve(ctx context.Context, cfg Config) error {
	zl := logger.Build(logger.Config{
		Level:     cfg.Log.Level,
		Console:   cfg.Log.Console,
		Component: "a5-airport",
	}, os.Stdout)
	log := logger.NewSlog(&zl)

	lib, err := openLibrary(cfg)
	if err != nil {
		return fmt.Errorf("open A5 library %q: %w", cfg.Library, err)
	}

	allocator := memory.NewGoAllocator()
	cat, err := airport.NewA5Catalog(lib, cfg.Schema, functions.WithAllocator(allocator))
	if err != nil {
		return err
	}

	prom := metrics.Init(metrics.Config{Build: metrics.BuildInfo{Version: version, Revision: commit}})

	serverCfg := airport.ServerConfig{
		Catalog:        cat,
		Allocator:      allocator,
		Logger:         log,
		MaxMessageSize: cfg.MaxMessageSize,
		Address:        cfg.PublicAddress,
		Observer:       prom,
	}
	if len(cfg.Auth.Tokens) > 0 {
		serverCfg.Auth = airport.StaticTokens(cfg.Auth.tokenIdentities())
	}

	grpcServer := grpc.NewServer(airport.ServerOptions(serverCfg)...)
	if err := airport.NewServer(grpcServer, serverCfg); err != nil {
		return err
	}

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Listen, err)
	}

	var ready readiness
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("flight listen",
			"addr", lis.Addr().String(),
			"schema", cfg.Schema,
			"library", cfg.Library,
			"cache_size", cfg.Cache.Size,
			"auth", len(cfg.Auth.Tokens) > 0,
			"version", version,
		)
		ready.set(true)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		ready.set(false)
		log.Info("shutting down")
		grpcServer.GracefulStop()
		return nil
	})
	if cfg.AdminListen != "" {
		g.Go(func() error {
			return runAdmin(gctx, cfg.AdminListen, adminRouter(prom.Handler(), &ready), log)
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Error("server stopped", "error", err)
		return err
	}
	return nil
}

