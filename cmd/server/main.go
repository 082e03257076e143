package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vredis/internal/config"
	"vredis/internal/serverio"
	"vredis/internal/store"
)

const numDatabases = 16

func main() {
	host := flag.String("host", "127.0.0.1", "host to bind to")
	port := flag.Int("port", 6379, "port to listen on")
	maxConnections := flag.Int("max-connections", 10000, "maximum concurrent client connections")
	devLog := flag.Bool("dev-log", false, "use zap's development logging config instead of production")
	flag.Parse()

	logger, err := newLogger(*devLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vredis: failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	runID := uuid.NewString()
	cfg := config.New()
	st := store.New(cfg, numDatabases, runID)

	addr := net.JoinHostPort(*host, fmt.Sprintf("%d", *port))
	listener := serverio.New(addr, st, cfg, *maxConnections, logger.Named("server"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return st.Run(gctx)
	})
	g.Go(func() error {
		return listener.Run(gctx)
	})

	logger.Info("starting vredis",
		zap.String("run_id", runID),
		zap.String("addr", addr),
		zap.Int("max_connections", *maxConnections),
	)

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		logger.Error("fatal error, shutting down", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopmentConfig().Build()
	}
	return zap.NewProductionConfig().Build()
}
