// blobd serves the JSON blob store that swiftrun devices share a run
// through. Blobs live in memory and expire after --ttl without writes.
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

	"github.com/spf13/pflag"

	"github.com/five82/swiftrun/internal/blobserver"
	"github.com/five82/swiftrun/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "blobd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr     string
		ttl      time.Duration
		sweep    time.Duration
		maxBytes int64
		logLevel string
	)
	flagSet := pflag.NewFlagSet("blobd", pflag.ContinueOnError)
	flagSet.StringVar(&addr, "addr", ":7490", "listen address")
	flagSet.DurationVar(&ttl, "ttl", blobserver.DefaultTTL, "drop blobs not written for this long (0 keeps them forever)")
	flagSet.DurationVar(&sweep, "sweep", time.Hour, "how often expired blobs are removed")
	flagSet.Int64Var(&maxBytes, "max-bytes", blobserver.DefaultMaxBytes, "largest accepted blob body")
	flagSet.StringVar(&logLevel, "log-level", "info", "debug, info, warn, or error")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if _, err := logging.ParseLevel(logLevel); err != nil {
		return err
	}
	logger := logging.New(os.Stderr, logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := blobserver.NewMemStore(nil, ttl)
	go store.RunSweeper(ctx, sweep, logger)

	srv := blobserver.New(blobserver.Options{
		Store:    store,
		Logger:   logger,
		MaxBytes: maxBytes,
	})
	server := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("blobd listening", "addr", addr, "ttl", ttl, "max_bytes", maxBytes)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("blobd stopped", "blobs", store.Len())
	return nil
}
