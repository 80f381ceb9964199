package main

import (
	"context"
	"errors"
	"fmt"
	"moviehub/proj/internal/lib/logger"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

func (app *Application) serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(app.cfg.Server.Host, app.cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	app.log.Info("starting server", "url", fmt.Sprintf("http://%s", ln.Addr()), "backend", app.cfg.API.BaseURL)
	return app.serveListener(ctx, ln)
}

// serveListener serves the agent API on ln until ctx is done, then drains
// in-flight requests within the configured shutdown timeout.
func (app *Application) serveListener(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:      app.routes(),
		ReadTimeout:  app.cfg.Server.ReadTimeout,
		WriteTimeout: app.cfg.Server.WriteTimeout,
		IdleTimeout:  app.cfg.Server.IdleTimeout,
		ErrorLog:     logger.LogAdapter(app.log),
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		app.log.Info("shutting down the server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				app.log.Error("graceful shutdown timed out.. forcing exit", "timeout", app.cfg.Server.ShutdownTimeout)
				return fmt.Errorf("graceful shutdown timed out: %w", err)
			}
			return err
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return err
	}
	app.log.Info("server stopped")
	return nil
}
