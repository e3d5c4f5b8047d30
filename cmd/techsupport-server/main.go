package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"techsupport/backend/internal/app"
	"techsupport/backend/internal/config"
	"techsupport/backend/internal/logging"
	grpcTransport "techsupport/backend/internal/transport/grpc"
	"techsupport/backend/internal/transport/rest"
)

func main() {
	configPath := flag.String("config", "", "optional config file (yaml, toml or json)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	log = log.With(zap.String("service", "techsupport-server"))
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	log.Info("starting",
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.String("grpc_addr", cfg.GRPC.Addr),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("day_encoding", cfg.API.DayEncoding),
		zap.String("timezone", cfg.Scheduling.Timezone),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("store close failed", zap.Error(err))
		}
	}()

	handler := rest.NewHandler(a.Availability, a.Slots, a.Appointments, a.Technicians, rest.DayEncoding(cfg.API.DayEncoding), log)
	httpServer := rest.NewServer(handler, a.Tokens, cfg.HTTP.RequestTimeout, log)

	// Bind both listeners before serving so a bad address fails startup with nothing running.
	httpLis, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("http listen on %s: %w", cfg.HTTP.Addr, err)
	}
	httpServer.Listener = httpLis

	var grpcLis net.Listener
	if cfg.GRPC.Addr != "" {
		grpcLis, err = net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			shutdown(log, httpServer, nil, cfg.ShutdownTimeout)
			return fmt.Errorf("grpc listen on %s: %w", cfg.GRPC.Addr, err)
		}
	}

	errCh := make(chan error, 2)
	go func() {
		if err := httpServer.Start(cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	log.Info("http server started", zap.String("http_addr", httpLis.Addr().String()))

	var grpcServer *grpc.Server
	if grpcLis != nil {
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(grpcTransport.TimeoutInterceptor(cfg.GRPC.RequestTimeout)))
		grpcTransport.RegisterSchedulingServer(grpcServer, grpcTransport.NewServer(a.Availability, a.Slots, a.Appointments, log))
		go func() {
			if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
		log.Info("grpc server started", zap.String("grpc_addr", grpcLis.Addr().String()))
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	shutdown(log, httpServer, grpcServer, cfg.ShutdownTimeout)
	return runErr
}

func shutdown(log *zap.Logger, e *echo.Echo, s *grpc.Server, timeout time.Duration) {
	log.Info("shutting down", zap.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown failed", zap.Error(err))
	}
	if e.Listener != nil {
		// Shutdown only closes listeners a running server owns.
		_ = e.Listener.Close()
	}
	if s == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-ctx.Done():
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}
