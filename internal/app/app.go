// Package app wires the layoutbench components together and manages the
// server lifecycle.
package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	grpcapi "github.com/arkilian/layoutbench/internal/api/grpc"
	httpapi "github.com/arkilian/layoutbench/internal/api/http"
	"github.com/arkilian/layoutbench/internal/config"
	"github.com/arkilian/layoutbench/internal/server"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// App manages the HTTP and gRPC front ends over one set of components.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	components *Components
	shutdown   *server.ShutdownManager

	httpServer   *http.Server
	httpListener net.Listener
	grpcServer   *grpc.Server
	grpcListener net.Listener

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New validates cfg and creates an App.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{cfg: cfg, logger: logger}, nil
}

// Start opens the components, starts the servers and schedules the bootstrap
// run when enabled.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app is already running")
	}
	a.running = true
	a.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	components, err := NewComponents(ctx, a.cfg, a.logger)
	if err != nil {
		a.cleanup()
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	a.components = components
	a.shutdown = server.NewShutdownManager(0, a.logger)
	a.shutdown.RegisterCloser("store", components.Store)

	if err := a.startHTTP(); err != nil {
		a.cleanup()
		return fmt.Errorf("failed to start http server: %w", err)
	}
	if a.cfg.GRPC.Enabled {
		if err := a.startGRPC(); err != nil {
			a.cleanup()
			return fmt.Errorf("failed to start grpc server: %w", err)
		}
	}
	if a.cfg.Bootstrap.Enabled {
		a.scheduleBootstrap(ctx)
	}

	a.logger.Info("layoutbench started",
		zap.String("http_addr", a.HTTPAddr()),
		zap.Bool("grpc", a.cfg.GRPC.Enabled),
		zap.String("driver", a.cfg.Database.Driver))
	return nil
}

func (a *App) startHTTP() error {
	router := httpapi.NewRouter(httpapi.Options{
		Service:  a.components.Service,
		Metrics:  a.components.Metrics.Handler(),
		Shutdown: a.shutdown.Middleware,
		Logger:   a.logger.Named("http"),
	})

	lis, err := net.Listen("tcp", a.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.HTTP.Addr, err)
	}
	a.httpListener = lis
	a.httpServer = &http.Server{
		Handler:      router,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  a.cfg.HTTP.IdleTimeout,
	}
	a.shutdown.RegisterCloser("http", server.HTTPServerCloser(a.httpServer, 30*time.Second))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.logger.Info("http server listening", zap.String("addr", lis.Addr().String()))
		if err := a.httpServer.Serve(lis); err != nil && err != http.ErrServerClosed {
			a.logger.Error("http server error", zap.Error(err))
		}
	}()
	return nil
}

func (a *App) startGRPC() error {
	lis, err := net.Listen("tcp", a.cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.GRPC.Addr, err)
	}
	a.grpcListener = lis
	a.grpcServer = grpc.NewServer()
	grpcapi.Register(a.grpcServer, a.components.Service, a.logger.Named("grpc"))

	a.shutdown.RegisterCloser("grpc", server.CloserFunc(func() error {
		a.grpcServer.GracefulStop()
		return nil
	}))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.logger.Info("grpc server listening", zap.String("addr", lis.Addr().String()))
		if err := a.grpcServer.Serve(lis); err != nil {
			a.logger.Error("grpc server error", zap.Error(err))
		}
	}()
	return nil
}

// scheduleBootstrap runs the seed-and-sweep hook after the configured delay.
// Shutdown cancels a pending or running hook, and the store is not closed
// until it has returned.
func (a *App) scheduleBootstrap(ctx context.Context) {
	done := make(chan struct{})
	a.shutdown.RegisterCloser("bootstrap", server.CloserFunc(func() error {
		a.cancel()
		<-done
		return nil
	}))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer close(done)
		timer := time.NewTimer(a.cfg.Bootstrap.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		a.logger.Info("bootstrap started", zap.Int("records", a.cfg.Bootstrap.Records))
		report, err := a.components.Service.Bootstrap(ctx, bootstrapOptions(a.cfg))
		if err != nil {
			a.logger.Warn("bootstrap failed", zap.Error(err))
			return
		}
		a.logger.Info("bootstrap finished",
			zap.String("run_id", report.RunID),
			zap.Int("entries", len(report.Entries)),
			zap.Int("failures", report.Failures()),
			zap.Float64("duration_ms", report.DurationMS))
	}()
}

// Stop shuts the servers down and closes the store.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	if a.cancel != nil {
		a.cancel()
	}
	err := a.shutdown.Shutdown(ctx, "stop requested")

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Warn("shutdown timeout, some goroutines may not have finished")
	}

	a.logger.Info("layoutbench stopped")
	return err
}

// WaitForShutdown blocks until a termination signal or ctx cancellation.
func (a *App) WaitForShutdown(ctx context.Context) error {
	return a.shutdown.WaitForSignal(ctx)
}

// HTTPAddr returns the bound HTTP address.
func (a *App) HTTPAddr() string {
	if a.httpListener == nil {
		return ""
	}
	return a.httpListener.Addr().String()
}

// GRPCAddr returns the bound gRPC address, or "" when gRPC is disabled.
func (a *App) GRPCAddr() string {
	if a.grpcListener == nil {
		return ""
	}
	return a.grpcListener.Addr().String()
}

func (a *App) cleanup() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.httpListener != nil {
		a.httpListener.Close()
	}
	if a.components != nil {
		a.components.Close()
	}
	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
}
