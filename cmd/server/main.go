package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appprogress "github.com/hsa8903-tech/ulsan-daun/internal/application/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/config"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/event"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/logger"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/persistence"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/telemetry"
	"github.com/hsa8903-tech/ulsan-daun/internal/interfaces/http/handler"
	"github.com/hsa8903-tech/ulsan-daun/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting site progress server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	traceCfg, metricsCfg := telemetry.ConfigFrom(&cfg.Telemetry)
	tp, err := telemetry.NewTracerProvider(ctx, traceCfg, log)
	if err != nil {
		return err
	}
	mp, err := telemetry.NewMeterProvider(ctx, metricsCfg, log)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(log, tp, mp)

	var metrics *telemetry.ProgressMetrics
	if mp.IsEnabled() {
		if metrics, err = telemetry.NewProgressMetrics(mp.Meter(telemetry.TracerName)); err != nil {
			log.Warn("Progress metrics unavailable", zap.Error(err))
		}
	}

	repo, err := persistence.OpenSnapshotRepository(ctx, cfg, log)
	if err != nil {
		return err
	}

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(appprogress.NewActivityHandler(log, metrics))

	deps, err := appprogress.DepsFromConfig(cfg)
	if err != nil {
		_ = repo.Close()
		return err
	}
	deps.Repository = repo
	deps.Logger = log
	deps.EventBus = bus
	deps.Metrics = metrics

	svc, err := appprogress.Open(ctx, deps)
	if err != nil {
		_ = repo.Close()
		return err
	}
	for _, n := range svc.Notices() {
		log.Info("Startup notice", zap.String("level", string(n.Level)), zap.String("grid", n.Grid), zap.String("message", n.Message))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.NewEngine(router.EngineConfig{
		HTTP:           cfg.HTTP,
		Logger:         log,
		ServiceName:    traceCfg.ServiceName,
		Tracing:        tp.IsEnabled(),
		MeterProvider:  mp,
		RequestTimeout: cfg.HTTP.WriteTimeout,
	})
	router.NewRouter(engine).
		Register(handler.NewSystemHandler(cfg.Site.Name, telemetry.ServiceVersion, cfg.Storage.Driver, svc)).
		Register(handler.NewProgressHandler(svc)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var serveErr error
	select {
	case <-quit:
		log.Info("Shutting down server...")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := svc.Close(shutdownCtx); err != nil {
		log.Error("Error closing snapshot repository", zap.Error(err))
	}
	return serveErr
}

func shutdownTelemetry(log *zap.Logger, tp *telemetry.TracerProvider, mp *telemetry.MeterProvider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mp.Shutdown(ctx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
}
