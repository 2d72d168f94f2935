package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shipments/internal/amqp"
	"shipments/internal/backend"
	"shipments/internal/catalog"
	"shipments/internal/cli"
	apphttp "shipments/internal/http"
	"shipments/internal/log"
	"shipments/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadConfig(nil)
	defer func() { _ = logger.Sync() }()

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "invalid backend configuration", err)
	}
	result, err := backend.NewFactory(log.Named(logger, log.ComponentBackend)).CreateBackend(ctx, backendCfg)
	if err != nil {
		cli.Fatal(logger, "failed to create backend", err, zap.String(log.FieldBackend, cfg.DataBackend))
	}

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		cli.Fatal(logger, "failed to load catalog", err, zap.String("path", cfg.CatalogFile))
	}

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithPolicy(cfg.Policy()),
		services.WithCloser("backend", result.Close),
	}
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			cli.Fatal(logger, "failed to connect to AMQP", err)
		}
		opts = append(opts, services.WithPublisher(amqpClient), services.WithCloser("amqp", amqpClient.Close))
		logger.Info("publishing shipment events", zap.String("exchange", cfg.AMQPExchange))
	}
	svc := services.NewShipmentService(result.Store, opts...)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("failed to release resources", log.Op(log.OpShutdown), zap.Error(err))
		}
	}()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = svc.Initialize(initCtx)
	cancel()
	if err != nil {
		// the server still starts; pages report the store as unavailable
		logger.Error("failed to initialize store", log.Op(log.OpInit), zap.Error(err))
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, cat, apphttp.Options{
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	appLogger := log.Named(logger, log.ComponentApp)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info("starting shipments server", log.Op(log.OpStartup),
			zap.String("port", cfg.Port),
			zap.String(log.FieldBackend, cfg.DataBackend),
			zap.String("quantity_policy", cfg.Policy().Name))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("shutting down server", log.Op(log.OpShutdown))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("server error", zap.Error(err))
		return
	}
	appLogger.Info("server stopped gracefully")
}
