package main

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shipments/internal/amqp"
	"shipments/internal/cli"
	"shipments/internal/config"
	"shipments/internal/log"
	"shipments/internal/store"
	"shipments/internal/store/google"
	"shipments/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadConfig((*config.Config).ValidateMirror)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting shipments-mirror")

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	sheet, err := google.Open(ctx, google.Config{
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		SheetName:     cfg.GoogleSheetName,
		Credentials: google.Credentials{
			JSON: cfg.GoogleServiceAccountJSON,
			File: cfg.GoogleServiceAccountFile,
		},
	}, store.WithLogger(log.Named(logger, log.ComponentSheets)))
	if err != nil {
		cli.Fatal(logger, "failed to initialize Google Sheets client", err)
	}
	if err := sheet.EnsureInitialized(ctx); err != nil {
		cli.Fatal(logger, "failed to prepare sheet", err, zap.String("sheet", cfg.GoogleSheetName))
	}
	logger.Info("Google Sheets client initialized",
		zap.String("spreadsheet_id", cfg.GoogleSpreadsheetID),
		zap.String("sheet", cfg.GoogleSheetName))

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		cli.Fatal(logger, "failed to connect to AMQP", err)
	}
	defer func() { _ = amqpClient.Close() }()

	mirror := worker.NewMirrorWorker(sheet, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeShipmentRecorded(gctx, mirror.Handle)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("message consumption failed", log.Op(log.OpConsume), zap.Error(err))
		return
	}
	logger.Info("shipments-mirror stopped")
}
