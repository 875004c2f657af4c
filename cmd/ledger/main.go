package main

import (
	"context"
	"errors"
	"os"
	"time"

	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/console"
	"ledger/internal/core"
	"ledger/internal/ledger"
	"ledger/internal/log"
)

func main() {
	cli.LoadEnvFile()

	bootLogger := cli.SetupLogger(nil)
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	logger = logger.With(log.FieldBackend, backendConfig.Type.String())

	ctx := context.Background()
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}

	opts := []ledger.Option{
		ledger.WithLogger(logger),
		ledger.WithPolicy(core.Policy{AllowNegative: cfg.AllowNegativeAmounts}),
	}
	if res.Notifier != nil {
		opts = append(opts, ledger.WithNotifier(res.Notifier))
	}

	l, err := ledger.Open(ctx, res.Store, opts...)
	if err != nil {
		// a corrupt ledger must not be overwritten by an empty one
		logger.Error("Failed to load ledger", log.FieldError, err, log.FieldOperation, log.OpStartup)
		cleanup(logger, res)
		os.Exit(1)
	}

	shutdownCtx, shutdownDone := cli.GracefulShutdown(logger, 10*time.Second, func(ctx context.Context) {
		if err := l.Close(ctx); err != nil {
			logger.Error("Failed to save ledger on shutdown", log.FieldError, err)
		}
	})

	menuDone := make(chan error, 1)
	go func() {
		menuDone <- console.New(l, os.Stdin, os.Stdout,
			console.WithCurrency(cfg.CurrencySymbol),
			console.WithLogger(logger),
		).Run(shutdownCtx)
	}()

	select {
	case err = <-menuDone:
		if errors.Is(err, context.Canceled) {
			// the signal handler owns the final save
			<-shutdownDone
			err = nil
		}
		if err != nil {
			logger.Error("Menu stopped", log.FieldError, err)
		}
	case <-shutdownDone:
	}

	cleanup(logger, res)
	if err != nil {
		os.Exit(1)
	}
}

func cleanup(logger *log.Logger, res *backend.BackendResult) {
	if res.Cleanup == nil {
		return
	}
	if err := res.Cleanup(); err != nil {
		logger.Error("Failed to release backend", log.FieldError, err)
	}
}
