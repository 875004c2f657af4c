package backend

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/storage"
	"ledger/internal/storage/flatfile"
	"ledger/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store      storage.Store
		closeStore func() error
	)
	switch config.Type {
	case FileBackend:
		store = flatfile.New(config.LedgerFile)
		f.logger.InfoContext(ctx, "Initialized file backend", "path", config.LedgerFile)
	case SQLiteBackend:
		repo, err := sqlite.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		store, closeStore = repo, repo.Close
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result := &BackendResult{Store: store}

	// AMQP is optional; the ledger works without it
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			amqpClient = client
			result.Notifier = client
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	result.Cleanup = func() error {
		var g errgroup.Group
		if closeStore != nil {
			g.Go(func() error {
				if err := closeStore(); err != nil {
					return fmt.Errorf("storage: %w", err)
				}
				return nil
			})
		}
		if amqpClient != nil {
			g.Go(func() error {
				if err := amqpClient.Close(); err != nil {
					return fmt.Errorf("amqp: %w", err)
				}
				return nil
			})
		}
		return g.Wait()
	}

	return result, nil
}
