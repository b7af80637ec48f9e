package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gasolina/internal/adapters"
	"gasolina/internal/amqp"
	"gasolina/internal/core"
	"gasolina/internal/log"
	"gasolina/internal/ports/memory"
	"gasolina/internal/services"
	"gasolina/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	clock  core.Clock
	// dial is swapped in tests so no broker is needed.
	dial func(url, exchange, queue string) (adapters.EventSink, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	return newFactory(logger, core.SystemClock)
}

func newFactory(logger *slog.Logger, clock core.Clock) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger.With(log.FieldComponent, log.ComponentBackend),
		clock:  clock,
		dial: func(url, exchange, queue string) (adapters.EventSink, error) {
			client, err := amqp.NewClient(url, exchange, queue)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		res, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := f.seedIDs(ctx, res); err != nil {
		_ = res.close()
		return nil, err
	}
	f.attachPublisher(res, config)
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{
		Store:   repo,
		Pinger:  repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	if config.DataFile == "" {
		f.logger.Info("Initialized memory backend", "persistent", false)
		return &BackendResult{Store: memory.New()}, nil
	}

	store, err := memory.NewFromFile(config.DataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}
	f.logger.Info("Initialized memory backend", "data_file", config.DataFile, "persistent", true)
	return &BackendResult{Store: store}, nil
}

// seedIDs makes sure new ids never collide with stored ones, even when the
// clock is behind the newest id.
func (f *DefaultFactory) seedIDs(ctx context.Context, res *BackendResult) error {
	entries, err := res.Store.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("load existing entries: %w", err)
	}
	res.IDs = core.NewIDSource(f.clock)
	for _, e := range entries {
		res.IDs.Observe(e.ID)
	}
	return nil
}

// attachPublisher connects to AMQP when configured. A broker that cannot be
// reached only disables change events.
func (f *DefaultFactory) attachPublisher(res *BackendResult, config Config) {
	if !config.PublishesEvents() {
		return
	}
	sink, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return
	}

	pub := adapters.NewAMQPPublisher(sink)
	res.Publisher = pub
	storeCleanup := res.Cleanup
	res.Cleanup = func() error {
		err := pub.Close()
		if storeCleanup != nil {
			err = errors.Join(err, storeCleanup())
		}
		return err
	}
	f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
}

func (r *BackendResult) close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

var (
	_ services.EntryStore = (*storage.SQLiteRepository)(nil)
	_ services.EntryStore = (*memory.Store)(nil)
)
