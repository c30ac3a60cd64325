package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/config"
	"github.com/aretw0/switchboard/pkg/adapters/file"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/adapters/redis"
	"github.com/aretw0/switchboard/pkg/adapters/sqlite"
	"github.com/aretw0/switchboard/pkg/persistence/middleware"
	"github.com/aretw0/switchboard/pkg/portal"
	"github.com/aretw0/switchboard/pkg/ports"
)

// Subscriber is the receiving side of a flight-change publisher.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan string, error)
}

// Backends are the adapters selected by the configuration.
type Backends struct {
	Service   ports.ReservationService
	Store     ports.SessionStore
	Locker    ports.DistributedLocker
	Publisher ports.Publisher
	Events    Subscriber

	closers []io.Closer
}

// OpenBackends connects the reservation service, session store and
// publisher described by cfg. Close releases them.
func OpenBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backends, error) {
	b := &Backends{}

	if path := cfg.Reservations.SQLitePath; path != "" {
		db, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("error opening reservations: %w", err)
		}
		b.Service = db
		b.closers = append(b.closers, db)
		logger.Debug("reservations opened", "backend", "sqlite", "path", path)
	} else {
		b.Service = DemoReservations()
		logger.Debug("reservations opened", "backend", "demo")
	}

	switch cfg.Store.Backend {
	case config.BackendRedis:
		client := redis.NewClient(cfg.Store.RedisAddr, cfg.Store.Password, cfg.Store.DB)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			_ = b.Close()
			return nil, fmt.Errorf("error connecting to redis at %s: %w", cfg.Store.RedisAddr, err)
		}
		store := redis.NewFromClient(client, redis.WithTTL(cfg.Store.TTL), redis.WithPrefix(cfg.Store.Prefix))
		pub := redis.NewPublisher(client, cfg.Portal.Channel)
		b.Store = store
		b.Locker = redis.NewLocker(client, cfg.Store.Prefix)
		b.Publisher = pub
		b.Events = pub
		b.closers = append(b.closers, store)
		logger.Debug("session store opened", "backend", "redis", "addr", cfg.Store.RedisAddr)
	case config.BackendFile:
		broker := memory.NewBroker()
		b.Store = file.New(cfg.Store.Dir)
		b.Publisher = broker
		b.Events = broker
		logger.Debug("session store opened", "backend", "file", "dir", cfg.Store.Dir)
	default:
		broker := memory.NewBroker()
		b.Store = memory.NewStore()
		b.Publisher = broker
		b.Events = broker
	}

	mws, err := storeMiddleware(cfg.Store)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	if len(mws) > 0 {
		b.Store = middleware.Chain(b.Store, mws...)
		logger.Debug("session store protected", "layers", len(mws))
	}
	return b, nil
}

// storeMiddleware masks PII before sealing, so masked values never reach the ciphertext.
func storeMiddleware(cfg config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.PIIKeys) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.PIIKeys)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

// Options turns the backends and cfg into switchboard options.
func (b *Backends) Options(cfg *config.Config, logger *slog.Logger) []switchboard.Option {
	opts := []switchboard.Option{
		switchboard.WithLogger(logger),
		switchboard.WithSessionStore(b.Store),
		switchboard.WithPublisher(b.Publisher),
		switchboard.WithCallHistory(cfg.Portal.CallHistory),
		switchboard.WithMaxTransitions(cfg.Engine.MaxTransitions),
		switchboard.WithLineRetention(cfg.Engine.LineRetention),
	}
	if b.Locker != nil {
		opts = append(opts, switchboard.WithLocker(b.Locker))
	}
	if cfg.Portal.PageSize > 0 {
		opts = append(opts, switchboard.WithPortalOptions(portal.WithPageSize(cfg.Portal.PageSize)))
	}
	return opts
}

// Close releases every backend connection.
func (b *Backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
