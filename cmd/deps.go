package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/vidcatalog/internal/config"
	"github.com/Vovarama1992/vidcatalog/internal/infra"
	"github.com/Vovarama1992/vidcatalog/internal/ports"
)

// runtimeDeps holds every external connection the server owns.
type runtimeDeps struct {
	store  ports.Store
	views  ports.ViewCounter
	nats   *infra.NATSPublisher
	health map[string]ports.Pinger

	closers []func() error
}

func (d *runtimeDeps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openDeps(ctx context.Context, cfg *config.Config, zl *logger.ZapLogger) (*runtimeDeps, error) {
	d := &runtimeDeps{health: map[string]ports.Pinger{}}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	d.store = store
	d.views = store
	d.health["store"] = store
	d.closers = append(d.closers, store.Close)

	if cfg.Views.Backend == infra.ViewsFromRedis {
		client, err := infra.NewRedisClient(ctx, infra.RedisOptions{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			d.Close()
			return nil, err
		}
		counter := infra.NewRedisViewCounter(client)
		d.views = counter
		d.health["redis"] = counter
		d.closers = append(d.closers, counter.Close)
	}

	if cfg.Events.NATSURL != "" {
		pub, err := infra.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.nats = pub
		d.health["nats"] = pub
		d.closers = append(d.closers, pub.Close)
	}

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "dependencies ready",
		Fields: map[string]any{
			"store": cfg.Store.Backend,
			"views": cfg.Views.Backend,
			"nats":  cfg.Events.NATSURL != "",
		},
	})
	return d, nil
}

func openStore(ctx context.Context, cfg *config.Config) (ports.Store, error) {
	switch cfg.Store.Backend {
	case infra.BackendCassandra:
		session, err := infra.NewCassandraSession(infra.CassandraOptions{
			Hosts:          cfg.Cassandra.Hosts,
			Keyspace:       cfg.Cassandra.Keyspace,
			Consistency:    cfg.Cassandra.Consistency,
			Username:       cfg.Cassandra.Username,
			Password:       cfg.Cassandra.Password,
			NumConns:       cfg.Cassandra.NumConns,
			Timeout:        cfg.Cassandra.Timeout,
			ConnectTimeout: cfg.Cassandra.ConnectTimeout,
		})
		if err != nil {
			return nil, err
		}
		return infra.NewCassandraStore(session), nil

	case infra.BackendPostgres:
		pool, err := infra.NewPgxPool(ctx, infra.PostgresOptions{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		})
		if err != nil {
			return nil, err
		}
		return infra.NewPostgresStore(pool), nil

	case infra.BackendSQLite:
		store, err := infra.NewSQLiteStore(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return store, nil

	case infra.BackendMemory:
		return infra.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
