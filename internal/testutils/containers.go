//go:build integration

// Package testutils starts throwaway backends for integration tests. Every
// container is terminated through t.Cleanup.
package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Vovarama1992/vidcatalog/internal/infra"
	"github.com/gocql/gocql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	tccassandra "github.com/testcontainers/testcontainers-go/modules/cassandra"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

const TestKeyspace = "vidcatalog_test"

// StartCassandra runs a single node and provisions the catalog keyspace.
// 3.11 is used because later images ship with materialized views disabled.
func StartCassandra(t testing.TB) *gocql.Session {
	t.Helper()
	ctx := context.Background()

	container, err := tccassandra.Run(ctx, "cassandra:3.11")
	if err != nil {
		t.Fatalf("failed to start cassandra container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.ConnectionHost(ctx)
	if err != nil {
		t.Fatalf("failed to get cassandra host: %v", err)
	}

	// DDL runs without a keyspace; the keyspace is created by the schema
	admin := gocql.NewCluster(host)
	admin.Timeout = 30 * time.Second
	admin.ConnectTimeout = 30 * time.Second
	adminSession, err := admin.CreateSession()
	if err != nil {
		t.Fatalf("failed to connect cassandra: %v", err)
	}
	defer adminSession.Close()

	stmts, err := infra.Schema(infra.BackendCassandra, TestKeyspace)
	if err != nil {
		t.Fatalf("failed to load cassandra schema: %v", err)
	}
	for _, stmt := range stmts {
		if err := adminSession.Query(stmt).WithContext(ctx).Exec(); err != nil {
			t.Fatalf("failed to apply cassandra schema: %v\n%s", err, stmt)
		}
	}

	session, err := infra.NewCassandraSession(infra.CassandraOptions{
		Hosts:          []string{host},
		Keyspace:       TestKeyspace,
		Consistency:    "ONE",
		Timeout:        10 * time.Second,
		ConnectTimeout: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to open cassandra session: %v", err)
	}
	t.Cleanup(session.Close)
	return session
}

// StartPostgres runs Postgres and applies the catalog tables.
func StartPostgres(t testing.TB) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	pool, err := infra.NewPgxPool(ctx, infra.PostgresOptions{DSN: dsn, MaxConns: 10, MinConns: 2})
	if err != nil {
		t.Fatalf("failed to create postgres pool: %v", err)
	}
	t.Cleanup(pool.Close)

	stmts, err := infra.Schema(infra.BackendPostgres, "")
	if err != nil {
		t.Fatalf("failed to load postgres schema: %v", err)
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("failed to apply postgres schema: %v", err)
		}
	}
	return pool
}

// StartRedis returns a client to a fresh Redis instance.
func StartRedis(t testing.TB) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	client, err := infra.NewRedisClient(ctx, infra.RedisOptions{
		Addr:         endpoint,
		PoolSize:     10,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to connect redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// StartNATS runs a plain nats-server and returns its client URL.
func StartNATS(t testing.TB) string {
	t.Helper()
	ctx := context.Background()

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "nats:2.10-alpine",
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForLog("Server is ready").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start nats container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get nats host: %v", err)
	}
	port, err := container.MappedPort(ctx, "4222/tcp")
	if err != nil {
		t.Fatalf("failed to get nats port: %v", err)
	}
	return fmt.Sprintf("nats://%s:%s", host, port.Port())
}
