// Package dbtest starts a throwaway Postgres for repository tests.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"

	"github.com/adboard/adboard/internal/platform/db"
)

const (
	dbUser = "adboardtest"
	dbPass = "secret"
	dbName = "adboard"
)

// NewPool returns a pool connected to a fresh Postgres container with the
// schema applied. The test is skipped in -short mode or without Docker.
// Setting ADBOARD_TEST_PG_DSN reuses an existing database instead.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	if dsn := os.Getenv("ADBOARD_TEST_PG_DSN"); dsn != "" {
		return connect(t, ctx, dsn)
	}

	dockerPool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := dockerPool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	dockerPool.MaxWait = 60 * time.Second

	resource, err := dockerPool.Run("postgres", "16-alpine", []string{
		"POSTGRES_PASSWORD=" + dbPass,
		"POSTGRES_USER=" + dbUser,
		"POSTGRES_DB=" + dbName,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := dockerPool.Purge(resource); err != nil {
			t.Logf("purge postgres: %v", err)
		}
	})

	dsn := fmt.Sprintf("postgres://%s:%s@localhost:%s/%s?sslmode=disable", dbUser, dbPass, resource.GetPort("5432/tcp"), dbName)
	var pool *pgxpool.Pool
	if err := dockerPool.Retry(func() error {
		var err error
		pool, err = db.New(ctx, dsn, 4)
		return err
	}); err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return pool
}

func connect(t *testing.T, ctx context.Context, dsn string) *pgxpool.Pool {
	t.Helper()
	pool, err := db.New(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE ad, "user" RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}
