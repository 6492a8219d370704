package integration_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	pgxstd "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"
)

const migrationsPath = "file://../../migrations"

type PostgresContainer struct {
	Container        *postgres.PostgresContainer
	ConnectionString string
}

type RedisContainer struct {
	Container        *tcredis.RedisContainer
	ConnectionString string
}

// startContainers boots Postgres and Redis side by side and migrates the
// database. On failure every container that did start is terminated.
func startContainers(ctx context.Context) (*PostgresContainer, *RedisContainer, error) {
	var (
		db    *PostgresContainer
		cache *RedisContainer
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		db, err = getDbContainer(gctx)
		return err
	})

	g.Go(func() error {
		var err error
		cache, err = getCacheContainer(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		if db != nil {
			err = errors.Join(err, testcontainers.TerminateContainer(db.Container))
		}
		if cache != nil {
			err = errors.Join(err, testcontainers.TerminateContainer(cache.Container))
		}

		return nil, nil, err
	}

	return db, cache, nil
}

func getDbContainer(ctx context.Context) (*PostgresContainer, error) {
	container, err := postgres.Run(ctx, dbImageName,
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
					return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
						dbUser, dbPassword, host, port.Port(), dbName)
				}),
			).WithDeadline(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start DB container: %w", err)
	}

	dbContainer := &PostgresContainer{Container: container}

	dbContainer.ConnectionString, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return dbContainer, fmt.Errorf("failed to get connection string: %w", err)
	}

	err = runMigrations(dbContainer.ConnectionString, migrationsPath)
	if err != nil {
		return dbContainer, fmt.Errorf("failed to run migrations: %w", err)
	}

	return dbContainer, nil
}

func runMigrations(dsn string, path string) error {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	db := pgxstd.OpenDB(*config)
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("pgx migration driver error: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(path, "pgx", driver)
	if err != nil {
		return fmt.Errorf("migrate.New error: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

func getCacheContainer(ctx context.Context) (*RedisContainer, error) {
	container, err := tcredis.Run(ctx, cacheImageName)
	if err != nil {
		return nil, fmt.Errorf("failed to start cache container: %w", err)
	}

	cacheContainer := &RedisContainer{Container: container}

	host, err := container.Host(ctx)
	if err != nil {
		return cacheContainer, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		return cacheContainer, fmt.Errorf("failed to get container port: %w", err)
	}

	cacheContainer.ConnectionString = fmt.Sprintf("%s:%s", host, port.Port())

	return cacheContainer, nil
}
