// Package testutil provides shared fixtures for integration tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DBIntegrationSuite boots one PostgreSQL container per suite, with the
// service schema pre-applied, and tears it down afterwards.
type DBIntegrationSuite struct {
	suite.Suite
	Pool             *pgxpool.Pool
	container        *postgres.PostgresContainer
	ConnectionString string
}

func (s *DBIntegrationSuite) SetupSuite() {
	ctx := context.Background()

	// schema.sql lives next to the postgres infra code; resolve it
	// relative to this file so tests run from any package directory.
	_, thisFile, _, _ := runtime.Caller(0)
	schemaFile := filepath.Join(filepath.Dir(thisFile), "..", "infra", "postgres", "schema.sql")

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpassword"),
		postgres.WithInitScripts(schemaFile),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(10*time.Second),
		),
	)
	s.Require().NoError(err, "start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err, "resolve connection string")

	pool, err := pgxpool.New(ctx, connStr)
	s.Require().NoError(err, "connect to test database")

	s.Pool = pool
	s.container = container
	s.ConnectionString = connStr
}

func (s *DBIntegrationSuite) TearDownSuite() {
	if s.Pool != nil {
		s.Pool.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

// TruncateTables resets table contents between tests.
func (s *DBIntegrationSuite) TruncateTables(tables ...string) {
	for _, table := range tables {
		_, err := s.Pool.Exec(context.Background(), fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY", table))
		s.Require().NoError(err, "truncate table %s", table)
	}
}
