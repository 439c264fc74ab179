package containers

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"
)

const (
	database = "blog"
	username = "testuser"
	password = "testpass"
)

// TestContainers holds all container references and connection details.
// DSNs use the "<driver>://<dsn>" form of the service config.
type TestContainers struct {
	MySQLContainer    testcontainers.Container
	PostgresContainer testcontainers.Container

	MySQLDSN    string
	PostgresDSN string
}

// tmpfs keeps the data directory in memory, the databases are thrown away anyway
func tmpfs(path string) func(hostConfig *container.HostConfig) {
	return func(hostConfig *container.HostConfig) {
		hostConfig.Tmpfs = map[string]string{path: "rw"}
	}
}

// SetupMySQL creates and starts an empty MySQL container
func SetupMySQL(ctx context.Context) (testcontainers.Container, string, error) {
	c, err := mysql.Run(ctx, "mysql:8.4",
		mysql.WithDatabase(database),
		mysql.WithUsername(username),
		mysql.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("ready for connections").
				WithOccurrence(1).
				WithStartupTimeout(90*time.Second),
		),
		testcontainers.WithHostConfigModifier(tmpfs("/var/lib/mysql")),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start MySQL container: %w", err)
	}

	endpoint, err := hostPort(ctx, c, "3306/tcp")
	if err != nil {
		return c, "", fmt.Errorf("failed to get MySQL endpoint: %w", err)
	}

	dsn := fmt.Sprintf("mysql://%s:%s@tcp(%s)/%s?parseTime=true", username, password, endpoint, database)
	return c, dsn, nil
}

// SetupPostgres creates and starts an empty PostgreSQL container
func SetupPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	c, err := postgres.Run(ctx, "postgres:17.5",
		postgres.WithDatabase(database),
		postgres.WithUsername(username),
		postgres.WithPassword(password),
		postgres.BasicWaitStrategies(),
		testcontainers.WithHostConfigModifier(tmpfs("/var/lib/postgresql/data")),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}

	endpoint, err := hostPort(ctx, c, "5432/tcp")
	if err != nil {
		return c, "", fmt.Errorf("failed to get PostgreSQL endpoint: %w", err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", username, password, endpoint, database)
	return c, dsn, nil
}

func hostPort(ctx context.Context, c testcontainers.Container, port nat.Port) (string, error) {
	mappedPort, err := c.MappedPort(ctx, port)
	if err != nil {
		return "", err
	}

	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s:%s", host, mappedPort.Port()), nil
}

// SetupAllContainers starts the MySQL and PostgreSQL containers concurrently.
// Containers that did start are returned with the error so they can be cleaned up.
func SetupAllContainers(ctx context.Context) (*TestContainers, error) {
	tc := &TestContainers{}

	var g errgroup.Group
	g.Go(func() error {
		c, dsn, err := SetupMySQL(ctx)
		tc.MySQLContainer, tc.MySQLDSN = c, dsn
		if err != nil {
			return fmt.Errorf("failed to setup MySQL: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		c, dsn, err := SetupPostgres(ctx)
		tc.PostgresContainer, tc.PostgresDSN = c, dsn
		if err != nil {
			return fmt.Errorf("failed to setup PostgreSQL: %w", err)
		}
		return nil
	})

	return tc, g.Wait()
}

// Cleanup terminates all containers
func (tc *TestContainers) Cleanup(ctx context.Context) error {
	var lastErr error

	if tc.PostgresContainer != nil {
		if err := tc.PostgresContainer.Terminate(ctx); err != nil {
			lastErr = fmt.Errorf("failed to terminate PostgreSQL container: %w", err)
		}
	}

	if tc.MySQLContainer != nil {
		if err := tc.MySQLContainer.Terminate(ctx); err != nil {
			lastErr = fmt.Errorf("failed to terminate MySQL container: %w", err)
		}
	}

	return lastErr
}
