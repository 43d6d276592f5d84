package testhelpers

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bi/pkg/database"
)

// PostgresTestImage is the server the integration tests run against.
const PostgresTestImage = "postgres:16-alpine"

const (
	testDBUser     = "ekaya"
	testDBPassword = "test_password"
	testDBName     = "test_data"
	metadataDBName = "ekaya_bi_test"
)

// TestDB holds a shared test database container and connection pool.
type TestDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string

	host string
	port string
}

// ConnStrWithPassword returns ConnStr with a different password, for
// exercising authentication failures.
func (db *TestDB) ConnStrWithPassword(password string) string {
	return db.connStr(testDBUser, password, testDBName)
}

func (db *TestDB) connStr(user, password, name string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     db.host + ":" + db.port,
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresTestImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       testDBName,
			"POSTGRES_USER":     testDBUser,
			"POSTGRES_PASSWORD": testDBPassword,
		},
		// The official image restarts once after init; wait for the second ready line.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	db := &TestDB{Container: container, host: host, port: port.Port()}
	db.ConnStr = db.connStr(testDBUser, testDBPassword, testDBName)

	pool, err := pgxpool.New(ctx, db.ConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	for i := 0; i < 10; i++ {
		if err = pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("test database never became reachable: %w", err)
	}

	db.Pool = pool
	return db, nil
}

// MetadataDB is a separate database in the shared container with the
// ekaya-bi migrations applied.
type MetadataDB struct {
	DB      *database.DB
	ConnStr string
}

var (
	sharedMetadataDB     *MetadataDB
	sharedMetadataDBOnce sync.Once
	sharedMetadataDBErr  error
)

// GetMetadataDB returns the shared migrated metadata database.
func GetMetadataDB(t *testing.T) *MetadataDB {
	t.Helper()

	testDB := GetTestDB(t)

	sharedMetadataDBOnce.Do(func() {
		sharedMetadataDB, sharedMetadataDBErr = setupMetadataDB(testDB)
	})

	if sharedMetadataDBErr != nil {
		t.Fatalf("Failed to setup metadata database: %v", sharedMetadataDBErr)
	}

	return sharedMetadataDB
}

func setupMetadataDB(testDB *TestDB) (*MetadataDB, error) {
	ctx := context.Background()

	if _, err := testDB.Pool.Exec(ctx, "CREATE DATABASE "+metadataDBName); err != nil {
		return nil, fmt.Errorf("failed to create metadata database: %w", err)
	}

	connStr := testDB.connStr(testDBUser, testDBPassword, metadataDBName)
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connStr,
		MaxConnections: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to metadata database: %w", err)
	}

	// golang-migrate needs database/sql; reuse the pool like the server does.
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, "", zap.NewNop()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &MetadataDB{DB: db, ConnStr: connStr}, nil
}
