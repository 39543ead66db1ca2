package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/deception-server/internal/api"
	"github.com/dom/deception-server/internal/config"
	"github.com/dom/deception-server/internal/game"
	"github.com/dom/deception-server/internal/repository"
	"github.com/dom/deception-server/internal/repository/memory"
	repoPostgres "github.com/dom/deception-server/internal/repository/postgres"
	"github.com/dom/deception-server/internal/service"
	"github.com/dom/deception-server/internal/websocket"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a migrated connection
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_deception"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(repoPostgres.Models()...); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		ctx := context.Background()
		tdb.Container.Terminate(ctx)
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:               "0", // Random port
		Environment:        "test",
		Store:              "memory",
		JWTSecret:          "test-jwt-secret-key-for-testing-only",
		JWTExpirationHours: 1,
		StartCountdown:     50 * time.Millisecond, // Fast countdown for tests
		MaxRounds:          game.DefaultMaxRounds,
		RedactSnapshots:    true,
	}
}

// NewMemoryRepositories returns an empty in-memory store.
func NewMemoryRepositories() *repository.Repositories {
	return memory.NewRepositories(memory.NewStore())
}

// NewTestEngine returns an engine with a fixed seed.
func NewTestEngine(seed uint64) *game.Engine {
	return game.NewEngine(game.DefaultMaxRounds, game.NewLockedRand(seed, seed+1))
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB // nil for in-memory servers
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Config   *config.Config
}

// NewTestServer creates a complete test server backed by the in-memory store
// with the default card catalog loaded.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return newTestServer(t, nil, NewMemoryRepositories(), TestConfig())
}

// NewTestServerWithConfig is NewTestServer with a caller supplied config.
func NewTestServerWithConfig(t *testing.T, cfg *config.Config) *TestServer {
	t.Helper()
	return newTestServer(t, nil, NewMemoryRepositories(), cfg)
}

// NewPostgresTestServer creates a complete test server on a PostgreSQL testcontainer.
func NewPostgresTestServer(t *testing.T) *TestServer {
	t.Helper()
	testDB := NewTestDB(t)
	cfg := TestConfig()
	cfg.Store = "postgres"
	cfg.DatabaseURL = testDB.DSN
	return newTestServer(t, testDB, repoPostgres.NewRepositories(testDB.DB), cfg)
}

func newTestServer(t *testing.T, testDB *TestDB, repos *repository.Repositories, cfg *config.Config) *TestServer {
	t.Helper()

	services := service.NewServicesWithEngine(repos, cfg, NewTestEngine(42))
	if _, err := services.Card.Sync(context.Background()); err != nil {
		t.Fatalf("failed to sync cards: %v", err)
	}

	hub := websocket.NewHub(services, cfg)
	go hub.Run()

	router := api.NewRouter(services, hub, cfg)
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// WebSocketURL returns the WebSocket URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + ts.Server.URL[4:] // Replace "http" with "ws"
	return fmt.Sprintf("%s/api/v1/ws?token=%s", wsURL, token)
}
