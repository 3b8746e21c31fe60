//go:build integration

package integration

import (
	"context"
	"log"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bissquit/bloomshop/internal/app"
	"github.com/bissquit/bloomshop/internal/config"
	"github.com/bissquit/bloomshop/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	adminEmail    = "admin@bloomcare.com"
	adminPassword = "admin-secret"
)

var (
	testServer    *httptest.Server
	testValidator *testutil.OpenAPIValidator
	testDB        *pgxpool.Pool
	testStaticDir string
	testApp       *app.App
)

// OpenAPI spec path relative to the tests/integration directory.
const openAPISpecPath = "../../api/openapi/openapi.yaml"

// newTestClient creates a client with OpenAPI validation and an empty cookie jar.
func newTestClient(t *testing.T) *testutil.Client {
	t.Helper()
	client := testutil.NewClientWithValidator(testServer.URL, testValidator)
	client.SetT(t)
	return client
}

// newTestClientWithoutValidation creates a test client without OpenAPI validation.
// Use this for requests whose responses are not JSON API responses.
func newTestClientWithoutValidation() *testutil.Client {
	return testutil.NewClient(testServer.URL)
}

// baseConfig returns settings shared by every application built in this package.
func baseConfig(staticDir string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         "0",
			MetricsPort:  "0",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Log: config.LogConfig{
			Level:  "error",
			Format: "text",
		},
		Database: config.DatabaseConfig{
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			ConnectTimeout:  60 * time.Second,
			ConnectAttempts: 3,
		},
		Session: config.SessionConfig{
			Store:          config.DriverMemory,
			CookieName:     "bloomshop_session",
			IdleTimeout:    30 * time.Minute,
			SecretKey:      "integration-secret",
			RevalidateRole: true,
		},
		Auth: config.AuthConfig{
			BootstrapAdminEmail:    adminEmail,
			BootstrapAdminName:     "Administrador",
			BootstrapAdminPassword: adminPassword,
			BcryptCost:             4,
		},
		Uploads: config.UploadsConfig{
			Driver:    config.DriverLocal,
			StaticDir: staticDir,
			Subdir:    "uploads",
			URLPrefix: "/static",
			MaxBytes:  1 << 20,
		},
		Catalog: config.CatalogConfig{
			DefaultLimit: 3,
			MaxLimit:     100,
		},
	}
}

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	pgContainer, err := testutil.NewPostgresContainer(ctx)
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	if err := app.Migrate(pgContainer.ConnectionString); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	testStaticDir, err = os.MkdirTemp("", "bloomshop-static-")
	if err != nil {
		log.Fatalf("create static dir: %v", err)
	}
	defer func() { _ = os.RemoveAll(testStaticDir) }()

	cfg := baseConfig(testStaticDir)
	cfg.Database.Driver = config.DriverPostgres
	cfg.Database.URL = pgContainer.ConnectionString

	testApp, err = app.New(cfg)
	if err != nil {
		log.Fatalf("create app: %v", err)
	}

	// Direct DB connection for tests that inspect stored rows
	testDB, err = pgxpool.New(ctx, pgContainer.ConnectionString)
	if err != nil {
		log.Fatalf("create test db pool: %v", err)
	}

	testServer = httptest.NewServer(testApp.Router())

	testValidator, err = testutil.LoadOpenAPIValidator(openAPISpecPath)
	if err != nil {
		log.Fatalf("load OpenAPI validator: %v", err)
	}

	code := m.Run()

	testServer.Close()
	testDB.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := testApp.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown app: %v", err)
	}

	return code
}
