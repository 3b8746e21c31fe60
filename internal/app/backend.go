package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bissquit/bloomshop/internal/cart"
	cartmongo "github.com/bissquit/bloomshop/internal/cart/mongo"
	cartpostgres "github.com/bissquit/bloomshop/internal/cart/postgres"
	"github.com/bissquit/bloomshop/internal/catalog"
	catalogmongo "github.com/bissquit/bloomshop/internal/catalog/mongo"
	catalogpostgres "github.com/bissquit/bloomshop/internal/catalog/postgres"
	"github.com/bissquit/bloomshop/internal/config"
	"github.com/bissquit/bloomshop/internal/identity"
	identitymongo "github.com/bissquit/bloomshop/internal/identity/mongo"
	identitypostgres "github.com/bissquit/bloomshop/internal/identity/postgres"
	"github.com/bissquit/bloomshop/internal/pkg/mongodb"
	"github.com/bissquit/bloomshop/internal/pkg/postgres"
	"github.com/bissquit/bloomshop/migrations"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
)

// backend bundles the repositories of the configured database driver.
type backend struct {
	users    identity.Repository
	products catalog.Repository
	carts    cart.Repository
	pool     *pgxpool.Pool // nil unless the driver is postgres
	ping     func(ctx context.Context) error
	close    func()
}

func openBackend(ctx context.Context, cfg config.DatabaseConfig) (*backend, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return openMongo(ctx, cfg)
	case config.DriverPostgres:
		return openPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*backend, error) {
	if cfg.AutoMigrate {
		if err := Migrate(cfg.URL); err != nil {
			return nil, err
		}
	}

	pool, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnectAttempts: cfg.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &backend{
		users:    identitypostgres.NewRepository(pool),
		products: catalogpostgres.NewRepository(pool),
		carts:    cartpostgres.NewRepository(pool),
		pool:     pool,
		ping:     pool.Ping,
		close:    pool.Close,
	}, nil
}

func openMongo(ctx context.Context, cfg config.DatabaseConfig) (*backend, error) {
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:             cfg.MongoURI,
		Database:        cfg.MongoDatabase,
		MaxPoolSize:     uint64(max(cfg.MaxOpenConns, 0)),
		ConnectAttempts: cfg.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	closeClient := func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			slog.Error("disconnect mongodb", "error", err)
		}
	}

	users := identitymongo.NewRepository(db)
	carts := cartmongo.NewRepository(db)

	if err := users.EnsureIndexes(ctx); err != nil {
		closeClient()
		return nil, fmt.Errorf("ensure user indexes: %w", err)
	}
	if err := carts.EnsureIndexes(ctx); err != nil {
		closeClient()
		return nil, fmt.Errorf("ensure cart indexes: %w", err)
	}

	return &backend{
		users:    users,
		products: catalogmongo.NewRepository(db),
		carts:    carts,
		ping: func(ctx context.Context) error {
			return mongodb.Ping(ctx, client)
		},
		close: closeClient,
	}, nil
}

// Migrate applies the embedded schema migrations to the database at url.
func Migrate(url string) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Warn("close migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
