package tenant

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/miketerry-org/kickstart-mvc/internal/domain"
	"github.com/miketerry-org/kickstart-mvc/internal/mailer"
	"github.com/miketerry-org/kickstart-mvc/internal/migrations"
)

const connectTimeout = 10 * time.Second

// Services is the scoped resource bundle owned by one tenant: its data
// connection, logger, and mailer. Created at most once per tenant and shared
// by all of that tenant's requests for the process lifetime.
type Services struct {
	DB     *pgxpool.Pool
	Log    *zap.Logger
	Mailer mailer.Mailer
}

func (s *Services) close() {
	if s.DB != nil {
		s.DB.Close()
	}
}

// DefaultBuilder constructs tenant services against the tenant's own
// Postgres store: it opens and pings a pool, applies the embedded schema
// migrations, derives a child logger, and builds the configured mailer.
func DefaultBuilder(ctx context.Context, t domain.Tenant, base *zap.Logger) (*Services, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, t.Service.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(ctx, t.Service.DatabaseURL); err != nil {
		pool.Close()
		return nil, err
	}

	log := base.Named("tenant").With(zap.String("tenant", t.HostName))

	m, err := mailer.New(t.Service.Mailer, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("build mailer: %w", err)
	}

	log.Info("tenant services constructed")
	return &Services{DB: pool, Log: log, Mailer: m}, nil
}

func runMigrations(ctx context.Context, databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
