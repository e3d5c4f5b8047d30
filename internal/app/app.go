// Package app assembles the store, collaborators and services from configuration.
package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"techsupport/backend/internal/auth"
	"techsupport/backend/internal/config"
	"techsupport/backend/internal/directory"
	"techsupport/backend/internal/domain"
	"techsupport/backend/internal/notify"
	"techsupport/backend/internal/service/appointments"
	"techsupport/backend/internal/service/availability"
	"techsupport/backend/internal/service/slots"
	"techsupport/backend/internal/service/technicians"
	"techsupport/backend/internal/store"
	"techsupport/backend/internal/store/memory"
	"techsupport/backend/internal/store/postgres"
	"techsupport/backend/internal/store/sqlite"
)

type App struct {
	Store        store.Store
	Tokens       *auth.Tokens
	Availability *availability.Service
	Slots        *slots.Resolver
	Appointments *appointments.Service
	Technicians  *technicians.Service
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	if err != nil {
		return nil, err
	}

	s, err := OpenStore(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	dir, err := NewDirectory(ctx, cfg.Directory, s)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	clock := domain.SystemClock{Location: cfg.Scheduling.Location}
	return &App{
		Store:        s,
		Tokens:       tokens,
		Availability: availability.NewService(s, log),
		Slots:        slots.NewResolver(s),
		Appointments: appointments.NewService(s, clock, notify.NewLogNotifier(log), appointments.Policy{
			AllowEarlyCompletion: cfg.Scheduling.AllowEarlyCompletion,
		}, log),
		Technicians: technicians.NewService(dir, s, log),
	}, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}

// OpenStore opens the configured backend. Postgres is migrated first when
// database.migrate_on_start is set.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (store.Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.Driver {
	case "postgres":
		log.Info("connecting to database", DatabaseLogFields(cfg.URL)...)
		db, err := postgres.Open(ctx, cfg.URL, postgres.PoolConfig{
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		})
		if err != nil {
			log.Error("database connection failed", append(DatabaseLogFields(cfg.URL), zap.Error(err))...)
			return nil, err
		}
		if cfg.MigrateOnStart {
			if err := postgres.MigrateUp(ctx, db.SQL()); err != nil {
				_ = postgres.Close(db)
				return nil, err
			}
			version, err := postgres.SchemaVersion(ctx, db.SQL())
			logMigrated(log, version, err)
		}
		return postgres.NewRepo(db), nil
	case "sqlite":
		log.Info("opening sqlite store", zap.String("path", cfg.SQLitePath))
		return sqlite.Open(cfg.SQLitePath)
	case "memory":
		log.Warn("using in-memory store; data is lost on exit")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// logMigrated reports the schema version after migrating. A failed version read does not
// fail startup since the migrations themselves succeeded.
func logMigrated(log *zap.Logger, version int64, err error) {
	if err != nil {
		log.Warn("database migrated; reading schema version failed", zap.Error(err))
		return
	}
	log.Info("database migrated", zap.Int64("schema_version", version))
}

func NewDirectory(ctx context.Context, cfg config.DirectoryConfig, s store.Store) (directory.Directory, error) {
	switch cfg.Provider {
	case "cognito":
		return directory.NewCognitoFromEnv(ctx, directory.CognitoConfig{
			UserPoolID: cfg.CognitoUserPoolID,
			Group:      cfg.CognitoGroup,
			Region:     cfg.CognitoRegion,
		})
	case "", "none":
		return directory.NewOwners(s), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", directory.ErrMisconfigured, cfg.Provider)
	}
}

// DatabaseLogFields describes the target database without its credentials.
func DatabaseLogFields(databaseURL string) []zap.Field {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []zap.Field{zap.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []zap.Field{
		zap.String("db_host", host),
		zap.String("db_port", port),
		zap.String("db_name", name),
	}
}
