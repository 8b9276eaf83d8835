package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"whatsapp-notifier/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	// Turso "remote only" driver (no embedded replicas)
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

var ErrStoreDisabled = errors.New("delivery store disabled: set DB_DSN to enable")

// Driver names registered by the blank imports above.
const (
	DriverPostgres = "pgx"
	DriverLibSQL   = "libsql"
	DriverSQLite   = "sqlite"
)

// ParseDSN picks the sql driver for dsn and returns the DSN in the form the
// driver expects.
func ParseDSN(dsn, authToken string) (driver string, out string, err error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", "", ErrStoreDisabled
	}

	scheme := ""
	if i := strings.Index(dsn, "://"); i > 0 {
		scheme = strings.ToLower(dsn[:i])
	} else if i := strings.Index(dsn, ":"); i > 0 {
		scheme = strings.ToLower(dsn[:i])
	}

	switch scheme {
	case "postgres", "postgresql":
		return DriverPostgres, dsn, nil
	case "libsql", "https", "http", "wss", "ws":
		return DriverLibSQL, ensureAuthTokenQuery(dsn, authToken), nil
	case "sqlite":
		return DriverSQLite, strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite://"), "sqlite:"), nil
	case "file", "":
		return DriverSQLite, dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported DB_DSN scheme %q", scheme)
	}
}

// Dialect maps a driver name to the goose dialect.
func Dialect(driver string) string {
	if driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// NewDB opens the delivery log database. It returns a nil *sqlx.DB when
// DB_DSN is unset so the service boots without persistence.
func NewDB(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) (*sqlx.DB, error) {
	driver, dsn, err := ParseDSN(cfg.DB.DSN, cfg.DB.AuthToken)
	if errors.Is(err, ErrStoreDisabled) {
		log.Infow("delivery_store_disabled", "reason", "missing DB_DSN")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}
	if driver == DriverSQLite {
		// Single writer keeps sqlite away from SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := db.PingContext(pingCtx); err != nil {
				_ = db.Close()
				return fmt.Errorf("%s ping failed: %w", driver, err)
			}
			if cfg.DB.AutoMigrate {
				if err := Migrate(ctx, db, driver); err != nil {
					return err
				}
			}
			log.Infow("delivery_store_enabled", "driver", driver, "auto_migrate", cfg.DB.AutoMigrate)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := db.Close(); err != nil {
				log.Warnw("delivery_store_close_failed", "err", err)
			}
			return nil
		},
	})

	return db, nil
}

func ensureAuthTokenQuery(dsn, token string) string {
	if token == "" {
		return dsn
	}

	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return dsn
	}

	q := u.Query()
	if q.Get("authToken") != "" {
		return dsn
	}

	q.Set("authToken", token)
	u.RawQuery = q.Encode()
	return u.String()
}
