package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"whatsapp-notifier/config"
	"whatsapp-notifier/db"
	appfx "whatsapp-notifier/internal/app/fx"

	"github.com/jmoiron/sqlx"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

type MigrateCmd string

type MigrateArgs []string

func main() {
	cmd := "up"
	var args []string
	if len(os.Args) > 1 {
		cmd = os.Args[1]
		args = os.Args[2:]
	}

	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		appfx.CoreAppOptions,
		fx.Supply(MigrateCmd(cmd), MigrateArgs(args)),
		fx.Invoke(registerMigrateHook),
	)

	startCtx, startCancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

type migrateHookParams struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    *config.Config
	Logger *zap.SugaredLogger

	Cmd  MigrateCmd
	Args MigrateArgs
}

func registerMigrateHook(p migrateHookParams) {
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			driver, dsn, err := db.ParseDSN(p.Cfg.DB.DSN, p.Cfg.DB.AuthToken)
			if err != nil {
				return err
			}

			conn, err := sqlx.Open(driver, dsn)
			if err != nil {
				return fmt.Errorf("open %s: %w", driver, err)
			}
			defer func() {
				_ = conn.Close()
			}()

			pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
			defer pingCancel()
			if err := conn.PingContext(pingCtx); err != nil {
				return fmt.Errorf("ping %s: %w", driver, err)
			}
			p.Logger.Infow("db_connection_ok", dsnLogFields(driver, dsn)...)

			p.Logger.Infow("goose_run_start", "cmd", string(p.Cmd))
			if err := db.Run(ctx, conn, driver, string(p.Cmd), p.Args...); err != nil {
				return err
			}
			p.Logger.Infow("goose_run_done", "cmd", string(p.Cmd))
			return nil
		},
	})
}

func dsnLogFields(driver, dsn string) []any {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return []any{"driver", driver}
	}
	return []any{"driver", driver, "scheme", u.Scheme, "host", u.Host}
}
