package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"whatsapp-notifier/db/migrations"
)

// goose keeps its dialect and base FS in package globals.
var gooseMu sync.Mutex

// Migrate applies the embedded migrations.
func Migrate(ctx context.Context, db *sqlx.DB, driver string) error {
	return Run(ctx, db, driver, "up")
}

// Run executes a goose command (up, down, status, version, reset) against
// the embedded migrations.
func Run(ctx context.Context, db *sqlx.DB, driver, command string, args ...string) error {
	if db == nil {
		return ErrStoreDisabled
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(Dialect(driver)); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, db.DB, ".", args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
