package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
)

// DefaultDir holds the Postgres SQL migrations for forms and submissions.
const DefaultDir = "pkg/migrate/migrations"

// Goose runs the SQL migrations in Dir against DB. The files are written for
// Postgres; sqlite databases go through AutoMigrate instead.
type Goose struct {
	DB  *sql.DB
	Dir string
}

func (g Goose) prepare() error {
	if g.DB == nil {
		return fmt.Errorf("db is required")
	}
	if g.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Run executes a plain goose command such as up, down or status.
func (g Goose) Run(ctx context.Context, command string, args ...string) error {
	if err := g.prepare(); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, g.DB, g.Dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// To moves the schema up or down until it sits at version.
func (g Goose) To(ctx context.Context, version string) error {
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil || target < 0 {
		return fmt.Errorf("invalid version %q: want a YYYYMMDDHHMMSS timestamp", version)
	}
	if err := g.prepare(); err != nil {
		return err
	}

	current, err := goose.GetDBVersionContext(ctx, g.DB)
	if err != nil {
		return fmt.Errorf("read db version: %w", err)
	}
	if current < target {
		err = goose.UpToContext(ctx, g.DB, g.Dir, target)
	} else if current > target {
		err = goose.DownToContext(ctx, g.DB, g.Dir, target)
	}
	if err != nil {
		return fmt.Errorf("migrate from %d to %d: %w", current, target, err)
	}
	return nil
}
