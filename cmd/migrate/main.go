package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/pins-charity/orderforms-backend/pkg/config"
	"github.com/pins-charity/orderforms-backend/pkg/db"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
	"github.com/pins-charity/orderforms-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "orderforms-migrate"})
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "up|down|status|version|create|validate|auto")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	name := flag.String("name", "", "migration name, for -cmd=create")
	version := flag.String("version", "", "target YYYYMMDDHHMMSS version, for -cmd=version")
	flag.Parse()

	// create and validate only touch the filesystem
	switch *cmd {
	case "create":
		if *name == "" {
			fail("missing -name for create", nil)
		}
		path, err := migrate.CreateSQLMigration(*dir, *name, time.Now().UTC())
		if err != nil {
			fail("create migration", err)
		}
		fmt.Println("created", path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fail("validate migrations", err)
		}
		fmt.Println("migrations ok")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fail("load config", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "orderforms-migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    *cmd,
		"driver": cfg.DB.Driver,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "migrate.db_unavailable", err)
		os.Exit(1)
	}
	defer client.Close()

	if *cmd == "auto" {
		if err := migrate.AutoMigrate(client.DB()); err != nil {
			logg.Error(ctx, "migrate.auto_failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "migrate.done")
		return
	}

	if client.Driver() == config.DBDriverSQLite {
		logg.Warn(ctx, "migrate.sqlite_uses_auto")
		os.Exit(1)
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		logg.Error(ctx, "migrate.db_unavailable", err)
		os.Exit(1)
	}
	runner := migrate.Goose{DB: sqlDB, Dir: *dir}

	switch *cmd {
	case "up", "down", "status":
		err = runner.Run(ctx, *cmd)
	case "version":
		if *version == "" {
			fail("missing -version for version", nil)
		}
		err = runner.To(ctx, *version)
	default:
		fail("unknown -cmd "+*cmd, nil)
	}
	if err != nil {
		logg.Error(ctx, "migrate.failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migrate.done")
}

func fail(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	} else {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(1)
}
