package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/pins-charity/orderforms-backend/internal/orderforms"
	"github.com/pins-charity/orderforms-backend/internal/submissions"
	"github.com/pins-charity/orderforms-backend/pkg/config"
	"github.com/pins-charity/orderforms-backend/pkg/db"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
)

// export writes a form's submissions as CSV, by default the postage label
// import for paid orders.
func main() {
	logg := logger.New(logger.Options{ServiceName: "export"})
	_ = godotenv.Load()

	formRef := flag.String("form", "", "form id or slug")
	format := flag.String("format", "postage", "csv layout: postage|full")
	all := flag.Bool("all", false, "include unpaid submissions")
	out := flag.String("out", "", "output file (default stdout)")
	flag.Parse()

	if *formRef == "" {
		fmt.Fprintln(os.Stderr, "missing -form")
		os.Exit(1)
	}
	if *format != "postage" && *format != "full" {
		fmt.Fprintln(os.Stderr, "unknown -format value:", *format)
		os.Exit(1)
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)
	logg = logger.New(logger.Options{
		ServiceName: "export",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"form": *formRef, "format": *format})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	forms, err := orderforms.NewService(orderforms.NewRepository(dbClient.DB()), dbClient, logg)
	requireResource(ctx, logg, "order forms", err)

	var formID uuid.UUID
	if id, err := uuid.Parse(*formRef); err == nil {
		formID = id
	} else {
		form, err := forms.GetBySlug(ctx, *formRef)
		requireResource(ctx, logg, "form lookup", err)
		formID = form.ID
	}
	form, err := forms.Get(ctx, formID)
	requireResource(ctx, logg, "form lookup", err)

	sub := submissions.NewRepository(dbClient.DB())
	history, err := sub.ListByForm(ctx, form.ID)
	requireResource(ctx, logg, "submissions", err)
	export := submissions.BuildExport(form, history, !*all)

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		requireResource(ctx, logg, "output file", err)
		defer f.Close()
		w = f
	}

	write := export.WritePostageCSV
	if *format == "full" {
		write = export.WriteCSV
	}
	if err := write(w); err != nil {
		logg.Error(ctx, "export failed", err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "rows", len(export.Rows)), "export written")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
