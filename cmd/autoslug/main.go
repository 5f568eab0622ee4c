// Command autoslug computes slugs for records declared in a YAML schema and
// optionally saves them to a memory, PostgreSQL or Redis backend.
//
// Usage:
//
//	autoslug [flags] -model NAME attr=value ...
//
// Example:
//
//	AUTOSLUG_BACKEND=postgres autoslug -migrate -save -model article \
//	    title="Hello world!" pub_date=2009-09-09 category=3
//
// Configuration comes from the environment and an optional .env file:
// AUTOSLUG_BACKEND, AUTOSLUG_SCHEMA, AUTOSLUG_SAVE_ATTEMPTS, LOG_LEVEL,
// SENTRY_DSN, plus the DATABASE_* or REDIS_* variables of the selected
// backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/dmitrymomot/autoslug"
	"github.com/dmitrymomot/autoslug/internal/schema"
	"github.com/dmitrymomot/autoslug/pkg/health"
	"github.com/dmitrymomot/autoslug/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Args[1:], os.Stdout)
	cancel()
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "autoslug:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("autoslug", flag.ContinueOnError)
	var (
		model      = flags.String("model", "", "model to compute the slug for (required)")
		schemaPath = flags.String("schema", "", "schema file, overrides AUTOSLUG_SCHEMA")
		backendFlg = flags.String("backend", "", "memory, postgres or redis, overrides AUTOSLUG_BACKEND")
		envFile    = flags.String("env", "", "extra .env file, loaded after ./.env")
		save       = flags.Bool("save", false, "persist the record with its slug")
		migrate    = flags.Bool("migrate", false, "apply migrations before running (postgres)")
		count      = flags.Int("count", 1, "number of records to compute or save")
	)
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), "usage: autoslug [flags] -model NAME attr=value ...")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *model == "" {
		flags.Usage()
		return errors.New("-model is required")
	}
	if *count < 1 {
		return fmt.Errorf("-count must be positive, got %d", *count)
	}

	values, err := parseAssignments(flags.Args())
	if err != nil {
		return err
	}

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	if err := loadDotenv(envFiles...); err != nil {
		return err
	}
	cfg, err := parseEnv[Config]()
	if err != nil {
		return err
	}
	if *schemaPath != "" {
		cfg.SchemaPath = *schemaPath
	}
	if *backendFlg != "" {
		cfg.Backend = *backendFlg
	}

	log := logger.NewFromConfig(cfg.Log)
	defer logger.Flush()
	ctx = logger.WithAttrs(ctx, slog.String("backend", cfg.Backend))

	catalog, err := schema.Load(os.DirFS(filepath.Dir(cfg.SchemaPath)), filepath.Base(cfg.SchemaPath))
	if err != nil {
		return err
	}

	b, err := openBackend(ctx, cfg.Backend, backendOptions{catalog: catalog, log: log, migrate: *migrate})
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(context.Background()); err != nil {
			log.WarnContext(ctx, "failed to close backend", slog.String("error", err.Error()))
		}
	}()

	if err := health.Run(ctx, b.Checks(), health.WithLogger(log), health.WithTimeout(5*time.Second)).Err(); err != nil {
		return err
	}

	field, err := catalog.Field(*model, autoslug.WithStore(b.Store()), autoslug.WithLogger(log))
	if err != nil {
		return err
	}

	for range *count {
		s, err := compute(ctx, catalog, field, b, *model, values, *save, cfg.Attempts, log)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, s)
	}
	return nil
}

// compute builds a fresh record for every attempt, so a retry after a lost
// race starts from the given values instead of the rejected slug.
func compute(
	ctx context.Context,
	catalog *schema.Catalog,
	field *autoslug.Field,
	b backend,
	model string,
	values map[string]string,
	save bool,
	attempts int,
	log *slog.Logger,
) (string, error) {
	attempts = max(attempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		rec, err := catalog.Record(model, values)
		if err != nil {
			return "", err
		}
		if !save {
			return field.Compute(ctx, rec)
		}

		s, err := b.Save(ctx, field, rec)
		if err == nil {
			log.InfoContext(ctx, "record saved",
				slog.String("model", model),
				slog.String("slug", s),
				slog.Any("id", rec.ID),
			)
			return s, nil
		}
		if !isConflict(err) {
			return "", err
		}

		lastErr = err
		log.WarnContext(ctx, "slug taken by a concurrent writer, retrying",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
	}
	return "", fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}

// parseAssignments turns attr=value arguments into a map.
func parseAssignments(args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not attr=value", arg)
		}
		if _, dup := values[key]; dup {
			return nil, fmt.Errorf("attribute %q given twice", key)
		}
		values[key] = value
	}
	return values, nil
}
