// Package logger builds the slog loggers used by autoslug and its stores.
//
// Loggers write JSON and pick request-scoped attributes out of the
// context on every call. [WithAttrs] stores attributes in a context and
// [ContextAttrs] extracts them again; every logger created by [New] or
// [NewFromConfig] does that automatically:
//
//	ctx = logger.WithAttrs(ctx, slog.String("model", "article"))
//	log.DebugContext(ctx, "slug taken")
//	// {"level":"DEBUG","msg":"slug taken","model":"article"}
//
// autoslug.Field.Compute tags its context with the model and field names, so
// store logs emitted during resolution carry them without extra wiring.
//
// # Sentry
//
// [NewFromConfig] forwards warnings and errors to Sentry when SENTRY_DSN is set
// and logs to stderr only when it is empty or Sentry cannot be
// initialized:
//
//	var cfg logger.Config // LOG_LEVEL, SENTRY_DSN, SENTRY_ENVIRONMENT
//	log := logger.NewFromConfig(cfg)
//	defer logger.Flush()
//
// [NewNope] returns a logger that discards everything; it is the default for
// fields and stores created without a logger.
package logger
