package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/autoslug/pkg/logger"
)

const (
	defaultTimeout = 5 * time.Second

	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc matches the Healthcheck closures of the db and redis packages.
type CheckFunc func(ctx context.Context) error

// Checks maps backend names to their checks.
type Checks map[string]CheckFunc

// Report is the outcome of Run.
type Report struct {
	Checks map[string]Check `json:"checks,omitempty"`
	Status string           `json:"status"`
}

// Check is the outcome of one check.
type Check struct {
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Err returns nil for a healthy report, or one error naming every
// failed check in name order.
func (r *Report) Err() error {
	if r.Status == StatusHealthy {
		return nil
	}
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(r.Checks)) {
		if c := r.Checks[name]; c.Status != StatusHealthy {
			errs = append(errs, fmt.Errorf("%s: %s", name, c.Error))
		}
	}
	return errors.Join(ErrCheckFailed, errors.Join(errs...))
}

type config struct {
	logger  *slog.Logger
	timeout time.Duration
	limit   int
}

// Option configures Run.
type Option func(*config)

// WithTimeout bounds all checks together.
// Default: 5 seconds
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger logs failed checks.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithConcurrency caps the number of checks running at once.
// Default: unlimited
func WithConcurrency(n int) Option {
	return func(c *config) {
		c.limit = n
	}
}

// Run executes all checks in parallel. A failing check never cancels the
// others; each outcome is recorded in the report.
func Run(ctx context.Context, checks Checks, opts ...Option) *Report {
	cfg := &config{
		timeout: defaultTimeout,
		logger:  logger.NewNope(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(checks) == 0 {
		return &Report{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]Check, len(checks))
		failed  bool
	)

	g := new(errgroup.Group)
	if cfg.limit > 0 {
		g.SetLimit(cfg.limit)
	}
	for name, check := range checks {
		g.Go(func() error {
			start := time.Now()
			err := check(ctx)
			if err == nil && ctx.Err() != nil {
				err = errors.Join(ErrCheckTimeout, ctx.Err())
			}

			result := Check{Status: StatusHealthy, Duration: time.Since(start)}
			if err != nil {
				result.Status = StatusUnhealthy
				result.Error = err.Error()
				cfg.logger.WarnContext(ctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}

			mu.Lock()
			defer mu.Unlock()
			results[name] = result
			failed = failed || err != nil
			return nil
		})
	}
	_ = g.Wait()

	status := StatusHealthy
	if failed {
		status = StatusUnhealthy
	}
	return &Report{Status: status, Checks: results}
}
