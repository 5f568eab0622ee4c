// Package health runs backend health checks in parallel.
//
// Checks share the func(context.Context) error shape of db.Healthcheck and
// redis.Healthcheck:
//
//	report := health.Run(ctx, health.Checks{
//	    "postgres": db.Healthcheck(pool),
//	    "redis":    redis.Healthcheck(client),
//	}, health.WithTimeout(3*time.Second))
//	if err := report.Err(); err != nil {
//	    return err
//	}
//
// Every check runs to completion; one failure does not cancel the others.
package health
