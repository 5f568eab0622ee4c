package autoslug

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/dmitrymomot/autoslug/pkg/logger"
)

// Resolver makes a slug unique among the records sharing its scope.
//
// It is not safe against concurrent writers: two saves racing for the same
// slug can both see it as free. The storage layer's own unique constraint
// is expected to reject the loser.
type Resolver struct {
	Store Store
	// Location converts date values before they are split into parts.
	// Nil leaves values in their own location.
	Location *time.Location
	Logger   *slog.Logger
	// Attribute is the name of the slug attribute.
	Attribute string
	// Model overrides the record's model in store queries, so several
	// models can share one slug space.
	Model     string
	Separator string
	// Scope lists the constraint paths, e.g. "pub_date.month" or
	// "category". Empty means globally unique.
	Scope []string
	// MaxLength bounds the slug in runes. Zero disables the limit.
	MaxLength int
}

// Lookups evaluates the scope constraints against rec.
func (r *Resolver) Lookups(rec Record) ([]Lookup, error) {
	var lookups []Lookup
	for _, constraint := range r.Scope {
		ls, err := scopeLookups(rec, constraint, nil, r.Attribute, r.Location)
		if err != nil {
			return nil, err
		}
		lookups = append(lookups, ls...)
	}
	return lookups, nil
}

// Query builds the store query that finds rivals of rec holding slug.
func (r *Resolver) Query(rec Record, slug string) (Query, error) {
	lookups, err := r.Lookups(rec)
	if err != nil {
		return Query{}, err
	}
	return r.query(rec, lookups, slug), nil
}

func (r *Resolver) query(rec Record, lookups []Lookup, slug string) Query {
	q := Query{
		Model:   r.Model,
		Origin:  rec.Model(),
		Lookups: append(slices.Clone(lookups), Lookup{Path: []string{r.Attribute}, Value: slug}),
	}
	if q.Model == "" {
		q.Model = rec.Model()
	}
	if pk, ok := rec.PrimaryKey(); ok {
		q.Exclude = pk
	}
	return q
}

// Resolve returns base, or base with the smallest numeric suffix starting
// at 2, such that no other record in the scope of rec holds it.
// The result never exceeds MaxLength: the base is cropped further as the
// suffix grows.
func (r *Resolver) Resolve(ctx context.Context, base string, rec Record) (string, error) {
	log := r.Logger
	if log == nil {
		log = logger.NewNope()
	}

	lookups, err := r.Lookups(rec)
	if err != nil {
		return "", err
	}

	original := crop(base, r.MaxLength)
	slug := original

	for index := 1; ; {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		taken, err := r.Store.Exists(ctx, r.query(rec, lookups, slug))
		if err != nil {
			return "", errors.Join(ErrStore, err)
		}
		if !taken {
			return slug, nil
		}

		index++
		tail := r.Separator + strconv.Itoa(index)
		if r.MaxLength > 0 {
			if keep := r.MaxLength - utf8.RuneCountInString(tail); keep > 0 {
				original = crop(original, keep)
			} else {
				original = ""
			}
		}
		log.DebugContext(ctx, "slug taken, trying next suffix",
			slog.String("taken", slug),
			slog.Int("index", index),
		)
		slug = original + tail
	}
}

// crop cuts s to at most n runes. n <= 0 means no limit.
func crop(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
