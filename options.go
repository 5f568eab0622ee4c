package autoslug

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/autoslug/pkg/slug"
)

// Option configures a Field.
type Option func(*Field)

// PopulateFrom fills the slug from the named attribute when it is empty.
// Attribute values implementing fmt.Stringer or of type func() string
// are called.
func PopulateFrom(attribute string) Option {
	return func(f *Field) {
		f.populate = attributeSource(attribute)
	}
}

// PopulateFromFunc fills the slug from the value returned by fn when it is empty.
func PopulateFromFunc(fn func(Record) string) Option {
	return func(f *Field) {
		if fn != nil {
			f.populate = func(rec Record) (string, error) {
				return fn(rec), nil
			}
		}
	}
}

// PopulateFromExpr fills the slug from an expression evaluated against the
// record, e.g. `attr("title") + " " + attr("author.name")`.
// The expression is compiled once by New.
func PopulateFromExpr(expression string) Option {
	return func(f *Field) {
		f.expression = expression
	}
}

// Unique makes the slug unique among all records of the model.
func Unique() Option {
	return func(f *Field) {
		f.unique = true
	}
}

// UniqueWith makes the slug unique among records sharing the values of the
// given attribute paths. Date attributes accept a granularity suffix
// ("pub_date.month"), relations accept one attribute of the related record
// ("category.name").
func UniqueWith(paths ...string) Option {
	return func(f *Field) {
		f.resolver.Scope = append(f.resolver.Scope, paths...)
	}
}

// MaxLength bounds the slug length in runes. A limit shorter than the
// numeric suffix yields the bare suffix, which may exceed it.
// Default: 50
func MaxLength(n int) Option {
	return func(f *Field) {
		f.resolver.MaxLength = n
	}
}

// Separator sets the string placed between the slug and its numeric suffix.
// Default: "-"
func Separator(sep string) Option {
	return func(f *Field) {
		f.resolver.Separator = sep
	}
}

// AlwaysUpdate recomputes the slug from its populate source on every save,
// even if the record already has one.
func AlwaysUpdate() Option {
	return func(f *Field) {
		f.alwaysUpdate = true
	}
}

// WithNormalizer sets the function turning source text into slug text.
// Default: slug.Default
func WithNormalizer(n slug.Normalizer) Option {
	return func(f *Field) {
		if n != nil {
			f.normalize = n
		}
	}
}

// Blank allows the slug to stay empty when there is nothing to build it
// from. Without it the model name is used.
func Blank() Option {
	return func(f *Field) {
		f.blank = true
	}
}

// Null marks the slug as nullable: an empty result is meant to be stored
// as NULL. It implies Blank.
func Null() Option {
	return func(f *Field) {
		f.blank = true
		f.null = true
	}
}

// WithStore sets the store used to look for rival records.
func WithStore(s Store) Option {
	return func(f *Field) {
		f.resolver.Store = s
	}
}

// SlugSpace queries rivals under the given model instead of the record's
// own, so records of several models share one slug space.
func SlugSpace(model string) Option {
	return func(f *Field) {
		f.resolver.Model = model
	}
}

// WithLocation converts date values to loc before splitting them into
// year, month and day for scope constraints.
func WithLocation(loc *time.Location) Option {
	return func(f *Field) {
		f.resolver.Location = loc
	}
}

// WithLogger sets the field logger.
// If nil, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(f *Field) {
		if l != nil {
			f.resolver.Logger = l
		}
	}
}
