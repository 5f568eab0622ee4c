package autoslug

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/autoslug/pkg/logger"
	"github.com/dmitrymomot/autoslug/pkg/slug"
)

const (
	defaultMaxLength = 50
	defaultSeparator = "-"
)

// Field computes the slug attribute of a record right before it is saved.
//
// A Field is configured once and is safe for concurrent use as long as its
// Store is.
type Field struct {
	normalize    slug.Normalizer
	populate     func(Record) (string, error)
	expression   string
	resolver     Resolver
	unique       bool
	alwaysUpdate bool
	blank        bool
	null         bool
}

// New creates a slug field for the named attribute.
//
// Example:
//
//	field, err := autoslug.New("slug",
//	    autoslug.PopulateFrom("title"),
//	    autoslug.UniqueWith("pub_date.month"),
//	    autoslug.WithStore(store),
//	)
func New(attribute string, opts ...Option) (*Field, error) {
	f := &Field{
		normalize: slug.Default,
		resolver: Resolver{
			Attribute: attribute,
			MaxLength: defaultMaxLength,
			Separator: defaultSeparator,
		},
	}
	for _, opt := range opts {
		opt(f)
	}

	if attribute == "" {
		return nil, fmt.Errorf("%w: empty attribute name", ErrInvalidOption)
	}
	if f.resolver.MaxLength <= 0 {
		return nil, fmt.Errorf("%w: max length must be positive, got %d", ErrInvalidOption, f.resolver.MaxLength)
	}
	for _, constraint := range f.resolver.Scope {
		if name, _, _ := strings.Cut(constraint, "."); name == attribute {
			return nil, errors.Join(ErrInvalidScope,
				fmt.Errorf("%w: %q; use global uniqueness instead", ErrSelfReference, constraint))
		}
	}
	if f.expression != "" {
		source, err := compileSource(f.expression)
		if err != nil {
			return nil, err
		}
		f.populate = source
	}
	if f.Uniqueness() && f.resolver.Store == nil {
		return nil, ErrNoStore
	}
	if f.resolver.Logger == nil {
		f.resolver.Logger = logger.NewNope()
	}

	return f, nil
}

// Attribute returns the name of the slug attribute.
func (f *Field) Attribute() string {
	return f.resolver.Attribute
}

// Space returns the slug space rec's slug must be unique in: the model set
// with SlugSpace, or rec's own model.
func (f *Field) Space(rec Record) string {
	if f.resolver.Model != "" {
		return f.resolver.Model
	}
	return rec.Model()
}

// Nullable reports whether an empty slug is meant to be stored as NULL.
func (f *Field) Nullable() bool {
	return f.null
}

// Uniqueness reports whether the field resolves collisions.
func (f *Field) Uniqueness() bool {
	return f.unique || len(f.resolver.Scope) > 0
}

// Query builds the store query matching records of rec's scope that hold
// slug. Stores use it to enforce uniqueness when records are written.
func (f *Field) Query(rec Record, slug string) (Query, error) {
	return f.resolver.Query(rec, slug)
}

// Compute returns the slug to store for rec.
//
// The current value is kept unless it is empty or AlwaysUpdate is set, in
// which case the populate source is used. The value is normalized, falls
// back to the model name when nothing is left (unless the field is Blank),
// and is made unique when Unique or UniqueWith is configured.
func (f *Field) Compute(ctx context.Context, rec Record) (string, error) {
	ctx = logger.WithAttrs(ctx,
		slog.String("model", rec.Model()),
		slog.String("field", f.resolver.Attribute),
	)

	value := stringify(rec.Value(f.resolver.Attribute))
	if f.populate != nil && (f.alwaysUpdate || value == "") {
		populated, err := f.populate(rec)
		if err != nil {
			return "", err
		}
		value = populated
		if value == "" && !f.blank {
			f.resolver.Logger.WarnContext(ctx, "populate source is empty, using model name")
		}
	}

	fallback := Produce(rec.Model(), f.normalize, rec.Model(), false)
	s := crop(Produce(value, f.normalize, fallback, f.blank), f.resolver.MaxLength)

	if s == "" || !f.Uniqueness() {
		return s, nil
	}
	return f.resolver.Resolve(ctx, s, rec)
}

// attributeSource reads a possibly dotted attribute path off the record.
func attributeSource(path string) func(Record) (string, error) {
	return func(rec Record) (string, error) {
		return stringify(pathValue(rec, path)), nil
	}
}

// pathValue follows relations for all but the last segment of path.
func pathValue(rec Record, path string) any {
	segments := strings.Split(path, ".")
	for _, name := range segments[:len(segments)-1] {
		rel, ok := rec.Relation(name)
		if !ok {
			return nil
		}
		rec = rel
	}
	return rec.Value(segments[len(segments)-1])
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case func() string:
		return x()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
