package autoslug_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/autoslug"
	"github.com/dmitrymomot/autoslug/pkg/memstore"
	"github.com/dmitrymomot/autoslug/pkg/slug"
)

var (
	simpleSchema = &autoslug.Schema{
		Model: "simple_model",
		Attributes: []autoslug.Attribute{
			{Name: "name"},
			{Name: "slug", Blank: true},
		},
	}

	articleSchema = &autoslug.Schema{
		Model: "article",
		Attributes: []autoslug.Attribute{
			{Name: "name"},
			{Name: "date", Kind: autoslug.KindDate},
			{Name: "optional_date", Kind: autoslug.KindDate, Blank: true},
			{Name: "simple_model", Kind: autoslug.KindRelation},
			{Name: "optional_model", Kind: autoslug.KindRelation, Blank: true},
			{Name: "slug", Blank: true},
		},
	}
)

// save computes the slug, stores it on rec and persists rec.
func save(t *testing.T, store *memstore.Store, field *autoslug.Field, rec *autoslug.MapRecord) string {
	t.Helper()

	ctx := context.Background()
	s, err := field.Compute(ctx, rec)
	require.NoError(t, err)
	rec.Set(field.Attribute(), s)
	require.NoError(t, store.Save(ctx, rec))
	return s
}

func newField(t *testing.T, store autoslug.Store, opts ...autoslug.Option) *autoslug.Field {
	t.Helper()

	field, err := autoslug.New("slug", append([]autoslug.Option{autoslug.WithStore(store)}, opts...)...)
	require.NoError(t, err)
	return field
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCompute_FallsBackToModelName(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	field := newField(t, store)

	got := save(t, store, field, simpleSchema.New(map[string]any{"name": "test"}))
	assert.Equal(t, "simple-model", got)
}

func TestCompute_GloballyUnique(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	field := newField(t, store, autoslug.PopulateFrom("name"), autoslug.Unique())

	var got []string
	for range 3 {
		got = append(got, save(t, store, field, simpleSchema.New(map[string]any{"name": "Hello world!"})))
	}
	assert.Equal(t, []string{"hello-world", "hello-world-2", "hello-world-3"}, got)
}

func TestCompute_SequenceOfSaves(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	field := newField(t, store, autoslug.PopulateFrom("name"), autoslug.Unique())

	const n = 12
	seen := make(map[string]bool, n)
	for i := range n {
		got := save(t, store, field, simpleSchema.New(map[string]any{"name": "Post"}))
		want := "post"
		if i > 0 {
			want = "post-" + strconv.Itoa(i+1)
		}
		assert.Equal(t, want, got)
		assert.False(t, seen[got], "slug %q produced twice", got)
		seen[got] = true
	}
}

func TestCompute_UniqueWithRelationAttribute(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	field := newField(t, store, autoslug.PopulateFrom("name"), autoslug.UniqueWith("simple_model.name"))

	sm1 := simpleSchema.New(map[string]any{"name": "test"})
	sm2 := simpleSchema.New(map[string]any{"name": "test"})
	sm3 := simpleSchema.New(map[string]any{"name": "test2"})
	for _, sm := range []*autoslug.MapRecord{sm1, sm2, sm3} {
		require.NoError(t, store.Save(context.Background(), sm))
	}

	a := articleSchema.New(map[string]any{"name": "Hello world!", "simple_model": sm1})
	assert.Equal(t, "hello-world", save(t, store, field, a))

	b := articleSchema.New(map[string]any{"name": "Hello world!", "simple_model": sm2})
	assert.Equal(t, "hello-world-2", save(t, store, field, b), "same related name shares the scope")

	c := articleSchema.New(map[string]any{"name": "Hello world!", "simple_model": sm3})
	assert.Equal(t, "hello-world", save(t, store, field, c))

	d := articleSchema.New(map[string]any{"name": "Hello world!", "simple_model": sm1})
	assert.Equal(t, "hello-world-3", save(t, store, field, d))

	// Moving c into the scope of sm1 forces a new suffix on recompute.
	c.Set("simple_model", sm1)
	assert.Equal(t, "hello-world-4", save(t, store, field, c))
}

func TestCompute_UniqueWithRelation(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	field := newField(t, store, autoslug.PopulateFrom("name"), autoslug.UniqueWith("simple_model"))

	sm1 := simpleSchema.New(map[string]any{"name": "one"})
	sm2 := simpleSchema.New(map[string]any{"name": "one"})
	require.NoError(t, store.Save(context.Background(), sm1))
	require.NoError(t, store.Save(context.Background(), sm2))

	assert.Equal(t, "post", save(t, store, field, articleSchema.New(map[string]any{"name": "Post", "simple_model": sm1})))
	assert.Equal(t, "post", save(t, store, field, articleSchema.New(map[string]any{"name": "Post", "simple_model": sm2})))
	assert.Equal(t, "post-2", save(t, store, field, articleSchema.New(map[string]any{"name": "Post", "simple_model": sm1})))
}

func TestCompute_NullableRelationBucket(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	field := newField(t, store, autoslug.PopulateFrom("name"), autoslug.UniqueWith("optional_model"))

	sm := simpleSchema.New(map[string]any{"name": "x"})
	require.NoError(t, store.Save(context.Background(), sm))

	a := articleSchema.New(map[string]any{"name": "test", "optional_model": sm})
	assert.Equal(t, "test", save(t, store, field, a))

	b := articleSchema.New(map[string]any{"name": "test"})
	assert.Equal(t, "test", save(t, store, field, b), "empty relation is its own bucket")

	c := articleSchema.New(map[string]any{"name": "test"})
	assert.Equal(t, "test-2", save(t, store, field, c), "records without relation are still disambiguated")
}

func TestCompute_AcceptableEmptyDependency(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	field := newField(t, store, autoslug.UniqueWith("optional_date"))

	var got []string
	for range 2 {
		got = append(got, save(t, store, field, articleSchema.New(map[string]any{"slug": "hello"})))
	}
	assert.Equal(t, []string{"hello", "hello-2"}, got)
}

func TestCompute_DateGranularity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		constraint string
		dates      []time.Time
		expected   []string
	}{
		{
			name:       "default granularity is day",
			constraint: "date",
			dates:      []time.Time{date(2009, 9, 9), date(2009, 9, 9), date(2009, 9, 10)},
			expected:   []string{"test", "test-2", "test"},
		},
		{
			name:       "explicit day",
			constraint: "date.day",
			dates:      []time.Time{date(2009, 9, 9), date(2009, 9, 9), date(2009, 9, 10)},
			expected:   []string{"test", "test-2", "test"},
		},
		{
			name:       "month",
			constraint: "date.month",
			dates:      []time.Time{date(2009, 9, 9), date(2009, 9, 10), date(2009, 10, 9)},
			expected:   []string{"test", "test-2", "test"},
		},
		{
			name:       "year",
			constraint: "date.year",
			dates:      []time.Time{date(2009, 9, 9), date(2009, 10, 9), date(2010, 9, 9)},
			expected:   []string{"test", "test-2", "test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := memstore.New()
			field := newField(t, store, autoslug.UniqueWith(tt.constraint))

			got := make([]string, 0, len(tt.dates))
			for _, d := range tt.dates {
				got = append(got, save(t, store, field, articleSchema.New(map[string]any{"slug": "test", "date": d})))
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCompute_DateLocation(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)
	store := memstore.New(memstore.WithLocation(tokyo))
	field := newField(t, store, autoslug.UniqueWith("date"), autoslug.WithLocation(tokyo))

	// 20:00 UTC on the 9th is already the 10th in Tokyo.
	a := articleSchema.New(map[string]any{"slug": "test", "date": time.Date(2009, 9, 9, 20, 0, 0, 0, time.UTC)})
	b := articleSchema.New(map[string]any{"slug": "test", "date": time.Date(2009, 9, 10, 1, 0, 0, 0, tokyo)})
	assert.Equal(t, "test", save(t, store, field, a))
	assert.Equal(t, "test-2", save(t, store, field, b))
}

func TestCompute_LongNames(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	long := strings.Repeat("x", 100)

	plain := newField(t, store, autoslug.PopulateFrom("name"))
	assert.Len(t, save(t, store, plain, simpleSchema.New(map[string]any{"name": long})), 50)

	store = memstore.New()
	unique := newField(t, store, autoslug.PopulateFrom("name"), autoslug.Unique())
	a := save(t, store, unique, simpleSchema.New(map[string]any{"name": long}))
	b := save(t, store, unique, simpleSchema.New(map[string]any{"name": long}))
	assert.Len(t, a, 50)
	assert.Len(t, b, 50)
	assert.True(t, strings.HasSuffix(b, "x-2"), b)
}

func TestResolve_LengthBoundAcrossDigitBoundary(t *testing.T) {
	t.Parallel()

	taken := map[string]bool{"abcdefghij": true}
	for i := 2; i <= 9; i++ {
		taken["abcdefgh-"+strconv.Itoa(i)] = true
	}

	r := &autoslug.Resolver{
		Attribute: "slug",
		MaxLength: 10,
		Separator: "-",
		Store: autoslug.StoreFunc(func(_ context.Context, q autoslug.Query) (bool, error) {
			s := q.Lookups[len(q.Lookups)-1].Value.(string)
			return taken[s], nil
		}),
	}

	got, err := r.Resolve(context.Background(), "abcdefghijklmnop", simpleSchema.New(nil))
	require.NoError(t, err)
	assert.Equal(t, "abcdefg-10", got)
	assert.LessOrEqual(t, len(got), 10)
}

func TestCompute_Blank(t *testing.T) {
	t.Parallel()

	store := memstore.New()

	blank := newField(t, store, autoslug.PopulateFrom("name"), autoslug.Blank(), autoslug.Unique())
	assert.Equal(t, "", save(t, store, blank, simpleSchema.New(nil)))
	assert.Equal(t, "", save(t, store, blank, simpleSchema.New(nil)), "empty slugs are not suffixed")
	assert.False(t, blank.Nullable())

	null := newField(t, store, autoslug.PopulateFrom("name"), autoslug.Null())
	assert.Equal(t, "", save(t, store, null, simpleSchema.New(nil)))
	assert.True(t, null.Nullable())
}

func TestCompute_PopulateSources(t *testing.T) {
	t.Parallel()

	store := memstore.New()

	t.Run("callable", func(t *testing.T) {
		field := newField(t, store, autoslug.PopulateFromFunc(func(rec autoslug.Record) string {
			return "the " + rec.Value("name").(string)
		}))
		got, err := field.Compute(context.Background(), simpleSchema.New(map[string]any{"name": "larch"}))
		require.NoError(t, err)
		assert.Equal(t, "the-larch", got)
	})

	t.Run("callable attribute", func(t *testing.T) {
		field := newField(t, store, autoslug.PopulateFrom("name"))
		rec := simpleSchema.New(map[string]any{"name": func() string { return "spam, albatross and spam" }})
		got, err := field.Compute(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, "spam-albatross-and-spam", got)
	})

	t.Run("related attribute path", func(t *testing.T) {
		field := newField(t, store, autoslug.PopulateFrom("simple_model.name"))
		rec := articleSchema.New(map[string]any{"simple_model": simpleSchema.New(map[string]any{"name": "Parent Name"})})
		got, err := field.Compute(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, "parent-name", got)
	})

	t.Run("expression", func(t *testing.T) {
		field := newField(t, store, autoslug.PopulateFromExpr(`attr("name") + " in " + model`))
		got, err := field.Compute(context.Background(), simpleSchema.New(map[string]any{"name": "Spam"}))
		require.NoError(t, err)
		assert.Equal(t, "spam-in-simple-model", got)
	})

	t.Run("expression runtime error", func(t *testing.T) {
		field := newField(t, store, autoslug.PopulateFromExpr(`attr("name") + 1`))
		_, err := field.Compute(context.Background(), simpleSchema.New(map[string]any{"name": "Spam"}))
		require.ErrorIs(t, err, autoslug.ErrPopulate)
	})
}

func TestCompute_CustomNormalizerAndSeparator(t *testing.T) {
	t.Parallel()

	underscored := func(s string) string {
		return strings.ReplaceAll(slug.Make(s), "-", "_")
	}

	store := memstore.New()
	custom := newField(t, store, autoslug.Unique(), autoslug.WithNormalizer(underscored))
	save(t, store, custom, simpleSchema.New(map[string]any{"slug": "hello world!"}))
	assert.Equal(t, "hello_world-2", save(t, store, custom, simpleSchema.New(map[string]any{"slug": "hello world!"})))

	store = memstore.New()
	sep := newField(t, store, autoslug.Unique(), autoslug.Separator("_"))
	save(t, store, sep, simpleSchema.New(map[string]any{"slug": "hello world!"}))
	assert.Equal(t, "hello-world_2", save(t, store, sep, simpleSchema.New(map[string]any{"slug": "hello world!"})))
}

func TestCompute_AlwaysUpdate(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	field := newField(t, store, autoslug.PopulateFrom("name"), autoslug.AlwaysUpdate(), autoslug.Unique())

	rec := simpleSchema.New(map[string]any{"name": "My name"})
	assert.Equal(t, "my-name", save(t, store, field, rec))

	rec.Set("name", "My new name")
	assert.Equal(t, "my-new-name", save(t, store, field, rec))
}

func TestCompute_Idempotent(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	field := newField(t, store, autoslug.PopulateFrom("name"), autoslug.Unique())

	save(t, store, field, simpleSchema.New(map[string]any{"name": "Same"}))
	rec := simpleSchema.New(map[string]any{"name": "Same"})
	assert.Equal(t, "same-2", save(t, store, field, rec))

	// Resaving leaves the slug alone, even though it collides with itself.
	for range 3 {
		assert.Equal(t, "same-2", save(t, store, field, rec))
	}

	// Without AlwaysUpdate a changed source does not touch an existing slug.
	rec.Set("name", "Different")
	assert.Equal(t, "same-2", save(t, store, field, rec))
}

func TestCompute_SharedSlugSpace(t *testing.T) {
	t.Parallel()

	base := &autoslug.Schema{Model: "shared", Attributes: []autoslug.Attribute{{Name: "name"}, {Name: "slug"}}}
	child := &autoslug.Schema{Model: "shared_child", Attributes: base.Attributes}

	store := memstore.New(memstore.ShareSpace("shared", "shared_child"))
	field := newField(t, store, autoslug.PopulateFrom("name"), autoslug.Unique(), autoslug.SlugSpace("shared"))

	assert.Equal(t, "my-name", save(t, store, field, base.New(map[string]any{"name": "My name"})))
	assert.Equal(t, "my-name-2", save(t, store, field, child.New(map[string]any{"name": "My name"})))
	assert.Equal(t, "shared", field.Space(child.New(nil)))
	assert.Equal(t, "shared_child", newField(t, store).Space(child.New(nil)))
}

func TestCompute_ScopeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		constraint string
		values     map[string]any
		target     error
	}{
		{
			name:       "unknown attribute",
			constraint: "wrong_field",
			target:     autoslug.ErrUnknownAttribute,
		},
		{
			name:       "nested lookup on plain attribute",
			constraint: "name.foo",
			values:     map[string]any{"name": "test"},
			target:     autoslug.ErrUnresolvableLookup,
		},
		{
			name:       "date nested twice",
			constraint: "date.month.day",
			values:     map[string]any{"date": date(2009, 9, 9)},
			target:     autoslug.ErrDateNesting,
		},
		{
			name:       "unsupported granularity",
			constraint: "date.week",
			values:     map[string]any{"date": date(2009, 9, 9)},
			target:     autoslug.ErrGranularity,
		},
		{
			name:       "malformed path",
			constraint: "date.",
			values:     map[string]any{"date": date(2009, 9, 9)},
			target:     autoslug.ErrInvalidScope,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			values := map[string]any{"slug": "test"}
			for k, v := range tt.values {
				values[k] = v
			}

			field := newField(t, memstore.New(), autoslug.UniqueWith(tt.constraint))
			_, err := field.Compute(context.Background(), articleSchema.New(values))
			require.ErrorIs(t, err, tt.target)
			require.ErrorIs(t, err, autoslug.ErrInvalidScope)
		})
	}
}

func TestResolver_SelfReference(t *testing.T) {
	t.Parallel()

	r := &autoslug.Resolver{
		Store:     memstore.New(),
		Attribute: "slug",
		Separator: "-",
		Scope:     []string{"slug"},
		MaxLength: 50,
	}
	_, err := r.Resolve(context.Background(), "test", articleSchema.New(map[string]any{"slug": "test"}))
	require.ErrorIs(t, err, autoslug.ErrSelfReference)
	require.ErrorIs(t, err, autoslug.ErrInvalidScope)
}

func TestCompute_EmptyRequiredDependency(t *testing.T) {
	t.Parallel()

	field := newField(t, memstore.New(), autoslug.UniqueWith("date"))
	_, err := field.Compute(context.Background(), articleSchema.New(map[string]any{"slug": "test"}))
	require.ErrorIs(t, err, autoslug.ErrEmptyDependency)
	assert.NotErrorIs(t, err, autoslug.ErrInvalidScope)
	assert.Contains(t, err.Error(), "article.date")
}

func TestCompute_StoreFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	field := newField(t, autoslug.StoreFunc(func(context.Context, autoslug.Query) (bool, error) {
		return false, boom
	}), autoslug.Unique())

	_, err := field.Compute(context.Background(), simpleSchema.New(map[string]any{"slug": "x"}))
	require.ErrorIs(t, err, autoslug.ErrStore)
	require.ErrorIs(t, err, boom)
}

func TestCompute_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	field := newField(t, autoslug.StoreFunc(func(context.Context, autoslug.Query) (bool, error) {
		cancel()
		return true, nil
	}), autoslug.Unique())

	_, err := field.Compute(ctx, simpleSchema.New(map[string]any{"slug": "x"}))
	require.ErrorIs(t, err, context.Canceled)
}

func TestQuery_ExcludesSavedRecord(t *testing.T) {
	t.Parallel()

	field := newField(t, memstore.New(), autoslug.UniqueWith("date.month"))
	rec := articleSchema.New(map[string]any{"date": date(2020, 2, 29)})
	rec.ID = 42

	q, err := field.Query(rec, "post")
	require.NoError(t, err)
	assert.Equal(t, "article", q.Model)
	assert.Equal(t, "article", q.Origin)
	assert.Equal(t, 42, q.Exclude)

	keys := make([]string, 0, len(q.Lookups))
	for _, l := range q.Lookups {
		keys = append(keys, l.Key())
	}
	assert.Equal(t, []string{"date.year", "date.month", "slug"}, keys)
	assert.Equal(t, 2020, q.Lookups[0].Value)
	assert.Equal(t, 2, q.Lookups[1].Value)
	assert.Equal(t, "post", q.Lookups[2].Value)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := autoslug.New("slug", autoslug.Unique())
	require.ErrorIs(t, err, autoslug.ErrNoStore)

	_, err = autoslug.New("slug", autoslug.UniqueWith("date"))
	require.ErrorIs(t, err, autoslug.ErrNoStore)

	_, err = autoslug.New("slug", autoslug.MaxLength(0))
	require.ErrorIs(t, err, autoslug.ErrInvalidOption)

	_, err = autoslug.New("")
	require.ErrorIs(t, err, autoslug.ErrInvalidOption)

	_, err = autoslug.New("slug", autoslug.PopulateFromExpr(`attr(`))
	require.ErrorIs(t, err, autoslug.ErrInvalidOption)

	for _, constraint := range []string{"slug", "slug.year"} {
		_, err = autoslug.New("slug", autoslug.Blank(), autoslug.UniqueWith("date", constraint), autoslug.WithStore(memstore.New()))
		require.ErrorIs(t, err, autoslug.ErrSelfReference, constraint)
		require.ErrorIs(t, err, autoslug.ErrInvalidScope, constraint)
	}

	field, err := autoslug.New("slug", autoslug.PopulateFrom("name"))
	require.NoError(t, err)
	assert.False(t, field.Uniqueness())
}
