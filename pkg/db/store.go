package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/autoslug"
)

const uniqueViolation = "23505"

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Relation maps a relation attribute to its foreign key column.
type Relation struct {
	// Column is the foreign key column on the owning table.
	Column string
	// Model is the related model. Its table must be registered too.
	Model string
}

// ColumnType is the SQL type of a date column. It decides how date parts
// are extracted.
type ColumnType string

const (
	// ColumnTimestampTZ parts are taken in the store's time zone, if any.
	ColumnTimestampTZ ColumnType = "timestamptz"
	// ColumnTimestamp and ColumnDate parts are taken as stored.
	ColumnTimestamp ColumnType = "timestamp"
	ColumnDate      ColumnType = "date"
)

// Valid reports whether c is a known column type.
func (c ColumnType) Valid() bool {
	switch c {
	case ColumnTimestampTZ, ColumnTimestamp, ColumnDate:
		return true
	}
	return false
}

// Table maps a model to a database table.
type Table struct {
	Model string
	// Name may be schema qualified ("app.posts").
	Name string
	// PrimaryKey defaults to "id".
	PrimaryKey string
	// Columns maps attribute names to column names. Unmapped attributes
	// use their own name.
	Columns map[string]string
	// Types declares date column types. Undeclared dates are timestamptz.
	Types     map[string]ColumnType
	Relations map[string]Relation
}

func (t Table) primaryKey() string {
	if t.PrimaryKey == "" {
		return "id"
	}
	return t.PrimaryKey
}

func (t Table) column(attr string) string {
	if c, ok := t.Columns[attr]; ok && c != "" {
		return c
	}
	return attr
}

func (t Table) columnType(attr string) ColumnType {
	if c, ok := t.Types[attr]; ok && c != "" {
		return c
	}
	return ColumnTimestampTZ
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTimeZone evaluates date part lookups on timestamptz columns in tz
// (an IANA name). Use the zone matching the field's location. DATE and
// timestamp columns hold wall-clock values and are used as stored.
func WithTimeZone(tz string) StoreOption {
	return func(s *Store) {
		s.timeZone = tz
	}
}

// WithSlugSpace lets queries against space check the tables of all given
// models, mirroring autoslug.SlugSpace. Every model needs its own table.
func WithSlugSpace(space string, models ...string) StoreOption {
	return func(s *Store) {
		s.spaces[space] = models
	}
}

// Store answers slug existence queries with a single EXISTS statement per
// query. Relation lookups become subqueries on the related table.
type Store struct {
	q        Querier
	tables   map[string]Table
	spaces   map[string][]string
	timeZone string
}

var _ autoslug.Store = (*Store)(nil)

// NewStore creates a store over the given tables, keyed by their Model.
// Slug spaces are declared with WithSlugSpace.
func NewStore(q Querier, tables []Table, opts ...StoreOption) *Store {
	s := &Store{
		q:      q,
		tables: make(map[string]Table, len(tables)),
		spaces: make(map[string][]string),
	}
	for _, t := range tables {
		s.tables[t.Model] = t
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithQuerier returns a copy of the store that runs its statements on q,
// typically a transaction.
func (s *Store) WithQuerier(q Querier) *Store {
	c := *s
	c.q = q
	return &c
}

// Exists reports whether a row other than q.Exclude satisfies all lookups.
func (s *Store) Exists(ctx context.Context, q autoslug.Query) (bool, error) {
	sql, args, err := s.Statement(q)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := s.q.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, errors.Join(ErrQueryFailed, err)
	}
	return exists, nil
}

// Statement returns the SQL and arguments Exists runs for q. A slug space
// query checks every member table.
func (s *Store) Statement(q autoslug.Query) (string, []any, error) {
	models, ok := s.spaces[q.Model]
	if !ok {
		models = []string{q.Model}
	}

	b := &binder{}
	checks := make([]string, 0, len(models))
	for _, model := range models {
		t, ok := s.tables[model]
		if !ok {
			return "", nil, fmt.Errorf("%w: %q", ErrUnknownTable, model)
		}
		sub, err := s.subquery(b, t, q)
		if err != nil {
			return "", nil, err
		}
		checks = append(checks, "EXISTS ("+sub+")")
	}
	return "SELECT " + strings.Join(checks, " OR "), b.args, nil
}

func (s *Store) subquery(b *binder, t Table, q autoslug.Query) (string, error) {
	conds := make([]string, 0, len(q.Lookups)+1)
	for _, l := range q.Lookups {
		c, err := s.condition(b, t, l.Path, l)
		if err != nil {
			return "", err
		}
		conds = append(conds, c)
	}
	if q.Exclude != nil && (q.Origin == "" || q.Origin == t.Model) {
		conds = append(conds, ident(t.primaryKey())+" <> "+b.bind(q.Exclude))
	}

	where := "TRUE"
	if len(conds) > 0 {
		where = strings.Join(conds, " AND ")
	}
	return fmt.Sprintf("SELECT 1 FROM %s WHERE %s", ident(t.Name), where), nil
}

func (s *Store) condition(b *binder, t Table, path []string, l autoslug.Lookup) (string, error) {
	if len(path) == 0 {
		return "", fmt.Errorf("%w: empty lookup path on %s", ErrUnknownRelation, t.Model)
	}

	name := path[0]
	rel, isRelation := t.Relations[name]

	if len(path) > 1 {
		if !isRelation {
			return "", fmt.Errorf("%w: %s.%s", ErrUnknownRelation, t.Model, name)
		}
		related, ok := s.tables[rel.Model]
		if !ok {
			return "", fmt.Errorf("%w: %q (via %s.%s)", ErrUnknownTable, rel.Model, t.Model, name)
		}
		inner, err := s.condition(b, related, path[1:], l)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s IN (SELECT %s FROM %s WHERE %s)",
			ident(rel.Column), ident(related.primaryKey()), ident(related.Name), inner), nil
	}

	if isRelation {
		if l.IsNull {
			return ident(rel.Column) + " IS NULL", nil
		}
		return ident(rel.Column) + " = " + b.bind(l.Value), nil
	}

	col := ident(t.column(name))
	switch {
	case l.IsNull:
		return "NULLIF(" + col + "::text, '') IS NULL", nil
	case l.Part != autoslug.PartNone:
		source := col
		if s.timeZone != "" && t.columnType(name) == ColumnTimestampTZ {
			source = col + " AT TIME ZONE " + b.bind(s.timeZone)
		}
		return fmt.Sprintf("EXTRACT(%s FROM %s) = %s", strings.ToUpper(l.Part.String()), source, b.bind(l.Value)), nil
	default:
		return col + " = " + b.bind(l.Value), nil
	}
}

// Insert writes rec as a new row and stores the returned primary key in
// rec.ID. Relations are written as the related record's primary key.
// A unique index violation is reported as ErrDuplicateSlug.
func (s *Store) Insert(ctx context.Context, rec *autoslug.MapRecord) error {
	t, ok := s.tables[rec.Model()]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, rec.Model())
	}

	var cols []string
	var args []any
	if rec.ID != nil {
		cols = append(cols, ident(t.primaryKey()))
		args = append(args, rec.ID)
	}

	for _, attr := range rec.Schema.Attributes {
		v, ok := rec.Values[attr.Name]
		if !ok {
			continue
		}
		if attr.Kind != autoslug.KindRelation {
			cols = append(cols, ident(t.column(attr.Name)))
			args = append(args, v)
			continue
		}

		r, declared := t.Relations[attr.Name]
		if !declared {
			return fmt.Errorf("%w: %s.%s", ErrUnknownRelation, t.Model, attr.Name)
		}
		var pk any
		if related, set := rec.Relation(attr.Name); set {
			if pk, set = related.PrimaryKey(); !set {
				return fmt.Errorf("%w: %s.%s", ErrUnsavedRelation, t.Model, attr.Name)
			}
		}
		cols = append(cols, ident(r.Column))
		args = append(args, pk)
	}

	var sql string
	if len(cols) == 0 {
		sql = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", ident(t.Name), ident(t.primaryKey()))
	} else {
		placeholders := make([]string, len(args))
		for i := range args {
			placeholders[i] = "$" + strconv.Itoa(i+1)
		}
		sql = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
			ident(t.Name), strings.Join(cols, ", "), strings.Join(placeholders, ", "), ident(t.primaryKey()))
	}

	var id any
	if err := s.q.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if IsUniqueViolation(err) {
			return errors.Join(ErrDuplicateSlug, err)
		}
		return errors.Join(ErrQueryFailed, err)
	}
	rec.ID = id
	return nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type binder struct {
	args []any
}

func (b *binder) bind(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func ident(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}
