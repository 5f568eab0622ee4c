// Package schema loads model declarations from YAML and turns them into
// autoslug schemas, slug fields and database table mappings.
//
// Example file:
//
//	time_zone: Europe/Berlin
//	models:
//	  - name: category
//	    table: categories
//	    attributes:
//	      - name: name
//	  - name: article
//	    table: articles
//	    attributes:
//	      - name: title
//	      - name: pub_date
//	        kind: date
//	        column: published_at
//	      - name: category
//	        kind: relation
//	        model: category
//	        column: category_id
//	        blank: true
//	      - name: slug
//	    slug:
//	      attribute: slug
//	      populate_from: title
//	      unique_with: [pub_date.month, category]
package schema

import (
	"fmt"
	"io/fs"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/autoslug"
	"github.com/dmitrymomot/autoslug/pkg/db"
	"github.com/dmitrymomot/autoslug/pkg/slug"
)

// File is the YAML document layout.
type File struct {
	TimeZone string  `yaml:"time_zone"`
	Models   []Model `yaml:"models"`
}

// Model declares one record type.
type Model struct {
	Name       string      `yaml:"name"`
	Table      string      `yaml:"table"`
	PrimaryKey string      `yaml:"primary_key"`
	Attributes []Attribute `yaml:"attributes"`
	Slug       *Slug       `yaml:"slug"`
}

// Attribute declares one attribute of a model.
type Attribute struct {
	Name string `yaml:"name"`
	// Kind is "value" (default), "date" or "relation".
	Kind   string `yaml:"kind"`
	Blank  bool   `yaml:"blank"`
	Column string `yaml:"column"`
	// ColumnType is the SQL type of a date attribute's column: "date",
	// "timestamp" or "timestamptz" (default).
	ColumnType string `yaml:"column_type"`
	// Model is the related model of a relation.
	Model string `yaml:"model"`
}

// Slug declares the slug field of a model.
type Slug struct {
	Attribute    string   `yaml:"attribute"`
	PopulateFrom string   `yaml:"populate_from"`
	PopulateExpr string   `yaml:"populate_expr"`
	Unique       bool     `yaml:"unique"`
	UniqueWith   []string `yaml:"unique_with"`
	MaxLength    int      `yaml:"max_length"`
	Separator    string   `yaml:"separator"`
	AlwaysUpdate bool     `yaml:"always_update"`
	Blank        bool     `yaml:"blank"`
	// Nullable stores empty slugs as NULL and implies Blank. The key is
	// not "null" because YAML reads an unquoted null key as a null value.
	Nullable bool `yaml:"nullable"`
	// SlugSpace shares uniqueness with every model declaring the same
	// space. A space named after a model includes that model.
	SlugSpace  string      `yaml:"slug_space"`
	Normalizer *Normalizer `yaml:"normalizer"`
}

// Normalizer tunes the default slug.Make based normalizer.
type Normalizer struct {
	Separator string            `yaml:"separator"`
	Lowercase *bool             `yaml:"lowercase"`
	Strip     string            `yaml:"strip"`
	Replace   map[string]string `yaml:"replace"`
}

// Catalog is a validated set of models.
type Catalog struct {
	location *time.Location
	models   map[string]*entry
	order    []string
}

type entry struct {
	decl   Model
	schema *autoslug.Schema
}

// Load reads and parses the schema file at name in fsys.
func Load(fsys fs.FS, name string) (*Catalog, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", name, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

// Parse builds a catalog from a YAML document.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, err)
	}
	return New(f)
}

// New validates f and builds a catalog from it.
func New(f File) (*Catalog, error) {
	c := &Catalog{models: make(map[string]*entry, len(f.Models))}

	if f.TimeZone != "" {
		loc, err := time.LoadLocation(f.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("%w: time zone %q: %s", ErrInvalidFile, f.TimeZone, err)
		}
		c.location = loc
	}

	for _, m := range f.Models {
		if m.Name == "" {
			return nil, fmt.Errorf("%w: model without name", ErrInvalidModel)
		}
		if _, dup := c.models[m.Name]; dup {
			return nil, fmt.Errorf("%w: %q declared twice", ErrInvalidModel, m.Name)
		}
		s, err := buildSchema(m)
		if err != nil {
			return nil, err
		}
		c.models[m.Name] = &entry{decl: m, schema: s}
		c.order = append(c.order, m.Name)
	}

	for _, name := range c.order {
		if err := c.validate(c.models[name].decl); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func buildSchema(m Model) (*autoslug.Schema, error) {
	s := &autoslug.Schema{Model: m.Name}
	seen := make(map[string]bool, len(m.Attributes))
	for _, a := range m.Attributes {
		if a.Name == "" {
			return nil, fmt.Errorf("%w: %s has an attribute without name", ErrInvalidModel, m.Name)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("%w: %s.%s declared twice", ErrInvalidModel, m.Name, a.Name)
		}
		seen[a.Name] = true

		kind, err := parseKind(a.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %s", ErrInvalidModel, m.Name, a.Name, err)
		}
		if a.ColumnType != "" {
			if kind != autoslug.KindDate {
				return nil, fmt.Errorf("%w: %s.%s: column_type is only valid on dates", ErrInvalidModel, m.Name, a.Name)
			}
			if !db.ColumnType(a.ColumnType).Valid() {
				return nil, fmt.Errorf("%w: %s.%s: unknown column type %q", ErrInvalidModel, m.Name, a.Name, a.ColumnType)
			}
		}
		s.Attributes = append(s.Attributes, autoslug.Attribute{Name: a.Name, Kind: kind, Blank: a.Blank})
	}
	return s, nil
}

func parseKind(s string) (autoslug.Kind, error) {
	for _, k := range []autoslug.Kind{autoslug.KindValue, autoslug.KindDate, autoslug.KindRelation} {
		if s == k.String() {
			return k, nil
		}
	}
	if s == "" {
		return autoslug.KindValue, nil
	}
	return autoslug.KindValue, fmt.Errorf("unknown kind %q", s)
}

func (c *Catalog) validate(m Model) error {
	for _, a := range m.Attributes {
		if a.Kind != autoslug.KindRelation.String() {
			continue
		}
		if _, ok := c.models[a.Model]; !ok {
			return fmt.Errorf("%w: %s.%s relates to %q", ErrUnknownModel, m.Name, a.Name, a.Model)
		}
	}

	if m.Slug == nil {
		return nil
	}
	if m.Slug.Attribute == "" {
		return fmt.Errorf("%w: %s slug has no attribute", ErrInvalidModel, m.Name)
	}
	if !slices.ContainsFunc(m.Attributes, func(a Attribute) bool { return a.Name == m.Slug.Attribute }) {
		return fmt.Errorf("%w: %s slug attribute %q is not declared", ErrInvalidModel, m.Name, m.Slug.Attribute)
	}
	if m.Slug.PopulateFrom != "" && m.Slug.PopulateExpr != "" {
		return fmt.Errorf("%w: %s slug sets both populate_from and populate_expr", ErrInvalidModel, m.Name)
	}
	return nil
}

// Location returns the declared time zone, or nil.
func (c *Catalog) Location() *time.Location {
	return c.location
}

// Models returns the model names in declaration order.
func (c *Catalog) Models() []string {
	return slices.Clone(c.order)
}

// Schema returns the record schema of model.
func (c *Catalog) Schema(model string) (*autoslug.Schema, error) {
	e, ok := c.models[model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	return e.schema, nil
}

// Field builds the slug field of model. extra options are applied after the
// declared ones, typically WithStore and WithLogger.
func (c *Catalog) Field(model string, extra ...autoslug.Option) (*autoslug.Field, error) {
	e, ok := c.models[model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	if e.decl.Slug == nil {
		return nil, fmt.Errorf("%w: %s has no slug", ErrInvalidModel, model)
	}

	opts := c.fieldOptions(*e.decl.Slug)
	return autoslug.New(e.decl.Slug.Attribute, append(opts, extra...)...)
}

func (c *Catalog) fieldOptions(s Slug) []autoslug.Option {
	var opts []autoslug.Option
	switch {
	case s.PopulateFrom != "":
		opts = append(opts, autoslug.PopulateFrom(s.PopulateFrom))
	case s.PopulateExpr != "":
		opts = append(opts, autoslug.PopulateFromExpr(s.PopulateExpr))
	}
	if s.Unique {
		opts = append(opts, autoslug.Unique())
	}
	if len(s.UniqueWith) > 0 {
		opts = append(opts, autoslug.UniqueWith(s.UniqueWith...))
	}
	if s.MaxLength != 0 {
		opts = append(opts, autoslug.MaxLength(s.MaxLength))
	}
	if s.Separator != "" {
		opts = append(opts, autoslug.Separator(s.Separator))
	}
	if s.AlwaysUpdate {
		opts = append(opts, autoslug.AlwaysUpdate())
	}
	if s.Blank {
		opts = append(opts, autoslug.Blank())
	}
	if s.Nullable {
		opts = append(opts, autoslug.Null())
	}
	if s.SlugSpace != "" {
		opts = append(opts, autoslug.SlugSpace(s.SlugSpace))
	}
	if s.Normalizer != nil {
		opts = append(opts, autoslug.WithNormalizer(s.Normalizer.build()))
	}
	if c.location != nil {
		opts = append(opts, autoslug.WithLocation(c.location))
	}
	return opts
}

func (n Normalizer) build() slug.Normalizer {
	var opts []slug.Option
	if n.Separator != "" {
		opts = append(opts, slug.Separator(n.Separator))
	}
	if n.Lowercase != nil {
		opts = append(opts, slug.Lowercase(*n.Lowercase))
	}
	if n.Strip != "" {
		opts = append(opts, slug.StripChars(n.Strip))
	}
	if len(n.Replace) > 0 {
		opts = append(opts, slug.CustomReplace(n.Replace))
	}
	return slug.New(opts...)
}

// Tables returns the database mapping of every model. Models without a
// table name use their own name.
func (c *Catalog) Tables() []db.Table {
	tables := make([]db.Table, 0, len(c.order))
	for _, name := range c.order {
		m := c.models[name].decl
		t := db.Table{
			Model:      m.Name,
			Name:       m.Table,
			PrimaryKey: m.PrimaryKey,
		}
		if t.Name == "" {
			t.Name = m.Name
		}
		for _, a := range m.Attributes {
			if a.Kind == autoslug.KindRelation.String() {
				column := a.Column
				if column == "" {
					column = a.Name + "_id"
				}
				if t.Relations == nil {
					t.Relations = make(map[string]db.Relation)
				}
				t.Relations[a.Name] = db.Relation{Column: column, Model: a.Model}
				continue
			}
			if a.Column != "" {
				if t.Columns == nil {
					t.Columns = make(map[string]string)
				}
				t.Columns[a.Name] = a.Column
			}
			if a.ColumnType != "" {
				if t.Types == nil {
					t.Types = make(map[string]db.ColumnType)
				}
				t.Types[a.Name] = db.ColumnType(a.ColumnType)
			}
		}
		tables = append(tables, t)
	}
	return tables
}

// Spaces maps every declared slug space to the models sharing it, in
// declaration order. A space named after a declared model includes it.
func (c *Catalog) Spaces() map[string][]string {
	spaces := make(map[string][]string)
	for _, name := range c.order {
		s := c.models[name].decl.Slug
		if s == nil || s.SlugSpace == "" {
			continue
		}
		spaces[s.SlugSpace] = append(spaces[s.SlugSpace], name)
	}
	for space, models := range spaces {
		if _, ok := c.models[space]; ok && !slices.Contains(models, space) {
			spaces[space] = append([]string{space}, models...)
		}
	}
	return spaces
}
