package schema

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/autoslug"
)

var dateLayouts = []string{time.DateOnly, time.RFC3339, time.DateTime}

// Record builds an unsaved record of model from textual values as given on
// the command line. A relation key sets the related record's primary key
// ("category=3"); a dotted key sets an attribute of the related record
// ("category.name=news"). Empty values leave the attribute unset.
func (c *Catalog) Record(model string, values map[string]string) (*autoslug.MapRecord, error) {
	s, err := c.Schema(model)
	if err != nil {
		return nil, err
	}

	rec := s.New(nil)
	for _, key := range slices.Sorted(maps.Keys(values)) {
		if err := c.set(rec, key, values[key]); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (c *Catalog) set(rec *autoslug.MapRecord, key, raw string) error {
	name, rest, nested := strings.Cut(key, ".")
	attr, ok := rec.Attribute(name)
	if !ok {
		return fmt.Errorf("%w: %s has no attribute %q", ErrInvalidValue, rec.Model(), name)
	}

	if nested {
		if attr.Kind != autoslug.KindRelation {
			return fmt.Errorf("%w: %s.%s is not a relation", ErrInvalidValue, rec.Model(), name)
		}
		related, err := c.related(rec, name)
		if err != nil {
			return err
		}
		return c.set(related, rest, raw)
	}

	if raw == "" {
		return nil
	}

	switch attr.Kind {
	case autoslug.KindDate:
		t, err := c.parseTime(raw)
		if err != nil {
			return fmt.Errorf("%w: %s.%s: %s", ErrInvalidValue, rec.Model(), name, err)
		}
		rec.Set(name, t)
	case autoslug.KindRelation:
		related, err := c.related(rec, name)
		if err != nil {
			return err
		}
		related.ID = parseID(raw)
	default:
		rec.Set(name, raw)
	}
	return nil
}

// related returns the record held by relation name, creating it when unset.
func (c *Catalog) related(rec *autoslug.MapRecord, name string) (*autoslug.MapRecord, error) {
	if r, ok := rec.Values[name].(*autoslug.MapRecord); ok && r != nil {
		return r, nil
	}

	target := c.models[rec.Model()].decl.relationModel(name)
	s, err := c.Schema(target)
	if err != nil {
		return nil, err
	}
	r := s.New(nil)
	rec.Set(name, r)
	return r, nil
}

func (m Model) relationModel(name string) string {
	for _, a := range m.Attributes {
		if a.Name == name {
			return a.Model
		}
	}
	return ""
}

func (c *Catalog) parseTime(raw string) (time.Time, error) {
	loc := c.location
	if loc == nil {
		loc = time.UTC
	}

	var firstErr error
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func parseID(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	return raw
}
