package autoslug

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"
)

// DatePart is the precision of a date lookup.
type DatePart int

const (
	PartNone DatePart = iota
	PartYear
	PartMonth
	PartDay
)

// dateParts is ordered by granularity: a constraint with granularity p
// expands to dateParts[:p].
var dateParts = []DatePart{PartYear, PartMonth, PartDay}

func (p DatePart) String() string {
	switch p {
	case PartYear:
		return "year"
	case PartMonth:
		return "month"
	case PartDay:
		return "day"
	default:
		return ""
	}
}

func parseDatePart(s string) (DatePart, bool) {
	for _, p := range dateParts {
		if p.String() == s {
			return p, true
		}
	}
	return PartNone, false
}

// extract returns the numeric value of the part of t.
func (p DatePart) extract(t time.Time) int {
	switch p {
	case PartYear:
		return t.Year()
	case PartMonth:
		return int(t.Month())
	case PartDay:
		return t.Day()
	default:
		return 0
	}
}

// Lookup is one condition a rival record has to satisfy to conflict.
//
// Path is the attribute path, following relations for all but the last
// segment. When Part is set the condition compares that part of a date.
// IsNull matches records whose attribute is empty; Value is ignored then.
// Relations are compared by the related record's primary key.
type Lookup struct {
	Value  any
	Path   []string
	Part   DatePart
	IsNull bool
}

// Key returns a stable name for the lookup, e.g. "pub_date.month",
// "category.name" or "category.isnull".
func (l Lookup) Key() string {
	key := strings.Join(l.Path, ".")
	switch {
	case l.IsNull:
		return key + ".isnull"
	case l.Part != PartNone:
		return key + "." + l.Part.String()
	default:
		return key
	}
}

// Match reports whether rec satisfies the lookup.
// Date values are converted to loc before comparison when loc is not nil.
func (l Lookup) Match(rec Record, loc *time.Location) bool {
	if len(l.Path) == 0 || rec == nil {
		return false
	}

	for _, name := range l.Path[:len(l.Path)-1] {
		rel, ok := rec.Relation(name)
		if !ok {
			return false
		}
		rec = rel
	}

	name := l.Path[len(l.Path)-1]
	attr, _ := rec.Attribute(name)
	value := attributeValue(rec, attr, name)

	if l.IsNull {
		return isEmpty(value)
	}
	if isEmpty(value) {
		return false
	}

	if l.Part != PartNone {
		t, ok := asTime(value)
		if !ok {
			return false
		}
		if loc != nil {
			t = t.In(loc)
		}
		return equal(l.Part.extract(t), l.Value)
	}

	if attr.Kind == KindRelation {
		pk, ok := value.(Record).PrimaryKey()
		return ok && equal(pk, l.Value)
	}

	return equal(value, l.Value)
}

// scopeLookups evaluates one scope constraint against rec.
// prefix is the relation path already followed; self names the slug
// attribute and is only checked on the record being saved.
func scopeLookups(rec Record, constraint string, prefix []string, self string, loc *time.Location) ([]Lookup, error) {
	name, inner, nested := strings.Cut(constraint, ".")
	if name == "" || (nested && inner == "") {
		return nil, fmt.Errorf("%w: malformed path %q", ErrInvalidScope, constraint)
	}

	attr, ok := rec.Attribute(name)
	if !ok {
		return nil, errors.Join(ErrInvalidScope,
			fmt.Errorf("%w: %s.%s (constraint %q)", ErrUnknownAttribute, rec.Model(), name, constraint))
	}
	if self != "" && name == self {
		return nil, errors.Join(ErrInvalidScope,
			fmt.Errorf("%w: %s.%s; use global uniqueness instead", ErrSelfReference, rec.Model(), name))
	}

	path := append(slices.Clone(prefix), name)
	value := attributeValue(rec, attr, name)

	if isEmpty(value) {
		if attr.Blank {
			return []Lookup{{Path: path, IsNull: true}}, nil
		}
		return nil, fmt.Errorf("%w: cannot check uniqueness with respect to %s.%s because it is empty; "+
			"make sure it is populated before the slug is computed", ErrEmptyDependency, rec.Model(), name)
	}

	switch attr.Kind {
	case KindDate:
		t, ok := asTime(value)
		if !ok {
			return nil, fmt.Errorf("%w: date attribute %s.%s holds %T", ErrInvalidScope, rec.Model(), name, value)
		}
		if loc != nil {
			t = t.In(loc)
		}

		granularity := PartDay
		if nested {
			if strings.Contains(inner, ".") {
				return nil, errors.Join(ErrInvalidScope, fmt.Errorf("%w: %q", ErrDateNesting, constraint))
			}
			if granularity, ok = parseDatePart(inner); !ok {
				return nil, errors.Join(ErrInvalidScope,
					fmt.Errorf("%w: expected one of year, month, day, got %q in %q", ErrGranularity, inner, constraint))
			}
		}

		lookups := make([]Lookup, 0, granularity)
		for _, part := range dateParts[:granularity] {
			lookups = append(lookups, Lookup{Path: path, Part: part, Value: part.extract(t)})
		}
		return lookups, nil

	case KindRelation:
		related := value.(Record)
		if nested {
			return scopeLookups(related, inner, path, "", loc)
		}
		pk, ok := related.PrimaryKey()
		if !ok {
			return nil, errors.Join(ErrInvalidScope,
				fmt.Errorf("%w: %s.%s points to an unsaved record", ErrUnresolvableLookup, rec.Model(), name))
		}
		return []Lookup{{Path: path, Value: pk}}, nil

	default:
		if nested {
			return nil, errors.Join(ErrInvalidScope,
				fmt.Errorf("%w: %q, %s.%s is not a relation", ErrUnresolvableLookup, constraint, rec.Model(), name))
		}
		return []Lookup{{Path: path, Value: value}}, nil
	}
}

// attributeValue returns the related record for relations and the plain
// value otherwise. Unset relations are nil.
func attributeValue(rec Record, attr Attribute, name string) any {
	if attr.Kind == KindRelation {
		if rel, ok := rec.Relation(name); ok {
			return rel
		}
		return nil
	}
	return rec.Value(name)
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case time.Time:
		return x.IsZero()
	case *time.Time:
		return x == nil || x.IsZero()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Map, reflect.Slice:
		return rv.Len() == 0
	default:
		return rv.IsZero()
	}
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	default:
		return time.Time{}, false
	}
}

func equal(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return reflect.DeepEqual(a, b)
	}
	return a == b
}
