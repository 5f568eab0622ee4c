package autoslug

import "maps"

// Schema declares the attributes of a model.
type Schema struct {
	Model      string
	Attributes []Attribute
}

// Attribute returns the declaration of the named attribute.
func (s *Schema) Attribute(name string) (Attribute, bool) {
	for _, a := range s.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// New returns an unsaved record of this schema holding values.
func (s *Schema) New(values map[string]any) *MapRecord {
	if values == nil {
		values = make(map[string]any)
	}
	return &MapRecord{Schema: s, Values: values}
}

// MapRecord is a Record backed by a map of attribute values.
// Relation attributes hold a Record (or nil when unset).
type MapRecord struct {
	Schema *Schema
	ID     any
	Values map[string]any
}

var _ Record = (*MapRecord)(nil)

func (r *MapRecord) Model() string {
	return r.Schema.Model
}

func (r *MapRecord) PrimaryKey() (any, bool) {
	return r.ID, r.ID != nil
}

func (r *MapRecord) Attribute(name string) (Attribute, bool) {
	return r.Schema.Attribute(name)
}

func (r *MapRecord) Value(name string) any {
	return r.Values[name]
}

func (r *MapRecord) Relation(name string) (Record, bool) {
	a, ok := r.Schema.Attribute(name)
	if !ok || a.Kind != KindRelation {
		return nil, false
	}
	rel, ok := r.Values[name].(Record)
	if !ok || rel == nil {
		return nil, false
	}
	if mr, isMap := rel.(*MapRecord); isMap && mr == nil {
		return nil, false
	}
	return rel, true
}

// Set stores value under name.
func (r *MapRecord) Set(name string, value any) {
	if r.Values == nil {
		r.Values = make(map[string]any)
	}
	r.Values[name] = value
}

// Clone returns a shallow copy with its own value map.
// Related records are shared.
func (r *MapRecord) Clone() *MapRecord {
	return &MapRecord{
		Schema: r.Schema,
		ID:     r.ID,
		Values: maps.Clone(r.Values),
	}
}
