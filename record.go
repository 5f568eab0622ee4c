package autoslug

// Kind describes how an attribute takes part in scope constraints.
type Kind int

const (
	// KindValue is a plain attribute compared by equality.
	KindValue Kind = iota
	// KindDate is a date or datetime attribute. Scope constraints on it are
	// split into year, month and day lookups.
	KindDate
	// KindRelation is a to-one relation. Its value is the related record.
	KindRelation
)

// String returns the kind name as used in schema files.
func (k Kind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindRelation:
		return "relation"
	default:
		return "value"
	}
}

// Attribute is the metadata a record exposes for one of its attributes.
type Attribute struct {
	Name string
	Kind Kind
	// Blank reports whether the attribute may be left empty.
	Blank bool
}

// Record is the view of a persisted entity the slug field works with.
// The field never owns records: it reads attribute values off the record
// being saved and asks a Store about the others.
type Record interface {
	// Model names the record type. It is the default slug when nothing
	// else is available and the namespace for store queries.
	Model() string

	// PrimaryKey returns the record identity and whether it has one yet.
	PrimaryKey() (any, bool)

	// Attribute describes the named attribute.
	Attribute(name string) (Attribute, bool)

	// Value returns the current value of the named attribute.
	Value(name string) any

	// Relation follows a to-one relation. It returns false when the
	// relation is unset or name is not a relation.
	Relation(name string) (Record, bool)
}
