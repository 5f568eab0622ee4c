// Package autoslug computes URL slugs for records right before they are saved.
//
// A slug is produced from a source attribute (or the record's current slug)
// by a normalizer, cropped to a maximum length and, when uniqueness is
// configured, disambiguated with a numeric suffix against the records a
// Store already holds.
//
// # Quick Start
//
// Declare a field once and call Compute for every record being saved:
//
//	field, err := autoslug.New("slug",
//	    autoslug.PopulateFrom("title"),
//	    autoslug.Unique(),
//	    autoslug.WithStore(store),
//	)
//	if err != nil {
//	    return err
//	}
//
//	s, err := field.Compute(ctx, rec)
//	if err != nil {
//	    return err
//	}
//	rec.Set("slug", s)
//
// Saving "Hello world!" three times yields hello-world, hello-world-2 and
// hello-world-3.
//
// # Scopes
//
// UniqueWith restricts uniqueness to records sharing the values of other
// attributes. Date attributes take an optional granularity, relations take
// one attribute of the related record:
//
//	autoslug.UniqueWith("pub_date.month", "category")
//	autoslug.UniqueWith("author.name")
//
// A blank attribute left empty forms its own bucket. A required attribute
// left empty fails with [ErrEmptyDependency]; populate it before computing
// the slug.
//
// # Records and Stores
//
// Compute works on anything implementing [Record]. [Schema] and [MapRecord]
// cover the common case of map-backed records. Existence checks go through
// [Store]; see the memstore, db and redis packages for implementations.
//
// # Concurrency
//
// Resolution checks and then writes, so two concurrent saves can pick the
// same slug. Use [Field.Query] to build a guard for the storage layer and
// treat its duplicate error as a signal to compute again.
package autoslug
