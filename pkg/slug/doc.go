// Package slug turns arbitrary text into URL-safe slugs.
//
// It is the default text normalizer used by autoslug fields: Latin letters with
// diacritics are folded to ASCII, everything that is not an ASCII letter or
// digit collapses into a separator, and the result is lowercased.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/autoslug/pkg/slug"
//
//	s := slug.Make("Hello, World!")
//	// Output: "hello-world"
//
//	s = slug.Make("Café & Restaurant")
//	// Output: "cafe-restaurant"
//
// # Configuration Options
//
// MaxLength limits the slug length (rune-based):
//
//	slug.Make("Very long title", slug.MaxLength(9))
//	// Output: "very-long"
//
// Separator sets the string used between words:
//
//	slug.Make("Product Name", slug.Separator("_"))
//	// Output: "product_name"
//
// Lowercase controls case conversion:
//
//	slug.Make("Product Name", slug.Lowercase(false))
//	// Output: "Product-Name"
//
// StripChars removes specific characters before processing:
//
//	slug.Make("Price: $100", slug.StripChars("$:"))
//	// Output: "price-100"
//
// CustomReplace applies string replacements before slugification:
//
//	slug.Make("Fish & Chips", slug.CustomReplace(map[string]string{"&": "and"}))
//	// Output: "fish-and-chips"
//
// # Normalizers
//
// A [Normalizer] is a plain func(string) string. [Default] wraps Make with
// default options, [New] binds a set of options, and [Chain] builds an ordered
// preference list where the first non-empty result wins:
//
//	n := slug.Chain(cyrillicTranslit, slug.Default)
//	n("Привет") // handled by cyrillicTranslit
//
// Unsupported scripts (Cyrillic, CJK, etc.) are replaced with separators by
// Make, so chaining a script-specific normalizer in front is the way to keep them.
package slug
