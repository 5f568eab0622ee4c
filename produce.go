package autoslug

import "github.com/dmitrymomot/autoslug/pkg/slug"

// Produce turns source into a base slug.
//
// A non-empty source is passed through normalize. When the source is empty,
// or normalizes to nothing, the result is fallback, or "" if the field
// allows blank values. A nil normalize uses slug.Default.
func Produce(source string, normalize slug.Normalizer, fallback string, allowBlank bool) string {
	if normalize == nil {
		normalize = slug.Default
	}

	if source != "" {
		if out := normalize(source); out != "" {
			return out
		}
	}

	if allowBlank {
		return ""
	}
	return fallback
}
