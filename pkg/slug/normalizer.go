package slug

// Normalizer turns arbitrary text into slug text.
type Normalizer func(string) string

// Default is Make with default options: lowercase ASCII words joined by "-".
var Default Normalizer = func(s string) string {
	return Make(s)
}

// New returns a Normalizer that applies Make with the given options.
func New(opts ...Option) Normalizer {
	return func(s string) string {
		return Make(s, opts...)
	}
}

// Chain returns a Normalizer that tries each normalizer in order and returns
// the first non-empty result. Nil entries are skipped. An empty chain
// falls back to Default.
func Chain(normalizers ...Normalizer) Normalizer {
	clean := make([]Normalizer, 0, len(normalizers))
	for _, n := range normalizers {
		if n != nil {
			clean = append(clean, n)
		}
	}
	if len(clean) == 0 {
		return Default
	}

	return func(s string) string {
		for _, n := range clean {
			if out := n(s); out != "" {
				return out
			}
		}
		return ""
	}
}
