package slug

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Option configures Make.
type Option func(*options)

type options struct {
	replace   map[string]string
	separator string
	strip     string
	maxLength int
	lowercase bool
}

func defaultOptions() *options {
	return &options{
		separator: "-",
		lowercase: true,
	}
}

// MaxLength limits the slug to n runes. Zero or negative disables the limit.
// A separator left dangling by the cut is trimmed.
func MaxLength(n int) Option {
	return func(o *options) {
		o.maxLength = n
	}
}

// Separator sets the string placed between words.
// Default: "-"
func Separator(sep string) Option {
	return func(o *options) {
		o.separator = sep
	}
}

// Lowercase controls case conversion.
// Default: true
func Lowercase(enabled bool) Option {
	return func(o *options) {
		o.lowercase = enabled
	}
}

// StripChars removes every character of chars before slugification.
func StripChars(chars string) Option {
	return func(o *options) {
		o.strip = chars
	}
}

// CustomReplace applies string replacements before slugification.
func CustomReplace(replacements map[string]string) Option {
	return func(o *options) {
		o.replace = replacements
	}
}

// Letters without a canonical decomposition, so NFD leaves them untouched.
var foldTable = map[rune]string{
	'ß': "s", 'ẞ': "s",
	'æ': "a", 'Æ': "a",
	'œ': "o", 'Œ': "o",
	'ø': "o", 'Ø': "o",
	'ł': "l", 'Ł': "l",
	'đ': "d", 'Đ': "d",
	'ð': "d", 'Ð': "d",
	'þ': "th", 'Þ': "th",
	'ı': "i",
}

// Make converts s into a URL-safe slug.
//
// Latin letters with diacritics are folded to ASCII, runs of any other
// characters collapse into a single separator, and separators are trimmed
// from both ends.
func Make(s string, opts ...Option) string {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	for from, to := range o.replace {
		s = strings.ReplaceAll(s, from, to)
	}

	if o.strip != "" {
		s = strings.Map(func(r rune) rune {
			if strings.ContainsRune(o.strip, r) {
				return -1
			}
			return r
		}, s)
	}

	s = fold(s)
	if o.lowercase {
		s = strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pending && b.Len() > 0 {
				b.WriteString(o.separator)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}

	result := b.String()
	if o.maxLength > 0 && utf8.RuneCountInString(result) > o.maxLength {
		result = trimSeparator(truncate(result, o.maxLength), o.separator)
	}

	return result
}

// fold maps Latin letters to their closest ASCII form.
func fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if repl, ok := foldTable[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, b.String())
	if err != nil {
		return b.String()
	}
	return out
}

// truncate cuts s to n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func trimSeparator(s, sep string) string {
	if sep == "" {
		return s
	}
	for strings.HasSuffix(s, sep) {
		s = strings.TrimSuffix(s, sep)
	}
	for strings.HasPrefix(s, sep) {
		s = strings.TrimPrefix(s, sep)
	}
	return s
}
