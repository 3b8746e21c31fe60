// Package filename turns user supplied file names into safe, ASCII-only names.
package filename

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var disallowed = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Sanitize decomposes accented characters, drops anything outside ASCII,
// replaces path separators and whitespace runs with "_" and strips every
// character that is not a letter, digit, "_", "." or "-".
// Leading and trailing dots and underscores are removed, so the result can
// never be "..", a hidden file or contain a directory component.
// The result may be empty.
func Sanitize(name string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
	ascii, _, err := transform.String(t, name)
	if err != nil {
		ascii = ""
	}

	ascii = strings.NewReplacer("/", " ", `\`, " ").Replace(ascii)
	ascii = strings.Join(strings.Fields(ascii), "_")
	ascii = disallowed.ReplaceAllString(ascii, "")

	return strings.Trim(ascii, "._")
}

// Ext returns the lower-cased substring after the last "." or "" when there is none.
func Ext(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
