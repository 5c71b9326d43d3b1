package graph

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Key prefixes keep URL-derived and name-derived keys from colliding.
const (
	slugPrefix = "in:"
	namePrefix = "name:"
)

// NormalizeName folds diacritics, lowercases and collapses whitespace.
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

var companySuffixes = map[string]bool{
	"inc": true, "llc": true, "ltd": true, "corp": true, "corporation": true,
	"co": true, "gmbh": true, "plc": true, "limited": true,
}

// NormalizeCompany reduces an employer name to a comparable form, dropping
// punctuation and legal suffixes.
func NormalizeCompany(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == ',' || r == '.' {
			return ' '
		}
		return r
	}, s)
	words := strings.Fields(NormalizeName(s))
	for len(words) > 1 && companySuffixes[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// ProfileSlug extracts the lowercase public profile slug from a profile URL.
// It accepts URLs with or without a scheme and returns "" when there is none.
func ProfileSlug(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	path := raw
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		path = u.Path
	} else if i := strings.IndexAny(raw, "?#"); i >= 0 {
		path = raw[:i]
	}
	i := strings.Index(path, "/in/")
	if i < 0 {
		return ""
	}
	slug := strings.Trim(path[i+len("/in/"):], "/")
	if j := strings.IndexByte(slug, '/'); j >= 0 {
		slug = slug[:j]
	}
	if s, err := url.PathUnescape(slug); err == nil {
		slug = s
	}
	return strings.ToLower(slug)
}

// NameKey returns the identity key for a person known only by name.
func NameKey(name string) string {
	n := NormalizeName(name)
	if n == "" {
		return ""
	}
	return namePrefix + n
}

// SlugKey returns the identity key for a profile URL, or "" without a slug.
func SlugKey(profileURL string) string {
	if s := ProfileSlug(profileURL); s != "" {
		return slugPrefix + s
	}
	return ""
}

// Resolver maps (name, url) pairs to identity keys. All pairs are registered
// before any are resolved so a URL-less row merges into the URL-keyed node of
// the same person regardless of file order.
type Resolver struct {
	byName    map[string]string
	ambiguous map[string]bool
}

func NewResolver() *Resolver {
	return &Resolver{byName: make(map[string]string), ambiguous: make(map[string]bool)}
}

// Register records that name is known under url.
func (r *Resolver) Register(name, profileURL string) {
	n, k := NormalizeName(name), SlugKey(profileURL)
	if n == "" || k == "" || r.ambiguous[n] {
		return
	}
	if prev, ok := r.byName[n]; ok && prev != k {
		// two different profiles share the name; only URLs can tell them apart
		delete(r.byName, n)
		r.ambiguous[n] = true
		return
	}
	r.byName[n] = k
}

// Resolve returns the key for a person, or "" when neither field identifies one.
func (r *Resolver) Resolve(name, profileURL string) string {
	if k := SlugKey(profileURL); k != "" {
		return k
	}
	n := NormalizeName(name)
	if n == "" {
		return ""
	}
	if k, ok := r.byName[n]; ok {
		return k
	}
	return namePrefix + n
}

// Alias returns the URL key registered for a name, if unambiguous.
func (r *Resolver) Alias(name string) (string, bool) {
	k, ok := r.byName[NormalizeName(name)]
	return k, ok
}
