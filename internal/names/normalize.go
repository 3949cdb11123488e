// Package names turns freeform scraped display names into lookup keys that can
// be matched exactly against the person registry's name variants.
package names

import "strings"

// diacritics maps the Latin-diacritic characters seen in register data to
// their ASCII base
var diacritics = strings.NewReplacer(
	"ö", "o",
	"ü", "u",
	"ä", "a",
	"â", "a",
	"ß", "ss",
	"é", "e",
	"ë", "e",
	"è", "e",
	"ê", "e",
	"ç", "c",
	"ñ", "n",
)

// prefixes are honorifics stripped from the front of a name. Order matters:
// the first match wins and only one prefix is removed.
var prefixes = []string{
	"dame ",
	"mp ",
	"mr ",
	"ms ",
	"mrs ",
	"dr ",
	"dr. ",
	"rt hon ",
	"sir ",
	"the rt. hon. ",
	"the rt. hon ",
	"the rt hon. ",
	"rt hon. ",
	"baroness",
	"the rt hon ",
	"sir ",
}

// postfixes are honorifics stripped from the end of a name, first match wins
var postfixes = []string{" mp", " cbe", " kcb", " obe", "mp / as", " qc"}

// Normalizer maps display names to canonical lookup keys, applying the
// approved correction table as a final override
type Normalizer struct {
	corrections map[string]string
}

// New creates a Normalizer. The corrections map is keyed by the
// already-normalized form of the bad name; values are lowercase canonical
// names. It may be nil.
func New(corrections map[string]string) *Normalizer {
	return &Normalizer{corrections: corrections}
}

// Normalize produces a lowercase lookup key from a freeform display name.
// The steps are ordered and deterministic; the correction table applies last,
// keyed on the string after all other cleaning.
func (n *Normalizer) Normalize(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))

	s = strings.TrimSuffix(s, " mp")

	s = diacritics.Replace(s)

	s = strings.ReplaceAll(s, "the lord ", "lord ")

	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}

	for _, postfix := range postfixes {
		if strings.HasSuffix(s, postfix) {
			s = strings.TrimSpace(s[:len(s)-len(postfix)])
			break
		}
	}

	if strings.HasSuffix(s, ",") {
		s = strings.TrimSpace(s[:len(s)-1])
	}

	if canon, ok := n.corrections[s]; ok {
		s = canon
	}

	return s
}

// lordWords are substrings that indicate a peerage title
var lordWords = []string{"lord", "baroness", "lady", "baron", "the earl", "lord bishop"}

// IsLord reports whether a display name looks like a peer. Peers are excluded
// from the MP roster lookup, so unmatched peers are not flagged as bad names.
func IsLord(name string) bool {
	s := strings.ToLower(name)
	for _, word := range lordWords {
		if strings.Contains(s, word) {
			return true
		}
	}
	return false
}
