package lga

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultStripTokens is the ordered list of administrative-designation tokens
// removed during name normalization. Victorian LGA datasets use these
// designations inconsistently ("City of Melbourne" vs "MELBOURNE (CITY)"),
// so both prefix and parenthetical-suffix forms are stripped.
// Order matters: "RURAL CITY OF " must be removed before "CITY OF " would
// leave "RURAL " behind, so the longer tokens come first.
var DefaultStripTokens = []string{
	"RURAL CITY OF ",
	"CITY OF ",
	"SHIRE OF ",
	"BOROUGH OF ",
	" (RURAL CITY)",
	" (CITY)",
	" (SHIRE)",
	" (BOROUGH)",
}

// foldAccents decomposes accented characters and drops the combining marks,
// so "Échuca" and "Echuca" normalize to the same key.
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalizer canonicalizes free-text administrative-area names into keys that
// are comparable across datasets with inconsistent naming conventions.
// The zero value is not usable; construct with NewNormalizer.
type Normalizer struct {
	stripTokens []string
}

// NewNormalizer returns a Normalizer using the given strip-token list.
// Passing nil uses DefaultStripTokens.
func NewNormalizer(stripTokens []string) *Normalizer {
	if stripTokens == nil {
		stripTokens = DefaultStripTokens
	}
	return &Normalizer{stripTokens: stripTokens}
}

// Normalize canonicalizes a raw area name:
// accents folded to ASCII, uppercased, administrative-designation tokens
// stripped, remaining punctuation removed, whitespace runs collapsed,
// leading/trailing whitespace trimmed.
//
// Normalize is deterministic and idempotent. It never fails: input that
// cannot yield a meaningful key (empty, whitespace, pure punctuation)
// returns the empty string.
func (n *Normalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	s, _, err := transform.String(foldAccents, raw)
	if err != nil {
		// Invalid UTF-8 survives as-is; uppercasing still applies.
		s = raw
	}
	s = strings.ToUpper(s)

	// Token removal happens before punctuation and whitespace cleanup so a
	// stripped token that leaves a double space or dangling parens is still
	// cleaned afterwards.
	for _, tok := range n.stripTokens {
		s = strings.ReplaceAll(s, tok, "")
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// defaultNormalizer backs the package-level Normalize helper.
var defaultNormalizer = NewNormalizer(nil)

// Normalize canonicalizes a raw area name using DefaultStripTokens.
func Normalize(raw string) string {
	return defaultNormalizer.Normalize(raw)
}
