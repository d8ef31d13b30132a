package search

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// wordRE matches letter runs with optional trailing digits, Unicode-aware.
var wordRE = regexp.MustCompile(`\p{L}+\p{N}*|\p{N}+`)

// tokenize lowercases s, applies NFC normalization so composed and decomposed
// accents compare equal, extracts word tokens, and drops stop words. Returns
// nil when nothing tokenizable remains.
func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = norm.NFC.String(strings.ToLower(s))
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}
