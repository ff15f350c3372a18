// Package normalizer canonicalizes question text before it is embedded or
// matched. The same transform must run at ingestion time and at query time:
// asymmetric normalization silently degrades match quality.
package normalizer

import (
	"strings"
	"unicode"
)

// Normalize lower-cases the text, strips punctuation, collapses whitespace,
// drops English stop-words and lemmatizes the remaining tokens. It is a pure
// function: identical input always yields identical output, and empty or
// whitespace-only input yields "".
func Normalize(text string) string {
	tokens := tokenize(text)

	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		out = append(out, lemmatize(tok))
	}

	return strings.Join(out, " ")
}

// tokenize splits lower-cased text into alphanumeric tokens. Anything that is
// not a letter or digit acts as a separator.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// suffix rules applied in order; first match wins. This is a deliberately
// small rule set in the spirit of dictionary lemmatization: it maps common
// English inflections onto a shared base so that "environments" and
// "environment" or "creating" and "create" embed to nearby keys.
var suffixRules = []struct {
	suffix  string
	replace string
	minStem int
}{
	{"ies", "y", 3},
	{"sses", "ss", 3},
	{"ing", "", 4},
	{"ed", "", 4},
	{"es", "", 3},
	{"s", "", 3},
}

func lemmatize(token string) string {
	for _, rule := range suffixRules {
		if !strings.HasSuffix(token, rule.suffix) {
			continue
		}
		stem := token[:len(token)-len(rule.suffix)]
		if len(stem) < rule.minStem {
			continue
		}
		// Never strip a trailing "s" from words like "is" handled by minStem,
		// but also keep double-s words ("less", "class") intact.
		if rule.suffix == "s" && strings.HasSuffix(token, "ss") {
			continue
		}
		return stem + rule.replace
	}
	return token
}
