package catalog

import (
	"strings"
	"unicode"
)

var diacritics = map[rune]rune{
	'á': 'a', 'à': 'a', 'ä': 'a', 'â': 'a',
	'é': 'e', 'è': 'e', 'ë': 'e', 'ê': 'e',
	'í': 'i', 'ì': 'i', 'ï': 'i', 'î': 'i',
	'ó': 'o', 'ò': 'o', 'ö': 'o', 'ô': 'o',
	'ú': 'u', 'ù': 'u', 'ü': 'u', 'û': 'u',
	'ñ': 'n',
}

// Filler words customers type around product names. Stripped before scoring
// so "precio del display iphone 11 por favor" matches like "display iphone 11".
var stopwords = map[string]bool{
	"precio": true, "precios": true, "costo": true, "cuanto": true,
	"cuesta": true, "vale": true, "tienes": true, "tiene": true,
	"tienen": true, "hay": true, "busco": true, "quiero": true,
	"necesito": true, "vendes": true, "venden": true, "manejan": true,
	"de": true, "del": true, "la": true, "el": true, "los": true,
	"las": true, "un": true, "una": true, "para": true, "por": true,
	"favor": true, "me": true, "interesa": true, "disponible": true,
	"dime": true, "saber": true, "que": true, "cual": true, "es": true,
}

// Normalize lowercases, strips diacritics, turns punctuation into spaces and
// collapses whitespace. "¿Precio iPhone 11?" becomes "precio iphone 11".
// Every string comparison in the catalog, intent rules and resolver goes
// through this.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if repl, ok := diacritics[r]; ok {
			r = repl
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}

	return strings.TrimSpace(b.String())
}

// Tokenize splits a normalized string into tokens.
func Tokenize(s string) []string {
	return strings.Fields(Normalize(s))
}

// QueryTokens normalizes an utterance and drops filler stopwords. If every
// token is a stopword the original tokens are kept, so a query is never
// reduced to nothing.
func QueryTokens(s string) []string {
	tokens := Tokenize(s)
	kept := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !stopwords[t] {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return tokens
	}
	return kept
}
