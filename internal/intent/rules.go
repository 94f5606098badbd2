package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bkglobal/bkbot/internal/catalog"
	"github.com/bkglobal/bkbot/internal/session"
)

// Deterministic rule layer. Runs before any LLM call; the cheap,
// unambiguous cases never leave the process.

var (
	codePattern  = regexp.MustCompile(`^\d{4,}$`)
	indexPattern = regexp.MustCompile(`^\d{1,2}$`)
)

var greetings = []string{
	"hola", "buenas", "buenos dias", "buenas tardes", "buenas noches",
	"hey", "hello", "hi", "que tal", "saludos",
}

var resets = []string{
	"reset", "reiniciar", "menu", "empezar de nuevo", "inicio", "cancelar",
}

var variantWords = []string{
	"pro max", "pro", "mini", "plus", "max", "ultra", "lite", "se",
	"normal", "base", "sencillo", "sencilla", "regular",
}

var colorWords = []string{"blanco", "blanca", "negro", "negra", "white", "black"}

var pricesForAllPhrases = []string{
	"precios de todos", "precios de todas", "todos los precios",
	"precio de todos", "precio de todas", "los demas", "las demas",
	"de cada uno", "de cada una",
}

// matchRules returns the intent when a deterministic rule fires.
func matchRules(utterance string, sess *session.Session) (Intent, bool) {
	norm := catalog.Normalize(utterance)
	if norm == "" {
		return Intent{Type: AskClarify}, true
	}

	for _, r := range resets {
		if norm == r {
			return Intent{Type: Reset}, true
		}
	}
	for _, g := range greetings {
		if norm == g || strings.HasPrefix(norm, g+" ") {
			return Intent{Type: Greeting}, true
		}
	}

	// A 4+ digit number is a product code wherever it shows up.
	if codePattern.MatchString(norm) {
		return Intent{Type: CodeLookup, Code: norm}, true
	}

	for _, p := range pricesForAllPhrases {
		if strings.Contains(norm, p) {
			return Intent{Type: PricesForAll}, true
		}
	}

	// The pending question narrows what a short answer means.
	switch sess.Pending {
	case session.PendingPick:
		if indexPattern.MatchString(norm) {
			n, _ := strconv.Atoi(norm)
			return Intent{Type: PickOption, Index: n}, true
		}
	case session.PendingVariant:
		for _, v := range variantWords {
			if wordIn(norm, v) {
				return Intent{Type: Variant, Variant: v}, true
			}
		}
	case session.PendingColor:
		for _, c := range colorWords {
			if wordIn(norm, c) {
				return Intent{Type: Color, Color: c}, true
			}
		}
	}

	return Intent{}, false
}

func wordIn(s, word string) bool {
	if s == word {
		return true
	}
	return strings.HasPrefix(s, word+" ") ||
		strings.HasSuffix(s, " "+word) ||
		strings.Contains(s, " "+word+" ")
}
