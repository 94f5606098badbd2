package intent

import (
	"context"

	"github.com/bkglobal/bkbot/internal/session"
)

// Type is the closed set of intents the bot branches on.
type Type string

const (
	Greeting     Type = "greeting"
	Reset        Type = "reset"
	PickOption   Type = "pick_option"
	CodeLookup   Type = "code_lookup"
	Search       Type = "search"
	AskClarify   Type = "clarify"
	Variant      Type = "variant"
	Color        Type = "color"
	PricesForAll Type = "prices_for_all"
)

// Intent is the tagged result of classification. Only the slot matching the
// Type is meaningful.
type Intent struct {
	Type    Type   `json:"intent"`
	Index   int    `json:"index,omitempty"`   // PickOption: chosen option, 1-based
	Code    string `json:"code,omitempty"`    // CodeLookup
	Hint    string `json:"hint,omitempty"`    // Search
	Variant string `json:"variant,omitempty"` // Variant
	Color   string `json:"color,omitempty"`   // Color
}

// Classifier maps an utterance plus session state to an Intent. The
// contract: a valid Intent always comes back, whatever the backend does.
type Classifier interface {
	Classify(ctx context.Context, utterance string, sess *session.Session) Intent
}

// SearchFallback is the intent used whenever classification cannot do
// better: treat the whole utterance as a search hint.
func SearchFallback(utterance string) Intent {
	return Intent{Type: Search, Hint: utterance}
}
