package intent

import (
	"context"
	"encoding/json"
	"log"

	"github.com/tmc/langchaingo/llms"

	"github.com/bkglobal/bkbot/internal/prompts"
	"github.com/bkglobal/bkbot/internal/session"
)

// LLMClassifier runs the rule layer first and delegates the rest to a
// language model. The model's output is parsed defensively: anything that
// does not come back as a known tagged shape degrades to Search with the
// raw utterance as hint. Backend failures never reach the user-facing flow.
type LLMClassifier struct {
	model llms.Model
}

func NewLLMClassifier(model llms.Model) *LLMClassifier {
	return &LLMClassifier{model: model}
}

func (c *LLMClassifier) Classify(ctx context.Context, utterance string, sess *session.Session) Intent {
	if it, ok := matchRules(utterance, sess); ok {
		return it
	}
	if c.model == nil {
		return SearchFallback(utterance)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, prompts.ClassifySystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman,
			prompts.BuildClassifyPrompt(utterance, string(sess.Pending), sess.LastShownOptions)),
	}

	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithTemperature(0.1),
		llms.WithMaxTokens(300),
		llms.WithJSONMode(),
	)
	if err != nil {
		log.Printf("intent: classification call failed: %v", err)
		return SearchFallback(utterance)
	}
	if len(resp.Choices) == 0 {
		return SearchFallback(utterance)
	}

	return parseIntent(resp.Choices[0].Content, utterance)
}

// parseIntent enforces the classifier contract on raw model output.
func parseIntent(content, utterance string) Intent {
	raw := prompts.ExtractJSON(content)
	if raw == "" {
		return SearchFallback(utterance)
	}

	var it Intent
	if err := json.Unmarshal([]byte(raw), &it); err != nil {
		log.Printf("intent: failed to parse classifier response: %v", err)
		return SearchFallback(utterance)
	}

	switch it.Type {
	case Greeting, Reset, CodeLookup, AskClarify, Variant, Color, PricesForAll:
		return it
	case PickOption:
		if it.Index <= 0 {
			return SearchFallback(utterance)
		}
		return it
	case Search:
		if it.Hint == "" {
			it.Hint = utterance
		}
		return it
	default:
		return SearchFallback(utterance)
	}
}
