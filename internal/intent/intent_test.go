package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/bkglobal/bkbot/internal/session"
)

type stubModel struct {
	content string
	err     error
}

func (s *stubModel) GenerateContent(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: s.content}},
	}, nil
}

func (s *stubModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return s.content, s.err
}

func classify(t *testing.T, model llms.Model, utterance string, sess *session.Session) Intent {
	t.Helper()
	if sess == nil {
		sess = session.New("5215550001")
	}
	return NewLLMClassifier(model).Classify(context.Background(), utterance, sess)
}

func TestRuleGreeting(t *testing.T) {
	it := classify(t, nil, "Hola, buenas tardes", nil)
	assert.Equal(t, Greeting, it.Type)
}

func TestRuleGreetingWithPunctuation(t *testing.T) {
	it := classify(t, nil, "Hola!", nil)
	assert.Equal(t, Greeting, it.Type)
}

func TestRuleReset(t *testing.T) {
	it := classify(t, nil, "reiniciar", nil)
	assert.Equal(t, Reset, it.Type)
}

func TestRuleCodeLookup(t *testing.T) {
	it := classify(t, nil, "103317", nil)
	require.Equal(t, CodeLookup, it.Type)
	assert.Equal(t, "103317", it.Code)
}

func TestRulePickWhileAwaiting(t *testing.T) {
	sess := session.New("5215550001")
	sess.Pending = session.PendingPick

	it := classify(t, nil, "2", sess)
	require.Equal(t, PickOption, it.Type)
	assert.Equal(t, 2, it.Index)
}

func TestRuleNumberWithoutPendingIsNotAPick(t *testing.T) {
	it := classify(t, nil, "2", nil)
	assert.NotEqual(t, PickOption, it.Type)
}

func TestRuleVariantWhileAwaiting(t *testing.T) {
	sess := session.New("5215550001")
	sess.Pending = session.PendingVariant

	it := classify(t, nil, "el pro max", sess)
	require.Equal(t, Variant, it.Type)
	assert.Equal(t, "pro max", it.Variant)
}

func TestRuleColorWhileAwaiting(t *testing.T) {
	sess := session.New("5215550001")
	sess.Pending = session.PendingColor

	it := classify(t, nil, "blanco", sess)
	require.Equal(t, Color, it.Type)
	assert.Equal(t, "blanco", it.Color)
}

func TestRulePricesForAll(t *testing.T) {
	it := classify(t, nil, "dame los precios de todos", nil)
	assert.Equal(t, PricesForAll, it.Type)
}

func TestNilModelFallsBackToSearch(t *testing.T) {
	it := classify(t, nil, "display iphone 11", nil)
	require.Equal(t, Search, it.Type)
	assert.Equal(t, "display iphone 11", it.Hint)
}

func TestModelFailureFallsBackToSearch(t *testing.T) {
	it := classify(t, &stubModel{err: errors.New("timeout")}, "display iphone 11", nil)
	require.Equal(t, Search, it.Type)
	assert.Equal(t, "display iphone 11", it.Hint)
}

func TestModelJSONParsed(t *testing.T) {
	model := &stubModel{content: `{"intent":"search","hint":"display iphone 11"}`}
	it := classify(t, model, "tienes pantallas para iphone 11?", nil)
	require.Equal(t, Search, it.Type)
	assert.Equal(t, "display iphone 11", it.Hint)
}

func TestModelJSONWrappedInProse(t *testing.T) {
	model := &stubModel{content: "Claro, aquí va:\n{\"intent\":\"clarify\"}\nListo."}
	it := classify(t, model, "mmm", nil)
	assert.Equal(t, AskClarify, it.Type)
}

func TestModelGarbageFallsBackToSearch(t *testing.T) {
	model := &stubModel{content: "no json here"}
	it := classify(t, model, "algo raro", nil)
	require.Equal(t, Search, it.Type)
	assert.Equal(t, "algo raro", it.Hint)
}

func TestModelUnknownIntentFallsBackToSearch(t *testing.T) {
	model := &stubModel{content: `{"intent":"order_pizza"}`}
	it := classify(t, model, "quiero una pizza", nil)
	assert.Equal(t, Search, it.Type)
}

func TestModelSearchWithoutHintGetsUtterance(t *testing.T) {
	model := &stubModel{content: `{"intent":"search"}`}
	it := classify(t, model, "bocina bluetooth", nil)
	assert.Equal(t, "bocina bluetooth", it.Hint)
}
