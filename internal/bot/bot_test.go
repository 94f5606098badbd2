package bot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkglobal/bkbot/internal/catalog"
	"github.com/bkglobal/bkbot/internal/dedup"
	"github.com/bkglobal/bkbot/internal/intent"
	"github.com/bkglobal/bkbot/internal/models"
	"github.com/bkglobal/bkbot/internal/session"
)

type staticSource struct {
	items []models.CatalogItem
}

func (s *staticSource) Load(context.Context) ([]models.CatalogItem, error) {
	return s.items, nil
}

type fakeSender struct {
	sent []string
	to   []string
}

func (f *fakeSender) SendText(_ context.Context, to, body string) error {
	f.to = append(f.to, to)
	f.sent = append(f.sent, body)
	return nil
}

func (f *fakeSender) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

var fixtures = []models.CatalogItem{
	{Code: "103317", Name: "DISPLAY IPHONE 11", Price: 850, StockQty: 4, Group: "Displays Celular"},
	{Code: "103318", Name: "DISPLAY IPHONE 11 PRO MAX", Price: 1250, StockQty: 0, Group: "Displays Celular"},
	{Code: "201001", Name: "CHAPA CERRADURA 500", Price: 320, StockQty: 10, Group: "Cerraduras"},
	{Code: "201002", Name: "CHAPA CERRADURA 700", Price: 410, StockQty: 3, Group: "Cerraduras"},
	{Code: "201003", Name: "CHAPA CERRADURA 900", Price: 520, StockQty: 0, Group: "Cerraduras"},
}

func newTestBot(t *testing.T, items []models.CatalogItem) (*Bot, *fakeSender, session.Store) {
	t.Helper()

	idx := catalog.NewIndex(&staticSource{items: items}, catalog.Options{})
	require.NoError(t, idx.Refresh(context.Background()))

	store := newMemorySessionStore(t)
	sender := &fakeSender{}
	window := dedup.NewWindow(time.Minute)
	t.Cleanup(window.Close)

	// nil model: rule classification plus Search fallback, no agent loop.
	b := New(store, window, idx, intent.NewLLMClassifier(nil), nil, sender, nil)
	return b, sender, store
}

func newMemorySessionStore(t *testing.T) session.Store {
	t.Helper()
	s := session.NewMemoryStore(time.Minute)
	t.Cleanup(func() { s.Close() })
	return s
}

var msgSeq int

func text(from, body string) models.InboundMessage {
	msgSeq++
	return models.InboundMessage{
		From:      from,
		MessageID: fmt.Sprintf("wamid.%d", msgSeq),
		Type:      "text",
		Text:      body,
	}
}

func TestVariantDisambiguationFlow(t *testing.T) {
	b, sender, store := newTestBot(t, fixtures)
	ctx := context.Background()

	// "precio iphone 11" matches two variants: the bot must ask which.
	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "precio iphone 11")))
	assert.Contains(t, sender.last(), "Pro max o normal")

	sess, _ := store.Get(ctx, "5215550001")
	assert.Equal(t, session.PendingVariant, sess.Pending)
	assert.Len(t, sess.Candidates, 2)

	// "normal" resolves to the non-Pro-Max item with price and stock label.
	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "normal")))
	reply := sender.last()
	assert.Contains(t, reply, "DISPLAY IPHONE 11")
	assert.Contains(t, reply, "$850.00")
	assert.Contains(t, reply, "✅ Hay existencia")

	sess, _ = store.Get(ctx, "5215550001")
	assert.Equal(t, session.PendingNone, sess.Pending)
}

func TestStockLabelNeverShowsQuantity(t *testing.T) {
	b, sender, _ := newTestBot(t, fixtures)
	ctx := context.Background()

	// 103317 has 4 units; the reply must carry the label, never the number.
	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "103317")))
	assert.Contains(t, sender.last(), "✅ Hay existencia")
	assert.NotContains(t, sender.last(), "4")

	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "103318")))
	assert.Contains(t, sender.last(), "❌ Sin existencia")
}

func TestCodeLookupBypassesDisambiguation(t *testing.T) {
	b, sender, store := newTestBot(t, fixtures)
	ctx := context.Background()

	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "103317")))
	assert.Contains(t, sender.last(), "DISPLAY IPHONE 11")
	assert.Contains(t, sender.last(), "$850.00")

	sess, _ := store.Get(ctx, "5215550001")
	assert.Equal(t, session.PendingNone, sess.Pending)
}

func TestCodeLookupShortCircuitsPendingState(t *testing.T) {
	b, sender, store := newTestBot(t, fixtures)
	ctx := context.Background()

	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "precio iphone 11")))
	sess, _ := store.Get(ctx, "5215550001")
	require.Equal(t, session.PendingVariant, sess.Pending)

	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "201001")))
	assert.Contains(t, sender.last(), "CHAPA CERRADURA 500")

	sess, _ = store.Get(ctx, "5215550001")
	assert.Equal(t, session.PendingNone, sess.Pending)
}

func TestOptionPickFlow(t *testing.T) {
	b, sender, store := newTestBot(t, fixtures)
	ctx := context.Background()

	// Three locks, no variant/color signal: numbered menu.
	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "chapa cerradura")))
	assert.Contains(t, sender.last(), "1.")
	assert.Contains(t, sender.last(), "2.")
	assert.Contains(t, sender.last(), "3.")

	sess, _ := store.Get(ctx, "5215550001")
	require.Equal(t, session.PendingPick, sess.Pending)
	require.Len(t, sess.LastShownOptions, 3)
	first := sess.LastShownOptions[0]

	// Out-of-range pick re-asks without losing the options.
	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "9")))
	assert.Contains(t, sender.last(), "1 al 3")
	sess, _ = store.Get(ctx, "5215550001")
	assert.Equal(t, session.PendingPick, sess.Pending)

	// Valid pick answers with the full product reply and clears pending.
	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "1")))
	assert.Contains(t, sender.last(), first.Name)

	sess, _ = store.Get(ctx, "5215550001")
	assert.Equal(t, session.PendingNone, sess.Pending)
}

func TestUnrecognizedAnswerReasksKeepingCandidates(t *testing.T) {
	b, sender, store := newTestBot(t, fixtures)
	ctx := context.Background()

	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "precio iphone 11")))
	sess, _ := store.Get(ctx, "5215550001")
	require.Equal(t, session.PendingVariant, sess.Pending)

	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "cual me recomiendas")))
	assert.Contains(t, sender.last(), "Pro max o normal")

	sess, _ = store.Get(ctx, "5215550001")
	assert.Equal(t, session.PendingVariant, sess.Pending)
	assert.Len(t, sess.Candidates, 2)
}

func TestGreetingResetsSession(t *testing.T) {
	b, sender, store := newTestBot(t, fixtures)
	ctx := context.Background()

	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "precio iphone 11")))
	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "hola")))
	assert.Contains(t, sender.last(), "Bienvenido")

	sess, _ := store.Get(ctx, "5215550001")
	assert.Equal(t, session.PendingNone, sess.Pending)
	assert.Empty(t, sess.Candidates)
}

func TestCustomersDoNotShareState(t *testing.T) {
	b, _, store := newTestBot(t, fixtures)
	ctx := context.Background()

	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "precio iphone 11")))
	require.NoError(t, b.HandleMessage(ctx, text("5215550002", "chapa cerradura")))

	a, _ := store.Get(ctx, "5215550001")
	c, _ := store.Get(ctx, "5215550002")
	assert.Equal(t, session.PendingVariant, a.Pending)
	assert.Equal(t, session.PendingPick, c.Pending)
	assert.NotEqual(t, a.LastShownOptions, c.LastShownOptions)
}

func TestDuplicateMessageRepliesOnce(t *testing.T) {
	b, sender, _ := newTestBot(t, fixtures)
	ctx := context.Background()

	msg := text("5215550001", "103317")
	require.NoError(t, b.HandleMessage(ctx, msg))
	require.NoError(t, b.HandleMessage(ctx, msg))

	assert.Len(t, sender.sent, 1)
}

func TestEmptyCatalogAsksForCodeWithoutClaimingNotFound(t *testing.T) {
	b, sender, _ := newTestBot(t, nil)
	ctx := context.Background()

	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "precio iphone 11")))
	assert.Contains(t, sender.last(), "no puedo consultar el catálogo")
	assert.NotContains(t, sender.last(), "No encontré")
}

func TestPricesForAllListed(t *testing.T) {
	b, sender, _ := newTestBot(t, fixtures)
	ctx := context.Background()

	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "chapa cerradura")))
	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "precios de todos")))

	reply := sender.last()
	assert.Contains(t, reply, "$320.00")
	assert.Contains(t, reply, "$410.00")
	assert.Contains(t, reply, "Hay existencia")
}

func TestSearchNotFoundAsksForCode(t *testing.T) {
	b, sender, _ := newTestBot(t, fixtures)
	ctx := context.Background()

	require.NoError(t, b.HandleMessage(ctx, text("5215550001", "lavadora industrial")))
	assert.Contains(t, sender.last(), "código")
}
