// Package bot wires the intent classifier, product resolver, session state
// machine and reply generation into the per-message handling flow.
package bot

import (
	"context"
	"log"

	"github.com/bkglobal/bkbot/internal/agent"
	"github.com/bkglobal/bkbot/internal/catalog"
	"github.com/bkglobal/bkbot/internal/dedup"
	"github.com/bkglobal/bkbot/internal/intent"
	"github.com/bkglobal/bkbot/internal/models"
	"github.com/bkglobal/bkbot/internal/prompts"
	"github.com/bkglobal/bkbot/internal/resolver"
	"github.com/bkglobal/bkbot/internal/session"
)

// Sender delivers outbound text to the messaging transport.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

// MediaFetcher resolves inbound media ids to their bytes.
type MediaFetcher interface {
	DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error)
}

// resolvePoolLimit is how many matches feed the resolver. Wider than the
// shown menu so variant partitions are computed over the real match set.
const resolvePoolLimit = 10

type Bot struct {
	sessions   session.Store
	locks      *session.KeyedMutex
	dedup      *dedup.Window
	catalog    *catalog.Index
	resolver   *resolver.Resolver
	classifier intent.Classifier
	agent      *agent.Agent
	sender     Sender
	media      MediaFetcher
}

func New(sessions session.Store, window *dedup.Window, cat *catalog.Index,
	classifier intent.Classifier, ag *agent.Agent, sender Sender, media MediaFetcher) *Bot {
	return &Bot{
		sessions:   sessions,
		locks:      session.NewKeyedMutex(),
		dedup:      window,
		catalog:    cat,
		resolver:   resolver.New(),
		classifier: classifier,
		agent:      ag,
		sender:     sender,
		media:      media,
	}
}

// HandleMessage processes one inbound delivery end to end: dedup, session
// load, classification, state transition, reply, persist, send. Handling for
// one customer is serialized; different customers run concurrently.
func (b *Bot) HandleMessage(ctx context.Context, in models.InboundMessage) error {
	if !b.dedup.FirstSeen(in.MessageID) {
		log.Printf("bot: duplicate message %s ignored", in.MessageID)
		return nil
	}

	unlock := b.locks.Lock(in.From)
	defer unlock()

	sess, err := b.sessions.Get(ctx, in.From)
	if err != nil {
		log.Printf("bot: session load failed for %s: %v", in.From, err)
		sess = session.New(in.From)
	}

	replyText := b.reply(ctx, sess, in)

	userText := in.Text
	if in.Type == "image" {
		userText = in.Caption
		if userText == "" {
			userText = "[imagen]"
		}
	}
	sess.AppendMessage("user", userText)
	sess.AppendMessage("assistant", replyText)

	if err := b.sessions.Save(ctx, sess); err != nil {
		log.Printf("bot: session save failed for %s: %v", in.From, err)
	}

	return b.sender.SendText(ctx, in.From, replyText)
}

// reply runs the state machine for one turn. It always returns user-facing
// text; collaborator failures become the apologetic fallbacks here.
func (b *Bot) reply(ctx context.Context, sess *session.Session, in models.InboundMessage) string {
	if in.Type == "image" {
		return b.imageReply(ctx, sess, in)
	}

	it := b.classifier.Classify(ctx, in.Text, sess)

	// While a disambiguation question is pending, only its answer, a
	// reset or an exact code moves the machine; everything else re-asks
	// with the candidate pool intact.
	if sess.Pending != session.PendingNone && !answersPending(it, sess.Pending) {
		return b.reaskPending(sess)
	}

	switch it.Type {
	case intent.Greeting, intent.Reset:
		if err := b.sessions.Clear(ctx, sess.CustomerID); err != nil {
			log.Printf("bot: session clear failed for %s: %v", sess.CustomerID, err)
		}
		*sess = *session.New(sess.CustomerID)
		return prompts.WelcomeMessage

	case intent.CodeLookup:
		return b.codeReply(sess, it.Code)

	case intent.PickOption:
		return b.pickReply(sess, it.Index)

	case intent.Variant:
		if sess.Pending != session.PendingVariant {
			return b.searchReply(ctx, sess, in.Text, in.Text)
		}
		res := b.resolver.ApplyVariantAnswer(it.Variant, sess.Candidates)
		return b.applyResolution(sess, res, variantMenu(resolver.VariantKeys(sess.Candidates)))

	case intent.Color:
		if sess.Pending != session.PendingColor {
			return b.searchReply(ctx, sess, in.Text, in.Text)
		}
		res := b.resolver.ApplyColorAnswer(it.Color, sess.Candidates)
		return b.applyResolution(sess, res, colorMenu())

	case intent.PricesForAll:
		return b.pricesReply(sess)

	case intent.AskClarify:
		return prompts.ClarifyMessage

	default: // intent.Search
		return b.searchReply(ctx, sess, it.Hint, in.Text)
	}
}

// answersPending reports whether the intent is a legal move out of the
// given pending state.
func answersPending(it intent.Intent, p session.Pending) bool {
	switch it.Type {
	case intent.Greeting, intent.Reset, intent.CodeLookup:
		return true
	case intent.PricesForAll:
		// Answers over the shown options without clearing the pending
		// question; the disambiguation stays open.
		return true
	case intent.Variant:
		return p == session.PendingVariant
	case intent.Color:
		return p == session.PendingColor
	case intent.PickOption:
		return p == session.PendingPick
	}
	return false
}

func (b *Bot) reaskPending(sess *session.Session) string {
	switch sess.Pending {
	case session.PendingVariant:
		return variantMenu(resolver.VariantKeys(sess.Candidates))
	case session.PendingColor:
		return colorMenu()
	case session.PendingPick:
		return optionsMenu(sess.LastShownOptions)
	}
	return prompts.FallbackMessage
}

func (b *Bot) codeReply(sess *session.Session, code string) string {
	item, ok := b.catalog.ByCode(code)
	if !ok {
		if b.catalog.Empty() {
			return prompts.NoCatalogMessage
		}
		return notFoundReply()
	}
	sess.ClearPending()
	sess.LastShownOptions = []models.CatalogItem{item}
	sess.LastTopicKey = item.Group
	return productReply(item)
}

func (b *Bot) pickReply(sess *session.Session, index int) string {
	options := sess.LastShownOptions
	if len(options) == 0 {
		return prompts.FallbackMessage
	}
	if index < 1 || index > len(options) {
		return pickOutOfRange(len(options))
	}
	item := options[index-1]
	sess.ClearPending()
	return productReply(item)
}

func (b *Bot) pricesReply(sess *session.Session) string {
	items := sess.LastShownOptions
	if len(items) == 0 && sess.LastTopicKey != "" {
		items = b.catalog.ItemsByCategory(sess.LastTopicKey, resolvePoolLimit)
	}
	if len(items) == 0 {
		return prompts.ClarifyMessage
	}
	return pricesForAll(items)
}

func (b *Bot) searchReply(ctx context.Context, sess *session.Session, hint, original string) string {
	if hint == "" {
		hint = original
	}

	results := b.catalog.Search(hint, resolvePoolLimit)
	if len(results) == 0 {
		if b.catalog.Empty() {
			return prompts.NoCatalogMessage
		}
		// Nothing matched: let the tool-calling loop take the turn. It
		// can search with its own phrasing, walk categories or manage
		// the cart, and its instructions forbid invented data.
		return b.agentReply(ctx, sess, original, nil)
	}

	sess.LastTopicKey = results[0].Group

	res := b.resolver.Resolve(hint, results)
	return b.applyResolution(sess, res, "")
}

// applyResolution turns a resolver outcome into the next state + reply.
// reaskMenu is what to repeat when an answer eliminated every candidate.
func (b *Bot) applyResolution(sess *session.Session, res resolver.Resolution, reaskMenu string) string {
	switch res.Kind {
	case resolver.Definitive:
		sess.ClearPending()
		sess.LastShownOptions = []models.CatalogItem{res.Item}
		return productReply(res.Item)

	case resolver.NeedVariant:
		sess.SetPending(session.PendingVariant, res.Options)
		sess.LastShownOptions = res.Options
		return variantMenu(res.VariantKeys)

	case resolver.NeedColor:
		sess.SetPending(session.PendingColor, res.Options)
		sess.LastShownOptions = res.Options
		return colorMenu()

	case resolver.NeedPick:
		sess.SetPending(session.PendingPick, res.Options)
		sess.LastShownOptions = res.Options
		return optionsMenu(res.Options)

	case resolver.EmptyCombination:
		if reaskMenu == "" {
			return notFoundReply()
		}
		return emptyCombination(reaskMenu)

	default: // resolver.NotFound
		return notFoundReply()
	}
}

func (b *Bot) imageReply(ctx context.Context, sess *session.Session, in models.InboundMessage) string {
	if b.media == nil || b.agent == nil {
		return prompts.ClarifyMessage
	}
	data, mime, err := b.media.DownloadMedia(ctx, in.ImageID)
	if err != nil {
		log.Printf("bot: media download failed for %s: %v", in.ImageID, err)
		return prompts.TechnicalDifficulty
	}
	return b.agentReply(ctx, sess, in.Caption, &agent.Image{MIMEType: mime, Data: data})
}

func (b *Bot) agentReply(ctx context.Context, sess *session.Session, text string, img *agent.Image) string {
	if b.agent == nil {
		return notFoundReply()
	}
	out, err := b.agent.Reply(ctx, sess, text, img)
	if err != nil {
		log.Printf("bot: agent reply failed: %v", err)
		return prompts.TechnicalDifficulty
	}
	return out
}
