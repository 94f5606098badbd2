package session

import (
	"time"

	"github.com/bkglobal/bkbot/internal/models"
)

// Pending is the disambiguation step the session is waiting on.
type Pending string

const (
	PendingNone    Pending = ""
	PendingVariant Pending = "variant"
	PendingColor   Pending = "color"
	PendingPick    Pending = "pick"
)

const maxTranscript = 20

// Session is the per-customer conversational state. Keyed by the customer's
// phone number; owned exclusively by the Store.
type Session struct {
	CustomerID string  `json:"customer_id"`
	Pending    Pending `json:"pending"`

	// Candidates is the current disambiguation pool; LastShownOptions is
	// what the customer was last asked to choose from (1-indexed in text).
	Candidates       []models.CatalogItem `json:"candidates,omitempty"`
	LastShownOptions []models.CatalogItem `json:"last_shown_options,omitempty"`

	// LastTopicKey anchors vague follow-ups like "los demás" to the last
	// product group discussed.
	LastTopicKey string `json:"last_topic_key,omitempty"`

	Cart       []models.CartLine `json:"cart,omitempty"`
	Transcript []models.Message  `json:"transcript,omitempty"`

	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
}

func New(customerID string) *Session {
	now := time.Now()
	return &Session{
		CustomerID:   customerID,
		StartedAt:    now,
		LastActivity: now,
	}
}

// SetPending enters a disambiguation step with the given candidate pool.
func (s *Session) SetPending(p Pending, candidates []models.CatalogItem) {
	s.Pending = p
	s.Candidates = candidates
}

// ClearPending ends the current disambiguation sequence. The cart,
// transcript and last shown options survive; only the pending question and
// its candidate pool are dropped. LastShownOptions stays so "agrega el 2"
// and "precios de todos" keep working after resolution.
func (s *Session) ClearPending() {
	s.Pending = PendingNone
	s.Candidates = nil
}

// AddToCart accumulates an item. Code is the dedup key: an existing line for
// the same code gets its quantity incremented.
func (s *Session) AddToCart(item models.CatalogItem, qty int) {
	if qty <= 0 {
		qty = 1
	}
	if item.Code != "" {
		for i := range s.Cart {
			if s.Cart[i].Code == item.Code {
				s.Cart[i].Quantity += qty
				return
			}
		}
	}
	s.Cart = append(s.Cart, models.CartLine{
		Code:     item.Code,
		Name:     item.Name,
		Quantity: qty,
		Price:    item.Price,
		InStock:  item.InStock(),
	})
}

// CartTotal sums quantity times unit price over all lines.
func (s *Session) CartTotal() float64 {
	var total float64
	for _, l := range s.Cart {
		total += float64(l.Quantity) * l.Price
	}
	return total
}

// ClearCart drops every cart line.
func (s *Session) ClearCart() {
	s.Cart = nil
}

// AppendMessage adds a transcript entry, evicting the oldest entries past
// the cap.
func (s *Session) AppendMessage(role, content string) {
	s.Transcript = append(s.Transcript, models.Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	if len(s.Transcript) > maxTranscript {
		s.Transcript = s.Transcript[len(s.Transcript)-maxTranscript:]
	}
}

// Touch refreshes the activity timestamp used for TTL expiry.
func (s *Session) Touch() {
	s.LastActivity = time.Now()
}
