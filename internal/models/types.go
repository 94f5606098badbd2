package models

import (
	"fmt"
	"strings"
	"time"
)

// CatalogItem is one product row from the catalog source (CSV export or ERP).
// Identity is Code; an empty Code means the item is only addressable by its
// position inside a search result.
type CatalogItem struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	StockQty float64 `json:"stock_qty"`
	Group    string  `json:"group"`
}

// InStock reports availability. User-facing text must only ever show the
// boolean label, never the raw quantity.
func (c CatalogItem) InStock() bool {
	return c.StockQty > 0
}

// StockLabel returns the user-facing availability label.
func (c CatalogItem) StockLabel() string {
	if c.InStock() {
		return "✅ Hay existencia"
	}
	return "❌ Sin existencia"
}

// PriceDisplay formats the price for user-facing text, e.g. "$1,250.00".
func (c CatalogItem) PriceDisplay() string {
	return FormatPrice(c.Price)
}

// FormatPrice renders an amount with thousands separators. The numeric price
// stays alongside the display string everywhere so cart math never has to
// parse this back.
func FormatPrice(amount float64) string {
	s := fmt.Sprintf("%.2f", amount)
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	out := "$" + b.String() + "." + parts[1]
	if neg {
		out = "-" + out
	}
	return out
}

// CartLine is one accumulated cart entry. Code is the dedup key: adding the
// same code again increments Quantity instead of appending a new line.
type CartLine struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	InStock  bool    `json:"in_stock"`
}

// Message is one transcript entry stored on a conversation session.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// InboundMessage is one delivery from the messaging transport, already
// unwrapped from the webhook envelope.
type InboundMessage struct {
	From      string // customer identifier (phone number)
	MessageID string
	Type      string // "text" or "image"
	Text      string
	ImageID   string // media id when Type == "image"
	Caption   string
}
