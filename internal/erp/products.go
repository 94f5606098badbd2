package erp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bkglobal/bkbot/internal/models"
)

var productFields = []string{"default_code", "name", "list_price", "qty_available", "categ_id"}

type productRow struct {
	DefaultCode  any     `json:"default_code"` // string or false
	Name         string  `json:"name"`
	ListPrice    float64 `json:"list_price"`
	QtyAvailable float64 `json:"qty_available"`
	CategID      any     `json:"categ_id"` // [id, name] or false
}

func (r productRow) toItem() models.CatalogItem {
	item := models.CatalogItem{
		Name:     r.Name,
		Price:    r.ListPrice,
		StockQty: r.QtyAvailable,
	}
	if code, ok := r.DefaultCode.(string); ok {
		item.Code = code
	}
	// categ_id comes back as [id, "display name"]
	if pair, ok := r.CategID.([]any); ok && len(pair) == 2 {
		if name, ok := pair[1].(string); ok {
			item.Group = name
		}
	}
	return item
}

// SearchProducts runs a search_read on product.product matching name or
// internal reference against the query.
func (o *OdooClient) SearchProducts(ctx context.Context, query string, limit int) ([]models.CatalogItem, error) {
	domain := []any{
		"|",
		[]any{"name", "ilike", query},
		[]any{"default_code", "ilike", query},
	}

	result, err := o.ExecuteKw(ctx, "product.product", "search_read",
		[]any{domain},
		map[string]any{"fields": productFields, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("product search failed: %w", err)
	}

	return decodeProducts(result)
}

// ListProducts fetches the full sellable catalog for the index snapshot.
func (o *OdooClient) ListProducts(ctx context.Context) ([]models.CatalogItem, error) {
	domain := []any{[]any{"sale_ok", "=", true}}

	result, err := o.ExecuteKw(ctx, "product.product", "search_read",
		[]any{domain},
		map[string]any{"fields": productFields})
	if err != nil {
		return nil, fmt.Errorf("product list failed: %w", err)
	}

	return decodeProducts(result)
}

func decodeProducts(raw json.RawMessage) ([]models.CatalogItem, error) {
	var rows []productRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode product rows: %w", err)
	}

	items := make([]models.CatalogItem, 0, len(rows))
	for _, r := range rows {
		if r.Name == "" {
			continue
		}
		items = append(items, r.toItem())
	}
	return items, nil
}

// RestockEta looks up the next planned purchase order line for a product
// code and returns its scheduled date, or "" when nothing is on order.
func (o *OdooClient) RestockEta(ctx context.Context, code string) (string, error) {
	domain := []any{
		[]any{"product_id.default_code", "=", code},
		[]any{"state", "in", []any{"draft", "sent", "purchase"}},
	}

	result, err := o.ExecuteKw(ctx, "purchase.order.line", "search_read",
		[]any{domain},
		map[string]any{
			"fields": []string{"date_planned"},
			"limit":  1,
			"order":  "date_planned asc",
		})
	if err != nil {
		return "", fmt.Errorf("restock lookup failed: %w", err)
	}

	var rows []struct {
		DatePlanned string `json:"date_planned"`
	}
	if err := json.Unmarshal(result, &rows); err != nil {
		return "", fmt.Errorf("failed to decode restock rows: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].DatePlanned, nil
}

// CatalogSource adapts the ERP client to the catalog.Source interface.
type CatalogSource struct {
	client *OdooClient
}

func NewCatalogSource(client *OdooClient) *CatalogSource {
	return &CatalogSource{client: client}
}

func (s *CatalogSource) Load(ctx context.Context) ([]models.CatalogItem, error) {
	return s.client.ListProducts(ctx)
}
