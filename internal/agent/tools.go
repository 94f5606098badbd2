package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/bkglobal/bkbot/internal/models"
	"github.com/bkglobal/bkbot/internal/session"
)

// Catalog is the read surface the tools query. *catalog.Index satisfies it.
type Catalog interface {
	Search(query string, limit int) []models.CatalogItem
	Categories() []string
	ItemsByCategory(category string, limit int) []models.CatalogItem
	ByCode(code string) (models.CatalogItem, bool)
}

// RestockSource answers restock-date questions, normally the ERP client.
type RestockSource interface {
	RestockEta(ctx context.Context, code string) (string, error)
}

const listPreviewLimit = 10

var toolDefs = []llms.Tool{
	{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        "list_products_by_category",
			Description: "Lista productos de una categoría del catálogo. Sin categoría, regresa las categorías disponibles.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"category": map[string]any{
						"type":        "string",
						"description": "Nombre de la categoría; vacío para listar categorías",
					},
				},
			},
		},
	},
	{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        "search_products",
			Description: "Busca productos por nombre o código y regresa precio y disponibilidad.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
				},
				"required": []string{"query"},
			},
		},
	},
	{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        "get_product_details",
			Description: "Detalle de un producto por su código exacto.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"code": map[string]any{"type": "string"},
				},
				"required": []string{"code"},
			},
		},
	},
	{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        "get_restock_eta",
			Description: "Fecha estimada de resurtido para un producto sin existencia, por código.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"code": map[string]any{"type": "string"},
				},
				"required": []string{"code"},
			},
		},
	},
	{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        "cart_add_by_position",
			Description: "Agrega al carrito una de las opciones numeradas mostradas al cliente (posición base 1).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"position": map[string]any{"type": "integer"},
					"quantity": map[string]any{"type": "integer"},
				},
				"required": []string{"position"},
			},
		},
	},
	{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        "cart_add_by_code",
			Description: "Agrega un producto al carrito por su código exacto.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"code":     map[string]any{"type": "string"},
					"quantity": map[string]any{"type": "integer"},
				},
				"required": []string{"code"},
			},
		},
	},
	{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        "cart_get_summary",
			Description: "Resumen del carrito actual con total.",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		},
	},
	{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        "cart_clear",
			Description: "Vacía el carrito del cliente.",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		},
	},
}

// itemView is what a tool serializes back to the model: availability is
// binary, the raw stock quantity never leaves the process.
type itemView struct {
	Code      string `json:"code,omitempty"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Available bool   `json:"available"`
}

func viewOf(it models.CatalogItem) itemView {
	return itemView{
		Code:      it.Code,
		Name:      it.Name,
		Price:     it.PriceDisplay(),
		Available: it.InStock(),
	}
}

func viewsOf(items []models.CatalogItem, limit int) []itemView {
	truncated := items
	if len(truncated) > limit {
		truncated = truncated[:limit]
	}
	out := make([]itemView, len(truncated))
	for i, it := range truncated {
		out[i] = viewOf(it)
	}
	return out
}

// executeTool runs one requested tool call. Failures come back as a
// structured error payload in the result, never as a Go error: the model
// sees it and can react.
func (a *Agent) executeTool(ctx context.Context, sess *session.Session, name string, rawArgs string) string {
	var args struct {
		Category string `json:"category"`
		Query    string `json:"query"`
		Code     string `json:"code"`
		Position int    `json:"position"`
		Quantity int    `json:"quantity"`
	}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return toolError(fmt.Sprintf("argumentos inválidos: %v", err))
		}
	}

	switch name {
	case "list_products_by_category":
		if args.Category == "" {
			return marshalResult(map[string]any{"categories": a.catalog.Categories()})
		}
		items := a.catalog.ItemsByCategory(args.Category, listPreviewLimit)
		return marshalResult(map[string]any{
			"category": args.Category,
			"products": viewsOf(items, listPreviewLimit),
		})

	case "search_products":
		if args.Query == "" {
			return toolError("query es requerido")
		}
		items := a.catalog.Search(args.Query, a.searchLimit)
		sess.LastShownOptions = items
		return marshalResult(map[string]any{"products": viewsOf(items, listPreviewLimit)})

	case "get_product_details":
		item, ok := a.catalog.ByCode(args.Code)
		if !ok {
			return toolError("producto no encontrado con ese código")
		}
		return marshalResult(map[string]any{"product": viewOf(item)})

	case "get_restock_eta":
		if a.restock == nil {
			return toolError("sin conexión al ERP para fechas de resurtido")
		}
		eta, err := a.restock.RestockEta(ctx, args.Code)
		if err != nil {
			return toolError("no se pudo consultar la fecha de resurtido")
		}
		if eta == "" {
			return marshalResult(map[string]any{"code": args.Code, "restock_eta": nil})
		}
		return marshalResult(map[string]any{"code": args.Code, "restock_eta": eta})

	case "cart_add_by_position":
		if args.Position < 1 || args.Position > len(sess.LastShownOptions) {
			return toolError(fmt.Sprintf("posición fuera de rango, hay %d opciones", len(sess.LastShownOptions)))
		}
		item := sess.LastShownOptions[args.Position-1]
		sess.AddToCart(item, args.Quantity)
		return marshalResult(map[string]any{"added": viewOf(item), "cart_lines": len(sess.Cart)})

	case "cart_add_by_code":
		item, ok := a.catalog.ByCode(args.Code)
		if !ok {
			return toolError("producto no encontrado con ese código")
		}
		sess.AddToCart(item, args.Quantity)
		return marshalResult(map[string]any{"added": viewOf(item), "cart_lines": len(sess.Cart)})

	case "cart_get_summary":
		return marshalResult(cartSummary(sess))

	case "cart_clear":
		sess.ClearCart()
		return marshalResult(map[string]any{"cleared": true})

	default:
		return toolError(fmt.Sprintf("herramienta desconocida: %s", name))
	}
}

func cartSummary(sess *session.Session) map[string]any {
	lines := make([]map[string]any, len(sess.Cart))
	for i, l := range sess.Cart {
		lines[i] = map[string]any{
			"code":      l.Code,
			"name":      l.Name,
			"quantity":  l.Quantity,
			"unit":      models.FormatPrice(l.Price),
			"subtotal":  models.FormatPrice(float64(l.Quantity) * l.Price),
			"available": l.InStock,
		}
	}
	return map[string]any{
		"lines": lines,
		"total": models.FormatPrice(sess.CartTotal()),
	}
}

func marshalResult(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError("error interno al serializar el resultado")
	}
	return string(data)
}

func toolError(msg string) string {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return string(data)
}
