package bot

import (
	"fmt"
	"strings"

	"github.com/bkglobal/bkbot/internal/models"
)

// Templated reply texts for the deterministic flows. Availability is always
// the binary label; quantities never appear here.

func productReply(item models.CatalogItem) string {
	var b strings.Builder
	b.WriteString(item.Name)
	if item.Code != "" {
		fmt.Fprintf(&b, "\nCódigo: %s", item.Code)
	}
	fmt.Fprintf(&b, "\nPrecio: %s", item.PriceDisplay())
	fmt.Fprintf(&b, "\n%s", item.StockLabel())
	return b.String()
}

func variantMenu(keys []string) string {
	if len(keys) == 0 {
		return "¿Qué versión buscas?"
	}
	display := make([]string, len(keys))
	for i, k := range keys {
		display[i] = strings.ToUpper(k[:1]) + k[1:]
	}
	last := display[len(display)-1]
	rest := display[:len(display)-1]
	if len(rest) == 0 {
		return fmt.Sprintf("¿Lo quieres en versión %s?", last)
	}
	return fmt.Sprintf("¿%s o %s?", strings.Join(rest, ", "), strings.ToLower(last))
}

func colorMenu() string {
	return "¿Lo quieres en blanco o negro?"
}

func optionsMenu(items []models.CatalogItem) string {
	var b strings.Builder
	b.WriteString("Encontré varias opciones:\n")
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it.Name)
	}
	fmt.Fprintf(&b, "Respóndeme con el número (1–%d) o el código exacto.", len(items))
	return b.String()
}

func pickOutOfRange(n int) string {
	return fmt.Sprintf("Esa opción no está en la lista 🙏 Elige un número del 1 al %d.", n)
}

func emptyCombination(menu string) string {
	return "No tenemos disponible esa combinación 🙏 " + menu
}

func notFoundReply() string {
	return "No encontré ese producto 🙏 ¿Me compartes el código o el nombre exacto tal como aparece en la etiqueta?"
}

func pricesForAll(items []models.CatalogItem) string {
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s — %s — %s\n", i+1, it.Name, it.PriceDisplay(), it.StockLabel())
	}
	return strings.TrimRight(b.String(), "\n")
}
