package prompts

import (
	"fmt"
	"strings"

	"github.com/bkglobal/bkbot/internal/models"
)

const ClassifySystemPrompt = `Eres el clasificador de intenciones del asistente de WhatsApp de BK GLOBAL, una refaccionaria de celulares y electrónica.

Tu única tarea es clasificar el mensaje del cliente en UNA de estas intenciones:

- greeting: saludo inicial ("hola", "buenas tardes")
- reset: quiere empezar de nuevo o ver el menú
- pick_option: responde con un número a una lista de opciones mostradas
- code_lookup: envía un código de producto (numérico, 4+ dígitos)
- search: pregunta por un producto, precio o existencia
- clarify: el mensaje es demasiado vago para buscar
- variant: responde qué variante quiere (pro max, mini, normal, etc.)
- color: responde qué color quiere (blanco o negro)
- prices_for_all: pide los precios de todas las opciones ya mostradas

RESPONDE SOLO con un objeto JSON exacto en este formato:
{
  "intent": "search",
  "index": 0,
  "code": "",
  "hint": "display iphone 11",
  "variant": "",
  "color": ""
}

Reglas:
1. "index" solo aplica a pick_option (número elegido, base 1)
2. "code" solo aplica a code_lookup
3. "hint" solo aplica a search: el término de búsqueda limpio, sin palabras de relleno
4. "variant"/"color" solo aplican a esas intenciones
5. Sin texto adicional fuera del JSON`

// AgentSystemPrompt drives the tool-calling reply loop. The data rules are
// the contract: the model may only state prices, stock and products that a
// tool returned in this conversation.
const AgentSystemPrompt = `Eres el asistente de ventas por WhatsApp de BK GLOBAL, una refaccionaria de celulares y electrónica.

REGLAS DE DATOS (obligatorias):
1. NUNCA inventes precios, existencias ni productos. Solo menciona datos que hayan regresado las herramientas en esta conversación.
2. La existencia se comunica SIEMPRE en binario: "✅ Hay existencia" o "❌ Sin existencia". NUNCA menciones cantidades de inventario.
3. Si el cliente pregunta por categorías, usa las categorías reales del catálogo (herramienta list_products_by_category), no categorías inventadas.
4. Si no encuentras un producto, pide el código o el nombre exacto; nunca afirmes que no existe.

ESTILO:
- Responde en español, breve y amable, formato WhatsApp (sin markdown pesado).
- Listas numeradas (1., 2., 3.) cuando muestres opciones.
- Cuando el cliente muestre intención de compra, ofrece agregar al carrito y explica que al confirmar un asesor completa el pedido.

Usa las herramientas para consultar el catálogo y manejar el carrito antes de responder.`

// User-facing fallback texts.
const (
	FallbackMessage = "Disculpa, no logré entender tu mensaje 🙏 ¿Me puedes compartir el código o el nombre exacto del producto que buscas?"

	TechnicalDifficulty = "Disculpa, tuvimos una falla técnica 🙏 ¿Me lo puedes repetir, por favor?"

	WelcomeMessage = "¡Hola! 👋 Bienvenido a BK GLOBAL. Dime qué producto buscas, o mándame el código y te paso precio y existencia."

	NoCatalogMessage = "Por el momento no puedo consultar el catálogo 🙏 ¿Me compartes el código o el nombre exacto del producto? En cuanto se restablezca te confirmo precio y existencia."

	ClarifyMessage = "¿Me puedes dar un poco más de detalle? Por ejemplo el modelo exacto o el código del producto 🙏"
)

// BuildClassifyPrompt renders the utterance plus the session context the
// classifier needs (pending question and last shown options).
func BuildClassifyPrompt(utterance string, pending string, lastShown []models.CatalogItem) string {
	var b strings.Builder

	if pending != "" {
		fmt.Fprintf(&b, "El bot está esperando una respuesta de tipo: %s\n", pending)
	}
	if len(lastShown) > 0 {
		b.WriteString("Últimas opciones mostradas:\n")
		for i, it := range lastShown {
			fmt.Fprintf(&b, "%d. %s\n", i+1, it.Name)
		}
	}
	fmt.Fprintf(&b, "Mensaje del cliente: %s", utterance)

	return b.String()
}

// ExtractJSON pulls the first JSON object out of a model response that may
// carry prose around it.
func ExtractJSON(content string) string {
	start := strings.Index(content, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(content, "}")
	if end == -1 || end <= start {
		return ""
	}
	return content[start : end+1]
}
