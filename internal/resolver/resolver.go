// Package resolver narrows a catalog match set to a definitive product or to
// the single follow-up question (variant, color, numbered pick) that gets
// there.
package resolver

import (
	"strings"

	"github.com/bkglobal/bkbot/internal/catalog"
	"github.com/bkglobal/bkbot/internal/models"
)

// Kind tags the outcome of a resolution pass.
type Kind int

const (
	// NotFound: nothing to resolve, the match set was empty.
	NotFound Kind = iota
	// Definitive: exactly one item remains.
	Definitive
	// NeedVariant: the set spans 2+ variants and the query named none.
	NeedVariant
	// NeedColor: the set has both a white and a black item.
	NeedColor
	// NeedPick: multiple items, no further disambiguating signal; ask for
	// a 1-based index.
	NeedPick
	// EmptyCombination: a variant/color answer eliminated every candidate.
	EmptyCombination
)

type Resolution struct {
	Kind Kind
	Item models.CatalogItem
	// Options carries the menu to present: variant keys map onto
	// VariantKeys for NeedVariant, items for NeedColor/NeedPick.
	Options     []models.CatalogItem
	VariantKeys []string
}

// Variant markers ordered longest/most-specific first so "pro max" is not
// consumed by "pro" or "max". Kept as data; new vocabularies are additive.
var variantMarkers = []string{
	"pro max",
	"pro",
	"mini",
	"plus",
	"max",
	"ultra",
	"lite",
	"se",
}

// baseVariant is the key for items carrying no marker ("normal" to the user).
const baseVariant = "normal"

var colorMarkers = map[string][]string{
	"blanco": {"blanco", "blanca", "white"},
	"negro":  {"negro", "negra", "black"},
}

// Phone-parts domain gate. Variant disambiguation only makes sense for
// mobile parts; a "pro" inside a lock or GPS product name must not fire it.
var phoneBrands = []string{
	"iphone", "samsung", "galaxy", "huawei", "xiaomi", "redmi",
	"motorola", "moto", "oppo", "honor", "lg", "nokia", "zte",
}

var phoneGroups = []string{
	"celular", "telefono", "display", "pantalla", "bateria",
	"tactil", "touch", "flex", "centro de carga", "refaccion",
}

const maxShownOptions = 3

type Resolver struct{}

func New() *Resolver {
	return &Resolver{}
}

// Resolve runs the full pass over a fresh match set: variant partition,
// color partition, then top-N truncation.
func (r *Resolver) Resolve(query string, candidates []models.CatalogItem) Resolution {
	if len(candidates) == 0 {
		return Resolution{Kind: NotFound}
	}
	if len(candidates) == 1 {
		return Resolution{Kind: Definitive, Item: candidates[0]}
	}

	normQuery := catalog.Normalize(query)

	if phoneDomain(normQuery, candidates) {
		keys := VariantKeys(candidates)
		if len(keys) >= 2 && queryVariant(normQuery) == "" {
			return Resolution{Kind: NeedVariant, Options: candidates, VariantKeys: keys}
		}
		if v := queryVariant(normQuery); v != "" {
			candidates = FilterByVariant(candidates, v)
			if len(candidates) == 0 {
				return Resolution{Kind: EmptyCombination}
			}
		}
	}

	return r.afterVariant(normQuery, candidates)
}

// afterVariant continues resolution once the variant question is settled.
func (r *Resolver) afterVariant(normQuery string, candidates []models.CatalogItem) Resolution {
	if len(candidates) == 1 {
		return Resolution{Kind: Definitive, Item: candidates[0]}
	}

	if spansColors(candidates) && queryColor(normQuery) == "" {
		return Resolution{Kind: NeedColor, Options: candidates}
	}
	if c := queryColor(normQuery); c != "" {
		candidates = FilterByColor(candidates, c)
		if len(candidates) == 0 {
			return Resolution{Kind: EmptyCombination}
		}
		if len(candidates) == 1 {
			return Resolution{Kind: Definitive, Item: candidates[0]}
		}
	}

	return Resolution{Kind: NeedPick, Options: truncateOptions(candidates)}
}

// ApplyVariantAnswer filters the pending candidate pool by a variant answer
// and continues the resolution pass. An answer matching no candidate comes
// back as EmptyCombination so the caller re-asks with the same menu.
func (r *Resolver) ApplyVariantAnswer(answer string, candidates []models.CatalogItem) Resolution {
	key := answerVariant(answer)
	if key == "" {
		return Resolution{Kind: EmptyCombination}
	}
	filtered := FilterByVariant(candidates, key)
	if len(filtered) == 0 {
		return Resolution{Kind: EmptyCombination}
	}
	return r.afterVariant("", filtered)
}

// ApplyColorAnswer filters the pending candidate pool by a color answer.
func (r *Resolver) ApplyColorAnswer(answer string, candidates []models.CatalogItem) Resolution {
	color := queryColor(catalog.Normalize(answer))
	if color == "" {
		return Resolution{Kind: EmptyCombination}
	}
	filtered := FilterByColor(candidates, color)
	if len(filtered) == 0 {
		return Resolution{Kind: EmptyCombination}
	}
	if len(filtered) == 1 {
		return Resolution{Kind: Definitive, Item: filtered[0]}
	}
	return Resolution{Kind: NeedPick, Options: truncateOptions(filtered)}
}

// VariantKey classifies one product name into its variant partition.
func VariantKey(name string) string {
	norm := catalog.Normalize(name)
	for _, m := range variantMarkers {
		if containsWord(norm, m) {
			return m
		}
	}
	return baseVariant
}

// VariantKeys returns the distinct variant partitions over a set, in marker
// priority order with the base partition last.
func VariantKeys(items []models.CatalogItem) []string {
	present := make(map[string]bool)
	for _, it := range items {
		present[VariantKey(it.Name)] = true
	}

	var keys []string
	for _, m := range variantMarkers {
		if present[m] {
			keys = append(keys, m)
		}
	}
	if present[baseVariant] {
		keys = append(keys, baseVariant)
	}
	return keys
}

// FilterByVariant keeps items in the given variant partition. Filtering is a
// pure partition-membership test, so repeating it with the same key is a
// no-op on the result.
func FilterByVariant(items []models.CatalogItem, key string) []models.CatalogItem {
	var out []models.CatalogItem
	for _, it := range items {
		if VariantKey(it.Name) == key {
			out = append(out, it)
		}
	}
	return out
}

// FilterByColor keeps items whose name mentions the color. Items mentioning
// no recognized color are dropped; when nothing matches the asked color the
// caller gets an empty set and re-asks rather than guessing.
func FilterByColor(items []models.CatalogItem, color string) []models.CatalogItem {
	var out []models.CatalogItem
	for _, it := range items {
		if colorOf(it.Name) == color {
			out = append(out, it)
		}
	}
	return out
}

func spansColors(items []models.CatalogItem) bool {
	found := make(map[string]bool)
	for _, it := range items {
		if c := colorOf(it.Name); c != "" {
			found[c] = true
		}
	}
	return found["blanco"] && found["negro"]
}

func colorOf(name string) string {
	norm := catalog.Normalize(name)
	for color, markers := range colorMarkers {
		for _, m := range markers {
			if containsWord(norm, m) {
				return color
			}
		}
	}
	return ""
}

// queryVariant returns the variant the utterance itself names, if any.
func queryVariant(normQuery string) string {
	for _, m := range variantMarkers {
		if containsWord(normQuery, m) {
			return m
		}
	}
	return ""
}

// answerVariant interprets a short disambiguation answer, accepting the
// marker itself or the words customers use for the base model.
func answerVariant(answer string) string {
	norm := catalog.Normalize(answer)
	if norm == "" {
		return ""
	}
	for _, m := range variantMarkers {
		if containsWord(norm, m) {
			return m
		}
	}
	for _, base := range []string{"normal", "base", "sencillo", "sencilla", "regular"} {
		if containsWord(norm, base) {
			return baseVariant
		}
	}
	return ""
}

func queryColor(normQuery string) string {
	for color, markers := range colorMarkers {
		for _, m := range markers {
			if containsWord(normQuery, m) {
				return color
			}
		}
	}
	return ""
}

func phoneDomain(normQuery string, items []models.CatalogItem) bool {
	for _, b := range phoneBrands {
		if containsWord(normQuery, b) {
			return true
		}
	}
	for _, it := range items {
		g := catalog.Normalize(it.Group)
		for _, pg := range phoneGroups {
			if strings.Contains(g, pg) {
				return true
			}
		}
	}
	return false
}

// truncateOptions caps the pick menu, in-stock items first (stable).
func truncateOptions(items []models.CatalogItem) []models.CatalogItem {
	ordered := make([]models.CatalogItem, 0, len(items))
	for _, it := range items {
		if it.InStock() {
			ordered = append(ordered, it)
		}
	}
	for _, it := range items {
		if !it.InStock() {
			ordered = append(ordered, it)
		}
	}
	if len(ordered) > maxShownOptions {
		ordered = ordered[:maxShownOptions]
	}
	return ordered
}

// containsWord is word-boundary containment: the marker must appear as whole
// words, so "se" never matches inside "sensor".
func containsWord(s, marker string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], marker)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(marker)
		beforeOK := start == 0 || s[start-1] == ' '
		afterOK := end == len(s) || s[end] == ' '
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
		if idx >= len(s) {
			return false
		}
	}
}
