package catalog

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bkglobal/bkbot/internal/models"
)

// Index is a read-only view over the last successfully loaded catalog
// snapshot. The snapshot is replaced wholesale on refresh; readers always see
// a complete, consistent slice.
type Index struct {
	source    Source
	refresh   time.Duration
	maxStale  time.Duration
	threshold float64

	mu       sync.RWMutex
	items    []models.CatalogItem
	loadedAt time.Time
}

type Options struct {
	RefreshInterval time.Duration
	MaxStale        time.Duration
	FuzzyThreshold  float64
}

func NewIndex(source Source, opts Options) *Index {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 5 * time.Minute
	}
	if opts.MaxStale <= 0 {
		opts.MaxStale = 30 * time.Minute
	}
	if opts.FuzzyThreshold <= 0 {
		opts.FuzzyThreshold = 0.4
	}
	return &Index{
		source:    source,
		refresh:   opts.RefreshInterval,
		maxStale:  opts.MaxStale,
		threshold: opts.FuzzyThreshold,
	}
}

// Refresh loads a fresh snapshot from the source. On failure the previous
// snapshot keeps serving while it is within the freshness window; past that
// it is dropped and searches return empty until the source recovers.
func (x *Index) Refresh(ctx context.Context) error {
	items, err := x.source.Load(ctx)
	if err != nil {
		x.mu.Lock()
		if !x.loadedAt.IsZero() && time.Since(x.loadedAt) > x.maxStale {
			x.items = nil
		}
		x.mu.Unlock()
		return err
	}

	x.mu.Lock()
	x.items = items
	x.loadedAt = time.Now()
	x.mu.Unlock()
	return nil
}

// Start runs the periodic refresh loop until ctx is cancelled.
func (x *Index) Start(ctx context.Context) {
	if err := x.Refresh(ctx); err != nil {
		log.Printf("catalog: initial load failed: %v", err)
	}

	ticker := time.NewTicker(x.refresh)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := x.Refresh(ctx); err != nil {
					log.Printf("catalog: refresh failed: %v", err)
				}
			}
		}
	}()
}

// Empty reports whether there is no usable snapshot at all. Callers must
// treat this as "no catalog available", never as a verified "not found".
func (x *Index) Empty() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.items) == 0
}

// ByCode returns the item whose code matches the normalized query exactly.
func (x *Index) ByCode(code string) (models.CatalogItem, bool) {
	norm := Normalize(code)
	if norm == "" {
		return models.CatalogItem{}, false
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	for _, it := range x.items {
		if it.Code != "" && Normalize(it.Code) == norm {
			return it, true
		}
	}
	return models.CatalogItem{}, false
}

// Search returns up to limit items, best match first. An exact code match
// short-circuits fuzzy scoring and returns that single item.
func (x *Index) Search(query string, limit int) []models.CatalogItem {
	if limit <= 0 {
		return nil
	}

	if item, ok := x.ByCode(query); ok {
		return []models.CatalogItem{item}
	}

	tokens := QueryTokens(query)
	if len(tokens) == 0 {
		return nil
	}

	type scored struct {
		item  models.CatalogItem
		score float64
	}

	x.mu.RLock()
	var matches []scored
	for _, it := range x.items {
		s := score(tokens, it)
		if s >= x.threshold {
			matches = append(matches, scored{item: it, score: s})
		}
	}
	x.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		// In-stock items win ties.
		return matches[i].item.InStock() && !matches[j].item.InStock()
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]models.CatalogItem, len(matches))
	for i, m := range matches {
		out[i] = m.item
	}
	return out
}

// Categories returns the distinct product groups in snapshot order.
func (x *Index) Categories() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, it := range x.items {
		if it.Group == "" || seen[it.Group] {
			continue
		}
		seen[it.Group] = true
		out = append(out, it.Group)
	}
	return out
}

// ItemsByCategory returns up to limit items whose group matches the
// normalized category name (exact or containment).
func (x *Index) ItemsByCategory(category string, limit int) []models.CatalogItem {
	norm := Normalize(category)
	if norm == "" || limit <= 0 {
		return nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []models.CatalogItem
	for _, it := range x.items {
		g := Normalize(it.Group)
		if g == "" {
			continue
		}
		if g == norm || strings.Contains(g, norm) || strings.Contains(norm, g) {
			out = append(out, it)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// score is the fraction of query tokens that find a match in the item's
// name, code or group tokens. A token matches on equality or containment
// (containment only for tokens of 3+ runes, so "11" never matches "110").
func score(queryTokens []string, item models.CatalogItem) float64 {
	itemTokens := Tokenize(item.Name + " " + item.Code + " " + item.Group)
	if len(itemTokens) == 0 {
		return 0
	}

	matched := 0
	for _, qt := range queryTokens {
		if tokenMatches(qt, itemTokens) {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}

func tokenMatches(qt string, itemTokens []string) bool {
	for _, it := range itemTokens {
		if qt == it {
			return true
		}
		if len(qt) >= 3 && (strings.Contains(it, qt) || strings.Contains(qt, it) && len(it) >= 3) {
			return true
		}
	}
	return false
}
