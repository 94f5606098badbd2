package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bkglobal/bkbot/internal/models"
)

// Source loads a full catalog snapshot from a backing system.
type Source interface {
	Load(ctx context.Context) ([]models.CatalogItem, error)
}

// CSVSource loads the catalog from a CSV export, either a URL or a local
// file path. Expected columns: code, name, price, quantity, group. A header
// row is detected and skipped.
type CSVSource struct {
	location string
	client   *http.Client
}

func NewCSVSource(location string) *CSVSource {
	return &CSVSource{
		location: location,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *CSVSource) Load(ctx context.Context) ([]models.CatalogItem, error) {
	r, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return parseCSV(r)
}

func (s *CSVSource) open(ctx context.Context) (io.ReadCloser, error) {
	if strings.HasPrefix(s.location, "http://") || strings.HasPrefix(s.location, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build catalog request: %w", err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch catalog: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("catalog fetch returned status %d", resp.StatusCode)
		}
		return resp.Body, nil
	}

	f, err := os.Open(s.location)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	return f, nil
}

func parseCSV(r io.Reader) ([]models.CatalogItem, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog CSV: %w", err)
	}

	items := make([]models.CatalogItem, 0, len(records))
	for i, rec := range records {
		if len(rec) < 2 {
			continue
		}
		// Header row: first line whose price column is not numeric.
		if i == 0 && looksLikeHeader(rec) {
			continue
		}

		item := models.CatalogItem{
			Code: strings.TrimSpace(rec[0]),
			Name: strings.TrimSpace(rec[1]),
		}
		if len(rec) > 2 {
			item.Price = parseNumber(rec[2])
		}
		if len(rec) > 3 {
			item.StockQty = parseNumber(rec[3])
		}
		if len(rec) > 4 {
			item.Group = strings.TrimSpace(rec[4])
		}
		if item.Name == "" {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

func looksLikeHeader(rec []string) bool {
	if len(rec) < 3 {
		return false
	}
	_, err := strconv.ParseFloat(cleanNumber(rec[2]), 64)
	return err != nil
}

func parseNumber(s string) float64 {
	f, err := strconv.ParseFloat(cleanNumber(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	return strings.ReplaceAll(s, ",", "")
}
