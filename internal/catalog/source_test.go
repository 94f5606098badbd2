package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `codigo,nombre,precio,cantidad,grupo
103317,DISPLAY IPHONE 11,"850.00",4,Displays Celular
103318,DISPLAY IPHONE 11 PRO MAX,"$1,250.00",0,Displays Celular
,PILA GENERICA AAA,15,100,Pilas
`

func TestParseCSV(t *testing.T) {
	items, err := parseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "103317", items[0].Code)
	assert.Equal(t, "DISPLAY IPHONE 11", items[0].Name)
	assert.InDelta(t, 850, items[0].Price, 0.001)
	assert.InDelta(t, 4, items[0].StockQty, 0.001)
	assert.Equal(t, "Displays Celular", items[0].Group)

	// Formatted currency strings parse into the numeric price.
	assert.InDelta(t, 1250, items[1].Price, 0.001)

	// Rows without a code are kept; identity becomes positional.
	assert.Empty(t, items[2].Code)
}

func TestCSVSourceOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	src := NewCSVSource(srv.URL)
	items, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestCSVSourceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewCSVSource(srv.URL)
	_, err := src.Load(context.Background())
	assert.Error(t, err)
}
