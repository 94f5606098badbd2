package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "display iphone 11", Normalize("  DISPLAY   IPHONE 11 "))
	assert.Equal(t, "bateria tactil nino", Normalize("Batería Táctil Niño"))
	assert.Equal(t, "", Normalize("   "))
}

func TestNormalizeStripsPunctuation(t *testing.T) {
	assert.Equal(t, "precio iphone 11", Normalize("¿Precio iPhone 11?"))
	assert.Equal(t, "hola", Normalize("Hola!"))
	assert.Equal(t, "pro max", Normalize("pro-max"))
	assert.Equal(t, "", Normalize("¿¡?!"))
}

func TestQueryTokensStripsStopwords(t *testing.T) {
	assert.Equal(t, []string{"display", "iphone", "11"},
		QueryTokens("precio del display iphone 11 por favor"))
	// Question punctuation must not shield a stopword or a token.
	assert.Equal(t, []string{"iphone", "11"}, QueryTokens("¿precio iphone 11?"))
}

func TestQueryTokensKeepsAllStopwordQuery(t *testing.T) {
	// A query made only of filler words must not collapse to nothing.
	assert.Equal(t, []string{"precio"}, QueryTokens("precio"))
}
