package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkMessageShortBodyUntouched(t *testing.T) {
	chunks := ChunkMessage("hola", 1500)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hola", chunks[0])
}

func TestChunkMessageSplitsOnLineBoundaries(t *testing.T) {
	lines := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		lines = append(lines, strings.Repeat("x", 50))
	}
	body := strings.Join(lines, "\n")

	chunks := ChunkMessage(body, 200)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 200)
		// Line-boundary splitting keeps every line whole.
		for _, line := range strings.Split(c, "\n") {
			assert.Len(t, line, 50)
		}
	}
}

func TestChunkMessageHardCutsSingleLongLine(t *testing.T) {
	body := strings.Repeat("y", 450)
	chunks := ChunkMessage(body, 200)
	require.Len(t, chunks, 3)
	assert.Equal(t, 200, len(chunks[0]))
	assert.Equal(t, 200, len(chunks[1]))
	assert.Equal(t, 50, len(chunks[2]))
}

func TestChunkMessageHardCutKeepsRunesWhole(t *testing.T) {
	// 2-byte runes with a limit that lands mid-rune (7 bytes = 3.5 runes).
	body := strings.Repeat("ñ", 20)
	chunks := ChunkMessage(body, 7)
	require.Greater(t, len(chunks), 1)

	total := ""
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %q split a rune", c)
		assert.LessOrEqual(t, len(c), 7)
		total += c
	}
	assert.Equal(t, body, total)
}

func TestSendTextChunksLongBody(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendTextRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "whatsapp", req.MessagingProduct)
		assert.Equal(t, "5215550001", req.To)
		bodies = append(bodies, req.Text.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("token", "12345", srv.URL)
	long := strings.Repeat(strings.Repeat("a", 100)+"\n", 40)
	require.NoError(t, c.SendText(context.Background(), "5215550001", long))

	assert.Greater(t, len(bodies), 1)
}

func TestSendTextNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad-token", "12345", srv.URL)
	assert.Error(t, c.SendText(context.Background(), "5215550001", "hola"))
}

const sampleEnvelope = `{
  "entry": [{
    "changes": [{
      "value": {
        "messages": [
          {"from": "5215550001", "id": "wamid.text1", "type": "text", "text": {"body": "precio iphone 11"}},
          {"from": "5215550002", "id": "wamid.img1", "type": "image", "image": {"id": "media123", "caption": "tienes esta?"}},
          {"from": "5215550003", "id": "wamid.react1", "type": "reaction"}
        ]
      }
    }]
  }]
}`

func TestParseWebhook(t *testing.T) {
	msgs, err := ParseWebhook([]byte(sampleEnvelope))
	require.NoError(t, err)
	require.Len(t, msgs, 2, "unsupported types are skipped")

	assert.Equal(t, "5215550001", msgs[0].From)
	assert.Equal(t, "precio iphone 11", msgs[0].Text)
	assert.Equal(t, "wamid.text1", msgs[0].MessageID)

	assert.Equal(t, "image", msgs[1].Type)
	assert.Equal(t, "media123", msgs[1].ImageID)
	assert.Equal(t, "tienes esta?", msgs[1].Caption)
}

func TestParseWebhookStatusOnlyDelivery(t *testing.T) {
	msgs, err := ParseWebhook([]byte(`{"entry":[{"changes":[{"value":{}}]}]}`))
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestParseWebhookGarbage(t *testing.T) {
	_, err := ParseWebhook([]byte("not json"))
	assert.Error(t, err)
}
