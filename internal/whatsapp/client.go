package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength is the per-message body limit we chunk against. The
// Cloud API caps text bodies above this, so long replies are split on line
// boundaries where possible.
const MaxMessageLength = 1500

// Client is a thin wrapper over the WhatsApp Cloud API.
type Client struct {
	accessToken   string
	phoneNumberID string
	base          string
	client        *http.Client
}

func NewClient(accessToken, phoneNumberID, base string) *Client {
	return &Client{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		base:          strings.TrimSuffix(base, "/"),
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

type sendTextRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

// SendText delivers a text message, splitting bodies over the size limit
// into sequential chunks.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	for _, chunk := range ChunkMessage(body, MaxMessageLength) {
		if err := c.sendOne(ctx, to, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) sendOne(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(sendTextRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.base, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send returned status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// DownloadMedia resolves a media id to its temporary URL and fetches the
// bytes. Both steps need the access token.
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error) {
	url, mime, err := c.mediaURL(ctx, mediaID)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build media request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("media download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("media download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read media body: %w", err)
	}
	return data, mime, nil
}

func (c *Client) mediaURL(ctx context.Context, mediaID string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/"+mediaID, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to build media lookup: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("media lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("media lookup returned status %d", resp.StatusCode)
	}

	var out struct {
		URL      string `json:"url"`
		MIMEType string `json:"mime_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("failed to decode media lookup: %w", err)
	}
	if out.URL == "" {
		return "", "", fmt.Errorf("media %s has no URL", mediaID)
	}
	return out.URL, out.MIMEType, nil
}

// ChunkMessage splits a body into pieces of at most limit bytes, preferring
// line boundaries and falling back to a hard cut for a single oversized line.
func ChunkMessage(body string, limit int) []string {
	if limit <= 0 || len(body) <= limit {
		return []string{body}
	}

	var chunks []string
	for len(body) > limit {
		cut := strings.LastIndex(body[:limit], "\n")
		if cut <= 0 {
			// Hard cut inside one oversized line; back off so a
			// multi-byte rune is never split.
			cut = limit
			for cut > 0 && !utf8.RuneStart(body[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		}
		chunks = append(chunks, strings.TrimRight(body[:cut], "\n"))
		body = strings.TrimLeft(body[cut:], "\n")
	}
	if body != "" {
		chunks = append(chunks, body)
	}
	return chunks
}
