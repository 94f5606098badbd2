package whatsapp

import (
	"encoding/json"
	"fmt"

	"github.com/bkglobal/bkbot/internal/models"
)

// Webhook envelope as the Cloud API delivers it. Only the fields the bot
// consumes are mapped.
type Envelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []envelopeMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type envelopeMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Image *struct {
		ID      string `json:"id"`
		Caption string `json:"caption"`
	} `json:"image"`
}

// ParseWebhook unwraps a webhook delivery into the messages it carries.
// Status updates and unsupported message types are skipped, not errors.
func ParseWebhook(body []byte) ([]models.InboundMessage, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse webhook envelope: %w", err)
	}

	var out []models.InboundMessage
	for _, entry := range env.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				in := models.InboundMessage{
					From:      msg.From,
					MessageID: msg.ID,
					Type:      msg.Type,
				}
				switch msg.Type {
				case "text":
					if msg.Text == nil {
						continue
					}
					in.Text = msg.Text.Body
				case "image":
					if msg.Image == nil {
						continue
					}
					in.ImageID = msg.Image.ID
					in.Caption = msg.Image.Caption
				default:
					continue
				}
				out = append(out, in)
			}
		}
	}
	return out, nil
}
