// Package agent drives the bounded tool-calling reply loop: the model may
// request catalog and cart operations, their results go back into the
// transcript, and the loop ends on a final text answer or the iteration cap.
package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/tmc/langchaingo/llms"

	"github.com/bkglobal/bkbot/internal/prompts"
	"github.com/bkglobal/bkbot/internal/session"
)

type Agent struct {
	model       llms.Model
	catalog     Catalog
	restock     RestockSource
	maxIters    int
	searchLimit int
}

func New(model llms.Model, cat Catalog, restock RestockSource, maxIters, searchLimit int) *Agent {
	if maxIters <= 0 {
		maxIters = 5
	}
	if searchLimit <= 0 {
		searchLimit = 3
	}
	return &Agent{
		model:       model,
		catalog:     cat,
		restock:     restock,
		maxIters:    maxIters,
		searchLimit: searchLimit,
	}
}

// Image is an inbound photo attached to the user's message.
type Image struct {
	MIMEType string
	Data     []byte
}

// Reply produces the outbound text for one turn. Cart tools mutate the
// session; the caller persists it afterwards. Any model failure aborts the
// loop with an error so the caller can emit the technical-difficulty text.
func (a *Agent) Reply(ctx context.Context, sess *session.Session, userText string, image *Image) (string, error) {
	messages := a.buildMessages(sess, userText, image)

	for i := 0; i < a.maxIters; i++ {
		resp, err := a.model.GenerateContent(ctx, messages,
			llms.WithTools(toolDefs),
			llms.WithTemperature(0.3),
		)
		if err != nil {
			return "", fmt.Errorf("model call failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("model returned no choices")
		}

		choice := resp.Choices[0]
		if len(choice.ToolCalls) == 0 {
			if choice.Content == "" {
				break
			}
			return choice.Content, nil
		}

		// Echo the assistant turn with its tool calls, then append one
		// tool-output entry per call.
		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			assistant.Parts = append(assistant.Parts, llms.TextContent{Text: choice.Content})
		}
		for _, tc := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, tc)
		}
		messages = append(messages, assistant)

		for _, tc := range choice.ToolCalls {
			if tc.FunctionCall == nil {
				continue
			}
			result := a.executeTool(ctx, sess, tc.FunctionCall.Name, tc.FunctionCall.Arguments)
			log.Printf("agent: tool %s -> %d bytes", tc.FunctionCall.Name, len(result))

			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       tc.FunctionCall.Name,
					Content:    result,
				}},
			})
		}
	}

	// Iteration cap reached without a final answer; ask for one concrete
	// detail instead of emitting something empty or truncated.
	return prompts.ClarifyMessage, nil
}

func (a *Agent) buildMessages(sess *session.Session, userText string, image *Image) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(sess.Transcript)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, prompts.AgentSystemPrompt))

	for _, m := range sess.Transcript {
		role := llms.ChatMessageTypeHuman
		if m.Role == "assistant" {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}

	user := llms.MessageContent{Role: llms.ChatMessageTypeHuman}
	if userText != "" {
		user.Parts = append(user.Parts, llms.TextContent{Text: userText})
	}
	if image != nil {
		user.Parts = append(user.Parts, llms.BinaryPart(image.MIMEType, image.Data))
		if userText == "" {
			user.Parts = append(user.Parts, llms.TextContent{
				Text: "Identifica el producto de la imagen y dime si lo manejamos.",
			})
		}
	}
	return append(messages, user)
}
