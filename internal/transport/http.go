// Package transport exposes the webhook HTTP surface. The POST handler
// acknowledges immediately and processes asynchronously so the messaging
// provider's retry policy never refires for slow downstream calls.
package transport

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/bkglobal/bkbot/internal/models"
	"github.com/bkglobal/bkbot/internal/whatsapp"
)

// Handler processes one unwrapped inbound message.
type Handler interface {
	HandleMessage(ctx context.Context, in models.InboundMessage) error
}

type Server struct {
	verifyToken string
	handler     Handler
	srv         *http.Server
	// processTimeout bounds one async message-handling task.
	processTimeout time.Duration
}

func NewServer(addr, verifyToken string, handler Handler) *Server {
	s := &Server{
		verifyToken:    verifyToken,
		handler:        handler,
		processTimeout: 2 * time.Minute,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.webhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	log.Printf("webhook server listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) webhook(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.verify(w, r)
	case http.MethodPost:
		s.receive(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// verify answers Meta's subscription handshake.
func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && token == s.verifyToken {
		log.Println("webhook verified")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, challenge)
		return
	}
	w.WriteHeader(http.StatusForbidden)
}

// receive acknowledges the delivery with 200 before any processing; every
// failure past this point is logged and swallowed so the provider does not
// retry-storm.
func (s *Server) receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		log.Printf("transport: failed to read webhook body: %v", err)
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusOK)

	messages, err := whatsapp.ParseWebhook(body)
	if err != nil {
		log.Printf("transport: failed to parse webhook: %v", err)
		return
	}

	for _, msg := range messages {
		go s.process(msg)
	}
}

func (s *Server) process(msg models.InboundMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("transport: panic handling message %s: %v", msg.MessageID, rec)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.processTimeout)
	defer cancel()

	if err := s.handler.HandleMessage(ctx, msg); err != nil {
		log.Printf("transport: message %s failed: %v", msg.MessageID, err)
	}
}
