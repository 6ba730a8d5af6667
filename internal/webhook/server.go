// Package webhook exposes the inbound HTTP surface: platform verification,
// message intake, health, and a stats snapshot.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"concierge/internal/llm"
	"concierge/internal/metrics"
)

// maxBodyBytes bounds an inbound webhook payload.
const maxBodyBytes = 1 << 20

// MessageHandler processes one inbound message and returns the reply body,
// or "" for a silent drop.
type MessageHandler interface {
	Handle(ctx context.Context, senderID, messageID, text string) (string, error)
}

// Server is the webhook HTTP server.
type Server struct {
	handler     MessageHandler
	sender      ReplySender
	verifyToken string
	pageID      string
	collector   *metrics.Collector
	logger      *slog.Logger
}

// NewServer creates the webhook server. collector may be nil.
func NewServer(handler MessageHandler, sender ReplySender, verifyToken, pageID string, collector *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		handler:     handler,
		sender:      sender,
		verifyToken: verifyToken,
		pageID:      pageID,
		collector:   collector,
		logger:      logger,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/webhook", s.handleVerify)
	r.Post("/webhook", s.handleEvents)
	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	return r
}

// handleVerify answers the platform's subscription challenge.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == s.verifyToken {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	http.Error(w, "verification failed", http.StatusForbidden)
}

// handleEvents processes a webhook delivery. The platform retries non-200
// responses and the dedup record would swallow the redelivery, so every
// outcome answers 200; a model rate limit still answers 200 but with a short
// marker body instead of an empty one.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.logger.Warn("webhook body read failed", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		s.logger.Warn("webhook payload unparseable", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}
	if env.Object != "page" {
		w.WriteHeader(http.StatusOK)
		return
	}

	requestID := uuid.NewString()
	for _, entry := range env.Entry {
		for _, event := range entry.Messaging {
			if err := s.processEvent(r.Context(), requestID, event); err != nil {
				if errors.Is(err, llm.ErrRateLimited) {
					s.logger.Warn("model rate limited", "request_id", requestID)
					w.WriteHeader(http.StatusOK)
					w.Write([]byte("rate-limited"))
					return
				}
				s.logger.Error("event processing failed", "request_id", requestID, "error", err)
			}
		}
	}
	w.WriteHeader(http.StatusOK)
}

// processEvent handles one messaging event, dropping everything that is not
// a fresh inbound user text.
func (s *Server) processEvent(ctx context.Context, requestID string, event Messaging) error {
	switch {
	case event.Message == nil:
		// Read, delivery, and reaction receipts carry no work.
		return nil
	case event.Message.IsEcho:
		return nil
	case event.Sender.ID == "" || event.Sender.ID == s.pageID:
		return nil
	case event.Message.Text == "":
		return nil
	}

	logger := s.logger.With("request_id", requestID, "sender", event.Sender.ID)
	logger.Info("inbound message", "message_id", event.Message.MID)

	reply, err := s.handler.Handle(ctx, event.Sender.ID, event.Message.MID, event.Message.Text)
	if err != nil {
		return err
	}
	if reply == "" {
		return nil
	}

	started := time.Now()
	sendErr := s.sender.Send(ctx, event.Sender.ID, reply)
	if s.collector != nil {
		s.collector.RecordTiming(metrics.OpSend, time.Since(started), sendErr)
	}
	if sendErr != nil {
		logger.Error("reply send failed", "error", sendErr)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.collector == nil {
		json.NewEncoder(w).Encode(metrics.Snapshot{})
		return
	}
	json.NewEncoder(w).Encode(s.collector.Snapshot())
}
