package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"concierge/internal/format"
)

// graphAPIBase is the platform send endpoint. Tests point baseURL elsewhere.
const graphAPIBase = "https://graph.facebook.com/v21.0"

// ReplySender delivers an outbound message to a recipient.
type ReplySender interface {
	Send(ctx context.Context, recipientID, text string) error
}

// GraphSender sends replies through the platform Graph API.
type GraphSender struct {
	baseURL   string
	pageToken string
	client    *http.Client
	logger    *slog.Logger
}

// NewGraphSender creates a sender with the page access token.
func NewGraphSender(pageToken string, timeout time.Duration, logger *slog.Logger) *GraphSender {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &GraphSender{
		baseURL:   graphAPIBase,
		pageToken: pageToken,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type sendRequest struct {
	Recipient     Party       `json:"recipient"`
	Message       sendMessage `json:"message"`
	MessagingType string      `json:"messaging_type"`
}

type sendMessage struct {
	Text string `json:"text"`
}

// Send posts one text message. Bodies over the platform limit are truncated
// as a final guard; the formatter should already have kept them under it.
func (g *GraphSender) Send(ctx context.Context, recipientID, text string) error {
	if len(text) > format.MaxReplyLen {
		g.logger.Warn("outbound message over limit, truncating", "len", len(text))
		text = format.Truncate(text)
	}

	body, err := json.Marshal(sendRequest{
		Recipient:     Party{ID: recipientID},
		Message:       sendMessage{Text: text},
		MessagingType: "RESPONSE",
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/me/messages?access_token=%s", g.baseURL, g.pageToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send message: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
