package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/internal/llm"
)

type stubHandler struct {
	reply string
	err   error
	calls []string
}

func (s *stubHandler) Handle(ctx context.Context, senderID, messageID, text string) (string, error) {
	s.calls = append(s.calls, text)
	return s.reply, s.err
}

type stubSender struct {
	sent []string
	err  error
}

func (s *stubSender) Send(ctx context.Context, recipientID, text string) error {
	s.sent = append(s.sent, text)
	return s.err
}

func newTestServer(h *stubHandler, snd *stubSender) *httptest.Server {
	srv := NewServer(h, snd, "secret-token", "page-1", nil, nil)
	return httptest.NewServer(srv.Router())
}

func envelopeBody(t *testing.T, event Messaging) string {
	t.Helper()
	body, err := json.Marshal(Envelope{
		Object: "page",
		Entry:  []Entry{{ID: "page-1", Messaging: []Messaging{event}}},
	})
	require.NoError(t, err)
	return string(body)
}

func textEvent(senderID, mid, text string) Messaging {
	return Messaging{
		Sender:  Party{ID: senderID},
		Message: &Message{MID: mid, Text: text},
	}
}

func TestVerifyChallenge(t *testing.T) {
	ts := newTestServer(&stubHandler{}, &stubSender{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/webhook?hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=12345")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var buf [16]byte
	n, _ := resp.Body.Read(buf[:])
	assert.Equal(t, "12345", string(buf[:n]))
}

func TestVerifyRejectsBadToken(t *testing.T) {
	ts := newTestServer(&stubHandler{}, &stubSender{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestInboundMessageGetsReply(t *testing.T) {
	h := &stubHandler{reply: "here you go"}
	snd := &stubSender{}
	ts := newTestServer(h, snd)
	defer ts.Close()

	body := envelopeBody(t, textEvent("u1", "m1", "best sushi in brooklyn"))
	resp, err := http.Post(ts.URL+"/webhook", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"best sushi in brooklyn"}, h.calls)
	assert.Equal(t, []string{"here you go"}, snd.sent)
}

func TestEchoAndReceiptsDropped(t *testing.T) {
	h := &stubHandler{reply: "should not send"}
	snd := &stubSender{}
	ts := newTestServer(h, snd)
	defer ts.Close()

	events := []Messaging{
		{Sender: Party{ID: "u1"}, Message: &Message{MID: "m1", Text: "hi", IsEcho: true}},
		{Sender: Party{ID: "u1"}, Read: &Read{Watermark: 1}},
		{Sender: Party{ID: "u1"}, Delivery: &Delivery{Watermark: 1}},
		{Sender: Party{ID: "u1"}, Reaction: &Reaction{MID: "m1", Action: "react"}},
		{Sender: Party{ID: "page-1"}, Message: &Message{MID: "m2", Text: "self"}},
		{Sender: Party{ID: "u1"}, Message: &Message{MID: "m3", Text: ""}},
	}
	for _, event := range events {
		resp, err := http.Post(ts.URL+"/webhook", "application/json", strings.NewReader(envelopeBody(t, event)))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Empty(t, h.calls)
	assert.Empty(t, snd.sent)
}

func TestEmptyReplySendsNothing(t *testing.T) {
	h := &stubHandler{reply: ""}
	snd := &stubSender{}
	ts := newTestServer(h, snd)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/webhook", "application/json",
		strings.NewReader(envelopeBody(t, textEvent("u1", "m1", "hi"))))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, h.calls, 1)
	assert.Empty(t, snd.sent)
}

func TestRateLimitedAnswers200WithMarkerBody(t *testing.T) {
	h := &stubHandler{err: llm.ErrRateLimited}
	snd := &stubSender{}
	ts := newTestServer(h, snd)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/webhook", "application/json",
		strings.NewReader(envelopeBody(t, textEvent("u1", "m1", "hi"))))
	require.NoError(t, err)
	defer resp.Body.Close()

	// A non-200 would make the platform redeliver, and dedup would then
	// swallow the retry; the rate limit is flagged in the body instead.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "rate-limited", string(body))
	assert.Empty(t, snd.sent)
}

func TestGarbagePayloadStillAnswers200(t *testing.T) {
	ts := newTestServer(&stubHandler{}, &stubSender{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/webhook", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(&stubHandler{}, &stubSender{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGraphSenderPostsMessage(t *testing.T) {
	var got sendRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "token-1", r.URL.Query().Get("access_token"))
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	g := NewGraphSender("token-1", time.Second, nil)
	g.baseURL = upstream.URL

	err := g.Send(context.Background(), "u1", "hello!")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.Recipient.ID)
	assert.Equal(t, "hello!", got.Message.Text)
	assert.Equal(t, "RESPONSE", got.MessagingType)
}

func TestGraphSenderTruncatesOversized(t *testing.T) {
	var got sendRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	g := NewGraphSender("token-1", time.Second, nil)
	g.baseURL = upstream.URL

	err := g.Send(context.Background(), "u1", strings.Repeat("long line of text\n", 100))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got.Message.Text), 1000)
}

func TestGraphSenderSurfacesUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad token"}}`, http.StatusUnauthorized)
	}))
	defer upstream.Close()

	g := NewGraphSender("token-1", time.Second, nil)
	g.baseURL = upstream.URL

	err := g.Send(context.Background(), "u1", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
