package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *OpenAIClient {
	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = baseURL
	cfg.MaxHistory = 2
	return NewOpenAIClient(zerolog.Nop(), cfg)
}

func chatServer(t *testing.T, reply string, capture *[]chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if capture != nil {
			*capture = append(*capture, req)
		}
		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message message `json:"message"`
		}{Message: message{Role: "assistant", Content: reply}})
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRespond_Success(t *testing.T) {
	var reqs []chatRequest
	srv := chatServer(t, "Hello there!", &reqs)
	c := newTestClient(srv.URL)

	reply, err := c.Respond(context.Background(), "Hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", reply)

	require.Len(t, reqs, 1)
	// System prompt leads, user message trails.
	require.GreaterOrEqual(t, len(reqs[0].Messages), 2)
	assert.Equal(t, "system", reqs[0].Messages[0].Role)
	assert.Equal(t, "user", reqs[0].Messages[len(reqs[0].Messages)-1].Role)
	assert.Equal(t, "Hi", reqs[0].Messages[len(reqs[0].Messages)-1].Content)
}

func TestRespond_CarriesHistory(t *testing.T) {
	var reqs []chatRequest
	srv := chatServer(t, "reply", &reqs)
	c := newTestClient(srv.URL)

	_, err := c.Respond(context.Background(), "first")
	require.NoError(t, err)
	_, err = c.Respond(context.Background(), "second")
	require.NoError(t, err)

	// Second request carries the first exchange: system + user/assistant + user.
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[1].Messages, 4)
	assert.Equal(t, "first", reqs[1].Messages[1].Content)
	assert.Equal(t, "reply", reqs[1].Messages[2].Content)
}

func TestRespond_TrimsHistory(t *testing.T) {
	srv := chatServer(t, "reply", nil)
	c := newTestClient(srv.URL)

	for _, msg := range []string{"a", "b", "c", "d"} {
		_, err := c.Respond(context.Background(), msg)
		require.NoError(t, err)
	}
	// MaxHistory=2 pairs, so at most 4 messages retained.
	assert.Equal(t, 4, c.HistoryLen())
}

func TestRespond_ErrorLeavesHistoryIntact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	c := newTestClient(srv.URL)

	_, err := c.Respond(context.Background(), "Hi")
	require.Error(t, err)
	assert.Equal(t, 0, c.HistoryLen())
}

func TestRespond_RequiresKeyAndText(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = ""
	t.Setenv("OPENAI_API_KEY", "")
	c := NewOpenAIClient(zerolog.Nop(), cfg)
	assert.False(t, c.IsAvailable())

	_, err := c.Respond(context.Background(), "Hi")
	assert.Error(t, err)

	srv := chatServer(t, "reply", nil)
	c2 := newTestClient(srv.URL)
	_, err = c2.Respond(context.Background(), "   ")
	assert.Error(t, err)
}

func TestClearHistory(t *testing.T) {
	srv := chatServer(t, "reply", nil)
	c := newTestClient(srv.URL)

	_, err := c.Respond(context.Background(), "Hi")
	require.NoError(t, err)
	require.Equal(t, 2, c.HistoryLen())

	c.ClearHistory()
	assert.Equal(t, 0, c.HistoryLen())
}
