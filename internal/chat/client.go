// Package chat provides the conversational brain of the pipeline. The
// animation path only needs a Responder; the OpenAI client is one
// implementation of it.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Responder produces an assistant reply to one user message.
type Responder interface {
	Respond(ctx context.Context, userText string) (string, error)
}

// Config holds OpenAI chat settings.
type Config struct {
	APIKey       string        `json:"api_key"`
	BaseURL      string        `json:"base_url"`
	Model        string        `json:"model"`
	SystemPrompt string        `json:"system_prompt"`
	MaxTokens    int           `json:"max_tokens"`
	Temperature  float64       `json:"temperature"`
	// MaxHistory caps the retained user/assistant message pairs.
	MaxHistory int           `json:"max_history"`
	Timeout    time.Duration `json:"timeout"`
}

// DefaultConfig returns sensible defaults. The system prompt asks for
// short replies because the fan can only animate a sentence or two
// before the viewer loses the thread.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "https://api.openai.com",
		Model:   "gpt-4o-mini",
		SystemPrompt: "You are a friendly assistant displayed on a holographic fan. " +
			"Keep replies to one or two short sentences.",
		MaxTokens:   150,
		Temperature: 0.7,
		MaxHistory:  10,
		Timeout:     30 * time.Second,
	}
}

// OpenAIClient implements Responder against the chat completions API.
// It keeps a rolling message history so follow-up questions resolve
// naturally. Not safe for concurrent use; the REPL is single-threaded.
type OpenAIClient struct {
	apiKey  string
	client  *http.Client
	logger  zerolog.Logger
	config  *Config
	history []message
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// NewOpenAIClient creates a chat client. The API key falls back to
// OPENAI_API_KEY when not configured.
func NewOpenAIClient(logger zerolog.Logger, config *Config) *OpenAIClient {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxHistory <= 0 {
		config.MaxHistory = 10
	}

	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	return &OpenAIClient{
		apiKey: apiKey,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger.With().Str("component", "chat").Logger(),
		config: config,
	}
}

// IsAvailable reports whether an API key is configured.
func (c *OpenAIClient) IsAvailable() bool {
	return c.apiKey != ""
}

// SetSystemPrompt replaces the system prompt for subsequent turns.
func (c *OpenAIClient) SetSystemPrompt(prompt string) {
	c.config.SystemPrompt = prompt
	c.logger.Info().Msg("System prompt updated")
}

// ClearHistory drops the conversation so the next turn starts fresh.
func (c *OpenAIClient) ClearHistory() {
	c.history = nil
	c.logger.Info().Msg("Conversation history cleared")
}

// HistoryLen returns the number of retained messages.
func (c *OpenAIClient) HistoryLen() int { return len(c.history) }

// Respond sends the user message with the rolling history and returns
// the assistant reply. The exchange is recorded only on success, so a
// failed turn leaves history consistent.
func (c *OpenAIClient) Respond(ctx context.Context, userText string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("chat: OpenAI API key not configured")
	}
	if strings.TrimSpace(userText) == "" {
		return "", fmt.Errorf("chat: empty message")
	}

	startTime := time.Now()

	messages := make([]message, 0, len(c.history)+2)
	if c.config.SystemPrompt != "" {
		messages = append(messages, message{Role: "system", Content: c.config.SystemPrompt})
	}
	messages = append(messages, c.history...)
	messages = append(messages, message{Role: "user", Content: userText})

	body, err := json.Marshal(chatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug().
		Str("model", c.config.Model).
		Int("historyLen", len(c.history)).
		Int("textLen", len(userText)).
		Msg("Sending chat request")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(bodyBytes)).
			Msg("Chat request failed")
		return "", fmt.Errorf("chat API error: status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}

	reply := strings.TrimSpace(parsed.Choices[0].Message.Content)

	c.history = append(c.history,
		message{Role: "user", Content: userText},
		message{Role: "assistant", Content: reply},
	)
	if max := c.config.MaxHistory * 2; len(c.history) > max {
		c.history = c.history[len(c.history)-max:]
	}

	c.logger.Info().
		Int("replyLen", len(reply)).
		Dur("processingTime", time.Since(startTime)).
		Msg("Chat response received")

	return reply, nil
}
