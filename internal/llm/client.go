// internal/llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrModelUnavailable indicates the chat-completions API could not be reached
// or returned a non-successful response. There is no retry; callers decide how
// to surface the failure.
var ErrModelUnavailable = errors.New("llm: model unavailable")

// Client is the centralized client for the AI Chat Completions API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	url        string
	model      string
	logger     *slog.Logger
}

// NewClient creates a new instance of the Client.
func NewClient(url, apiKey, model string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		apiKey:     apiKey,
		url:        url,
		model:      model,
		logger:     logger.With("component", "llm_client"),
	}
}

// Message is a single chat message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FunctionDef describes one callable function exposed to the model. Parameters
// is a JSON Schema document.
type FunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Tool wraps a function definition in the tool envelope the API expects.
type Tool struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// ToolCall is a structured function invocation returned by the model.
// Arguments is the raw JSON argument object as a string, exactly as returned.
type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// ChatRequest holds everything a single completion call needs.
type ChatRequest struct {
	Messages    []Message
	Tools       []Tool
	Temperature float64
	MaxTokens   int
}

// ChatResult is the decoded first choice of a completion response.
type ChatResult struct {
	Text      string
	ToolCalls []ToolCall
}

type requestBody struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Tools       []Tool    `json:"tools,omitempty"`
	ToolChoice  string    `json:"tool_choice,omitempty"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type responseBody struct {
	Choices []struct {
		Message struct {
			Content   string     `json:"content"`
			ToolCalls []ToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat issues one completion request and returns the first choice.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: AI API key is not configured", ErrModelUnavailable)
	}

	body := requestBody{
		Model:       c.model,
		Messages:    req.Messages,
		Tools:       req.Tools,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if len(req.Tools) > 0 {
		body.ToolChoice = "auto"
	}

	payloadBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create AI request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		c.logger.ErrorContext(ctx, "AI API returned non-OK status", "status", resp.StatusCode, "body", string(bodyBytes))
		return nil, fmt.Errorf("%w: status %d", ErrModelUnavailable, resp.StatusCode)
	}

	var decoded responseBody
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode AI response: %w", err)
	}

	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrModelUnavailable)
	}

	choice := decoded.Choices[0].Message
	return &ChatResult{
		Text:      choice.Content,
		ToolCalls: choice.ToolCalls,
	}, nil
}
