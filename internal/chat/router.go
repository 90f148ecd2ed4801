package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aruna-wellness/backend/internal/llm"
)

// Sampling settings for the routing call. Bounded output and a fixed
// temperature keep routing behavior reasonably stable across similar inputs.
const (
	routingTemperature = 0.7
	routingMaxTokens   = 800
)

const routingSystemPrompt = `You are Aruna, a friendly Ayurvedic wellness assistant.
You help users shop for wellness products, book practitioners, understand their
health metrics, and manage their daily schedule.

When the user's request maps to one of your functions, call it. You may call
more than one function when the request covers more than one topic. When no
function applies, answer conversationally. Never invent function names.`

// ChatModel is the slice of the LLM client the chat flow depends on.
type ChatModel interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResult, error)
}

// FunctionCall is one structured call requested by the model, with its raw
// argument object still unvalidated.
type FunctionCall struct {
	Name      string
	Arguments json.RawMessage
}

// RouteResult is the model's routing decision: free text, structured calls,
// or both.
type RouteResult struct {
	Text  string
	Calls []FunctionCall
}

// Router sends the user's question and the tool catalog to the model and
// returns its decision. Whether and which functions to call is entirely the
// model's choice, constrained to the catalog.
type Router struct {
	model   ChatModel
	catalog *Catalog
	logger  *slog.Logger
}

// NewRouter creates a new Router.
func NewRouter(model ChatModel, catalog *Catalog, logger *slog.Logger) *Router {
	return &Router{
		model:   model,
		catalog: catalog,
		logger:  logger.With("component", "intent_router"),
	}
}

// Route asks the model to decide how to handle the question. A model failure
// propagates so the HTTP layer can return a real error status; this is the one
// failure in the flow that is not recovered into in-band text by a handler.
func (r *Router) Route(ctx context.Context, question string) (*RouteResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question must not be empty")
	}

	result, err := r.model.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: routingSystemPrompt},
			{Role: "user", Content: question},
		},
		Tools:       r.catalog.Tools(),
		Temperature: routingTemperature,
		MaxTokens:   routingMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("routing call failed: %w", err)
	}

	route := &RouteResult{Text: result.Text}
	for _, tc := range result.ToolCalls {
		route.Calls = append(route.Calls, FunctionCall{
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}

	r.logger.InfoContext(ctx, "Routing decision received", "calls", len(route.Calls), "has_text", route.Text != "")
	return route, nil
}
