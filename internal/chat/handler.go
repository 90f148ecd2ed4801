package chat

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

const fallbackReplyText = "I'm here to help with your wellness journey. Could you tell me a bit more about what you're looking for?"

const routingFailureText = "I'm sorry, I'm having trouble thinking right now. Please try again in a moment."

// Handler is the HTTP entry point for the chat flow.
type Handler struct {
	router     *Router
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewHandler creates a new instance of the Handler.
func NewHandler(router *Router, dispatcher *Dispatcher, logger *slog.Logger) *Handler {
	return &Handler{
		router:     router,
		dispatcher: dispatcher,
		logger:     logger.With("component", "chat_handler"),
	}
}

// RegisterRoutes attaches the chat routes to the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/chat", h.HandleChat)
}

// ChatRequest is the inbound body for POST /api/chat.
type ChatRequest struct {
	Question string `json:"question"`
}

// HandleChat runs the full flow: route, dispatch, compose.
func (h *Handler) HandleChat(c echo.Context) error {
	ctx := c.Request().Context()

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Field 'question' is required")
	}

	credential := BearerToken(c.Request())
	reqLogger := h.logger.With("request_id", c.Get("requestID"))
	reqLogger.InfoContext(ctx, "Executing chat query", "question", req.Question, "authenticated", credential != "")

	route, err := h.router.Route(ctx, req.Question)
	if err != nil {
		reqLogger.ErrorContext(ctx, "Routing call failed", "error", err)
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "model unavailable",
			"text":  routingFailureText,
		})
	}

	contributions := h.dispatcher.Dispatch(ctx, route.Calls, credential)
	reply := Compose(route.Text, contributions)
	if reply.Text == "" {
		reply.Text = fallbackReplyText
	}

	return c.JSON(http.StatusOK, reply)
}

// BearerToken extracts the bearer credential from the Authorization header.
// Returns "" when the header is absent or not bearer-shaped; handlers that
// need a credential fail closed on "".
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
