package assessment

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/aruna-wellness/backend/internal/chat"
	"github.com/labstack/echo/v4"
)

const loginPrompt = "Please log in to start your wellness assessment."

// Handler is the HTTP entry point for the assessment chat.
type Handler struct {
	flow   *Flow
	logger *slog.Logger
}

// NewHandler creates a new instance of the Handler.
func NewHandler(flow *Flow, logger *slog.Logger) *Handler {
	return &Handler{
		flow:   flow,
		logger: logger.With("component", "assessment_handler"),
	}
}

// RegisterRoutes attaches the assessment routes to the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/assessment/chat", h.HandleAssessmentChat)
}

// AssessmentRequest is the inbound body for POST /api/assessment/chat.
type AssessmentRequest struct {
	Message string `json:"message"`
}

// HandleAssessmentChat advances the guided assessment by one turn.
func (h *Handler) HandleAssessmentChat(c echo.Context) error {
	ctx := c.Request().Context()

	var req AssessmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Field 'message' is required")
	}

	credential := chat.BearerToken(c.Request())
	if credential == "" {
		// Fail closed, in-band: the UI renders this like any other reply.
		return c.JSON(http.StatusOK, Reply{Text: loginPrompt, Total: len(questions)})
	}

	reqLogger := h.logger.With("request_id", c.Get("requestID"))
	reply, err := h.flow.Advance(ctx, credential, req.Message)
	if err != nil {
		reqLogger.ErrorContext(ctx, "Failed to advance assessment", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to advance assessment").SetInternal(err)
	}

	reqLogger.InfoContext(ctx, "Assessment advanced", "step", reply.Step, "completed", reply.Completed)
	return c.JSON(http.StatusOK, reply)
}
