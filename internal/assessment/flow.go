package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aruna-wellness/backend/internal/llm"
)

// The fixed question sequence. Answers accumulate in the session; after the
// last answer a single analysis call produces the dosha summary.
var questions = []string{
	"How would you describe your sleep? (e.g. light and easily disturbed, moderate, deep and long)",
	"How is your appetite and digestion? (e.g. irregular, strong and sharp, slow but steady)",
	"How are your energy levels through the day? (e.g. bursts and crashes, intense and driven, steady and enduring)",
	"How do you usually respond to stress? (e.g. worry and restlessness, irritation and impatience, withdrawal and lethargy)",
	"How would you describe your body frame? (e.g. light and slender, medium and muscular, broad and solid)",
	"How do you handle cold and hot weather?",
	"How would you describe your temperament? (e.g. creative and changeable, focused and ambitious, calm and loyal)",
}

// ChatModel is the slice of the LLM client the assessment flow depends on.
type ChatModel interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResult, error)
}

const (
	summaryTemperature = 0.7
	summaryMaxTokens   = 1000
)

const summaryFailureText = "I'm sorry, I couldn't complete your assessment right now. Your answers are saved; please send another message to try again."

// Reply is one turn of the assessment conversation.
type Reply struct {
	Text      string `json:"text"`
	Step      int    `json:"step"`
	Total     int    `json:"total"`
	Completed bool   `json:"completed"`
}

// Flow drives the guided dosha assessment.
type Flow struct {
	store  Store
	model  ChatModel
	logger *slog.Logger
}

// NewFlow creates a new assessment Flow.
func NewFlow(store Store, model ChatModel, logger *slog.Logger) *Flow {
	return &Flow{
		store:  store,
		model:  model,
		logger: logger.With("component", "assessment_flow"),
	}
}

// Advance consumes one user message and returns the next turn. A message with
// no active session starts a new one and returns the first question; the
// message that answers the final question triggers the summary call and ends
// the session.
func (f *Flow) Advance(ctx context.Context, credential, message string) (*Reply, error) {
	session, err := f.store.Get(ctx, credential)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		session = &Session{StartedAt: time.Now().UTC()}
		if err := f.store.Put(ctx, credential, session); err != nil {
			return nil, err
		}
		return &Reply{
			Text:  "Let's find your Ayurvedic constitution. " + questions[0],
			Step:  1,
			Total: len(questions),
		}, nil
	}

	session.Answers = append(session.Answers, message)
	session.Step++

	if session.Step < len(questions) {
		if err := f.store.Put(ctx, credential, session); err != nil {
			return nil, err
		}
		return &Reply{
			Text:  questions[session.Step],
			Step:  session.Step + 1,
			Total: len(questions),
		}, nil
	}

	summary, err := f.summarize(ctx, session)
	if err != nil {
		f.logger.ErrorContext(ctx, "Assessment summary call failed", "error", err)
		// Keep the session so the user can retry without starting over.
		session.Step--
		session.Answers = session.Answers[:len(session.Answers)-1]
		if putErr := f.store.Put(ctx, credential, session); putErr != nil {
			return nil, putErr
		}
		return &Reply{
			Text:  summaryFailureText,
			Step:  len(questions),
			Total: len(questions),
		}, nil
	}

	if err := f.store.Delete(ctx, credential); err != nil {
		f.logger.WarnContext(ctx, "Failed to delete completed assessment session", "error", err)
	}

	return &Reply{
		Text:      summary,
		Step:      len(questions),
		Total:     len(questions),
		Completed: true,
	}, nil
}

func (f *Flow) summarize(ctx context.Context, session *Session) (string, error) {
	var b strings.Builder
	b.WriteString("You are an Ayurvedic wellness guide. Based on the following self-assessment answers, describe the user's likely dominant dosha (Vata, Pitta or Kapha), what it means, and two gentle lifestyle suggestions. Be warm and concise.\n\n")
	for i, answer := range session.Answers {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", questions[i], answer)
	}

	result, err := f.model.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "user", Content: b.String()},
		},
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return result.Text, nil
}
