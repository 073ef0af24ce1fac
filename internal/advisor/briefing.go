package advisor

import (
	"context"
	"errors"
	"fmt"

	"macro-calendar/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoEvents is returned when there is nothing to brief on; no LLM call is made.
var ErrNoEvents = errors.New("no upcoming events to brief on")

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// BriefingService turns the calendar into a short week-ahead note.
type BriefingService struct {
	tracer    trace.Tracer
	llm       LLMClient
	model     string
	maxEvents int
}

func NewBriefingService(tracer trace.Tracer, llm LLMClient, model string) *BriefingService {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &BriefingService{
		tracer:    tracer,
		llm:       llm,
		model:     model,
		maxEvents: 25,
	}
}

func (s *BriefingService) Brief(ctx context.Context, events []domain.MarketEvent) (string, error) {
	ctx, span := s.tracer.Start(ctx, "advisor.brief")
	defer span.End()
	span.SetAttributes(attribute.Int("events", len(events)))

	if len(events) == 0 {
		return "", ErrNoEvents
	}
	if len(events) > s.maxEvents {
		events = events[:s.maxEvents]
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(BuildSystemPrompt()),
		openai.UserMessage(FormatEvents(events)),
	}

	reply, err := s.callLLM(ctx, messages)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("briefing unavailable: %w", err)
	}
	return reply, nil
}

func (s *BriefingService) callLLM(
	ctx context.Context,
	messages []openai.ChatCompletionMessageParamUnion,
) (string, error) {
	ctx, span := s.tracer.Start(ctx, "advisor.llm-call")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", s.model),
		attribute.Int("llm.message_count", len(messages)),
	)

	completion, err := s.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model:    s.model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in LLM response")
	}

	reply := completion.Choices[0].Message.Content
	span.SetAttributes(attribute.Int("llm.reply_length", len(reply)))
	return reply, nil
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
