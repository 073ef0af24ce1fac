package app

import (
	"log"

	"macro-calendar/internal/advisor"
	"macro-calendar/internal/bot"
	"macro-calendar/internal/config"

	"go.opentelemetry.io/otel/trace"
)

var newLLMClient = advisor.NewOpenAIClient

// NewBriefer returns nil when OPENAI_API_KEY is unset so the bot can report
// briefings as disabled.
func NewBriefer(cfg *config.Config, tracer trace.Tracer) bot.Briefer {
	if cfg.OpenAIAPIKey == "" {
		log.Println("OPENAI_API_KEY not set, /brief disabled")
		return nil
	}
	return advisor.NewBriefingService(tracer, newLLMClient(cfg.OpenAIAPIKey), cfg.OpenAIModel)
}
