// Package advisory produces short plain-language guidance for a city alert
// using OpenAI's API. The service works fine without it; callers treat a
// missing API key as "advisories disabled".
package advisory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/lmackenzie/smokewatch/internal/models"
)

// Generator turns alert decisions into public-facing advisory text.
type Generator struct {
	client openai.Client
	model  string

	mu    sync.Mutex
	cache map[string]string
}

// NewGenerator creates a new advisory generator.
// It reads the OPENAI_API_KEY environment variable for authentication.
func NewGenerator() (*Generator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &Generator{
		client: client,
		model:  openai.ChatModelGPT4oMini,
		cache:  make(map[string]string),
	}, nil
}

// Generate returns advisory text for one city decision. Results are cached
// per (city, level, rule) so repeated cycles at the same severity don't burn
// API calls.
func (g *Generator) Generate(ctx context.Context, d models.CityAlertDecision) (string, error) {
	key := cacheKey(d)

	g.mu.Lock()
	if text, ok := g.cache[key]; ok {
		g.mu.Unlock()
		return text, nil
	}
	g.mu.Unlock()

	log.Printf("advisory: generating for %s (%s, %s)", d.City, d.LevelName, d.TriggeringRule)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You write concise public air-quality advisories. Two sentences, plain language, no alarmism, no markdown."),
			openai.UserMessage(buildPrompt(d)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("advisory generation failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no advisory text returned")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty advisory text returned")
	}

	g.mu.Lock()
	g.cache[key] = text
	g.mu.Unlock()
	return text, nil
}

func cacheKey(d models.CityAlertDecision) string {
	return d.City + "|" + d.LevelName + "|" + d.TriggeringRule
}

func buildPrompt(d models.CityAlertDecision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "City: %s\n", d.City)
	fmt.Fprintf(&b, "Smoke alert level: %s\n", d.LevelName)
	fmt.Fprintf(&b, "Expected PM2.5: %.1f µg/m³ (peak upwind reading %.1f)\n", d.WeightedPM25, d.MaxPM25)
	if len(d.TriggerStations) > 0 {
		fmt.Fprintf(&b, "Smoke detected near: %s\n", strings.Join(d.TriggerStations, ", "))
	}
	fmt.Fprintf(&b, "Baseline guidance: %s\n", d.Health)
	b.WriteString("Write a short advisory for residents about wildfire smoke expected to reach the city.")
	return b.String()
}
