// Package parser turns free text into a typed ingredient event using an LLM.
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"menushock/internal/models"

	"github.com/tmc/langchaingo/llms"
)

// Parser produces an Event or fails with *models.MalformedEventError
type Parser interface {
	Parse(ctx context.Context, text string) (models.Event, error)
}

const promptTemplate = `Parse the restaurant query into JSON.

Query: %q

Rules:
- A price increase or decrease is a price shock; pct is the change in percent (22 means +22%%, -10 means -10%%).
- A late shipment or delivery is a delay; extra_days is the number of extra days.
- Use snake_case ingredient ids, e.g. "tomatoes" -> "tomato_sauce", "flour" -> "00_flour".
%s
Answer with JSON only:
{"price_shocks": [{"ingredient": "id", "pct": number}], "delays": [{"ingredient": "id", "extra_days": number}]}`

type shock struct {
	Ingredient string  `json:"ingredient"`
	Pct        float64 `json:"pct"`
}

type delay struct {
	Ingredient string  `json:"ingredient"`
	ExtraDays  float64 `json:"extra_days"`
}

type payload struct {
	PriceShocks []shock `json:"price_shocks"`
	Delays      []delay `json:"delays"`
}

// LLMParser asks a language model to extract the event
type LLMParser struct {
	model    llms.Model
	provider string

	mu    sync.RWMutex
	known []string
}

// NewLLMParser wraps a model. Known ingredient ids, when given, are listed in
// the prompt.
func NewLLMParser(model llms.Model, provider string, known []string) *LLMParser {
	return &LLMParser{model: model, provider: provider, known: known}
}

func (p *LLMParser) Provider() string { return p.provider }

// SetKnownIngredients replaces the ids offered to the model. Safe to call
// while Parse runs.
func (p *LLMParser) SetKnownIngredients(ids []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.known = ids
}

func (p *LLMParser) prompt(text string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	hint := ""
	if len(p.known) > 0 {
		hint = "- Known ingredient ids: " + strings.Join(p.known, ", ") + "\n"
	}
	return fmt.Sprintf(promptTemplate, text, hint)
}

func (p *LLMParser) Parse(ctx context.Context, text string) (models.Event, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &models.MalformedEventError{Field: "text", Reason: "empty query"}
	}
	answer, err := llms.GenerateFromSinglePrompt(ctx, p.model, p.prompt(text),
		llms.WithTemperature(0.1),
		llms.WithMaxTokens(200),
	)
	if err != nil {
		return nil, fmt.Errorf("%s completion failed: %w", p.provider, err)
	}
	return Decode(answer)
}

// Decode reads the outermost JSON object of a model answer. Exactly one
// price shock or delay must be present.
func Decode(answer string) (models.Event, error) {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start < 0 || end < start {
		return nil, &models.MalformedEventError{Field: "text", Reason: "no JSON object in model answer"}
	}
	var p payload
	if err := json.Unmarshal([]byte(answer[start:end+1]), &p); err != nil {
		return nil, &models.MalformedEventError{Field: "text", Reason: "model answer is not valid JSON: " + err.Error()}
	}

	switch n := len(p.PriceShocks) + len(p.Delays); {
	case n == 0:
		return nil, &models.MalformedEventError{Field: "text", Reason: "no price change or delay recognized"}
	case n > 1:
		return nil, &models.MalformedEventError{Field: "text", Reason: fmt.Sprintf("%d events recognized, expected one", n)}
	}

	if len(p.PriceShocks) == 1 {
		s := p.PriceShocks[0]
		return models.PriceChange{IngredientID: normalizeID(s.Ingredient), PercentDelta: s.Pct / 100}, nil
	}
	d := p.Delays[0]
	if d.ExtraDays != math.Trunc(d.ExtraDays) {
		return nil, &models.MalformedEventError{Field: "days_delta", Reason: fmt.Sprintf("%g is not a whole number of days", d.ExtraDays)}
	}
	return models.SupplyDelay{IngredientID: normalizeID(d.Ingredient), DaysDelta: int(d.ExtraDays)}, nil
}

func normalizeID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "_")
}
