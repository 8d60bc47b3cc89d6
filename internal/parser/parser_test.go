package parser

import (
	"context"
	"errors"
	"testing"

	"menushock/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// scriptedModel answers every prompt with the same text
type scriptedModel struct {
	answer string
	err    error
	prompt string
}

func (m *scriptedModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompt = text.Text
			}
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.answer}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestLLMParserPriceShock(t *testing.T) {
	model := &scriptedModel{answer: "Sure! Here it is:\n```json\n{\"price_shocks\": [{\"ingredient\": \"tomato_sauce\", \"pct\": 22}], \"delays\": []}\n```"}
	p := NewLLMParser(model, ProviderOllama, []string{"00_flour", "tomato_sauce"})

	ev, err := p.Parse(context.Background(), "tomatoes are up 22%")
	require.NoError(t, err)

	assert.Equal(t, models.PriceChange{IngredientID: "tomato_sauce", PercentDelta: 0.22}, ev)
	assert.Contains(t, model.prompt, `"tomatoes are up 22%"`)
	assert.Contains(t, model.prompt, "Known ingredient ids: 00_flour, tomato_sauce")
}

func TestLLMParserDelay(t *testing.T) {
	model := &scriptedModel{answer: `{"price_shocks": [], "delays": [{"ingredient": "00 Flour", "extra_days": 5}]}`}
	p := NewLLMParser(model, ProviderOllama, nil)

	ev, err := p.Parse(context.Background(), "flour shipment is 5 days late")
	require.NoError(t, err)
	assert.Equal(t, models.SupplyDelay{IngredientID: "00_flour", DaysDelta: 5}, ev)
}

func TestLLMParserCompletionFailure(t *testing.T) {
	p := NewLLMParser(&scriptedModel{err: errors.New("connection refused")}, ProviderOllama, nil)

	_, err := p.Parse(context.Background(), "basil doubled")
	require.Error(t, err)
	var malformed *models.MalformedEventError
	assert.False(t, errors.As(err, &malformed))
}

func TestLLMParserEmptyText(t *testing.T) {
	p := NewLLMParser(&scriptedModel{}, ProviderOllama, nil)

	_, err := p.Parse(context.Background(), "   ")
	var malformed *models.MalformedEventError
	assert.ErrorAs(t, err, &malformed)
}

func TestDecodeRejects(t *testing.T) {
	testCases := []struct {
		name   string
		answer string
	}{
		{"no json", "I could not understand the question."},
		{"broken json", `{"price_shocks": [`},
		{"nothing recognized", `{"price_shocks": [], "delays": []}`},
		{"two events", `{"price_shocks": [{"ingredient": "basil", "pct": 5}], "delays": [{"ingredient": "basil", "extra_days": 2}]}`},
		{"fractional days", `{"delays": [{"ingredient": "basil", "extra_days": 2.5}]}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.answer)
			var malformed *models.MalformedEventError
			assert.ErrorAs(t, err, &malformed)
		})
	}
}

func TestNewModelValidatesConfig(t *testing.T) {
	_, err := NewModel(Config{Provider: ProviderOpenAI, Model: "gpt-4o-mini"})
	assert.Error(t, err)

	_, err = NewModel(Config{Provider: ProviderAzure, APIKey: "k"})
	assert.Error(t, err)

	_, err = NewModel(Config{Provider: "bard"})
	assert.Error(t, err)

	model, err := NewModel(DefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, model)
}

func TestNewNone(t *testing.T) {
	p, err := New(Config{Provider: ProviderNone})
	require.NoError(t, err)
	assert.Nil(t, p)
}
