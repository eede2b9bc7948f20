package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrieljoian/portfolio/backend/internal/config"
	"github.com/gabrieljoian/portfolio/backend/internal/model/chat"
	"github.com/gabrieljoian/portfolio/backend/internal/model/persona"
)

type fakeChatModel struct {
	input []*schema.Message
	reply *schema.Message
	err   error
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	return f.reply, f.err
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestBuildPayloadOrder(t *testing.T) {
	svc := NewService(&fakeChatModel{})
	history := []chat.Message{
		chat.AssistantMessage("greeting"),
		chat.UserMessage("first {braces} stay"),
		chat.AssistantMessage("answer"),
		chat.UserMessage("second"),
	}

	payload, err := svc.BuildPayload(context.Background(), "system {not a var}", history)
	require.NoError(t, err)
	require.Len(t, payload, 5)

	assert.Equal(t, schema.System, payload[0].Role)
	assert.Equal(t, "system {not a var}", payload[0].Content)
	for i, msg := range history {
		assert.Equal(t, string(msg.Role), string(payload[i+1].Role))
		assert.Equal(t, msg.Content, payload[i+1].Content)
	}
}

func TestCompleteReturnsReply(t *testing.T) {
	fake := &fakeChatModel{reply: schema.AssistantMessage("Hi there!", nil)}
	svc := NewService(fake)

	reply, err := svc.Complete(context.Background(), "sys", []chat.Message{chat.UserMessage("Hello")})
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", reply)
	assert.Len(t, fake.input, 2)
}

func TestCompletePropagatesErrors(t *testing.T) {
	svc := NewService(&fakeChatModel{err: ErrMissingCredential})
	_, err := svc.Complete(context.Background(), "sys", nil)
	assert.ErrorIs(t, err, ErrMissingCredential)

	svc = NewService(&fakeChatModel{})
	_, err = svc.Complete(context.Background(), "sys", nil)
	var malformed *MalformedResponseError
	assert.ErrorAs(t, err, &malformed)
}

func TestNewChatModelDefaultsToOpenAI(t *testing.T) {
	chatModel, err := NewChatModel(context.Background(), config.AIConfig{Provider: config.ProviderOpenAI})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, chatModel)

	_, err = NewChatModel(context.Background(), config.AIConfig{Provider: config.ProviderArk})
	assert.Error(t, err)
}

func TestOpenAIConfigFromKeepsTuning(t *testing.T) {
	temperature := 0.0
	cfg := config.AIConfig{
		APIKey:      "sk-test",
		BaseURL:     "https://proxy.test/v1",
		Model:       "gpt-4o-mini",
		Temperature: &temperature,
		Timeout:     30 * time.Second,
	}

	openaiCfg := OpenAIConfigFrom(cfg)
	require.NotNil(t, openaiCfg.Temperature)
	assert.Zero(t, *openaiCfg.Temperature)
	require.NotNil(t, openaiCfg.HTTPClient)
	assert.Equal(t, 30*time.Second, openaiCfg.HTTPClient.Timeout)

	client := NewOpenAIClient(openaiCfg)
	assert.Equal(t, "gpt-4o-mini", client.model)
	assert.Zero(t, client.temperature)
	assert.Equal(t, "https://proxy.test/v1/chat/completions", client.endpoint)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt(persona.Persona{
		SystemPrompt: "You are a helper.",
		Owner:        "Gabriel",
		Facts:        []string{"Writes TypeScript"},
		Rules:        []string{"Be brief"},
		Tone:         "friendly",
	})

	assert.Equal(t, "You are a helper.\n\nFacts about Gabriel:\n- Writes TypeScript\n\nRules:\n- Be brief\n\nTone: friendly", prompt)
	assert.Equal(t, "plain", BuildSystemPrompt(persona.Persona{SystemPrompt: " plain "}))
}
