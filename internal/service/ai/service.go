package ai

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/gabrieljoian/portfolio/backend/internal/config"
	"github.com/gabrieljoian/portfolio/backend/internal/model/chat"
)

// Service turns a conversation into one completion request.
type Service struct {
	chatModel model.BaseChatModel
	template  *prompt.DefaultChatTemplate
	opts      []model.Option
}

// NewService wraps chatModel. opts are applied to every Generate call.
func NewService(chatModel model.BaseChatModel, opts ...model.Option) *Service {
	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", false),
	)

	return &Service{
		chatModel: chatModel,
		template:  template,
		opts:      opts,
	}
}

// NewChatModel builds the completion model selected by cfg.Provider.
func NewChatModel(ctx context.Context, cfg config.AIConfig) (model.BaseChatModel, error) {
	switch cfg.Provider {
	case config.ProviderArk:
		chatModel, err := cfg.NewArkChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create ark chat model: %w", err)
		}
		return chatModel, nil
	default:
		if cfg.APIKey == "" {
			log.Println("[ai] OPENAI_API_KEY not set; every submission will report a configuration error")
		}
		return NewOpenAIClient(OpenAIConfigFrom(cfg)), nil
	}
}

// OpenAIConfigFrom maps the environment configuration onto the OpenAI
// client, including temperature and the HTTP timeout.
func OpenAIConfigFrom(cfg config.AIConfig) OpenAIConfig {
	openaiCfg := OpenAIConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.Temperature != nil {
		temperature := float32(*cfg.Temperature)
		openaiCfg.Temperature = &temperature
	}
	return openaiCfg
}

// BuildPayload returns the system instruction followed by history in order.
func (s *Service) BuildPayload(ctx context.Context, system string, history []chat.Message) ([]*schema.Message, error) {
	converted := make([]*schema.Message, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case chat.RoleUser:
			converted = append(converted, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			converted = append(converted, schema.AssistantMessage(msg.Content, nil))
		}
	}

	messages, err := s.template.Format(ctx, map[string]any{
		"system":  system,
		"history": converted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to format completion payload: %w", err)
	}
	return messages, nil
}

// Complete sends system plus the full history and returns the reply text.
func (s *Service) Complete(ctx context.Context, system string, history []chat.Message) (string, error) {
	messages, err := s.BuildPayload(ctx, system, history)
	if err != nil {
		return "", err
	}

	response, err := s.chatModel.Generate(ctx, messages, s.opts...)
	if err != nil {
		return "", err
	}
	if response == nil {
		return "", &MalformedResponseError{Status: http.StatusOK, Reason: "empty completion"}
	}

	log.Printf("[ai] completion received, history=%d, length=%d", len(history), len(response.Content))
	return response.Content, nil
}
