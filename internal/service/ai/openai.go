package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-3.5-turbo"
	DefaultTemperature   = float32(0.7)

	// maxErrorBody bounds how much of a failed response is read for the
	// error message.
	maxErrorBody = 64 << 10
)

// OpenAIConfig configures OpenAIClient.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float32
	HTTPClient  *http.Client
}

// OpenAIClient calls an OpenAI-compatible chat completions endpoint. It
// satisfies eino's model.BaseChatModel.
type OpenAIClient struct {
	apiKey      string
	endpoint    string
	model       string
	temperature float32
	httpClient  *http.Client
}

var _ model.BaseChatModel = (*OpenAIClient)(nil)

// NewOpenAIClient applies defaults to cfg and returns a client. A missing API
// key is not an error here; it is reported by every Generate call instead.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultOpenAIModel
	}
	temperature := DefaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &OpenAIClient{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		endpoint:    baseURL + "/chat/completions",
		model:       modelName,
		temperature: temperature,
		httpClient:  httpClient,
	}
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string              `json:"model"`
	Messages    []completionMessage `json:"messages"`
	Temperature float32             `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends input as one completion request and returns the first
// choice as an assistant message.
func (c *OpenAIClient) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if c.apiKey == "" {
		return nil, ErrMissingCredential
	}

	options := model.GetCommonOptions(&model.Options{
		Model:       &c.model,
		Temperature: &c.temperature,
	}, opts...)

	payload := completionRequest{
		Model:       *options.Model,
		Temperature: *options.Temperature,
		Messages:    make([]completionMessage, 0, len(input)),
	}
	for _, msg := range input {
		if msg == nil {
			continue
		}
		payload.Messages = append(payload.Messages, completionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeServiceError(resp)
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &MalformedResponseError{Status: resp.StatusCode, Reason: "invalid JSON body"}
	}
	if len(decoded.Choices) == 0 {
		return nil, &MalformedResponseError{Status: resp.StatusCode, Reason: "no completion choices"}
	}
	content := decoded.Choices[0].Message.Content
	if content == nil {
		return nil, &MalformedResponseError{Status: resp.StatusCode, Reason: "completion has no message content"}
	}

	return schema.AssistantMessage(*content, nil), nil
}

// Stream performs a regular Generate and yields the reply as a single chunk.
func (c *OpenAIClient) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := c.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func decodeServiceError(resp *http.Response) error {
	serviceErr := &ServiceError{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return serviceErr
	}

	var decoded errorResponse
	if err := json.Unmarshal(raw, &decoded); err == nil {
		serviceErr.Message = strings.TrimSpace(decoded.Error.Message)
	}
	return serviceErr
}
