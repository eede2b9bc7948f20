package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Assistant AssistantConfig
	RateLimit RateLimitConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	assistant, err := loadAssistantConfig()
	if err != nil {
		return nil, err
	}

	rateLimit, err := loadRateLimitConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Assistant: assistant, RateLimit: rateLimit}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origins := splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// Completion providers.
const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

// AIConfig 描述补全服务相关配置。
type AIConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64
	// Timeout 为 0 时不额外设置超时，沿用传输层默认行为。
	Timeout time.Duration

	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string
}

// ArkEnabled 表示是否提供了 Ark 所需的密钥与模型。
func (c AIConfig) ArkEnabled() bool {
	return c.ArkModel != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
}

// NewArkChatModel 使用配置创建一个 Ark 模型实例。
func (c AIConfig) NewArkChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.ArkEnabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY (or ARK_ACCESS_KEY/ARK_SECRET_KEY) and ARK_MODEL")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.ArkBaseURL,
		Region:      c.ArkRegion,
		APIKey:      c.ArkAPIKey,
		AccessKey:   c.ArkAccessKey,
		SecretKey:   c.ArkSecretKey,
		Model:       c.ArkModel,
		Temperature: temperature,
	}
	// 补全请求不自动重试。
	retries := 0
	cfg.RetryTimes = &retries
	if c.Timeout > 0 {
		timeout := c.Timeout
		cfg.Timeout = &timeout
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("OPENAI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	if temperature != nil && (*temperature < 0 || *temperature > 2) {
		return AIConfig{}, fmt.Errorf("invalid OPENAI_TEMPERATURE value %v: must be within [0, 2]", *temperature)
	}

	timeout, err := parseDurationEnv("COMPLETION_TIMEOUT", 0)
	if err != nil {
		return AIConfig{}, err
	}

	provider := strings.ToLower(getEnvOrDefault("COMPLETION_PROVIDER", ProviderOpenAI))
	if provider != ProviderOpenAI && provider != ProviderArk {
		return AIConfig{}, fmt.Errorf("invalid COMPLETION_PROVIDER value %q", provider)
	}

	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		// 兼容前端构建时使用的变量名。
		apiKey = strings.TrimSpace(os.Getenv("VITE_OPENAI_API_KEY"))
	}

	return AIConfig{
		Provider:     provider,
		APIKey:       apiKey,
		BaseURL:      getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		Model:        getEnvOrDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		Temperature:  temperature,
		Timeout:      timeout,
		ArkAPIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:     strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
	}, nil
}

// AssistantConfig 描述助手组件的配置。
type AssistantConfig struct {
	PersonaFile     string
	SessionTTL      time.Duration
	JanitorInterval time.Duration
}

func loadAssistantConfig() (AssistantConfig, error) {
	ttl, err := parseDurationEnv("ASSISTANT_SESSION_TTL", 30*time.Minute)
	if err != nil {
		return AssistantConfig{}, err
	}

	interval := time.Minute
	if ttl > 0 && ttl < interval {
		interval = ttl
	}

	return AssistantConfig{
		PersonaFile:     strings.TrimSpace(os.Getenv("ASSISTANT_PERSONA_FILE")),
		SessionTTL:      ttl,
		JanitorInterval: interval,
	}, nil
}

// RateLimitConfig 描述提交接口的限流配置。Submits 为 0 表示关闭限流。
type RateLimitConfig struct {
	Submits  int
	Window   time.Duration
	RedisURL string
}

// Enabled 表示是否开启限流。
func (c RateLimitConfig) Enabled() bool {
	return c.Submits > 0 && c.Window > 0
}

func loadRateLimitConfig() (RateLimitConfig, error) {
	submits := 20
	if override, err := parseOptionalIntEnv("RATE_LIMIT_SUBMITS"); err != nil {
		return RateLimitConfig{}, err
	} else if override != nil {
		if *override < 0 {
			submits = 0
		} else {
			submits = *override
		}
	}

	window, err := parseDurationEnv("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return RateLimitConfig{}, err
	}

	return RateLimitConfig{
		Submits:  submits,
		Window:   window,
		RedisURL: strings.TrimSpace(os.Getenv("REDIS_URL")),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
