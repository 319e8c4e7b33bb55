package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
)

type Config struct {
	App          AppConfig          `toml:"app"`
	Organization OrganizationConfig `toml:"organization"`
	Auth         AuthConfig         `toml:"auth"`
	OpenAI       OpenAIConfig       `toml:"openai"`
	Storage      StorageConfig      `toml:"storage"`
	Upload       UploadConfig       `toml:"upload"`
	Chat         ChatConfig         `toml:"chat"`
	Redis        RedisConfig        `toml:"redis"`
	RabbitMQ     RabbitMQConfig     `toml:"rabbitmq"`
}

type AppConfig struct {
	Name    string `toml:"name"`
	Env     string `toml:"env"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	GinMode string `toml:"gin_mode"`
}

type OrganizationConfig struct {
	Name        string `toml:"name"`
	DisplayName string `toml:"display_name"`
}

type AuthConfig struct {
	JWTSecret       string `toml:"jwt_secret"`
	JWTExpireMinute int    `toml:"jwt_expire_minute"`
}

type OpenAIConfig struct {
	BaseURL               string `toml:"base_url"`
	APIKey                string `toml:"api_key"`
	AssistantModel        string `toml:"assistant_model"`
	VectorStoreExpireDays int    `toml:"vector_store_expire_days"`
}

type StorageConfig struct {
	DataDir string `toml:"data_dir"`
}

type UploadConfig struct {
	MaxFileSizeMB    int    `toml:"max_file_size_mb"`
	AllowedFileTypes string `toml:"allowed_file_types"`
}

type ChatConfig struct {
	MaxHistory     int `toml:"max_history"`
	TitleMaxLength int `toml:"title_max_length"`
}

// RedisConfig is optional: an empty addr disables the history cache.
type RedisConfig struct {
	Addr                   string `toml:"addr"`
	Password               string `toml:"password"`
	DB                     int    `toml:"db"`
	HistoryTTLSeconds      int    `toml:"history_ttl_seconds"`
	HistoryDirtyTTLSeconds int    `toml:"history_dirty_ttl_seconds"`
}

// RabbitMQConfig is optional: an empty URL disables the activity event trail.
type RabbitMQConfig struct {
	URL           string `toml:"url"`
	ActivityQueue string `toml:"activity_queue"`
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the startup invariants. A failure here is fatal: the
// process must not come up with missing credentials or bounds that would
// let every upload through.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		errs = append(errs, "OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(c.Organization.Name) == "" {
		errs = append(errs, "ORGANIZATION_NAME is required")
	}
	if c.Upload.MaxFileSizeMB <= 0 {
		errs = append(errs, "MAX_FILE_SIZE_MB must be positive")
	}
	if c.Upload.MaxFileSizeMB > 512 {
		errs = append(errs, "MAX_FILE_SIZE_MB cannot exceed 512")
	}
	if len(c.AllowedFileTypes()) == 0 {
		errs = append(errs, "ALLOWED_FILE_TYPES must not be empty")
	}
	if c.OpenAI.VectorStoreExpireDays <= 0 {
		errs = append(errs, "VECTOR_STORE_EXPIRE_DAYS must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, ", "))
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

// DatabasePath is the per-organization storage namespace.
func (c *Config) DatabasePath() string {
	return fmt.Sprintf("%s/%s.db", strings.TrimRight(c.Storage.DataDir, "/"), c.Organization.Name)
}

func (c *Config) VectorStoreName() string {
	return c.Organization.Name + "-knowledge-base"
}

func (c *Config) AssistantName() string {
	return c.OrganizationDisplayName() + " RAG Assistant"
}

func (c *Config) OrganizationDisplayName() string {
	if c.Organization.DisplayName != "" {
		return c.Organization.DisplayName
	}
	return titleCase(strings.ReplaceAll(c.Organization.Name, "-", " "))
}

func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.Upload.MaxFileSizeMB) * 1024 * 1024
}

// AllowedFileTypes returns the lowercase extension allow-list.
func (c *Config) AllowedFileTypes() []string {
	parts := strings.Split(c.Upload.AllowedFileTypes, ",")
	types := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			types = append(types, p)
		}
	}
	return types
}

func (c *Config) AssistantInstructions() string {
	return fmt.Sprintf(`You are a helpful AI assistant for %s.

You have access to a knowledge base containing documents uploaded by users. When answering questions:

1. Search through the uploaded documents first to find relevant information
2. Always cite your sources when referencing specific documents
3. If you can't find the answer in the documents, clearly state that and provide general knowledge
4. Be concise but thorough in your responses
5. Ask clarifying questions when the user's request is ambiguous

Use the file_search tool to find relevant information in the uploaded documents.`, c.OrganizationDisplayName())
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "knowdesk",
			Env:     "dev",
			Host:    "0.0.0.0",
			Port:    8080,
			GinMode: "debug",
		},
		Organization: OrganizationConfig{
			Name: "default",
		},
		Auth: AuthConfig{
			JWTSecret:       "change-me-in-production",
			JWTExpireMinute: 120,
		},
		OpenAI: OpenAIConfig{
			BaseURL:               "https://api.openai.com/v1",
			APIKey:                "",
			AssistantModel:        "gpt-4-turbo-preview",
			VectorStoreExpireDays: 365,
		},
		Storage: StorageConfig{
			DataDir: "data",
		},
		Upload: UploadConfig{
			MaxFileSizeMB:    20,
			AllowedFileTypes: "pdf,txt,md,docx,doc,rtf,html,json,csv,xml",
		},
		Chat: ChatConfig{
			MaxHistory:     50,
			TitleMaxLength: 50,
		},
		Redis: RedisConfig{
			HistoryTTLSeconds:      60,
			HistoryDirtyTTLSeconds: 5,
		},
		RabbitMQ: RabbitMQConfig{
			ActivityQueue: "knowdesk.activity",
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)

	cfg.Organization.Name = getEnv("ORGANIZATION_NAME", cfg.Organization.Name)
	cfg.Organization.DisplayName = getEnv("ORGANIZATION_DISPLAY_NAME", cfg.Organization.DisplayName)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.JWTExpireMinute = getEnvAsInt("JWT_EXPIRE_MINUTE", cfg.Auth.JWTExpireMinute)

	cfg.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAI.BaseURL)
	cfg.OpenAI.APIKey = getEnv("OPENAI_API_KEY", cfg.OpenAI.APIKey)
	cfg.OpenAI.AssistantModel = getEnv("OPENAI_ASSISTANT_MODEL", cfg.OpenAI.AssistantModel)
	cfg.OpenAI.VectorStoreExpireDays = getEnvAsInt("VECTOR_STORE_EXPIRE_DAYS", cfg.OpenAI.VectorStoreExpireDays)

	cfg.Storage.DataDir = getEnv("DATA_DIRECTORY", cfg.Storage.DataDir)

	cfg.Upload.MaxFileSizeMB = getEnvAsInt("MAX_FILE_SIZE_MB", cfg.Upload.MaxFileSizeMB)
	cfg.Upload.AllowedFileTypes = getEnv("ALLOWED_FILE_TYPES", cfg.Upload.AllowedFileTypes)

	cfg.Chat.MaxHistory = getEnvAsInt("MAX_CHAT_HISTORY", cfg.Chat.MaxHistory)
	cfg.Chat.TitleMaxLength = getEnvAsInt("CHAT_TITLE_LENGTH", cfg.Chat.TitleMaxLength)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.HistoryTTLSeconds = getEnvAsInt("REDIS_HISTORY_TTL_SECONDS", cfg.Redis.HistoryTTLSeconds)
	cfg.Redis.HistoryDirtyTTLSeconds = getEnvAsInt("REDIS_HISTORY_DIRTY_TTL_SECONDS", cfg.Redis.HistoryDirtyTTLSeconds)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.ActivityQueue = getEnv("RABBITMQ_ACTIVITY_QUEUE", cfg.RabbitMQ.ActivityQueue)
}

// titleCase uppercases the first rune of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
