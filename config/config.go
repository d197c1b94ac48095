package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type DiscordConfig struct {
	BotToken          string
	CommandPrefix     string
	ConfigChannelName string
	ForbiddenChannels []string
}

// IsConfigured returns true if all required Discord configuration is present
func (c DiscordConfig) IsConfigured() bool {
	return c.BotToken != ""
}

type AnthropicConfig struct {
	APIKey string
}

// IsConfigured returns true if all required Anthropic configuration is present
func (c AnthropicConfig) IsConfigured() bool {
	return c.APIKey != ""
}

type ImageAPIConfig struct {
	BaseURL string
	APIKey  string
}

// IsConfigured returns true if all required image API configuration is present
func (c ImageAPIConfig) IsConfigured() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

type DatabaseConfig struct {
	URL    string
	Schema string
}

// IsConfigured returns true if all required database configuration is present
func (c DatabaseConfig) IsConfigured() bool {
	return c.URL != "" && c.Schema != ""
}

type AppConfig struct {
	// Core configuration
	Port               string // Optional with default "8080"
	CORSAllowedOrigins string // Optional with default "*"
	Environment        string
	TimezoneFile       string
	DigestCronSpec     string // Optional; empty disables the scheduled digest
	LLMMaxConcurrency  int64
	AlertWebhookURL    string
	ServerLogsURL      string

	DiscordConfig   DiscordConfig
	AnthropicConfig AnthropicConfig
	ImageAPIConfig  ImageAPIConfig
	DatabaseConfig  DatabaseConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	botToken, err := getEnvRequired("DISCORD_BOT_TOKEN")
	if err != nil {
		return nil, err
	}

	anthropicKey, err := getEnvRequired("ANTHROPIC_API_KEY")
	if err != nil {
		return nil, err
	}

	maxConcurrency, err := strconv.ParseInt(getEnvWithDefault("LLM_MAX_CONCURRENCY", "5"), 10, 64)
	if err != nil || maxConcurrency < 1 {
		return nil, fmt.Errorf("LLM_MAX_CONCURRENCY must be a positive integer")
	}

	config := &AppConfig{
		Port:               getEnvWithDefault("PORT", "8080"),
		CORSAllowedOrigins: getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:        getEnvWithDefault("ENVIRONMENT", "dev"),
		TimezoneFile:       getEnvWithDefault("TIMEZONE_FILE", "timezones.json"),
		DigestCronSpec:     getEnvWithDefault("DIGEST_CRON_SPEC", ""),
		LLMMaxConcurrency:  maxConcurrency,
		AlertWebhookURL:    getEnvWithDefault("SLACK_ALERT_WEBHOOK_URL", ""),
		ServerLogsURL:      getEnvWithDefault("SERVER_LOGS_URL", ""),

		DiscordConfig: DiscordConfig{
			BotToken:          botToken,
			CommandPrefix:     getEnvWithDefault("COMMAND_PREFIX", "!"),
			ConfigChannelName: getEnvWithDefault("CONFIG_CHANNEL_NAME", "bot-config"),
			ForbiddenChannels: splitList(getEnvWithDefault("FORBIDDEN_CHANNELS", "general")),
		},

		AnthropicConfig: AnthropicConfig{
			APIKey: anthropicKey,
		},

		// Image API configuration (optional)
		ImageAPIConfig: ImageAPIConfig{
			BaseURL: os.Getenv("IMAGE_API_BASE_URL"),
			APIKey:  os.Getenv("IMAGE_API_KEY"),
		},

		// Database configuration (optional)
		DatabaseConfig: DatabaseConfig{
			URL:    os.Getenv("DB_URL"),
			Schema: os.Getenv("DB_SCHEMA"),
		},
	}

	if config.ImageAPIConfig.IsConfigured() {
		log.Printf("✅ Image API configured")
	} else {
		log.Printf("⚠️ Image API not configured - image generation will be disabled")
	}

	if config.DatabaseConfig.IsConfigured() {
		log.Printf("✅ Database configured - whitelist snapshots will be persisted")
	} else {
		log.Printf("⚠️ Database not configured - whitelist snapshots will be disabled")
	}

	if config.AlertWebhookURL != "" {
		log.Printf("✅ Error alerting webhook configured")
	} else {
		log.Printf("⚠️ Error alerting webhook not configured - operator alerts will be disabled")
	}

	return config, nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
