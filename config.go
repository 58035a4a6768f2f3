package main

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	defaultImageSize   = "768x1024"
	defaultLLMBaseURL  = "https://openrouter.ai/api/v1"
	defaultLLMModel    = "openai/gpt-4o-mini"
	defaultHTTPTimeout = 60 * time.Second
)

var imageSizePattern = regexp.MustCompile(`^[1-9][0-9]{1,4}x[1-9][0-9]{1,4}$`)

// Config holds everything read from the environment at startup
type Config struct {
	TelegramToken string
	AllowedUsers  []int64

	PluginEnabled         bool
	EnableSendImageAction bool
	KeywordCaseSensitive  bool
	PromptOptimize        bool
	CustomPromptTemplate  string

	SFAPIKey    string
	SFImageSize string
	SFAPIURL    string
	HTTPTimeout time.Duration

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	RedisHost string
	RedisPort string
	RedisDB   int
	RedisPass string

	LogLevel string
}

var config Config

func initConfig() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using system environment variables")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	config = cfg
}

func loadConfig() (Config, error) {
	cfg := Config{
		TelegramToken:         os.Getenv("TELEGRAM_BOT_TOKEN"),
		PluginEnabled:         envBool("PLUGIN_ENABLED", true),
		EnableSendImageAction: envBool("ENABLE_SEND_IMAGE_ACTION", true),
		KeywordCaseSensitive:  envBool("KEYWORD_CASE_SENSITIVE", false),
		PromptOptimize:        envBool("PROMPT_OPTIMIZE", false),
		CustomPromptTemplate:  os.Getenv("CUSTOM_PROMPT_TEMPLATE"),
		SFAPIKey:              os.Getenv("SF_API_KEY"),
		SFImageSize:           envString("SF_IMAGE_SIZE", defaultImageSize),
		SFAPIURL:              envString("SF_API_URL", siliconFlowURL),
		HTTPTimeout:           defaultHTTPTimeout,
		LLMAPIKey:             os.Getenv("LLM_API_KEY"),
		LLMBaseURL:            envString("LLM_BASE_URL", defaultLLMBaseURL),
		LLMModel:              envString("LLM_MODEL", defaultLLMModel),
		RedisHost:             envString("REDIS_HOST", "localhost"),
		RedisPort:             envString("REDIS_PORT", "6379"),
		RedisPass:             os.Getenv("REDIS_PASS"),
		LogLevel:              envString("LOG_LEVEL", "info"),
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = db
	}

	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid HTTP_TIMEOUT %q: %w", v, err)
		}
		if timeout <= 0 {
			return Config{}, fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", v)
		}
		cfg.HTTPTimeout = timeout
	}

	users, err := parseAllowedUsers(os.Getenv("ALLOWED_USERS"))
	if err != nil {
		return Config{}, err
	}
	cfg.AllowedUsers = users

	// Validate required environment variables
	if cfg.TelegramToken == "" {
		return Config{}, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.SFAPIKey == "" {
		return Config{}, fmt.Errorf("SF_API_KEY is required")
	}
	if !imageSizePattern.MatchString(cfg.SFImageSize) {
		return Config{}, fmt.Errorf("SF_IMAGE_SIZE must look like 768x1024, got %q", cfg.SFImageSize)
	}
	if cfg.PromptOptimize && cfg.LLMAPIKey == "" {
		return Config{}, fmt.Errorf("LLM_API_KEY is required when PROMPT_OPTIMIZE is on")
	}

	return cfg, nil
}

// actionSettings is the slice of the configuration the send image action reads.
func (c Config) actionSettings() ActionSettings {
	return ActionSettings{
		APIKey:         c.SFAPIKey,
		ImageSize:      c.SFImageSize,
		LLMModel:       c.LLMModel,
		PromptOptimize: c.PromptOptimize,
		PromptTemplate: c.CustomPromptTemplate,
	}
}

func parseAllowedUsers(raw string) ([]int64, error) {
	var users []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q in ALLOWED_USERS: %w", part, err)
		}
		users = append(users, id)
	}
	return users, nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
