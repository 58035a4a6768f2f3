package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnv clears every variable loadConfig reads, then applies vars.
func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for _, fields := range pluginInfo.Schema {
		for _, f := range fields {
			t.Setenv(f.Env, "")
		}
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	setEnv(t, map[string]string{
		"TELEGRAM_BOT_TOKEN": "123:abc",
		"SF_API_KEY":         "sk-test",
	})

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.PluginEnabled)
	assert.True(t, cfg.EnableSendImageAction)
	assert.False(t, cfg.KeywordCaseSensitive)
	assert.False(t, cfg.PromptOptimize)
	assert.Equal(t, "768x1024", cfg.SFImageSize)
	assert.Equal(t, siliconFlowURL, cfg.SFAPIURL)
	assert.Equal(t, defaultLLMBaseURL, cfg.LLMBaseURL)
	assert.Equal(t, defaultLLMModel, cfg.LLMModel)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "localhost", cfg.RedisHost)
	assert.Equal(t, "6379", cfg.RedisPort)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Empty(t, cfg.AllowedUsers)
}

func TestLoadConfigOverrides(t *testing.T) {
	setEnv(t, map[string]string{
		"TELEGRAM_BOT_TOKEN":     "123:abc",
		"SF_API_KEY":             "sk-test",
		"SF_IMAGE_SIZE":          "1024x1024",
		"PROMPT_OPTIMIZE":        "true",
		"LLM_API_KEY":            "sk-or",
		"LLM_MODEL":              "qwen/qwen-2.5-72b-instruct",
		"CUSTOM_PROMPT_TEMPLATE": "Make it anime: {description}",
		"ALLOWED_USERS":          "42, 7 ,",
		"REDIS_DB":               "3",
		"HTTP_TIMEOUT":           "90s",
		"PLUGIN_ENABLED":         "false",
	})

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "1024x1024", cfg.SFImageSize)
	assert.Equal(t, []int64{42, 7}, cfg.AllowedUsers)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 90*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.PluginEnabled)

	settings := cfg.actionSettings()
	assert.Equal(t, ActionSettings{
		APIKey:         "sk-test",
		ImageSize:      "1024x1024",
		LLMModel:       "qwen/qwen-2.5-72b-instruct",
		PromptOptimize: true,
		PromptTemplate: "Make it anime: {description}",
	}, settings)
}

func TestLoadConfigErrors(t *testing.T) {
	base := map[string]string{"TELEGRAM_BOT_TOKEN": "123:abc", "SF_API_KEY": "sk-test"}
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "missing token", env: map[string]string{"TELEGRAM_BOT_TOKEN": ""}, wantErr: "TELEGRAM_BOT_TOKEN"},
		{name: "missing api key", env: map[string]string{"SF_API_KEY": ""}, wantErr: "SF_API_KEY"},
		{name: "bad size", env: map[string]string{"SF_IMAGE_SIZE": "large"}, wantErr: "SF_IMAGE_SIZE"},
		{name: "bad allowed users", env: map[string]string{"ALLOWED_USERS": "1,bob"}, wantErr: "ALLOWED_USERS"},
		{name: "bad redis db", env: map[string]string{"REDIS_DB": "zero"}, wantErr: "REDIS_DB"},
		{name: "bad timeout", env: map[string]string{"HTTP_TIMEOUT": "soon"}, wantErr: "HTTP_TIMEOUT"},
		{name: "zero timeout", env: map[string]string{"HTTP_TIMEOUT": "0s"}, wantErr: "HTTP_TIMEOUT must be positive"},
		{name: "negative timeout", env: map[string]string{"HTTP_TIMEOUT": "-5s"}, wantErr: "HTTP_TIMEOUT must be positive"},
		{name: "optimize without llm key", env: map[string]string{"PROMPT_OPTIMIZE": "1"}, wantErr: "LLM_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := map[string]string{}
			for k, v := range base {
				env[k] = v
			}
			for k, v := range tt.env {
				env[k] = v
			}
			setEnv(t, env)

			_, err := loadConfig()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
