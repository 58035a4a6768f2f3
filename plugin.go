package main

import (
	"fmt"
	"sort"

	"github.com/joho/godotenv"
)

// ActivationType says how an action decides to run for a message.
type ActivationType string

const (
	ActivationLLMJudge ActivationType = "llm_judge"
	ActivationKeyword  ActivationType = "keyword"
)

// ChatMode is the per-chat activation mode.
type ChatMode string

const (
	ChatModeNormal ChatMode = "normal"
	ChatModeFocus  ChatMode = "focus"
	ChatModeAll    ChatMode = "all"
)

// ConfigField describes one configuration value and the env var carrying it.
type ConfigField struct {
	Env         string
	Type        string
	Default     string
	Description string
	Example     string
}

// PluginInfo is the static description of the plugin.
type PluginInfo struct {
	Name               string
	Description        string
	Version            string
	Author             string
	Enabled            bool
	ConfigFileName     string
	SectionDescription map[string]string
	Schema             map[string][]ConfigField
}

// ActionInfo is the static description of an action.
type ActionInfo struct {
	Name                 string
	Description          string
	FocusActivation      ActivationType
	NormalActivation     ActivationType
	ActivationKeywords   []string
	KeywordCaseSensitive bool
	LLMJudgePrompt       string
	Mode                 ChatMode
	Parallel             bool
	Parameters           map[string]string
	Require              []string
	AssociatedTypes      []string
}

const sendImageJudgePrompt = `Use the image generation action when:
1. The user explicitly asks to draw, generate or create an image
2. The user describes a picture or scene they want to see
3. The conversation needs a visual rendering of some concept
4. The user wants creative pictures or artwork

Never use it when:
1. It is plain text chat or Q&A
2. Words like "picture" or "draw" are mentioned without asking for one
3. The user talks about an existing image or photo
4. Drawing is discussed technically with no request to generate
5. The user says they do not want an image`

var sendImageActionInfo = ActionInfo{
	Name:               "send_image_action",
	Description:        "Image generation: creates a picture with SiliconFlow and sends it to the chat",
	FocusActivation:    ActivationLLMJudge,
	NormalActivation:   ActivationKeyword,
	ActivationKeywords: []string{"生成图片", "画图", "create image", "draw"},
	LLMJudgePrompt:     sendImageJudgePrompt,
	Mode:               ChatModeAll,
	Parallel:           false,
	Parameters: map[string]string{
		"description": "Description of the image to generate, required",
	},
	Require: []string{
		"Use when the user explicitly asks for an image",
		"Use when the user describes a concrete picture or scene",
		"Use when the user needs a concept shown visually",
	},
	AssociatedTypes: []string{"image", "text"},
}

var pluginInfo = PluginInfo{
	Name:           "send_image_plugin_sf",
	Description:    "Sends images generated through SiliconFlow, with optional LLM prompt optimization; handles base64 and URL results.",
	Version:        "0.5.0",
	Author:         "yishang",
	Enabled:        true,
	ConfigFileName: ".env",
	SectionDescription: map[string]string{
		"plugin":     "Plugin switch",
		"components": "Component switches",
		"api":        "Image generation API",
		"llm":        "Prompt optimization and activation judge",
		"redis":      "Chat state and image history",
		"telegram":   "Bot access",
	},
	Schema: map[string][]ConfigField{
		"plugin": {
			{Env: "PLUGIN_ENABLED", Type: "bool", Default: "true", Description: "Enable the plugin"},
			{Env: "LOG_LEVEL", Type: "string", Default: "info", Description: "Log level", Example: "debug"},
		},
		"components": {
			{Env: "ENABLE_SEND_IMAGE_ACTION", Type: "bool", Default: "true", Description: "Enable the image generation action"},
			{Env: "KEYWORD_CASE_SENSITIVE", Type: "bool", Default: "false", Description: "Match activation keywords case-sensitively"},
		},
		"api": {
			{Env: "SF_API_KEY", Type: "string", Default: "your_api_key", Description: "SiliconFlow API key (required)", Example: "sk-xxxx"},
			{Env: "SF_IMAGE_SIZE", Type: "string", Default: defaultImageSize, Description: "Image size, WIDTHxHEIGHT"},
			{Env: "SF_API_URL", Type: "string", Default: siliconFlowURL, Description: "Image generation endpoint"},
			{Env: "HTTP_TIMEOUT", Type: "duration", Default: defaultHTTPTimeout.String(), Description: "Timeout for outbound image requests"},
		},
		"llm": {
			{Env: "PROMPT_OPTIMIZE", Type: "bool", Default: "false", Description: "Rewrite descriptions into prompts with the LLM"},
			{Env: "LLM_API_KEY", Type: "string", Default: "", Description: "API key of the OpenAI-compatible LLM endpoint", Example: "sk-or-xxxx"},
			{Env: "LLM_BASE_URL", Type: "string", Default: defaultLLMBaseURL, Description: "OpenAI-compatible LLM endpoint"},
			{Env: "LLM_MODEL", Type: "string", Default: defaultLLMModel, Description: "Default LLM model"},
			{Env: "CUSTOM_PROMPT_TEMPLATE", Type: "string", Default: "", Description: "Custom optimization template, {description} is replaced"},
		},
		"redis": {
			{Env: "REDIS_HOST", Type: "string", Default: "localhost", Description: "Redis host"},
			{Env: "REDIS_PORT", Type: "string", Default: "6379", Description: "Redis port"},
			{Env: "REDIS_DB", Type: "int", Default: "0", Description: "Redis database"},
			{Env: "REDIS_PASS", Type: "string", Default: "", Description: "Redis password"},
		},
		"telegram": {
			{Env: "TELEGRAM_BOT_TOKEN", Type: "string", Default: "", Description: "Bot token (required)", Example: "123456:ABC"},
			{Env: "ALLOWED_USERS", Type: "string", Default: "", Description: "Comma separated user ids, empty allows everyone", Example: "1234,5678"},
		},
	},
}

// pluginComponents lists the actions the plugin registers under cfg.
func pluginComponents(cfg Config) []ActionInfo {
	if !cfg.PluginEnabled || !cfg.EnableSendImageAction {
		return nil
	}
	info := sendImageActionInfo
	info.KeywordCaseSensitive = cfg.KeywordCaseSensitive
	return []ActionInfo{info}
}

// defaultEnv renders the schema defaults as a dotenv file.
func defaultEnv() (string, error) {
	env := make(map[string]string)
	for _, fields := range pluginInfo.Schema {
		for _, f := range fields {
			env[f.Env] = f.Default
		}
	}
	out, err := godotenv.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to render default config: %w", err)
	}
	return out, nil
}

// schemaSections returns the schema section names in a stable order.
func schemaSections() []string {
	sections := make([]string, 0, len(pluginInfo.Schema))
	for s := range pluginInfo.Schema {
		sections = append(sections, s)
	}
	sort.Strings(sections)
	return sections
}

// describeConfig renders the schema as comments for the -print-config flag.
func describeConfig() string {
	var out string
	for _, section := range schemaSections() {
		out += fmt.Sprintf("# [%s] %s\n", section, pluginInfo.SectionDescription[section])
		for _, f := range pluginInfo.Schema[section] {
			line := fmt.Sprintf("#   %s (%s, default %q): %s", f.Env, f.Type, f.Default, f.Description)
			if f.Example != "" {
				line += fmt.Sprintf(", e.g. %s", f.Example)
			}
			out += line + "\n"
		}
	}
	return out
}
