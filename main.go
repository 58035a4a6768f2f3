package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/rs/zerolog/log"
)

func main() {
	printConfig := flag.Bool("print-config", false, "Print the default configuration as a .env file and exit")
	flag.Parse()

	if *printConfig {
		env, err := defaultEnv()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Print(describeConfig())
		fmt.Println(env)
		return
	}

	// Initialize configuration
	initLogger(os.Getenv("LOG_LEVEL"))
	initConfig()
	initLogger(config.LogLevel)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis
	rdb := newRedisClient(config)
	defer rdb.Close()
	store = newChatStore(rdb)

	// Test Redis connection
	if err := store.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	registerComponents(config)

	// Create bot instance
	b, err := gotgbot.NewBot(config.TelegramToken, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot instance")
	}

	// Create dispatcher
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *gotgbot.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			log.Error().Err(err).Msg("Failed to handle update")
			return ext.DispatcherActionNoop
		},
	})

	// Add handlers
	dispatcher.AddHandler(handlers.NewCommand("start", handleStart))
	dispatcher.AddHandler(handlers.NewCommand("help", handleHelp))
	dispatcher.AddHandler(handlers.NewCommand("draw", handleDraw))
	dispatcher.AddHandler(handlers.NewCommand("mode", handleMode))
	dispatcher.AddHandler(handlers.NewCommand("my_images", handleMyImages))
	dispatcher.AddHandler(handlers.NewCommand("clear_images", handleClearImages))
	dispatcher.AddHandler(handlers.NewMessage(nil, handleMessage))

	// Create updater
	updater := ext.NewUpdater(dispatcher, &ext.UpdaterOpts{
		ErrorLog: nil,
	})

	// Start receiving updates
	err = updater.StartPolling(b, &ext.PollingOpts{
		DropPendingUpdates: true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start polling")
	}
	log.Info().
		Str("bot", b.User.Username).
		Str("plugin", pluginInfo.Name).
		Str("version", pluginInfo.Version).
		Bool("image_generation", isImageGenerationEnabled()).
		Msg("Bot started")

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Wait for interrupt signal
	<-sigChan
	log.Info().Msg("Shutting down...")
	if err := updater.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop updater")
	}
	cancel()
}

// registerComponents builds the actions the plugin enables under cfg.
func registerComponents(cfg Config) {
	components := pluginComponents(cfg)
	if len(components) == 0 {
		log.Warn().Str("plugin", pluginInfo.Name).Msg("No components enabled")
		return
	}

	var llm promptLLM
	if cfg.LLMAPIKey != "" {
		client, err := newOpenRouterLLM(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
		if err != nil {
			log.Error().Err(err).Msg("LLM unavailable, prompt optimization and focus mode disabled")
		} else {
			llm = client
		}
	}

	for _, info := range components {
		switch info.Name {
		case sendImageActionInfo.Name:
			images := newSiliconFlowClient(cfg.SFAPIKey, cfg.SFAPIURL, cfg.HTTPTimeout)
			sendImage = newSendImageAction(cfg.actionSettings(), images, llm)
			trigger = newActivator(info, llm, cfg.LLMModel)
			log.Info().Str("action", info.Name).Strs("keywords", info.ActivationKeywords).Msg("Action registered")
		}
	}
}
