package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/rs/zerolog/log"
)

var (
	store     *chatStore
	sendImage *SendImageAction
	trigger   *activator

	// drawing holds the chats with an image generation in flight.
	drawing sync.Map
)

func isImageGenerationEnabled() bool {
	return sendImage != nil && trigger != nil
}

func isUserAllowed(userID int64) bool {
	// If no allowed users are configured, allow everyone
	if len(config.AllowedUsers) == 0 {
		return true
	}

	// Check if user is in allowed list
	for _, allowedID := range config.AllowedUsers {
		if allowedID == userID {
			return true
		}
	}
	return false
}

// sender returns the id and username of the message author, if any.
func sender(msg *gotgbot.Message) (int64, string) {
	if msg.From == nil {
		return 0, "unknown"
	}
	username := msg.From.Username
	if username == "" {
		username = "unknown"
	}
	return msg.From.Id, username
}

// commandArgument returns the text following the command word.
func commandArgument(text string) string {
	parts := strings.SplitN(strings.TrimSpace(text), " ", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func denyAccess(b *gotgbot.Bot, msg *gotgbot.Message, userID int64, username string) error {
	logMessage(userID, username, "access_denied", "User not in allowed list")
	_, err := msg.Reply(b, "Sorry, you are not authorized to use this bot.", nil)
	return err
}

// claimChat marks chatID as drawing. It fails while a previous claim on the
// same chat has not been released.
func claimChat(chatID int64) (release func(), ok bool) {
	if _, busy := drawing.LoadOrStore(chatID, struct{}{}); busy {
		return nil, false
	}
	return func() { drawing.Delete(chatID) }, true
}

// runSendImage executes the action for msg and records a delivered image.
func runSendImage(b *gotgbot.Bot, msg *gotgbot.Message, description string) error {
	userID, username := sender(msg)
	logMessage(userID, username, "image_request", description)

	if !sendImageActionInfo.Parallel {
		release, ok := claimChat(msg.Chat.Id)
		if !ok {
			_, err := msg.Reply(b, "Still drawing the previous picture, please wait.", nil)
			return err
		}
		defer release()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*config.HTTPTimeout)
	defer cancel()

	host := newTelegramHost(b, msg)
	result := sendImage.Execute(ctx, host, description)
	if !result.OK {
		logMessage(userID, username, "error", result.Message)
		return nil
	}
	logMessage(userID, username, "image_generated", result.Message)

	if host.fileID == "" || store == nil {
		return nil
	}
	if _, err := store.saveUserImage(ctx, userID, description, result.Prompt, host.fileID); err != nil {
		logMessage(userID, username, "error", fmt.Sprintf("Failed to save image: %v", err))
	}
	return nil
}

func handleMessage(b *gotgbot.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	if msg == nil || msg.Text == "" || strings.HasPrefix(msg.Text, "/") {
		return nil
	}
	userID, username := sender(msg)

	// Check if user is allowed
	if !isUserAllowed(userID) {
		return nil
	}
	if !isImageGenerationEnabled() {
		return nil
	}

	mode, err := store.getChatMode(context.Background(), msg.Chat.Id)
	if err != nil {
		logMessage(userID, username, "error", "Failed to get chat mode")
		mode = ChatModeNormal // fallback to keyword activation
	}

	description, ok := trigger.Activate(context.Background(), mode, msg.Text)
	if !ok {
		return nil
	}
	logMessage(userID, username, "activation", fmt.Sprintf("%s activated in %s mode", trigger.info.Name, mode))
	return runSendImage(b, msg, description)
}

func handleDraw(b *gotgbot.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	userID, username := sender(msg)
	if !isUserAllowed(userID) {
		return denyAccess(b, msg, userID, username)
	}
	logMessage(userID, username, "command", "/draw")

	if !isImageGenerationEnabled() {
		_, err := msg.Reply(b, "Image generation is disabled.", nil)
		return err
	}
	return runSendImage(b, msg, commandArgument(msg.Text))
}

func handleMode(b *gotgbot.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	userID, username := sender(msg)
	if !isUserAllowed(userID) {
		return denyAccess(b, msg, userID, username)
	}
	logMessage(userID, username, "command", "/mode")

	arg := ChatMode(strings.ToLower(commandArgument(msg.Text)))
	switch arg {
	case "":
		mode, err := store.getChatMode(context.Background(), msg.Chat.Id)
		if err != nil {
			logMessage(userID, username, "error", "Failed to get chat mode")
			mode = ChatModeNormal
		}
		_, err = msg.Reply(b, fmt.Sprintf("Current mode: %s. Use /mode normal or /mode focus.", mode), nil)
		return err
	case ChatModeNormal, ChatModeFocus:
		if err := store.setChatMode(context.Background(), msg.Chat.Id, arg); err != nil {
			logMessage(userID, username, "error", "Failed to set chat mode")
			_, err := msg.Reply(b, "Sorry, I could not change the mode.", nil)
			return err
		}
		logMessage(userID, username, "system", fmt.Sprintf("Switched to %s mode", arg))
		_, err := msg.Reply(b, modeDescription(arg), nil)
		return err
	default:
		_, err := msg.Reply(b, "Unknown mode. Use /mode normal or /mode focus.", nil)
		return err
	}
}

func modeDescription(mode ChatMode) string {
	if mode == ChatModeFocus {
		return "Switched to focus mode: I decide from the conversation when to draw."
	}
	keywords := strings.Join(sendImageActionInfo.ActivationKeywords, "\", \"")
	return fmt.Sprintf("Switched to normal mode: I draw when a message contains \"%s\".", keywords)
}

func handleStart(b *gotgbot.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	userID, username := sender(msg)
	if !isUserAllowed(userID) {
		return denyAccess(b, msg, userID, username)
	}

	logMessage(userID, username, "command", "/start")
	_, err := msg.Reply(b, "Hi! Describe a picture and I will draw it for you. Try /draw a cat on the moon.", nil)
	return err
}

func handleHelp(b *gotgbot.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	userID, username := sender(msg)
	if !isUserAllowed(userID) {
		return denyAccess(b, msg, userID, username)
	}

	logMessage(userID, username, "command", "/help")
	helpText := "Available commands:\n" +
		"/start - Start the bot\n" +
		"/help - Show this help message\n"

	if isImageGenerationEnabled() {
		helpText += "/draw <description> - Generate an image\n" +
			"/mode [normal|focus] - Show or change how drawing is triggered\n" +
			"/my_images - Show your generated images\n" +
			"/clear_images - Forget your generated images\n"
		helpText += fmt.Sprintf("\nIn normal mode a message containing \"%s\" starts drawing.",
			strings.Join(sendImageActionInfo.ActivationKeywords, "\", \""))
	}

	_, err := msg.Reply(b, helpText, nil)
	return err
}

func handleMyImages(b *gotgbot.Bot, ctx *ext.Context) error {
	// Skip if image generation is not enabled
	if !isImageGenerationEnabled() {
		return nil
	}
	msg := ctx.EffectiveMessage
	userID, username := sender(msg)
	if !isUserAllowed(userID) {
		return denyAccess(b, msg, userID, username)
	}

	logMessage(userID, username, "command", "/my_images")

	images, err := store.getUserImages(context.Background(), userID)
	if err != nil {
		logMessage(userID, username, "error", fmt.Sprintf("Failed to get images: %v", err))
		_, err = msg.Reply(b, "Sorry, I encountered an error retrieving your images.", nil)
		return err
	}

	if len(images) == 0 {
		_, err = msg.Reply(b, "You haven't generated any images yet. Try /draw with a description!", nil)
		return err
	}

	_, err = msg.Reply(b, fmt.Sprintf("You have generated %d images. Here they are:", len(images)), nil)
	if err != nil {
		return err
	}

	// Send each image with its description and date
	for _, img := range images {
		_, err = b.SendPhoto(msg.Chat.Id, img.FileID, &gotgbot.SendPhotoOpts{
			Caption: imageCaption(img),
		})
		if err != nil {
			logMessage(userID, username, "error", fmt.Sprintf("Failed to send image: %v", err))
			continue
		}
	}

	return nil
}

func imageCaption(img ImageRecord) string {
	caption := fmt.Sprintf("Description: %s\nDate: %s", img.Description, img.Date.Format("2006-01-02 15:04"))
	if img.Prompt != "" && img.Prompt != img.Description {
		caption = fmt.Sprintf("Description: %s\nPrompt: %s\nDate: %s", img.Description, img.Prompt, img.Date.Format("2006-01-02 15:04"))
	}
	// Telegram caps captions at 1024 characters
	if r := []rune(caption); len(r) > 1024 {
		caption = string(r[:1021]) + "..."
	}
	return caption
}

func handleClearImages(b *gotgbot.Bot, ctx *ext.Context) error {
	if !isImageGenerationEnabled() {
		return nil
	}
	msg := ctx.EffectiveMessage
	userID, username := sender(msg)
	if !isUserAllowed(userID) {
		return denyAccess(b, msg, userID, username)
	}

	logMessage(userID, username, "command", "/clear_images")
	if err := store.clearUserImages(context.Background(), userID); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to clear images")
		_, err := msg.Reply(b, "Sorry, I could not clear your images.", nil)
		return err
	}
	_, err := msg.Reply(b, "Your image history has been cleared.", nil)
	return err
}
