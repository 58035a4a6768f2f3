package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/PaulSonOfLars/gotgbot/v2"
)

// telegramHost delivers action output to the chat a message came from.
type telegramHost struct {
	bot    *gotgbot.Bot
	msg    *gotgbot.Message
	fileID string
}

func newTelegramHost(b *gotgbot.Bot, msg *gotgbot.Message) *telegramHost {
	return &telegramHost{bot: b, msg: msg}
}

func (h *telegramHost) SendText(_ context.Context, text string) error {
	_, err := h.msg.Reply(h.bot, text, nil)
	return err
}

func (h *telegramHost) SendImage(_ context.Context, b64 string) error {
	data, err := decodeImageBase64(b64)
	if err != nil {
		return err
	}

	resp, err := h.bot.SendPhoto(h.msg.Chat.Id, gotgbot.NamedFile{
		File:     bytes.NewReader(data),
		FileName: "image.png",
	}, &gotgbot.SendPhotoOpts{
		ReplyParameters: &gotgbot.ReplyParameters{
			MessageId: h.msg.MessageId,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send photo: %w", err)
	}
	if n := len(resp.Photo); n > 0 {
		// Largest size comes last
		h.fileID = resp.Photo[n-1].FileId
	}
	return nil
}

func (h *telegramHost) LogPrefix() string {
	return fmt.Sprintf("[chat %d msg %d]", h.msg.Chat.Id, h.msg.MessageId)
}

// decodeImageBase64 accepts plain base64 or a data URL.
func decodeImageBase64(b64 string) ([]byte, error) {
	b64 = strings.TrimSpace(b64)
	if strings.HasPrefix(b64, "data:") {
		if i := strings.Index(b64, ","); i >= 0 {
			b64 = b64[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image data is empty")
	}
	return data, nil
}
