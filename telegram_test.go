package main

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImageBase64(t *testing.T) {
	data, err := decodeImageBase64("aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	data, err = decodeImageBase64("data:image/png;base64,aGVsbG8=\n")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = decodeImageBase64("not base64!")
	assert.Error(t, err)

	_, err = decodeImageBase64("")
	assert.Error(t, err)
}

func TestCommandArgument(t *testing.T) {
	assert.Equal(t, "a cat on the moon", commandArgument("/draw a cat on the moon"))
	assert.Equal(t, "a cat", commandArgument("/draw@my_bot   a cat  "))
	assert.Equal(t, "", commandArgument("/draw"))
	assert.Equal(t, "focus", commandArgument("/mode focus"))
}

func TestIsUserAllowed(t *testing.T) {
	saved := config
	t.Cleanup(func() { config = saved })

	config = Config{}
	assert.True(t, isUserAllowed(99))

	config = Config{AllowedUsers: []int64{1, 2}}
	assert.True(t, isUserAllowed(2))
	assert.False(t, isUserAllowed(3))
}

func TestImageCaption(t *testing.T) {
	date := time.Date(2024, 5, 1, 13, 45, 0, 0, time.UTC)

	caption := imageCaption(ImageRecord{Description: "a fox", Prompt: "a fox", Date: date})
	assert.Equal(t, "Description: a fox\nDate: 2024-05-01 13:45", caption)

	caption = imageCaption(ImageRecord{Description: "a fox", Prompt: "fox, snow", Date: date})
	assert.Equal(t, "Description: a fox\nPrompt: fox, snow\nDate: 2024-05-01 13:45", caption)

	caption = imageCaption(ImageRecord{Description: strings.Repeat("狐", 2000), Date: date})
	assert.Len(t, []rune(caption), 1024)
	assert.True(t, strings.HasSuffix(caption, "..."))
}

func TestModeDescription(t *testing.T) {
	assert.Contains(t, modeDescription(ChatModeFocus), "focus mode")
	assert.Contains(t, modeDescription(ChatModeNormal), `"draw"`)
}

func TestClaimChat(t *testing.T) {
	const chatID = int64(-100123)

	release, ok := claimChat(chatID)
	require.True(t, ok)

	_, ok = claimChat(chatID)
	assert.False(t, ok, "second claim on a busy chat must fail")

	other, ok := claimChat(chatID + 1)
	require.True(t, ok, "other chats are independent")
	other()

	release()
	again, ok := claimChat(chatID)
	require.True(t, ok, "chat can be claimed again after release")
	again()
}

func TestClaimChatConcurrent(t *testing.T) {
	const chatID = int64(4242)
	var (
		wg      sync.WaitGroup
		claimed atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := claimChat(chatID); ok {
				claimed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), claimed.Load())
	drawing.Delete(chatID)
}
