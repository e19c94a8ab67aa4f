package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	telegoapi "fleetping-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Mirror posts and edits MarkdownV2 messages in Telegram chats and topics.
type Mirror struct {
	bot   telegoapi.BotAPI
	debug bool
}

// NewMirror creates a Mirror over the given bot.
func NewMirror(bot telegoapi.BotAPI, debug bool) (*Mirror, error) {
	if bot == nil {
		return nil, errors.New("telegram bot (BotAPI) instance cannot be nil")
	}
	return &Mirror{bot: bot, debug: debug}, nil
}

// ChatID converts a configured chat reference to a telego.ChatID.
// Numeric values are chat ids, anything else is treated as a @username.
func ChatID(raw string) (telego.ChatID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return telego.ChatID{}, errors.New("empty telegram chat id")
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return tu.ID(id), nil
	}
	if !strings.HasPrefix(raw, "@") {
		raw = "@" + raw
	}
	return tu.Username(raw), nil
}

// Send posts text to chatID, optionally inside a forum topic, and returns
// the new message id. Link previews are disabled.
func (m *Mirror) Send(ctx context.Context, chatID string, topicID *int, text string) (int, error) {
	logPrefix := fmt.Sprintf("[Telegram Chat:%s]", chatID)
	id, err := ChatID(chatID)
	if err != nil {
		return 0, err
	}

	params := &telego.SendMessageParams{
		ChatID:             id,
		Text:               text,
		ParseMode:          telego.ModeMarkdownV2,
		LinkPreviewOptions: &telego.LinkPreviewOptions{IsDisabled: true},
	}
	if topicID != nil {
		params.MessageThreadID = *topicID
	}

	msg, err := m.bot.SendMessage(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("failed to send message to chat %s: %w", chatID, err)
	}
	if m.debug {
		log.Printf("%s Sent message %d", logPrefix, msg.MessageID)
	}
	return msg.MessageID, nil
}

// Edit replaces the text of an existing message.
func (m *Mirror) Edit(ctx context.Context, chatID string, messageID int, text string) error {
	id, err := ChatID(chatID)
	if err != nil {
		return err
	}

	_, err = m.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:             id,
		MessageID:          messageID,
		Text:               text,
		ParseMode:          telego.ModeMarkdownV2,
		LinkPreviewOptions: &telego.LinkPreviewOptions{IsDisabled: true},
	})
	if err != nil {
		return fmt.Errorf("failed to edit message %d in chat %s: %w", messageID, chatID, err)
	}
	if m.debug {
		log.Printf("[Telegram Chat:%s] Edited message %d", chatID, messageID)
	}
	return nil
}
