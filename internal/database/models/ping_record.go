package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Snowflake is a Discord identifier. It decodes from either a JSON string or
// a JSON number so files written with numeric ids still load.
type Snowflake string

// UnmarshalJSON accepts "123" and 123.
func (s *Snowflake) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Snowflake(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("snowflake must be a string or number: %w", err)
	}
	*s = Snowflake(num.String())
	return nil
}

// PingRecord is the last ping posted in a Discord channel and its Telegram mirror.
// Telegram fields are nil when the ping was not mirrored.
type PingRecord struct {
	ChannelID         string    `json:"-" bson:"_id"`
	DiscordMessageID  Snowflake `json:"discord_message_id" bson:"discord_message_id"`
	TelegramChatID    *string   `json:"tg_chat_id" bson:"tg_chat_id,omitempty"`
	TelegramTopicID   *int      `json:"tg_topic_id" bson:"tg_topic_id,omitempty"`
	TelegramMessageID *int      `json:"tg_message_id" bson:"tg_message_id,omitempty"`
	TelegramText      *string   `json:"tg_text" bson:"tg_text,omitempty"`
}

// HasTelegramMirror reports whether the record points at an editable Telegram message.
func (r *PingRecord) HasTelegramMirror() bool {
	return r.TelegramChatID != nil && *r.TelegramChatID != "" &&
		r.TelegramMessageID != nil &&
		r.TelegramText != nil && *r.TelegramText != ""
}
