package pings

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"fleetping-bot/config"
	"fleetping-bot/internal/database"
	"fleetping-bot/internal/database/models"
	"fleetping-bot/pkg/discordapi"

	"github.com/bwmarrin/discordgo"
)

// everyoneMention is prepended to every ping and reping.
const everyoneMention = "@everyone"

// TelegramMirror posts and edits mirrored pings.
type TelegramMirror interface {
	Send(ctx context.Context, chatID string, topicID *int, text string) (int, error)
	Edit(ctx context.Context, chatID string, messageID int, text string) error
}

// Router picks the Telegram chat and topic for a category.
type Router interface {
	Resolve(category string) config.TelegramDestination
}

// Target identifies the Discord channel a command runs in.
type Target struct {
	GuildID   string
	ChannelID string
}

// Service publishes pings and mutates the last ping of a channel.
type Service struct {
	session   discordapi.Session
	telegram  TelegramMirror
	store     database.PingStore
	formatter *Formatter
	router    Router
	locks     *channelLocks
	debug     bool
}

// ServiceDeps holds the dependencies required by the Service.
type ServiceDeps struct {
	Session   discordapi.Session
	Telegram  TelegramMirror
	Store     database.PingStore
	Formatter *Formatter
	Router    Router
	Debug     bool
}

// NewService creates a new Service instance from its dependencies.
func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Session == nil {
		return nil, fmt.Errorf("discord session cannot be nil")
	}
	if deps.Telegram == nil {
		return nil, fmt.Errorf("telegram mirror cannot be nil")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("ping store cannot be nil")
	}
	if deps.Formatter == nil {
		return nil, fmt.Errorf("formatter cannot be nil")
	}
	if deps.Router == nil {
		return nil, fmt.Errorf("telegram router cannot be nil")
	}
	return &Service{
		session:   deps.Session,
		telegram:  deps.Telegram,
		store:     deps.Store,
		formatter: deps.Formatter,
		router:    deps.Router,
		locks:     newChannelLocks(),
		debug:     deps.Debug,
	}, nil
}

// Formatter returns the formatter the service renders with.
func (s *Service) Formatter() *Formatter {
	return s.formatter
}

// Publish posts a new ping, adds its self-link, optionally mirrors it to
// Telegram and stores it as the channel's last ping. The record is written
// only after every send succeeded.
func (s *Service) Publish(ctx context.Context, target Target, content Content, mirror bool) (*models.PingRecord, error) {
	unlock := s.locks.Lock(target.ChannelID)
	defer unlock()

	content = content.Normalize()
	logPrefix := fmt.Sprintf("[Publish:%s Channel:%s]", content.Template.Command, target.ChannelID)

	msg, url, err := s.sendWithSelfLink(target, s.formatter.Embed(content))
	if err != nil {
		return nil, err
	}

	record := &models.PingRecord{
		ChannelID:        target.ChannelID,
		DiscordMessageID: models.Snowflake(msg.ID),
	}

	if mirror {
		dest := s.router.Resolve(string(content.Template.Category))
		text := s.formatter.TelegramWithLink(s.formatter.TelegramText(content), url)
		if err := s.mirrorNew(ctx, record, dest.ChatID, dest.TopicID, text); err != nil {
			return nil, err
		}
	}

	if err := s.store.Put(ctx, target.ChannelID, record); err != nil {
		return nil, fmt.Errorf("failed to store ping: %w", err)
	}
	if s.debug {
		log.Printf("%s Stored message %s", logPrefix, msg.ID)
	}
	return record, nil
}

// Reping reposts the channel's last ping as a new message with a fresh
// self-link. An existing Telegram mirror is reposted to the same chat and
// topic with its link replaced.
func (s *Service) Reping(ctx context.Context, target Target) (*models.PingRecord, error) {
	unlock := s.locks.Lock(target.ChannelID)
	defer unlock()

	prev, err := s.lastPing(ctx, target.ChannelID)
	if err != nil {
		return nil, err
	}
	original, err := s.fetchEmbed(target.ChannelID, string(prev.DiscordMessageID))
	if err != nil {
		return nil, err
	}

	msg, url, err := s.sendWithSelfLink(target, s.formatter.WithoutSelfLink(original))
	if err != nil {
		return nil, err
	}

	record := &models.PingRecord{
		ChannelID:        target.ChannelID,
		DiscordMessageID: models.Snowflake(msg.ID),
	}
	if prev.TelegramChatID != nil && *prev.TelegramChatID != "" && prev.TelegramText != nil && *prev.TelegramText != "" {
		text := s.formatter.TelegramReplaceLink(*prev.TelegramText, url)
		if err := s.mirrorNew(ctx, record, *prev.TelegramChatID, prev.TelegramTopicID, text); err != nil {
			return nil, err
		}
	}

	if err := s.store.Put(ctx, target.ChannelID, record); err != nil {
		return nil, fmt.Errorf("failed to store reping: %w", err)
	}
	if s.debug {
		log.Printf("[Reping Channel:%s] %s -> %s", target.ChannelID, prev.DiscordMessageID, msg.ID)
	}
	return record, nil
}

// SetStatus writes status into the last ping in place, on Discord and on the
// Telegram mirror when one exists. Repeated calls replace the status.
func (s *Service) SetStatus(ctx context.Context, target Target, status string) error {
	unlock := s.locks.Lock(target.ChannelID)
	defer unlock()

	record, err := s.lastPing(ctx, target.ChannelID)
	if err != nil {
		return err
	}
	messageID := string(record.DiscordMessageID)
	embed, err := s.fetchEmbed(target.ChannelID, messageID)
	if err != nil {
		return err
	}

	embed = s.formatter.ApplyStatusField(embed, status)
	edit := discordgo.NewMessageEdit(target.ChannelID, messageID).SetEmbeds([]*discordgo.MessageEmbed{embed})
	if _, err := s.session.ChannelMessageEditComplex(edit); err != nil {
		return s.discordFailure("edit status", target.ChannelID, err)
	}

	if !record.HasTelegramMirror() {
		return nil
	}

	text := s.formatter.TelegramApplyStatus(*record.TelegramText, status)
	if err := s.telegram.Edit(ctx, *record.TelegramChatID, *record.TelegramMessageID, text); err != nil {
		return &PlatformError{Platform: "telegram", Op: "edit status", Err: err}
	}
	record.TelegramText = &text
	if err := s.store.Put(ctx, target.ChannelID, record); err != nil {
		return fmt.Errorf("failed to store status: %w", err)
	}
	return nil
}

func (s *Service) lastPing(ctx context.Context, channelID string) (*models.PingRecord, error) {
	record, err := s.store.Get(ctx, channelID)
	if err != nil {
		if errors.Is(err, database.ErrPingNotFound) {
			return nil, &NotFoundError{What: MissingRecord, ChannelID: channelID}
		}
		return nil, fmt.Errorf("failed to load ping: %w", err)
	}
	if record.DiscordMessageID == "" {
		return nil, &NotFoundError{What: MissingRecord, ChannelID: channelID}
	}
	return record, nil
}

// fetchEmbed returns a copy of the first embed of a message.
func (s *Service) fetchEmbed(channelID, messageID string) (*discordgo.MessageEmbed, error) {
	msg, err := s.session.ChannelMessage(channelID, messageID)
	if err != nil {
		return nil, s.discordFailure("fetch message", channelID, err)
	}
	if len(msg.Embeds) == 0 || msg.Embeds[0] == nil {
		return nil, &NotFoundError{What: MissingEmbed, ChannelID: channelID}
	}
	return cloneEmbed(msg.Embeds[0]), nil
}

// sendWithSelfLink posts embed with a broadcast mention, then edits the
// message to carry a link to itself.
func (s *Service) sendWithSelfLink(target Target, embed *discordgo.MessageEmbed) (*discordgo.Message, string, error) {
	msg, err := s.session.ChannelMessageSendComplex(target.ChannelID, &discordgo.MessageSend{
		Content: everyoneMention,
		Embeds:  []*discordgo.MessageEmbed{embed},
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeEveryone},
		},
	})
	if err != nil {
		return nil, "", s.discordFailure("send", target.ChannelID, err)
	}

	url := JumpURL(target.GuildID, target.ChannelID, msg.ID)
	linked := s.formatter.WithSelfLink(cloneEmbed(embed), url)
	edit := discordgo.NewMessageEdit(target.ChannelID, msg.ID).SetEmbeds([]*discordgo.MessageEmbed{linked})
	if _, err := s.session.ChannelMessageEditComplex(edit); err != nil {
		return nil, "", s.discordFailure("add self-link", target.ChannelID, err)
	}
	return msg, url, nil
}

// mirrorNew sends a new Telegram message and records where it went.
func (s *Service) mirrorNew(ctx context.Context, record *models.PingRecord, chatID string, topicID *int, text string) error {
	messageID, err := s.telegram.Send(ctx, chatID, topicID, text)
	if err != nil {
		return &PlatformError{Platform: "telegram", Op: "send", Err: err}
	}
	chat := chatID
	record.TelegramChatID = &chat
	if topicID != nil {
		topic := *topicID
		record.TelegramTopicID = &topic
	}
	record.TelegramMessageID = &messageID
	record.TelegramText = &text
	return nil
}

// discordFailure turns unknown channel and message responses into NotFoundError.
func (s *Service) discordFailure(op, channelID string, err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return discordError(op, err)
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownChannel:
			return &NotFoundError{What: MissingChannel, ChannelID: channelID, Err: err}
		case discordgo.ErrCodeUnknownMessage:
			return &NotFoundError{What: MissingMessage, ChannelID: channelID, Err: err}
		}
	}
	if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return &NotFoundError{What: MissingMessage, ChannelID: channelID, Err: err}
	}
	return discordError(op, err)
}
