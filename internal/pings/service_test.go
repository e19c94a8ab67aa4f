package pings

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"fleetping-bot/config"
	"fleetping-bot/internal/database"
	"fleetping-bot/internal/database/models"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

// MockSession is a mock implementing the discordapi.Session interface
type MockSession struct {
	mock.Mock
}

func (m *MockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(channelID, data)
	if msg, ok := args.Get(0).(*discordgo.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSession) ChannelMessageEditComplex(edit *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(edit)
	if msg, ok := args.Get(0).(*discordgo.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSession) ChannelMessage(channelID, messageID string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(channelID, messageID)
	if msg, ok := args.Get(0).(*discordgo.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	args := m.Called(interaction, resp)
	return args.Error(0)
}

func (m *MockSession) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(interaction, wait, data)
	if msg, ok := args.Get(0).(*discordgo.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSession) ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	args := m.Called(appID, guildID, commands)
	if cmds, ok := args.Get(0).([]*discordgo.ApplicationCommand); ok {
		return cmds, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMirror is a mock for TelegramMirror
type MockMirror struct {
	mock.Mock
}

func (m *MockMirror) Send(ctx context.Context, chatID string, topicID *int, text string) (int, error) {
	args := m.Called(ctx, chatID, topicID, text)
	return args.Int(0), args.Error(1)
}

func (m *MockMirror) Edit(ctx context.Context, chatID string, messageID int, text string) error {
	args := m.Called(ctx, chatID, messageID, text)
	return args.Error(0)
}

// --- Helpers ---

type serviceSuite struct {
	service *Service
	session *MockSession
	mirror  *MockMirror
	store   *database.FilePingStore
}

func setupService(t *testing.T) *serviceSuite {
	t.Helper()
	topic := 5
	suite := &serviceSuite{
		session: new(MockSession),
		mirror:  new(MockMirror),
		store:   database.NewFilePingStore(filepath.Join(t.TempDir(), "last_ping.json")),
	}
	svc, err := NewService(ServiceDeps{
		Session:   suite.session,
		Telegram:  suite.mirror,
		Store:     suite.store,
		Formatter: newTestFormatter(),
		Router: config.TelegramRouting{
			DefaultChatID: "-100",
			ChatIDs:       map[string]string{config.CategoryPreping: "-200"},
			TopicIDs:      map[string]int{config.CategoryPreping: topic},
		},
	})
	require.NoError(t, err)
	suite.service = svc
	return suite
}

func editEmbeds(e *discordgo.MessageEdit) []*discordgo.MessageEmbed {
	if e == nil || e.Embeds == nil {
		return nil
	}
	return *e.Embeds
}

func hasField(embed *discordgo.MessageEmbed, name string) bool {
	for _, f := range embed.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func countField(embed *discordgo.MessageEmbed, name string) int {
	n := 0
	for _, f := range embed.Fields {
		if f.Name == name {
			n++
		}
	}
	return n
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

var target = Target{GuildID: "g1", ChannelID: "c1"}

func expectSendWithLink(s *MockSession, newID string) {
	s.On("ChannelMessageSendComplex", "c1", mock.MatchedBy(func(data *discordgo.MessageSend) bool {
		return data.Content == "@everyone" &&
			data.AllowedMentions != nil &&
			len(data.AllowedMentions.Parse) == 1 &&
			data.AllowedMentions.Parse[0] == discordgo.AllowedMentionTypeEveryone &&
			len(data.Embeds) == 1 && !hasField(data.Embeds[0], "Ссылка")
	})).Return(&discordgo.Message{ID: newID, ChannelID: "c1"}, nil).Once()

	url := JumpURL("g1", "c1", newID)
	s.On("ChannelMessageEditComplex", mock.MatchedBy(func(e *discordgo.MessageEdit) bool {
		embeds := editEmbeds(e)
		if e.ID != newID || e.Channel != "c1" || len(embeds) != 1 {
			return false
		}
		last := embeds[0].Fields[len(embeds[0].Fields)-1]
		return last.Name == "Ссылка" && strings.Contains(last.Value, url) && countField(embeds[0], "Ссылка") == 1
	})).Return(&discordgo.Message{ID: newID}, nil).Once()
}

// --- Tests ---

func TestNewServiceValidatesDeps(t *testing.T) {
	_, err := NewService(ServiceDeps{})
	assert.Error(t, err)
}

func TestServicePublish(t *testing.T) {
	ctx := context.Background()

	t.Run("Mirrors and stores record", func(t *testing.T) {
		s := setupService(t)
		expectSendWithLink(s.session, "m1")
		s.mirror.On("Send", ctx, "-200", mock.MatchedBy(func(topic *int) bool { return topic != nil && *topic == 5 }),
			mock.MatchedBy(func(text string) bool {
				return strings.HasPrefix(text, "*🚨 PRE\\-PING*") &&
					strings.HasSuffix(text, "[Ссылка на пинг](https://discord\\.com/channels/g1/c1/m1)")
			})).Return(42, nil).Once()

		record, err := s.service.Publish(ctx, target, prepingContent(), true)
		require.NoError(t, err)
		assert.Equal(t, models.Snowflake("m1"), record.DiscordMessageID)
		require.True(t, record.HasTelegramMirror())
		assert.Equal(t, "-200", *record.TelegramChatID)
		assert.Equal(t, 5, *record.TelegramTopicID)
		assert.Equal(t, 42, *record.TelegramMessageID)

		stored, err := s.store.Get(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, record.DiscordMessageID, stored.DiscordMessageID)
		assert.Equal(t, *record.TelegramText, *stored.TelegramText)
		s.session.AssertExpectations(t)
		s.mirror.AssertExpectations(t)
	})

	t.Run("Second publish replaces the first", func(t *testing.T) {
		s := setupService(t)
		expectSendWithLink(s.session, "m1")
		expectSendWithLink(s.session, "m2")
		s.mirror.On("Send", ctx, "-200", mock.Anything, mock.Anything).Return(42, nil).Once()

		_, err := s.service.Publish(ctx, target, prepingContent(), true)
		require.NoError(t, err)
		_, err = s.service.Publish(ctx, target, prepingContent(), false)
		require.NoError(t, err)

		stored, err := s.store.Get(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, models.Snowflake("m2"), stored.DiscordMessageID)
		assert.Nil(t, stored.TelegramChatID)
		assert.Nil(t, stored.TelegramMessageID)
		assert.Nil(t, stored.TelegramText)
	})

	t.Run("Unrouted category uses default chat", func(t *testing.T) {
		s := setupService(t)
		expectSendWithLink(s.session, "m1")
		tpl, _ := TemplateByCommand("news")
		s.mirror.On("Send", ctx, "-100", (*int)(nil), mock.Anything).Return(7, nil).Once()

		record, err := s.service.Publish(ctx, target, Content{Template: tpl, Text: "news"}, true)
		require.NoError(t, err)
		assert.Nil(t, record.TelegramTopicID)
		s.mirror.AssertExpectations(t)
	})

	t.Run("Telegram failure keeps previous record", func(t *testing.T) {
		s := setupService(t)
		require.NoError(t, s.store.Put(ctx, "c1", &models.PingRecord{DiscordMessageID: "old"}))
		expectSendWithLink(s.session, "m1")
		s.mirror.On("Send", ctx, mock.Anything, mock.Anything, mock.Anything).Return(0, errors.New("telegram down")).Once()

		_, err := s.service.Publish(ctx, target, prepingContent(), true)
		var pe *PlatformError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, "telegram", pe.Platform)

		stored, err := s.store.Get(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, models.Snowflake("old"), stored.DiscordMessageID)
	})

	t.Run("Discord send failure stops before Telegram", func(t *testing.T) {
		s := setupService(t)
		s.session.On("ChannelMessageSendComplex", "c1", mock.Anything).Return(nil, errors.New("missing access")).Once()

		_, err := s.service.Publish(ctx, target, prepingContent(), true)
		var pe *PlatformError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, "discord", pe.Platform)
		s.mirror.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

		_, err = s.store.Get(ctx, "c1")
		assert.ErrorIs(t, err, database.ErrPingNotFound)
	})
}

func TestServiceReping(t *testing.T) {
	ctx := context.Background()
	f := newTestFormatter()
	oldURL := JumpURL("g1", "c1", "m1")
	body := f.TelegramText(prepingContent())

	original := &discordgo.Message{ID: "m1", Embeds: []*discordgo.MessageEmbed{
		f.WithSelfLink(f.Embed(prepingContent()), oldURL),
	}}

	t.Run("No record sends nothing", func(t *testing.T) {
		s := setupService(t)

		_, err := s.service.Reping(ctx, target)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, MissingRecord, nf.What)

		s.session.AssertNotCalled(t, "ChannelMessage", mock.Anything, mock.Anything)
		s.session.AssertNotCalled(t, "ChannelMessageSendComplex", mock.Anything, mock.Anything)
		s.mirror.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Reposts both sides with fresh links", func(t *testing.T) {
		s := setupService(t)
		require.NoError(t, s.store.Put(ctx, "c1", &models.PingRecord{
			DiscordMessageID:  "m1",
			TelegramChatID:    strPtr("-200"),
			TelegramTopicID:   intPtr(5),
			TelegramMessageID: intPtr(42),
			TelegramText:      strPtr(f.TelegramWithLink(body, oldURL)),
		}))
		s.session.On("ChannelMessage", "c1", "m1").Return(original, nil).Once()
		expectSendWithLink(s.session, "m2")
		wantText := f.TelegramWithLink(body, JumpURL("g1", "c1", "m2"))
		s.mirror.On("Send", ctx, "-200", mock.MatchedBy(func(topic *int) bool { return topic != nil && *topic == 5 }), wantText).Return(43, nil).Once()

		record, err := s.service.Reping(ctx, target)
		require.NoError(t, err)
		assert.Equal(t, models.Snowflake("m2"), record.DiscordMessageID)
		assert.Equal(t, 43, *record.TelegramMessageID)
		assert.Equal(t, wantText, *record.TelegramText)

		stored, err := s.store.Get(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, models.Snowflake("m2"), stored.DiscordMessageID)
		s.session.AssertExpectations(t)
		s.mirror.AssertExpectations(t)
		assert.Len(t, original.Embeds[0].Fields, 8, "fetched message must not be modified")
	})

	t.Run("Without mirror only Discord is reposted", func(t *testing.T) {
		s := setupService(t)
		require.NoError(t, s.store.Put(ctx, "c1", &models.PingRecord{DiscordMessageID: "m1"}))
		s.session.On("ChannelMessage", "c1", "m1").Return(original, nil).Once()
		expectSendWithLink(s.session, "m2")

		record, err := s.service.Reping(ctx, target)
		require.NoError(t, err)
		assert.False(t, record.HasTelegramMirror())
		s.mirror.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Deleted message is NotFound", func(t *testing.T) {
		s := setupService(t)
		require.NoError(t, s.store.Put(ctx, "c1", &models.PingRecord{DiscordMessageID: "m1"}))
		s.session.On("ChannelMessage", "c1", "m1").Return(nil, &discordgo.RESTError{
			Response: &http.Response{StatusCode: http.StatusNotFound},
			Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage, Message: "Unknown Message"},
		}).Once()

		_, err := s.service.Reping(ctx, target)
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, MissingMessage, nf.What)
		s.session.AssertNotCalled(t, "ChannelMessageSendComplex", mock.Anything, mock.Anything)
	})

	t.Run("Unknown channel is NotFound", func(t *testing.T) {
		s := setupService(t)
		require.NoError(t, s.store.Put(ctx, "c1", &models.PingRecord{DiscordMessageID: "m1"}))
		s.session.On("ChannelMessage", "c1", "m1").Return(nil, &discordgo.RESTError{
			Response: &http.Response{StatusCode: http.StatusNotFound},
			Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownChannel},
		}).Once()

		_, err := s.service.Reping(ctx, target)
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, MissingChannel, nf.What)
	})

	t.Run("Message without embed is NotFound", func(t *testing.T) {
		s := setupService(t)
		require.NoError(t, s.store.Put(ctx, "c1", &models.PingRecord{DiscordMessageID: "m1"}))
		s.session.On("ChannelMessage", "c1", "m1").Return(&discordgo.Message{ID: "m1", Content: "@everyone"}, nil).Once()

		_, err := s.service.Reping(ctx, target)
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, MissingEmbed, nf.What)
	})
}

func TestServiceSetStatus(t *testing.T) {
	ctx := context.Background()
	f := newTestFormatter()
	url := JumpURL("g1", "c1", "m1")
	linked := f.TelegramWithLink(f.TelegramText(prepingContent()), url)
	original := &discordgo.Message{ID: "m1", Embeds: []*discordgo.MessageEmbed{
		f.WithSelfLink(f.Embed(prepingContent()), url),
	}}

	statusEdit := func(status string) interface{} {
		return mock.MatchedBy(func(e *discordgo.MessageEdit) bool {
			embeds := editEmbeds(e)
			if e.ID != "m1" || len(embeds) != 1 {
				return false
			}
			last := embeds[0].Fields[len(embeds[0].Fields)-1]
			return last.Name == "Статус" && last.Value == status &&
				countField(embeds[0], "Статус") == 1 && hasField(embeds[0], "Ссылка")
		})
	}

	t.Run("Twice leaves one status block", func(t *testing.T) {
		s := setupService(t)
		require.NoError(t, s.store.Put(ctx, "c1", &models.PingRecord{
			DiscordMessageID:  "m1",
			TelegramChatID:    strPtr("-200"),
			TelegramTopicID:   intPtr(5),
			TelegramMessageID: intPtr(42),
			TelegramText:      strPtr(linked),
		}))
		s.session.On("ChannelMessage", "c1", "m1").Return(original, nil).Twice()
		s.session.On("ChannelMessageEditComplex", statusEdit("Forming")).Return(&discordgo.Message{ID: "m1"}, nil).Once()
		s.session.On("ChannelMessageEditComplex", statusEdit("Done.")).Return(&discordgo.Message{ID: "m1"}, nil).Once()
		s.mirror.On("Edit", ctx, "-200", 42, linked+"\n\n*СТАТУС:* Forming").Return(nil).Once()
		s.mirror.On("Edit", ctx, "-200", 42, linked+"\n\n*СТАТУС:* Done\\.").Return(nil).Once()

		require.NoError(t, s.service.SetStatus(ctx, target, "Forming"))
		require.NoError(t, s.service.SetStatus(ctx, target, "Done."))

		stored, err := s.store.Get(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, models.Snowflake("m1"), stored.DiscordMessageID)
		assert.Equal(t, 1, strings.Count(*stored.TelegramText, "СТАТУС"))
		assert.Equal(t, linked+"\n\n*СТАТУС:* Done\\.", *stored.TelegramText)
		s.session.AssertExpectations(t)
		s.mirror.AssertExpectations(t)
	})

	t.Run("No mirror skips Telegram", func(t *testing.T) {
		s := setupService(t)
		require.NoError(t, s.store.Put(ctx, "c1", &models.PingRecord{DiscordMessageID: "m1"}))
		s.session.On("ChannelMessage", "c1", "m1").Return(original, nil).Once()
		s.session.On("ChannelMessageEditComplex", statusEdit("Forming")).Return(&discordgo.Message{ID: "m1"}, nil).Once()

		require.NoError(t, s.service.SetStatus(ctx, target, "Forming"))
		s.mirror.AssertNotCalled(t, "Edit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		s.mirror.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("No record", func(t *testing.T) {
		s := setupService(t)
		err := s.service.SetStatus(ctx, target, "Forming")
		assert.ErrorIs(t, err, ErrNotFound)
		s.session.AssertNotCalled(t, "ChannelMessageEditComplex", mock.Anything)
	})

	t.Run("Telegram edit failure is a platform error", func(t *testing.T) {
		s := setupService(t)
		require.NoError(t, s.store.Put(ctx, "c1", &models.PingRecord{
			DiscordMessageID:  "m1",
			TelegramChatID:    strPtr("-200"),
			TelegramMessageID: intPtr(42),
			TelegramText:      strPtr(linked),
		}))
		s.session.On("ChannelMessage", "c1", "m1").Return(original, nil).Once()
		s.session.On("ChannelMessageEditComplex", mock.Anything).Return(&discordgo.Message{ID: "m1"}, nil).Once()
		s.mirror.On("Edit", ctx, "-200", 42, mock.Anything).Return(errors.New("message is not modified")).Once()

		err := s.service.SetStatus(ctx, target, "Forming")
		var pe *PlatformError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, "telegram", pe.Platform)

		stored, err := s.store.Get(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, linked, *stored.TelegramText)
	})
}
