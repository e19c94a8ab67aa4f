package handlers

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"fleetping-bot/internal/database/models"
	"fleetping-bot/internal/locales"
	"fleetping-bot/internal/pings"
	"fleetping-bot/pkg/discordapi"

	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// respondNow sends an immediate private reply.
func (h *InteractionHandler) respondNow(s discordapi.Session, i *discordgo.Interaction, text string) error {
	return s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// followup sends the private result of a deferred interaction.
func (h *InteractionHandler) followup(s discordapi.Session, i *discordgo.Interaction, text string) {
	_, err := s.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
		Content: text,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Printf("[Interaction:%s User:%s] Error sending follow-up: %v", i.ID, userID(i), err)
	}
}

// errorReply maps an error to the text shown to the user. handled is false
// for errors the bot loop should report.
func errorReply(localizer *i18n.Localizer, err error) (reply string, handled bool) {
	var formatErr *pings.FormatError
	if errors.As(err, &formatErr) {
		return locales.GetMessage(localizer, formatErr.MessageID, nil), true
	}

	var notFound *pings.NotFoundError
	if errors.As(err, &notFound) {
		msgID := "MsgNoSavedPing"
		switch notFound.What {
		case pings.MissingChannel:
			msgID = "MsgChannelNotFound"
		case pings.MissingMessage:
			msgID = "MsgPingMessageNotFound"
		case pings.MissingEmbed:
			msgID = "MsgNoEmbed"
		}
		return locales.GetMessage(localizer, msgID, nil), true
	}

	return locales.GetMessage(localizer, "MsgErrorGeneral", nil), false
}

// getLocalizer picks the invoking user's Discord locale, falling back to
// the guild locale and then to the bot language.
func (h *InteractionHandler) getLocalizer(i *discordgo.Interaction) *i18n.Localizer {
	prefs := make([]string, 0, 3)
	if i.Locale != "" {
		prefs = append(prefs, string(i.Locale))
	}
	if i.GuildLocale != nil && *i.GuildLocale != "" {
		prefs = append(prefs, string(*i.GuildLocale))
	}
	prefs = append(prefs, locales.GetDefaultLanguageTag().String())
	return locales.NewLocalizer(prefs...)
}

// interactionUser returns the user behind an interaction in a guild or a DM.
func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func userID(i *discordgo.Interaction) string {
	if u := interactionUser(i); u != nil {
		return u.ID
	}
	return "unknown"
}

// options indexes the top-level options of a slash command by name.
type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(i *discordgo.Interaction) options {
	data := i.ApplicationCommandData()
	m := make(options, len(data.Options))
	for _, opt := range data.Options {
		m[opt.Name] = opt
	}
	return m
}

// Text returns the trimmed string value of an option, or "".
func (o options) Text(name string) string {
	opt, ok := o[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionString {
		return ""
	}
	return strings.TrimSpace(opt.StringValue())
}

// Flag returns the value of a boolean option, or def when absent.
func (o options) Flag(name string, def bool) bool {
	opt, ok := o[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionBoolean {
		return def
	}
	return opt.BoolValue()
}

func target(i *discordgo.Interaction) pings.Target {
	return pings.Target{GuildID: i.GuildID, ChannelID: i.ChannelID}
}

// RecordUserActivity writes an audit entry. Failures are only logged.
func (h *InteractionHandler) RecordUserActivity(ctx context.Context, i *discordgo.Interaction, action string, details map[string]interface{}) {
	entry := models.ActionLog{
		UserID:    userID(i),
		Action:    action,
		ChannelID: i.ChannelID,
		Details:   details,
		Time:      time.Now(),
	}
	if u := interactionUser(i); u != nil {
		entry.Username = u.Username
	}
	if err := h.actionLogger.LogUserAction(ctx, entry); err != nil {
		log.Printf("Error logging action %s for user %s: %v", action, entry.UserID, err)
	}
}
