package handlers

import (
	"context"
	"fmt"
	"log"

	"fleetping-bot/internal/locales"
	"fleetping-bot/internal/pings"

	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// pingHandler builds the handler of a ping command from its template.
func (h *InteractionHandler) pingHandler(tpl pings.Template) CommandFunc {
	return func(ctx context.Context, i *discordgo.Interaction, localizer *i18n.Localizer) (string, error) {
		return h.HandlePing(ctx, tpl, i, localizer)
	}
}

// HandlePing validates the options of a ping command and publishes it.
func (h *InteractionHandler) HandlePing(ctx context.Context, tpl pings.Template, i *discordgo.Interaction, localizer *i18n.Localizer) (string, error) {
	logPrefix := fmt.Sprintf("[Cmd:%s User:%s Channel:%s]", tpl.Command, userID(i), i.ChannelID)
	if reply, ok := h.precheck(i, localizer); !ok {
		return reply, nil
	}

	opts := optionMap(i)
	content := pings.Content{
		Template: tpl,
		Formup:   opts.Text(OptFormup),
		Doctrine: opts.Text(OptDoctrine),
		FC:       opts.Text(OptFC),
		Notes:    opts.Text(OptNotes),
		Comms:    opts.Text(OptComms),
		Room:     opts.Text(OptRoom),
		Text:     opts.Text(OptText),
	}

	if tpl.Scheduled {
		date, clock := opts.Text(OptDate), opts.Text(OptTime)
		if date == "" || clock == "" {
			return locales.GetMessage(localizer, "MsgDateTimeRequired", nil), nil
		}
		at, err := h.resolver.Resolve(date, clock)
		if err != nil {
			return "", err
		}
		content.Schedule = &at
	}
	if tpl.Layout == pings.LayoutText && content.Text == "" {
		return locales.GetMessage(localizer, "MsgTextRequired", nil), nil
	}

	mirror := opts.Flag(OptTelegram, true)
	record, err := h.service.Publish(ctx, target(i), content, mirror)
	if err != nil {
		return "", err
	}
	if h.debug {
		log.Printf("%s Published message %s (telegram: %t)", logPrefix, record.DiscordMessageID, mirror)
	}

	h.RecordUserActivity(ctx, i, ActionPublishPing, map[string]interface{}{
		"command":    tpl.Command,
		"message_id": string(record.DiscordMessageID),
		"telegram":   record.HasTelegramMirror(),
	})
	return locales.GetMessage(localizer, "MsgPingSent", nil), nil
}

// HandleReping handles the /reping command.
func (h *InteractionHandler) HandleReping(ctx context.Context, i *discordgo.Interaction, localizer *i18n.Localizer) (string, error) {
	if reply, ok := h.precheck(i, localizer); !ok {
		return reply, nil
	}

	record, err := h.service.Reping(ctx, target(i))
	if err != nil {
		return "", err
	}

	h.RecordUserActivity(ctx, i, ActionReping, map[string]interface{}{
		"message_id": string(record.DiscordMessageID),
		"telegram":   record.HasTelegramMirror(),
	})
	return locales.GetMessage(localizer, "MsgRepingSent", nil), nil
}

// HandlePingStatus handles the /ping_status command.
func (h *InteractionHandler) HandlePingStatus(ctx context.Context, i *discordgo.Interaction, localizer *i18n.Localizer) (string, error) {
	if reply, ok := h.precheck(i, localizer); !ok {
		return reply, nil
	}

	status := optionMap(i).Text(OptStatus)
	if status == "" {
		return locales.GetMessage(localizer, "MsgStatusRequired", nil), nil
	}
	if err := h.service.SetStatus(ctx, target(i), status); err != nil {
		return "", err
	}

	h.RecordUserActivity(ctx, i, ActionPingStatus, map[string]interface{}{
		"status": status,
	})
	return locales.GetMessage(localizer, "MsgStatusUpdated", nil), nil
}

// precheck rejects interactions without a channel and members lacking permission.
func (h *InteractionHandler) precheck(i *discordgo.Interaction, localizer *i18n.Localizer) (string, bool) {
	if i.ChannelID == "" {
		return locales.GetMessage(localizer, "MsgNoChannel", nil), false
	}
	if !h.checker.CanPing(i.Member) {
		log.Printf("[User:%s Channel:%s] Permission denied", userID(i), i.ChannelID)
		return locales.GetMessage(localizer, "MsgErrorRequiresPermission", nil), false
	}
	return "", true
}
