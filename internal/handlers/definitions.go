package handlers

import (
	"fleetping-bot/internal/locales"
	"fleetping-bot/internal/pings"

	"github.com/bwmarrin/discordgo"
)

// Discord locales that receive translated descriptions.
var descriptionLocales = map[discordgo.Locale]string{
	discordgo.Russian:   "ru",
	discordgo.EnglishUS: "en",
	discordgo.EnglishGB: "en",
}

// ApplicationCommands returns the slash command definitions in registration
// order. Descriptions use the bot language with per-locale translations.
func (h *InteractionHandler) ApplicationCommands() []*discordgo.ApplicationCommand {
	cmds := make([]*discordgo.ApplicationCommand, 0, len(h.commands))
	for _, tpl := range pings.Templates {
		cmds = append(cmds, &discordgo.ApplicationCommand{
			Name:                     tpl.Command,
			Description:              describe(tpl.DescKey),
			DescriptionLocalizations: localizations(tpl.DescKey),
			Options:                  pingOptions(tpl),
		})
	}

	cmds = append(cmds,
		&discordgo.ApplicationCommand{
			Name:                     CommandReping,
			Description:              describe("CmdRepingDesc"),
			DescriptionLocalizations: localizations("CmdRepingDesc"),
		},
		&discordgo.ApplicationCommand{
			Name:                     CommandPingStatus,
			Description:              describe("CmdPingStatusDesc"),
			DescriptionLocalizations: localizations("CmdPingStatusDesc"),
			Options: []*discordgo.ApplicationCommandOption{
				stringOption(OptStatus, "OptStatusDesc", true),
			},
		},
	)
	return cmds
}

// pingOptions lists required options first, as Discord demands.
func pingOptions(tpl pings.Template) []*discordgo.ApplicationCommandOption {
	var opts []*discordgo.ApplicationCommandOption
	if tpl.Scheduled {
		opts = append(opts,
			stringOption(OptDate, "OptDateDesc", true),
			stringOption(OptTime, "OptTimeDesc", true),
		)
	}

	if tpl.Layout == pings.LayoutText {
		opts = append(opts, stringOption(OptText, tpl.TextKey, true))
	} else {
		comms := stringOption(OptComms, "OptCommsDesc", false)
		for _, choice := range CommsChoices {
			comms.Choices = append(comms.Choices, &discordgo.ApplicationCommandOptionChoice{Name: choice, Value: choice})
		}
		comms.Choices = append(comms.Choices, &discordgo.ApplicationCommandOptionChoice{
			Name:              describe("ChoiceCommsNone"),
			NameLocalizations: localizationsMap("ChoiceCommsNone"),
			Value:             pings.CommsNone,
		})

		opts = append(opts,
			stringOption(OptFormup, "OptFormupDesc", false),
			stringOption(OptDoctrine, "OptDoctrineDesc", false),
			stringOption(OptFC, "OptFCDesc", false),
			comms,
			stringOption(OptRoom, "OptRoomDesc", false),
			stringOption(OptNotes, "OptNotesDesc", false),
		)
	}

	opts = append(opts, &discordgo.ApplicationCommandOption{
		Type:                     discordgo.ApplicationCommandOptionBoolean,
		Name:                     OptTelegram,
		Description:              describe("OptTelegramDesc"),
		DescriptionLocalizations: localizationsMap("OptTelegramDesc"),
	})
	return opts
}

func stringOption(name, descKey string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:                     discordgo.ApplicationCommandOptionString,
		Name:                     name,
		Description:              describe(descKey),
		DescriptionLocalizations: localizationsMap(descKey),
		Required:                 required,
	}
}

// describe renders a description in the bot language, cut to Discord's 100 character limit.
func describe(msgID string) string {
	return truncate(locales.GetMessage(locales.NewLocalizer(locales.GetDefaultLanguageTag().String()), msgID, nil), 100)
}

func localizationsMap(msgID string) map[discordgo.Locale]string {
	m := make(map[discordgo.Locale]string, len(descriptionLocales))
	for locale, lang := range descriptionLocales {
		m[locale] = truncate(locales.GetMessage(locales.NewLocalizer(lang), msgID, nil), 100)
	}
	return m
}

func localizations(msgID string) *map[discordgo.Locale]string {
	m := localizationsMap(msgID)
	return &m
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
